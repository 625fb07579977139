package chat

import (
	"encoding/json"

	"CookTalk/logger"
	"CookTalk/tools/errs"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Inbound events.
const (
	EventSendMessage    = "send_message"
	EventDeleteMessage  = "delete_message"
	EventMarkAsSeen     = "mark_as_seen"
	EventTyping         = "typing"
	EventGetOnlineUsers = "get_online_users"
)

// Outbound events.
const (
	EventNewMessage         = "new_message"
	EventMessageDeleted     = "message_deleted"
	EventMessageSeen        = "message_seen"
	EventConversationUpdate = "conversation_update"
	EventUserOnline         = "user_online"
	EventUserOffline        = "user_offline"
	EventOnlineUsers        = "online_users"
	EventMessageSent        = "message_sent"
	EventError              = "error"
)

// Frame is the wire envelope: {"event": ..., "data": {...}}.
type Frame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrap(err, "unmarshal frame")
	}
	if f.Event == "" {
		return nil, errors.New("frame without event")
	}
	return &f, nil
}

// BuildFrame marshals an envelope once for fan-out. Returns nil on
// marshal failure, which only a programming error can cause.
func BuildFrame(event string, data any) []byte {
	raw, err := json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data,omitempty"`
	}{Event: event, Data: data})
	if err != nil {
		logger.Errorf("[frames] marshal %s: %v", event, err)
		return nil
	}
	return raw
}

// ErrorFrame is what a failed handler reports back to the invoking
// connection, and to it only.
func ErrorFrame(err error) []byte {
	return BuildFrame(EventError, map[string]any{
		"code": errs.CodeOf(err),
		"msg":  errs.MsgOf(err),
	})
}

// --- inbound payloads, one struct per event ---

type SendMessagePayload struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
	Type           string `json:"type"`
	ReplyOf        string `json:"replyOf"`
}

type DeleteMessagePayload struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
}

type MarkAsSeenPayload struct {
	ConversationID string `json:"conversationId"`
}

type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

// DecodePayload decodes the weakly-typed frame data into a payload struct
// by json tag, tolerating "123" for numbers and similar client sloppiness.
func DecodePayload[T any](data map[string]any) (*T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "new decoder")
	}
	if err := dec.Decode(data); err != nil {
		return nil, errors.Wrap(err, "decode payload")
	}
	return &out, nil
}
