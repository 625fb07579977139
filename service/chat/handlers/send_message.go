package handlers

import (
	"context"

	"CookTalk/module/chat/model"
	"CookTalk/service/chat"
	"CookTalk/tools/errs"

	"github.com/pkg/errors"
)

// SendMessageHandler persists a message and fans it out. The sender must
// be a member of an existing conversation; a rejected send persists
// nothing and broadcasts nothing.
type SendMessageHandler struct{ s *chat.Server }

func NewSendMessageHandler(s *chat.Server) chat.Handler { return &SendMessageHandler{s: s} }

func (h *SendMessageHandler) Event() string { return chat.EventSendMessage }

func (h *SendMessageHandler) Handle(ctx context.Context, c *chat.Client, data map[string]any) error {
	p, err := chat.DecodePayload[chat.SendMessagePayload](data)
	if err != nil {
		return errors.Wrap(err, "send_message payload")
	}
	if p.ConversationID == "" || p.Content == "" {
		return errs.ErrNotFound.WithDetail("conversationId and content are required")
	}

	exists, err := h.s.Membership().ConversationExists(ctx, p.ConversationID)
	if err != nil {
		return err
	}
	if !exists {
		return errs.ErrNotFound.WithDetail("conversation " + p.ConversationID)
	}
	if !h.s.Membership().IsMember(ctx, p.ConversationID, c.UserID) {
		return errs.ErrUnauthorized
	}

	msg := &model.Message{
		ConversationID: p.ConversationID,
		SenderID:       c.UserID,
		Content:        p.Content,
		Type:           p.Type,
		ReplyOf:        p.ReplyOf,
	}
	if err := h.s.Messages().Create(ctx, msg); err != nil {
		return err
	}

	// The sender's UI confirms via the room broadcast too, so no exclusion
	// here; the lighter conversation_update skips the sender so the open
	// thread is not re-rendered redundantly.
	rooms := h.s.RoomSet()
	rooms.Broadcast(msg.ConversationID, chat.EventNewMessage, msg, "")
	rooms.Broadcast(msg.ConversationID, chat.EventConversationUpdate,
		map[string]any{"conversationId": msg.ConversationID}, c.ConnID)

	c.Enqueue(chat.BuildFrame(chat.EventMessageSent, msg))
	return nil
}
