package handlers

import (
	"context"

	"CookTalk/service/chat"
	"CookTalk/tools/errs"

	"github.com/pkg/errors"
)

// DeleteMessageHandler deletes a message and notifies its conversation.
// Only the sender may delete. The broadcast targets the conversation id
// the store returns, which wins over the caller-supplied one.
type DeleteMessageHandler struct{ s *chat.Server }

func NewDeleteMessageHandler(s *chat.Server) chat.Handler { return &DeleteMessageHandler{s: s} }

func (h *DeleteMessageHandler) Event() string { return chat.EventDeleteMessage }

func (h *DeleteMessageHandler) Handle(ctx context.Context, c *chat.Client, data map[string]any) error {
	p, err := chat.DecodePayload[chat.DeleteMessagePayload](data)
	if err != nil {
		return errors.Wrap(err, "delete_message payload")
	}
	if p.MessageID == "" {
		return errs.ErrNotFound.WithDetail("messageId is required")
	}

	msg, err := h.s.Messages().Delete(ctx, p.MessageID, c.UserID)
	if err != nil {
		return err
	}

	rooms := h.s.RoomSet()
	rooms.Broadcast(msg.ConversationID, chat.EventMessageDeleted, map[string]any{
		"messageId":      msg.ID,
		"conversationId": msg.ConversationID,
	}, "")
	rooms.Broadcast(msg.ConversationID, chat.EventConversationUpdate,
		map[string]any{"conversationId": msg.ConversationID}, c.ConnID)
	return nil
}
