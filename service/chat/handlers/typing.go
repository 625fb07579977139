package handlers

import (
	"context"

	"CookTalk/service/chat"

	"github.com/pkg/errors"
)

// TypingHandler relays typing indicators. Highest-frequency event: no
// persistence, no store calls, nothing that can queue it behind I/O. The
// sender's own connection is excluded from the broadcast.
type TypingHandler struct{ s *chat.Server }

func NewTypingHandler(s *chat.Server) chat.Handler { return &TypingHandler{s: s} }

func (h *TypingHandler) Event() string { return chat.EventTyping }

func (h *TypingHandler) Handle(_ context.Context, c *chat.Client, data map[string]any) error {
	p, err := chat.DecodePayload[chat.TypingPayload](data)
	if err != nil {
		return errors.Wrap(err, "typing payload")
	}
	if p.ConversationID == "" {
		return nil
	}
	h.s.RoomSet().Broadcast(p.ConversationID, chat.EventTyping, map[string]any{
		"userId":   c.UserID,
		"isTyping": p.IsTyping,
	}, c.ConnID)
	return nil
}
