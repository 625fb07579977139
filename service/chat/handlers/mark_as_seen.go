package handlers

import (
	"context"

	"CookTalk/service/chat"
	"CookTalk/tools/errs"

	pkgerrors "github.com/pkg/errors"
)

// MarkAsSeenHandler records that the caller has seen the conversation's
// latest message from another member. Re-marking is idempotent: the
// message_seen broadcast can repeat but storage state does not change.
// An empty conversation (nothing to mark) is a quiet no-op.
type MarkAsSeenHandler struct{ s *chat.Server }

func NewMarkAsSeenHandler(s *chat.Server) chat.Handler { return &MarkAsSeenHandler{s: s} }

func (h *MarkAsSeenHandler) Event() string { return chat.EventMarkAsSeen }

func (h *MarkAsSeenHandler) Handle(ctx context.Context, c *chat.Client, data map[string]any) error {
	p, err := chat.DecodePayload[chat.MarkAsSeenPayload](data)
	if err != nil {
		return pkgerrors.Wrap(err, "mark_as_seen payload")
	}
	if p.ConversationID == "" {
		return errs.ErrNotFound.WithDetail("conversationId is required")
	}
	if !h.s.Membership().IsMember(ctx, p.ConversationID, c.UserID) {
		return errs.ErrUnauthorized
	}

	latest, err := h.s.Messages().LatestIn(ctx, p.ConversationID, c.UserID)
	if err != nil {
		if errs.ErrNotFound.Is(err) {
			return nil
		}
		return err
	}

	if _, err := h.s.Messages().MarkSeen(ctx, latest.ID, p.ConversationID, c.UserID); err != nil {
		return err
	}

	h.s.RoomSet().Broadcast(p.ConversationID, chat.EventMessageSeen, map[string]any{
		"conversationId": p.ConversationID,
		"userId":         c.UserID,
		"seenMessages":   []string{latest.ID},
	}, "")
	return nil
}
