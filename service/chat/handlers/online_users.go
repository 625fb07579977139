package handlers

import (
	"context"

	"CookTalk/service/chat"
)

// OnlineUsersHandler replies with a snapshot of the presence table,
// directly to the caller. Nothing is broadcast.
type OnlineUsersHandler struct{ s *chat.Server }

func NewOnlineUsersHandler(s *chat.Server) chat.Handler { return &OnlineUsersHandler{s: s} }

func (h *OnlineUsersHandler) Event() string { return chat.EventGetOnlineUsers }

func (h *OnlineUsersHandler) Handle(_ context.Context, c *chat.Client, _ map[string]any) error {
	c.Enqueue(chat.BuildFrame(chat.EventOnlineUsers, map[string]any{
		"onlineUsers": h.s.ConnMgr().ListOnlineUserIDs(),
	}))
	return nil
}

// RegisterAll wires every steady-state event handler into the dispatcher.
func RegisterAll(s *chat.Server) {
	d := s.Disp()
	d.Register(NewSendMessageHandler(s))
	d.Register(NewDeleteMessageHandler(s))
	d.Register(NewMarkAsSeenHandler(s))
	d.Register(NewTypingHandler(s))
	d.Register(NewOnlineUsersHandler(s))
}
