package chat

import (
	"context"
	"time"

	"CookTalk/logger"
	"CookTalk/module/chat/model"
)

// MessageStore is the narrow persistence surface the gateway needs;
// module/chat/store.Messages implements it against MongoDB.
type MessageStore interface {
	Create(ctx context.Context, m *model.Message) error
	Delete(ctx context.Context, messageID, requesterID string) (*model.Message, error)
	LatestIn(ctx context.Context, conversationID, excludeSender string) (*model.Message, error)
	MarkSeen(ctx context.Context, messageID, conversationID, userID string) (bool, error)
}

// MembershipResolver answers conversation membership questions.
// module/chat/store.Membership implements it against MongoDB.
type MembershipResolver interface {
	ConversationIDsForUser(ctx context.Context, userID string) ([]string, error)
	IsMember(ctx context.Context, conversationID, userID string) bool
	ConversationExists(ctx context.Context, conversationID string) (bool, error)
}

// TokenVerifier validates the handshake credential and extracts the user
// id. No side effects.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// VerifierFunc adapts a bare function to TokenVerifier.
type VerifierFunc func(token string) (string, error)

func (f VerifierFunc) Verify(token string) (string, error) { return f(token) }

// PresenceMirror is the optional cross-node presence store;
// service/storage.Mirror implements it against Redis.
type PresenceMirror interface {
	Online(ctx context.Context, userID string) error
	Offline(ctx context.Context, userID string) error
}

type ServerConf struct {
	GatewayID     string
	SendQueueSize int
	Mirror        PresenceMirror // nil disables the mirror
	Relay         RoomRelay      // nil disables cross-node fan-out
}

// Server is the connection lifecycle manager: it orchestrates
// connect -> authenticate -> join rooms -> handle events -> cleanup.
type Server struct {
	conf ServerConf

	conns      *ConnManager
	rooms      *Rooms
	disp       *Dispatcher
	verifier   TokenVerifier
	messages   MessageStore
	membership MembershipResolver
}

func NewServer(conf ServerConf, verifier TokenVerifier, messages MessageStore, membership MembershipResolver) *Server {
	if conf.GatewayID == "" {
		conf.GatewayID = "gw-1"
	}
	return &Server{
		conf:       conf,
		conns:      NewConnManager(),
		rooms:      NewRooms(conf.Relay),
		disp:       NewDispatcher(),
		verifier:   verifier,
		messages:   messages,
		membership: membership,
	}
}

func (s *Server) GatewayID() string              { return s.conf.GatewayID }
func (s *Server) ConnMgr() *ConnManager          { return s.conns }
func (s *Server) RoomSet() *Rooms                { return s.rooms }
func (s *Server) Disp() *Dispatcher              { return s.disp }
func (s *Server) Messages() MessageStore         { return s.messages }
func (s *Server) Membership() MembershipResolver { return s.membership }

// bindOnline registers the authenticated connection, upserts the presence
// entry and announces the user. Presence broadcast precedes room joins.
func (s *Server) bindOnline(c *Client) {
	s.conns.Register(c)
	s.rooms.Register(c)
	s.conns.SetOnline(c.UserID, c)

	if s.conf.Mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.conf.Mirror.Online(ctx, c.UserID); err != nil {
			logger.Warnf("[server] presence mirror online user=%s: %v", c.UserID, err)
		}
		cancel()
	}
	s.rooms.BroadcastGlobal(EventUserOnline, map[string]any{"userId": c.UserID})
}

// finishClose tears a connection down: leave every room, then drop the
// presence entry only if this connection still owns it. user_offline is
// broadcast exactly once, and only when removal occurred.
func (s *Server) finishClose(c *Client) {
	s.rooms.LeaveAll(c.ConnID)

	if s.conns.SetOffline(c.UserID, c.ConnID) {
		if s.conf.Mirror != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := s.conf.Mirror.Offline(ctx, c.UserID); err != nil {
				logger.Warnf("[server] presence mirror offline user=%s: %v", c.UserID, err)
			}
			cancel()
		}
		s.rooms.BroadcastGlobal(EventUserOffline, map[string]any{"userId": c.UserID})
	}
	s.conns.Remove(c.ConnID)
	c.Close()
}

// Shutdown force-closes every live connection.
func (s *Server) Shutdown() {
	s.conns.CloseAll()
}
