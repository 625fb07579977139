package chat

import (
	"sync"

	"CookTalk/logger"
)

// RoomRelay ships room broadcasts to other gateway nodes. Nil-able; a
// single-node deployment runs without one.
type RoomRelay interface {
	Publish(conversationID string, payload []byte) error
}

// Rooms owns the conversation-group to connection-set mapping and performs
// fan-out. Mutations happen only on the connection lifecycle path; critical
// sections never do I/O (delivery is the non-blocking Enqueue).
type Rooms struct {
	mu     sync.RWMutex
	byRoom map[string]map[string]*Client  // convID -> connID -> client
	byConn map[string]map[string]struct{} // connID -> joined convIDs
	all    map[string]*Client             // connID -> client, for global fan-out

	relay RoomRelay
}

func NewRooms(relay RoomRelay) *Rooms {
	return &Rooms{
		byRoom: make(map[string]map[string]*Client),
		byConn: make(map[string]map[string]struct{}),
		all:    make(map[string]*Client),
		relay:  relay,
	}
}

// Register makes the connection reachable by global broadcasts.
func (r *Rooms) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all[c.ConnID] = c
}

// Join adds the connection to a conversation group. Idempotent.
func (r *Rooms) Join(c *Client, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room := r.byRoom[conversationID]
	if room == nil {
		room = make(map[string]*Client)
		r.byRoom[conversationID] = room
	}
	room[c.ConnID] = c

	joined := r.byConn[c.ConnID]
	if joined == nil {
		joined = make(map[string]struct{})
		r.byConn[c.ConnID] = joined
	}
	joined[conversationID] = struct{}{}
}

// Leave removes the connection from a group. No-op if absent.
func (r *Rooms) Leave(connID, conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, conversationID)
}

func (r *Rooms) leaveLocked(connID, conversationID string) {
	if room := r.byRoom[conversationID]; room != nil {
		delete(room, connID)
		if len(room) == 0 {
			delete(r.byRoom, conversationID)
		}
	}
	if joined := r.byConn[connID]; joined != nil {
		delete(joined, conversationID)
		if len(joined) == 0 {
			delete(r.byConn, connID)
		}
	}
}

// LeaveAll removes the connection from every group it joined and from the
// global set. O(groups joined), not O(all groups).
func (r *Rooms) LeaveAll(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for convID := range r.byConn[connID] {
		r.leaveLocked(connID, convID)
	}
	delete(r.byConn, connID)
	delete(r.all, connID)
}

// Members snapshots the connections currently joined to a group.
func (r *Rooms) Members(conversationID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.byRoom[conversationID]
	if len(room) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(room))
	for _, c := range room {
		out = append(out, c)
	}
	return out
}

// JoinedRooms lists the conversation ids the connection belongs to.
func (r *Rooms) JoinedRooms(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	joined := r.byConn[connID]
	out := make([]string, 0, len(joined))
	for convID := range joined {
		out = append(out, convID)
	}
	return out
}

// Broadcast delivers the event to every connection joined to the group,
// except excludeConnID when non-empty. The frame is marshaled once. The
// relay receives a copy so other nodes can replay it into their rooms.
func (r *Rooms) Broadcast(conversationID, event string, data any, excludeConnID string) {
	payload := BuildFrame(event, data)
	if payload == nil {
		return
	}
	r.deliverLocal(conversationID, payload, excludeConnID)
	if r.relay != nil {
		if err := r.relay.Publish(conversationID, payload); err != nil {
			logger.Warnf("[rooms] relay publish conv=%s event=%s: %v", conversationID, event, err)
		}
	}
}

// DeliverRemote replays a frame that another node relayed to us.
func (r *Rooms) DeliverRemote(conversationID string, payload []byte) {
	r.deliverLocal(conversationID, payload, "")
}

func (r *Rooms) deliverLocal(conversationID string, payload []byte, excludeConnID string) {
	r.mu.RLock()
	room := r.byRoom[conversationID]
	conns := make([]*Client, 0, len(room))
	for _, c := range room {
		if excludeConnID != "" && c.ConnID == excludeConnID {
			continue
		}
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		if !c.Enqueue(payload) {
			logger.Infof("[rooms] drop frame for slow conn=%s user=%s conv=%s", c.ConnID, c.UserID, conversationID)
		}
	}
}

// BroadcastGlobal delivers to every registered connection regardless of
// group membership. Used only for user_online/user_offline presence.
func (r *Rooms) BroadcastGlobal(event string, data any) {
	payload := BuildFrame(event, data)
	if payload == nil {
		return
	}
	r.mu.RLock()
	conns := make([]*Client, 0, len(r.all))
	for _, c := range r.all {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		if !c.Enqueue(payload) {
			logger.Infof("[rooms] drop global frame for slow conn=%s user=%s", c.ConnID, c.UserID)
		}
	}
}
