package chat

import (
	"sync"
)

// ConnManager owns the presence table: user id -> the single tracked live
// connection. A user opening a second session takes the entry over (last
// connection wins); the guarded SetOffline keeps a late disconnect of the
// older session from clobbering the newer entry.
type ConnManager struct {
	mu     sync.RWMutex
	byConn map[string]*Client // connID -> client, every registered connection
	online map[string]*Client // userID -> tracked connection
}

func NewConnManager() *ConnManager {
	return &ConnManager{
		byConn: make(map[string]*Client),
		online: make(map[string]*Client),
	}
}

// Register indexes the connection by its id. Called once per connection
// after the handshake authenticates it.
func (m *ConnManager) Register(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byConn[c.ConnID] = c
}

// SetOnline upserts the presence entry unconditionally and returns the
// connection it replaced, if any.
func (m *ConnManager) SetOnline(userID string, c *Client) (replaced *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.online[userID]
	m.online[userID] = c
	if prev != nil && prev.ConnID == c.ConnID {
		return nil
	}
	return prev
}

// SetOffline removes the presence entry only while it still points at the
// disconnecting connection. Reports whether removal actually occurred;
// callers broadcast user_offline only on true.
func (m *ConnManager) SetOffline(userID, connID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.online[userID]
	if !ok || cur.ConnID != connID {
		return false
	}
	delete(m.online, userID)
	return true
}

// Remove drops the connection from the byConn index. Does not touch the
// presence entry; that is SetOffline's job.
func (m *ConnManager) Remove(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byConn, connID)
}

func (m *ConnManager) Get(connID string) (*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.byConn[connID]
	return c, ok
}

// GetOnline returns the tracked connection for a user.
func (m *ConnManager) GetOnline(userID string) (*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.online[userID]
	return c, ok
}

// ListOnlineUserIDs snapshots the presence table.
func (m *ConnManager) ListOnlineUserIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.online))
	for uid := range m.online {
		out = append(out, uid)
	}
	return out
}

// CloseAll force-closes every registered connection. Shutdown path.
func (m *ConnManager) CloseAll() {
	m.mu.Lock()
	conns := make([]*Client, 0, len(m.byConn))
	for _, c := range m.byConn {
		conns = append(conns, c)
	}
	m.byConn = make(map[string]*Client)
	m.online = make(map[string]*Client)
	m.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
