package chat

import (
	"sync"
	"time"

	"CookTalk/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	maxMsgSize = 64 << 10
)

// Client is one live connection to the gateway. UserID is bound once,
// during the handshake, and never changes afterwards. All writes to the
// socket go through Send and are drained by a single writer goroutine, so
// fan-out never blocks on a slow peer.
type Client struct {
	ConnID string
	UserID string
	WS     *websocket.Conn
	Send   chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(connID, userID string, ws *websocket.Conn, sendQueueSize int) *Client {
	if sendQueueSize <= 0 {
		sendQueueSize = 256
	}
	return &Client{
		ConnID: connID,
		UserID: userID,
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// Enqueue queues a frame for delivery without blocking. A full queue means
// a slow client; the frame is dropped and the caller may count it.
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// Close releases the connection. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.WS != nil {
			_ = c.WS.Close()
		}
	})
}

func (c *Client) Done() <-chan struct{} { return c.done }

// writePump is the single writer for the socket: it drains Send and keeps
// the connection alive with pings. Runs until Close or a write error.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.Send:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Infof("[ws] write failed conn=%s user=%s: %v", c.ConnID, c.UserID, err)
				return
			}
		case <-ticker.C:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WS.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
