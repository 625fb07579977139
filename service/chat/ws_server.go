package chat

import (
	"context"
	"net"
	"net/http"
	"time"

	"CookTalk/logger"
	"CookTalk/tools/ids"
	"CookTalk/tools/safe"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS runs one connection through its whole lifecycle:
// Connecting -> Authenticated -> Joined -> Closed. The bearer token is the
// "auth" field of the connection-establishment payload. Handshake failures
// close the socket with no frame; the client observes only the disconnect.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade failed: %v", err)
		return
	}

	// Connecting -> Authenticated. Fail-closed: no frame back, just close.
	userID, err := s.verifier.Verify(c.Query("auth"))
	if err != nil {
		logger.Infof("[ws] handshake rejected from %s: %v", ws.RemoteAddr(), err)
		_ = ws.Close()
		return
	}

	client := NewClient(ids.GenerateString(), userID, ws, s.conf.SendQueueSize)
	s.bindOnline(client)
	defer s.finishClose(client)

	// Authenticated -> Joined. Without membership we cannot safely join
	// any group, so a resolver failure is fatal to the connection.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	convIDs, err := s.membership.ConversationIDsForUser(ctx, userID)
	cancel()
	if err != nil {
		logger.Errorf("[ws] membership load user=%s: %v", userID, err)
		return
	}
	for _, convID := range convIDs {
		s.rooms.Join(client, convID)
	}
	logger.Infof("[ws] joined user=%s conn=%s rooms=%d", userID, client.ConnID, len(convIDs))

	safe.Go(client.writePump)
	s.readLoop(client)
}

// readLoop is the Joined steady state: one goroutine reads frames in
// arrival order and dispatches them. Handler errors are reported back to
// this connection only; they never become a broadcast and never kill the
// connection.
func (s *Server) readLoop(c *Client) {
	ws := c.WS
	ws.SetReadLimit(maxMsgSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed conn=%s user=%s", c.ConnID, c.UserID)
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout conn=%s user=%s", c.ConnID, c.UserID)
			} else {
				logger.Infof("[ws] read err conn=%s user=%s: %v", c.ConnID, c.UserID, err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, err := ParseFrame(raw)
		if err != nil {
			sample := raw
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[ws] bad frame conn=%s err=%v sample=%q", c.ConnID, err, sample)
			continue
		}

		if err := s.disp.Dispatch(context.Background(), c, frame); err != nil {
			logger.Infof("[ws] handler event=%s conn=%s user=%s: %v", frame.Event, c.ConnID, c.UserID, err)
			c.Enqueue(ErrorFrame(err))
		}
	}
}
