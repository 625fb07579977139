package natsx

import (
	"strings"

	"CookTalk/logger"

	"github.com/nats-io/nats.go"
)

// Relay fans room broadcasts out across gateway nodes. Each node publishes
// every room broadcast it originates to ct.room.<conversationID> and
// replays frames published by other nodes into its local room. Frames are
// tagged with the origin gateway id so a node never re-delivers its own.
//
// Core NATS is deliberate here: relay frames are ephemeral, a node that
// was down has nothing to catch up on (clients re-sync from the store).
const subjectPrefix = "ct.room."

const headerGateway = "CT-Gateway"

type Relay struct {
	nc        *nats.Conn
	gatewayID string
	sub       *nats.Subscription
}

func NewRelay(url, gatewayID string) (*Relay, error) {
	nc, err := nats.Connect(url,
		nats.Name("cooktalk-gateway-"+gatewayID),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	return &Relay{nc: nc, gatewayID: gatewayID}, nil
}

// Publish ships one room broadcast to the other nodes.
func (r *Relay) Publish(conversationID string, payload []byte) error {
	if r == nil || r.nc == nil {
		return nil
	}
	msg := nats.NewMsg(subjectPrefix + conversationID)
	msg.Header.Set(headerGateway, r.gatewayID)
	msg.Data = payload
	return r.nc.PublishMsg(msg)
}

// Subscribe starts replaying remote frames; fn receives the conversation
// id and the raw frame. Frames originated by this node are dropped.
func (r *Relay) Subscribe(fn func(conversationID string, payload []byte)) error {
	if r == nil || r.nc == nil {
		return nil
	}
	sub, err := r.nc.Subscribe(subjectPrefix+">", func(m *nats.Msg) {
		if m.Header.Get(headerGateway) == r.gatewayID {
			return
		}
		convID := strings.TrimPrefix(m.Subject, subjectPrefix)
		if convID == "" {
			logger.Warnf("[relay] frame without conversation id, subject=%s", m.Subject)
			return
		}
		fn(convID, m.Data)
	})
	if err != nil {
		return err
	}
	r.sub = sub
	return nil
}

func (r *Relay) Close() {
	if r == nil || r.nc == nil {
		return
	}
	if r.sub != nil {
		_ = r.sub.Unsubscribe()
	}
	r.nc.Close()
}
