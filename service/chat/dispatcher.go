package chat

import (
	"context"

	"github.com/pkg/errors"
)

// Handler processes one inbound event type. Handlers run on the owning
// connection's read goroutine, so events from one client are handled in
// the order received.
type Handler interface {
	Event() string
	Handle(ctx context.Context, c *Client, data map[string]any) error
}

type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Event()] = h }

func (d *Dispatcher) Dispatch(ctx context.Context, c *Client, f *Frame) error {
	h, ok := d.handlers[f.Event]
	if !ok {
		return errors.Errorf("no handler for event=%s", f.Event)
	}
	return h.Handle(ctx, c, f.Data)
}
