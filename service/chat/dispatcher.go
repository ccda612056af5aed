package chat

import (
	"UzChat/logger"
)

// Handler processes one envelope kind.
type Handler interface {
	Type() string
	Handle(ctx *Context, env *InboundEnvelope, c *Client) error
}

// Context is what handlers get to reach the gateway.
type Context struct {
	G *Gateway
}

type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Type()] = h }

// Dispatch routes env to its handler. An unrecognized kind is logged and
// dropped; it is not an error to the caller (the read loop must survive it).
func (d *Dispatcher) Dispatch(ctx *Context, env *InboundEnvelope, c *Client) error {
	h, ok := d.handlers[env.Type]
	if !ok {
		logger.Infof("[dispatch] no handler for type=%q conn=%s", env.Type, c.ConnID)
		return nil
	}
	return h.Handle(ctx, env, c)
}

func (d *Dispatcher) GetHandler(kind string) Handler {
	h, ok := d.handlers[kind]
	if !ok {
		return nil
	}
	return h
}
