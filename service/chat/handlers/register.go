package handlers

import (
	"context"
	"time"

	"UzChat/service/chat"
)

// RegisterAll installs the handler for every client-to-server envelope
// kind. Called once at boot, before the gateway accepts connections.
func RegisterAll(g *chat.Gateway) {
	d := g.Dispatcher()
	d.Register(&AuthHandler{})
	d.Register(&MessageHandler{})
	d.Register(&TypingHandler{})
	d.Register(&ReadHandler{})
	d.Register(&CallHandler{})
}

// opCtx bounds every storage call made from the read loop.
func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
