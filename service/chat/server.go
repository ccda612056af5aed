package chat

import (
	"context"
	"time"

	chatmodel "UzChat/module/chat/model"
	usermodel "UzChat/module/user/model"
)

// Store is the slice of the persistence collaborator the gateway needs.
// *storage.PgStore satisfies it.
type Store interface {
	GetUser(ctx context.Context, id string) (*usermodel.User, error)
	GetChatParticipants(ctx context.Context, chatID int64) ([]*usermodel.User, error)
	CreateMessage(ctx context.Context, chatID int64, senderID, content string) (*chatmodel.Message, error)
	MarkMessageAsRead(ctx context.Context, messageID int64, userID string) error
	UpdateUserOnlineStatus(ctx context.Context, userID string, online bool) error
}

// Config tunes the per-connection lifecycle.
type Config struct {
	PingInterval  time.Duration // keepalive ping period
	PongWait      time.Duration // read deadline window, refreshed by pongs
	WriteWait     time.Duration // per-write deadline
	AuthWait      time.Duration // how long an unauthenticated connection may idle
	SendQueueSize int
	FanoutQueue   int
}

func (c *Config) norm() {
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 75 * time.Second
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.AuthWait <= 0 {
		c.AuthWait = 60 * time.Second
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = 256
	}
	if c.FanoutQueue <= 0 {
		c.FanoutQueue = 1024
	}
}

// Gateway wires the registry, presence tracker, router and dispatcher
// behind the websocket endpoint.
type Gateway struct {
	conf     Config
	store    Store
	reg      *Registry
	fanout   *Fanout
	presence *Presence
	router   *Router
	disp     *Dispatcher
}

func NewGateway(store Store, conf Config) *Gateway {
	conf.norm()
	reg := NewRegistry()
	fanout := NewFanout(conf.FanoutQueue)
	g := &Gateway{
		conf:     conf,
		store:    store,
		reg:      reg,
		fanout:   fanout,
		presence: NewPresence(store, reg, fanout),
		router:   NewRouter(store, reg, fanout),
		disp:     NewDispatcher(),
	}
	return g
}

func (g *Gateway) Registry() *Registry     { return g.reg }
func (g *Gateway) StoreRef() Store         { return g.store }
func (g *Gateway) Presence() *Presence     { return g.presence }
func (g *Gateway) Router() *Router         { return g.router }
func (g *Gateway) Dispatcher() *Dispatcher { return g.disp }
func (g *Gateway) Conf() Config            { return g.conf }

// DispatchFrame routes one parsed envelope.
func (g *Gateway) DispatchFrame(env *InboundEnvelope, c *Client) error {
	return g.disp.Dispatch(&Context{G: g}, env, c)
}

// SendToUser lets the HTTP layer push a server-constructed envelope to a
// specific user, so REST-created messages and socket-created messages
// converge on the same delivery path.
func (g *Gateway) SendToUser(userID, kind string, payload any) bool {
	return g.router.DeliverToUser(userID, kind, payload)
}

// IsOnline is exposed for the HTTP layer (admin views).
func (g *Gateway) IsOnline(userID string) bool {
	return g.reg.IsOnline(userID)
}
