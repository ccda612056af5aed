package chat

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one live connection to the gateway. It is created unbound at
// accept time; the auth frame fills the single mutable identity slot.
// The websocket is written to only by the client's write pump, which
// consumes Send; everything else enqueues.
type Client struct {
	ConnID string          // unique within this process
	WS     *websocket.Conn // nil in unit tests
	Send   chan []byte     // outbound queue, consumed by a single writer goroutine

	mu     sync.Mutex
	userID string

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient creates a new unbound client session.
func NewClient(connID string, ws *websocket.Conn, sendQueueSize int) *Client {
	return &Client{
		ConnID: connID,
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// Bind records the authenticated user for this connection.
func (c *Client) Bind(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()
}

// UserID returns the bound user, or "" before auth.
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// Enqueue pushes a frame onto the send queue without blocking.
// A full queue means the peer is not draining; the client is killed so the
// lifecycle teardown runs, and false is returned.
func (c *Client) Enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- data:
		return true
	default:
		c.Kill()
		return false
	}
}

// Kill marks the connection dead. Idempotent; safe from any goroutine.
// The read and write pumps observe Done and run the teardown path.
func (c *Client) Kill() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Done is closed once the connection is marked dead.
func (c *Client) Done() <-chan struct{} { return c.done }
