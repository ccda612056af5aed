package chat

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"UzChat/logger"
	"UzChat/tools/ids"
	"UzChat/tools/safe"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS owns the whole connection lifecycle: upgrade, read loop, write
// pump with keepalive pings, and idempotent teardown (unbind + presence
// demotion) however the connection dies.
func (g *Gateway) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[WS] upgrade error: %v", err)
		return
	}

	cl := NewClient(ids.GenerateString(), ws, g.conf.SendQueueSize)
	logger.Infof("[WS] connected conn=%s remote=%s", cl.ConnID, ws.RemoteAddr())

	// An unauthenticated connection gets one AuthWait window from accept
	// time; the auth frame must land inside it. Pongs extend the deadline
	// only once the connection is bound, so answering keepalives does not
	// let an unbound client idle past the window.
	_ = ws.SetReadDeadline(time.Now().Add(g.conf.AuthWait))
	ws.SetPongHandler(func(string) error {
		if cl.UserID() != "" {
			_ = ws.SetReadDeadline(time.Now().Add(g.conf.PongWait))
		}
		return nil
	})

	writerDone := make(chan struct{})
	safe.SafeGo(func() { g.writePump(cl, writerDone) })

	g.readLoop(cl)

	// readLoop returned: the connection is dead one way or another.
	g.teardown(cl)
	<-writerDone
}

func (g *Gateway) readLoop(cl *Client) {
	ws := cl.WS
	for {
		select {
		case <-cl.Done():
			return
		default:
		}

		mt, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed conn=%s", cl.ConnID)
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Infof("[WS] read timeout conn=%s user=%s", cl.ConnID, cl.UserID())
			} else {
				logger.Infof("[WS] read err conn=%s err=%v", cl.ConnID, err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		env, perr := ParseEnvelope(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[WS] bad frame conn=%s err=%v sample=%q", cl.ConnID, perr, sample)
			continue
		}

		if err := g.DispatchFrame(env, cl); err != nil {
			// per-event failure: log and keep the connection alive
			logger.Errorf("[WS] handle type=%s conn=%s user=%s err=%v", env.Type, cl.ConnID, cl.UserID(), err)
		}

		// auth may have just bound the connection
		if cl.UserID() != "" {
			_ = ws.SetReadDeadline(time.Now().Add(g.conf.PongWait))
		}
	}
}

// writePump is the only goroutine allowed to write to the socket. It
// drains the send queue, emits keepalive pings, and sends the close frame
// on the way out.
func (g *Gateway) writePump(cl *Client, done chan struct{}) {
	ws := cl.WS
	ticker := time.NewTicker(g.conf.PingInterval)
	defer func() {
		ticker.Stop()
		_ = ws.SetWriteDeadline(time.Now().Add(g.conf.WriteWait))
		_ = ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = ws.Close()
		close(done)
	}()

	for {
		select {
		case <-cl.Done():
			return

		case payload := <-cl.Send:
			_ = ws.SetWriteDeadline(time.Now().Add(g.conf.WriteWait))
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Infof("[WS] write err conn=%s user=%s err=%v", cl.ConnID, cl.UserID(), err)
				cl.Kill()
				return
			}

		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, []byte("ping"),
				time.Now().Add(g.conf.WriteWait)); err != nil {
				logger.Infof("[WS] ping err conn=%s user=%s err=%v", cl.ConnID, cl.UserID(), err)
				cl.Kill()
				return
			}
		}
	}
}

// teardown runs at most once per connection. Closing a never-bound or
// already-superseded connection must not evict anyone else's binding: the
// registry only unbinds when this client is still the registered one, and
// presence is demoted only in that case.
func (g *Gateway) teardown(cl *Client) {
	cl.Kill()
	user := cl.UserID()
	if user == "" {
		logger.Infof("[WS] closed conn=%s (never bound)", cl.ConnID)
		return
	}
	if g.reg.Unbind(user, cl) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		g.presence.MarkOffline(ctx, user)
		cancel()
		logger.Infof("[WS] closed conn=%s user=%s (offline)", cl.ConnID, user)
	} else {
		logger.Infof("[WS] closed conn=%s user=%s (superseded)", cl.ConnID, user)
	}
}
