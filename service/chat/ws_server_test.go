package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	chatmodel "UzChat/module/chat/model"
	usermodel "UzChat/module/user/model"
	"UzChat/service/storage"
)

func newWSFixture(t *testing.T, userIDs ...string) (*httptest.Server, *Gateway, *storage.MemStore) {
	t.Helper()
	return newWSFixtureConf(t, Config{PingInterval: time.Second, PongWait: 3 * time.Second}, userIDs...)
}

func newWSFixtureConf(t *testing.T, conf Config, userIDs ...string) (*httptest.Server, *Gateway, *storage.MemStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemStore()
	for _, id := range userIDs {
		if _, err := store.CreateUser(context.Background(), &usermodel.User{ID: id, Username: id, Nickname: id}); err != nil {
			t.Fatalf("seed user %s: %v", id, err)
		}
	}

	gw := NewGateway(store, conf)
	gw.Dispatcher().Register(&wsTestAuthHandler{})
	gw.Dispatcher().Register(&wsTestMessageHandler{})

	engine := gin.New()
	engine.GET("/ws", gw.HandleWS)
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv, gw, store
}

// Minimal auth/message handlers for the lifecycle tests: the full ones
// live in the handlers package, which cannot be imported from here.
type wsTestAuthHandler struct{}

func (wsTestAuthHandler) Type() string { return EnvAuth }
func (wsTestAuthHandler) Handle(ctx *Context, env *InboundEnvelope, c *Client) error {
	p, err := DecodeAuth(env)
	if err != nil {
		return err
	}
	c.Bind(p.UserID)
	ctx.G.Registry().Bind(p.UserID, c)
	ctx.G.Presence().MarkOnline(context.Background(), p.UserID)
	return nil
}

type wsTestMessageHandler struct{}

func (wsTestMessageHandler) Type() string { return EnvMessage }
func (wsTestMessageHandler) Handle(ctx *Context, env *InboundEnvelope, c *Client) error {
	p, err := DecodeMessage(env)
	if err != nil {
		return err
	}
	return ctx.G.Router().HandleMessage(context.Background(), c.UserID(), p)
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("handshake status = %d", resp.StatusCode)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func wsSend(t *testing.T, conn *websocket.Conn, kind string, payload any) {
	t.Helper()
	data, err := json.Marshal(Envelope{Type: kind, Payload: payload})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write %s: %v", kind, err)
	}
}

func wsRecvKind(t *testing.T, conn *websocket.Conn, kind string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		var env struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read waiting for %s: %v", kind, err)
		}
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("bad frame %q: %v", data, err)
		}
		if env.Type == kind {
			return env.Payload
		}
	}
	t.Fatalf("no %s frame before deadline", kind)
	return nil
}

func TestWSAuthAnnouncesPresence(t *testing.T) {
	srv, gw, store := newWSFixture(t, "u1", "u2")

	c1 := dialWS(t, srv)
	wsSend(t, c1, EnvAuth, AuthPayload{UserID: "u1"})

	// second user joins; the first one hears about it
	c2 := dialWS(t, srv)
	wsSend(t, c2, EnvAuth, AuthPayload{UserID: "u2"})

	payload := wsRecvKind(t, c1, EnvUserOnline)
	if payload["userId"] != "u2" {
		t.Fatalf("userId = %v", payload["userId"])
	}

	waitFor(t, func() bool { return gw.IsOnline("u1") && gw.IsOnline("u2") }, "both users online")
	u, _ := store.GetUser(context.Background(), "u2")
	if u == nil || !u.IsOnline {
		t.Fatalf("store record = %+v", u)
	}
}

func TestWSMessageDelivery(t *testing.T) {
	srv, _, store := newWSFixture(t, "u1", "u2")
	ctx := context.Background()

	rec, err := store.CreateChat(ctx, &chatmodel.Chat{CreatedBy: "u1"})
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}
	_ = store.AddChatParticipant(ctx, rec.ID, "u1", true)
	_ = store.AddChatParticipant(ctx, rec.ID, "u2", false)

	c1 := dialWS(t, srv)
	wsSend(t, c1, EnvAuth, AuthPayload{UserID: "u1"})
	c2 := dialWS(t, srv)
	wsSend(t, c2, EnvAuth, AuthPayload{UserID: "u2"})
	wsRecvKind(t, c1, EnvUserOnline) // u2 joined

	wsSend(t, c1, EnvMessage, MessagePayload{ChatID: rec.ID, Content: "salom dunyo"})

	payload := wsRecvKind(t, c2, EnvMessage)
	if payload["content"] != "salom dunyo" {
		t.Fatalf("content = %v", payload["content"])
	}
	sender, _ := payload["sender"].(map[string]any)
	if sender["id"] != "u1" {
		t.Fatalf("sender = %#v", payload["sender"])
	}
}

func TestWSDisconnectAnnouncesOffline(t *testing.T) {
	srv, gw, store := newWSFixture(t, "u1", "u2")

	c1 := dialWS(t, srv)
	wsSend(t, c1, EnvAuth, AuthPayload{UserID: "u1"})
	c2 := dialWS(t, srv)
	wsSend(t, c2, EnvAuth, AuthPayload{UserID: "u2"})
	wsRecvKind(t, c1, EnvUserOnline)

	c2.Close()

	payload := wsRecvKind(t, c1, EnvUserOffline)
	if payload["userId"] != "u2" {
		t.Fatalf("userId = %v", payload["userId"])
	}
	waitFor(t, func() bool { return !gw.IsOnline("u2") }, "u2 unregistered")

	u, _ := store.GetUser(context.Background(), "u2")
	if u == nil || u.IsOnline {
		t.Fatalf("store record = %+v", u)
	}
	if u.LastSeen == nil {
		t.Fatal("lastSeen not set on disconnect")
	}
}

func TestWSMalformedFrameKeepsConnection(t *testing.T) {
	srv, _, _ := newWSFixture(t, "u1", "u2")

	c1 := dialWS(t, srv)
	wsSend(t, c1, EnvAuth, AuthPayload{UserID: "u1"})

	if err := c1.WriteMessage(websocket.TextMessage, []byte("this is not json")); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	if err := c1.WriteMessage(websocket.TextMessage, []byte(`{"payload":{}}`)); err != nil {
		t.Fatalf("write typeless: %v", err)
	}

	// the connection survives and still receives events
	c2 := dialWS(t, srv)
	wsSend(t, c2, EnvAuth, AuthPayload{UserID: "u2"})
	payload := wsRecvKind(t, c1, EnvUserOnline)
	if payload["userId"] != "u2" {
		t.Fatalf("userId = %v", payload["userId"])
	}
}

func TestWSUnauthDeadlineIsAbsolute(t *testing.T) {
	srv, gw, _ := newWSFixtureConf(t, Config{
		AuthWait:     400 * time.Millisecond,
		PingInterval: 100 * time.Millisecond,
		PongWait:     3 * time.Second,
	}, "u1")

	// a connection that authenticates keeps living past the auth window
	authed := dialWS(t, srv)
	wsSend(t, authed, EnvAuth, AuthPayload{UserID: "u1"})
	waitFor(t, func() bool { return gw.IsOnline("u1") }, "u1 online")

	// this one never authenticates; the dialer's default ping handler
	// answers every keepalive, which must not stretch the window
	idle := dialWS(t, srv)
	start := time.Now()
	_ = idle.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := idle.ReadMessage(); err == nil {
		t.Fatal("unauthenticated connection was kept open")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("unauthenticated connection lived %v", elapsed)
	}

	if !gw.IsOnline("u1") {
		t.Fatal("authenticated connection torn down with the idle one")
	}
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
