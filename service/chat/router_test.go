package chat

import (
	"context"
	"testing"
	"time"
)

func routerFixture() (*fakeStore, *Registry, *Router) {
	store := newFakeStore()
	reg := NewRegistry()
	fanout := NewFanout(64)
	return store, reg, NewRouter(store, reg, fanout)
}

func bindOnline(reg *Registry, userID, connID string) *Client {
	c := NewClient(connID, nil, 16)
	c.Bind(userID)
	reg.Bind(userID, c)
	return c
}

func TestMessageFanoutSkipsSenderAndOffline(t *testing.T) {
	store, reg, router := routerFixture()
	store.addUser("u1", "Aziz")
	store.addUser("u2", "Bobur")
	store.addUser("u3", "Dil")
	store.addUser("u4", "Eldor")
	store.addChat(7, "u1", "u2", "u3", "u4") // u4 stays offline

	sender := bindOnline(reg, "u1", "c1")
	recv2 := bindOnline(reg, "u2", "c2")
	recv3 := bindOnline(reg, "u3", "c3")

	err := router.HandleMessage(context.Background(), "u1", &MessagePayload{ChatID: 7, Content: "salom"})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	// exactly one envelope per online participant, none for the sender
	for _, rc := range []*Client{recv2, recv3} {
		env := recvEnvelope(t, rc)
		if env.Type != EnvMessage {
			t.Fatalf("type = %q", env.Type)
		}
		if got := payloadField(t, env, "content"); got != "salom" {
			t.Fatalf("content = %v", got)
		}
		senderRec := payloadField(t, env, "sender")
		if m, ok := senderRec.(map[string]any); !ok || m["id"] != "u1" {
			t.Fatalf("sender = %#v", senderRec)
		}
	}
	expectSilence(t, sender, 200*time.Millisecond)
	expectSilence(t, recv2, 50*time.Millisecond)
	expectSilence(t, recv3, 50*time.Millisecond)
}

func TestTypingRelayCarriesSender(t *testing.T) {
	store, reg, router := routerFixture()
	store.addUser("u1", "Aziz")
	store.addUser("u2", "Bobur")
	store.addChat(7, "u1", "u2")

	receiver := bindOnline(reg, "u2", "c2")

	err := router.HandleTyping(context.Background(), "u1", &TypingPayload{ChatID: 7, IsTyping: true})
	if err != nil {
		t.Fatalf("HandleTyping: %v", err)
	}

	env := recvEnvelope(t, receiver)
	if env.Type != EnvTyping {
		t.Fatalf("type = %q", env.Type)
	}
	if got := payloadField(t, env, "userId"); got != "u1" {
		t.Fatalf("userId = %v", got)
	}
	if got := payloadField(t, env, "isTyping"); got != true {
		t.Fatalf("isTyping = %v", got)
	}
}

func TestReadReceiptOnlyHitsStore(t *testing.T) {
	store, reg, router := routerFixture()
	store.addUser("u1", "Aziz")
	store.addUser("u2", "Bobur")
	store.addChat(7, "u1", "u2")
	other := bindOnline(reg, "u2", "c2")

	if err := router.HandleRead(context.Background(), "u1", &ReadPayload{MessageID: 42}); err != nil {
		t.Fatalf("HandleRead: %v", err)
	}
	reads := store.reads()
	if len(reads) != 1 || reads[0].messageID != 42 || reads[0].userID != "u1" {
		t.Fatalf("reads = %+v", reads)
	}
	expectSilence(t, other, 200*time.Millisecond)
}

func TestCallRelayToTarget(t *testing.T) {
	_, reg, router := routerFixture()
	target := bindOnline(reg, "u2", "c2")
	bystander := bindOnline(reg, "u3", "c3")

	router.HandleCall("u1", &CallPayload{
		Type:         "video",
		Action:       "initiate",
		TargetUserID: "u2",
		ChatID:       7,
	})

	env := recvEnvelope(t, target)
	if env.Type != EnvCall {
		t.Fatalf("type = %q", env.Type)
	}
	if got := payloadField(t, env, "fromUserId"); got != "u1" {
		t.Fatalf("fromUserId = %v", got)
	}
	if got := payloadField(t, env, "action"); got != "initiate" {
		t.Fatalf("action = %v", got)
	}
	expectSilence(t, bystander, 200*time.Millisecond)
}

func TestCallOfflineTargetDropped(t *testing.T) {
	_, reg, router := routerFixture()
	sender := bindOnline(reg, "u1", "c1")

	// must not panic, must not bounce anything back
	router.HandleCall("u1", &CallPayload{Type: "audio", Action: "initiate", TargetUserID: "ghost"})
	router.HandleCall("u1", &CallPayload{Type: "audio", Action: "initiate"})

	expectSilence(t, sender, 200*time.Millisecond)
}

func TestDeliverToUser(t *testing.T) {
	_, reg, router := routerFixture()
	target := bindOnline(reg, "u2", "c2")

	if !router.DeliverToUser("u2", EnvMessage, map[string]any{"content": "hi"}) {
		t.Fatal("delivery to online user failed")
	}
	env := recvEnvelope(t, target)
	if env.Type != EnvMessage {
		t.Fatalf("type = %q", env.Type)
	}

	if router.DeliverToUser("nobody", EnvMessage, map[string]any{}) {
		t.Fatal("delivery to offline user reported success")
	}
}
