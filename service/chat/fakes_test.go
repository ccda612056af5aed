package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	chatmodel "UzChat/module/chat/model"
	usermodel "UzChat/module/user/model"
)

// fakeStore records calls and lets tests inject failures. It covers only
// the slice of the store the gateway touches.
type fakeStore struct {
	mu           sync.Mutex
	users        map[string]*usermodel.User
	participants map[int64][]string
	statusCalls  []statusCall
	readCalls    []readCall
	statusErr    error
	nextMsgID    int64
}

type statusCall struct {
	userID string
	online bool
}

type readCall struct {
	messageID int64
	userID    string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[string]*usermodel.User),
		participants: make(map[int64][]string),
	}
}

func (f *fakeStore) addUser(id, nickname string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = &usermodel.User{ID: id, Username: id, Nickname: nickname}
}

func (f *fakeStore) addChat(chatID int64, members ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.participants[chatID] = members
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*usermodel.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetChatParticipants(_ context.Context, chatID int64) ([]*usermodel.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*usermodel.User
	for _, id := range f.participants[chatID] {
		if u, ok := f.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateMessage(_ context.Context, chatID int64, senderID, content string) (*chatmodel.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextMsgID++
	return &chatmodel.Message{
		ID:        f.nextMsgID,
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now(),
	}, nil
}

func (f *fakeStore) MarkMessageAsRead(_ context.Context, messageID int64, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCalls = append(f.readCalls, readCall{messageID: messageID, userID: userID})
	return nil
}

func (f *fakeStore) UpdateUserOnlineStatus(_ context.Context, userID string, online bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return f.statusErr
	}
	f.statusCalls = append(f.statusCalls, statusCall{userID: userID, online: online})
	return nil
}

func (f *fakeStore) statusLog() []statusCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]statusCall, len(f.statusCalls))
	copy(out, f.statusCalls)
	return out
}

func (f *fakeStore) reads() []readCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]readCall, len(f.readCalls))
	copy(out, f.readCalls)
	return out
}

// newTestClient makes an unbound client with no real socket.
func newTestClient(id string) *Client {
	return NewClient(id, nil, 16)
}

// recvEnvelope waits for one frame on the client's send queue.
func recvEnvelope(t *testing.T, c *Client) *Envelope {
	t.Helper()
	select {
	case data := <-c.Send:
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("bad frame %q: %v", data, err)
		}
		return &env
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame for client %s", c.ConnID)
		return nil
	}
}

// expectSilence asserts no frame arrives within the window.
func expectSilence(t *testing.T, c *Client, window time.Duration) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected frame for client %s: %s", c.ConnID, data)
	case <-time.After(window):
	}
}

func payloadField(t *testing.T, env *Envelope, key string) any {
	t.Helper()
	m, ok := env.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload is %T, want object", env.Payload)
	}
	return m[key]
}
