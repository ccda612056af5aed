package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	chatmodel "UzChat/module/chat/model"
	usermodel "UzChat/module/user/model"
)

// MemStore is an in-memory Store for development and tests. It follows
// the same visibility rules as PgStore (Get* return nil,nil when the
// record does not exist, chats sort by recent activity).
type MemStore struct {
	mu           sync.RWMutex
	users        map[string]*usermodel.User
	chats        map[int64]*chatmodel.Chat
	participants map[int64]map[string]bool // chatID -> userID -> isAdmin
	partOrder    map[int64][]string        // enrollment order
	messages     []*chatmodel.Message
	reads        map[int64]map[string]bool // messageID -> userID
	nextChatID   int64
	nextMsgID    int64
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		users:        make(map[string]*usermodel.User),
		chats:        make(map[int64]*chatmodel.Chat),
		participants: make(map[int64]map[string]bool),
		partOrder:    make(map[int64][]string),
		reads:        make(map[int64]map[string]bool),
	}
}

// ===== users =====

func (s *MemStore) GetUser(_ context.Context, id string) (*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *MemStore) GetUserByUsername(_ context.Context, username string) (*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemStore) CreateUser(_ context.Context, u *usermodel.User) (*usermodel.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	cp := *u
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *MemStore) UpsertUser(_ context.Context, u *usermodel.User) (*usermodel.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	cp := *u
	if prev, ok := s.users[cp.ID]; ok {
		cp.CreatedAt = prev.CreatedAt
	} else {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *MemStore) SearchUsers(_ context.Context, query, currentUserID string) ([]*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(query)
	var out []*usermodel.User
	for _, u := range s.users {
		if u.ID == currentUserID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Username), q) ||
			strings.Contains(strings.ToLower(u.Nickname), q) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > 20 {
		out = out[:20]
	}
	return out, nil
}

func (s *MemStore) UpdateUserOnlineStatus(_ context.Context, userID string, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	u.IsOnline = online
	if !online {
		now := time.Now()
		u.LastSeen = &now
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (s *MemStore) GetAllUsers(_ context.Context) ([]*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*usermodel.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	// newest first, like the pg query
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) GetActiveUsersCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if u.IsOnline {
			n++
		}
	}
	return n, nil
}

// ===== chats =====

func (s *MemStore) CreateChat(_ context.Context, c *chatmodel.Chat) (*chatmodel.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextChatID++
	now := time.Now()
	cp := *c
	cp.ID = s.nextChatID
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.chats[cp.ID] = &cp
	s.participants[cp.ID] = make(map[string]bool)
	out := cp
	return &out, nil
}

func (s *MemStore) GetChat(_ context.Context, id int64) (*chatmodel.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *MemStore) AddChatParticipant(_ context.Context, chatID int64, userID string, isAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.participants[chatID] == nil {
		s.participants[chatID] = make(map[string]bool)
	}
	if _, ok := s.participants[chatID][userID]; !ok {
		s.partOrder[chatID] = append(s.partOrder[chatID], userID)
	}
	s.participants[chatID][userID] = isAdmin
	return nil
}

func (s *MemStore) GetChatParticipants(_ context.Context, chatID int64) ([]*usermodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*usermodel.User
	for _, uid := range s.partOrder[chatID] {
		if u, ok := s.users[uid]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemStore) GetUserChats(ctx context.Context, userID string) ([]*chatmodel.ChatWithLastMessage, error) {
	s.mu.RLock()
	var ids []int64
	for chatID, members := range s.participants {
		if _, ok := members[userID]; ok {
			ids = append(ids, chatID)
		}
	}
	s.mu.RUnlock()

	out := make([]*chatmodel.ChatWithLastMessage, 0, len(ids))
	for _, id := range ids {
		chat, err := s.GetChat(ctx, id)
		if err != nil || chat == nil {
			continue
		}
		last := s.lastMessage(id)
		unread, _ := s.GetUnreadCount(ctx, id, userID)
		participants, _ := s.GetChatParticipants(ctx, id)
		out = append(out, &chatmodel.ChatWithLastMessage{
			Chat:         *chat,
			LastMessage:  last,
			UnreadCount:  unread,
			Participants: participants,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return memChatActivity(out[i]).After(memChatActivity(out[j]))
	})
	return out, nil
}

func memChatActivity(c *chatmodel.ChatWithLastMessage) time.Time {
	if c.LastMessage != nil {
		return c.LastMessage.CreatedAt
	}
	return c.CreatedAt
}

func (s *MemStore) lastMessage(chatID int64) *chatmodel.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var last *chatmodel.Message
	for _, m := range s.messages {
		if m.ChatID == chatID {
			cp := *m
			last = &cp
		}
	}
	return last
}

// ===== messages =====

func (s *MemStore) CreateMessage(_ context.Context, chatID int64, senderID, content string) (*chatmodel.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMsgID++
	m := &chatmodel.Message{
		ID:        s.nextMsgID,
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.messages = append(s.messages, m)
	if c, ok := s.chats[chatID]; ok {
		c.UpdatedAt = m.CreatedAt
	}
	cp := *m
	return &cp, nil
}

func (s *MemStore) GetChatMessages(_ context.Context, chatID int64) ([]*chatmodel.MessageWithSender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*chatmodel.MessageWithSender
	for _, m := range s.messages {
		if m.ChatID != chatID {
			continue
		}
		sender := s.users[m.SenderID]
		if sender == nil {
			continue
		}
		mc := *m
		uc := *sender
		out = append(out, &chatmodel.MessageWithSender{Message: mc, Sender: &uc})
	}
	return out, nil
}

func (s *MemStore) MarkMessageAsRead(_ context.Context, messageID int64, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reads[messageID] == nil {
		s.reads[messageID] = make(map[string]bool)
	}
	s.reads[messageID][userID] = true

	var msg *chatmodel.Message
	for _, m := range s.messages {
		if m.ID == messageID {
			msg = m
			break
		}
	}
	if msg == nil {
		return nil
	}
	// flip is_read once every participant except the sender has read it
	for uid := range s.participants[msg.ChatID] {
		if uid == msg.SenderID {
			continue
		}
		if !s.reads[messageID][uid] {
			return nil
		}
	}
	msg.IsRead = true
	return nil
}

func (s *MemStore) GetUnreadCount(_ context.Context, chatID int64, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.messages {
		if m.ChatID != chatID || m.SenderID == userID {
			continue
		}
		if !s.reads[m.ID][userID] {
			n++
		}
	}
	return n, nil
}

func (s *MemStore) GetTotalMessagesToday(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := time.Now().Truncate(24 * time.Hour)
	n := 0
	for _, m := range s.messages {
		if !m.CreatedAt.Before(start) {
			n++
		}
	}
	return n, nil
}

// ===== admin =====

func (s *MemStore) GetGroupsCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.chats {
		if c.IsGroup {
			n++
		}
	}
	return n, nil
}
