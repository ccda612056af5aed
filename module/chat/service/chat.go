package service

import (
	"context"
	"strings"

	chatmodel "UzChat/module/chat/model"
	usermodel "UzChat/module/user/model"
	"UzChat/service/storage"
	"UzChat/tools/errs"
)

// Notifier pushes a server-built envelope to one user's live connection.
// The websocket gateway satisfies it; tests use a recording fake.
type Notifier interface {
	SendToUser(userID, kind string, payload any) bool
}

type CreateChatParams struct {
	Name         string   `json:"name"`
	IsGroup      bool     `json:"isGroup"`
	Participants []string `json:"participants"`
}

// CreateChat creates the chat and enrolls the creator (as chat admin)
// plus the listed participants.
func CreateChat(ctx context.Context, store storage.Store, creatorID string, in CreateChatParams) (*chatmodel.Chat, error) {
	chat, err := store.CreateChat(ctx, &chatmodel.Chat{
		Name:      strings.TrimSpace(in.Name),
		IsGroup:   in.IsGroup,
		CreatedBy: creatorID,
	})
	if err != nil {
		return nil, err
	}
	if err := store.AddChatParticipant(ctx, chat.ID, creatorID, true); err != nil {
		return nil, err
	}
	for _, pid := range in.Participants {
		if pid == creatorID {
			continue
		}
		if err := store.AddChatParticipant(ctx, chat.ID, pid, false); err != nil {
			return nil, err
		}
	}
	return chat, nil
}

// requireParticipant loads the chat's roster and checks membership.
func requireParticipant(ctx context.Context, store storage.Store, chatID int64, userID string) ([]*usermodel.User, error) {
	participants, err := store.GetChatParticipants(ctx, chatID)
	if err != nil {
		return nil, err
	}
	for _, p := range participants {
		if p.ID == userID {
			return participants, nil
		}
	}
	return nil, errs.ErrForbidden.WrapMsg("not a participant of this chat")
}

// GetMessages returns the chat's history, oldest first. The caller must
// be a participant.
func GetMessages(ctx context.Context, store storage.Store, chatID int64, callerID string) ([]*chatmodel.MessageWithSender, error) {
	if _, err := requireParticipant(ctx, store, chatID, callerID); err != nil {
		return nil, err
	}
	return store.GetChatMessages(ctx, chatID)
}

// SendMessage persists a message posted over REST and pushes it to the
// other online participants through the same envelope the socket path
// uses, so both entry points are indistinguishable to receivers.
func SendMessage(ctx context.Context, store storage.Store, notifier Notifier, chatID int64, senderID, content string) (*chatmodel.MessageWithSender, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errs.ErrBadRequest.WrapMsg("message content is required")
	}
	participants, err := requireParticipant(ctx, store, chatID, senderID)
	if err != nil {
		return nil, err
	}

	msg, err := store.CreateMessage(ctx, chatID, senderID, content)
	if err != nil {
		return nil, err
	}
	sender, err := store.GetUser(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, errs.ErrNotFound.WrapMsg("sender not found")
	}

	event := &chatmodel.MessageWithSender{Message: *msg, Sender: sender}
	if notifier != nil {
		for _, p := range participants {
			if p.ID == senderID {
				continue
			}
			notifier.SendToUser(p.ID, "message", event)
		}
	}
	return event, nil
}

// AdminStats is the admin dashboard snapshot.
type AdminStats struct {
	TotalUsers    int               `json:"totalUsers"`
	ActiveUsers   int               `json:"activeUsers"`
	Groups        int               `json:"groups"`
	MessagesToday int               `json:"messagesToday"`
	RecentUsers   []*usermodel.User `json:"recentUsers"`
}

func GetAdminStats(ctx context.Context, store storage.Store) (*AdminStats, error) {
	all, err := store.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	active, err := store.GetActiveUsersCount(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := store.GetGroupsCount(ctx)
	if err != nil {
		return nil, err
	}
	today, err := store.GetTotalMessagesToday(ctx)
	if err != nil {
		return nil, err
	}
	recent := all
	if len(recent) > 10 {
		recent = recent[:10]
	}
	return &AdminStats{
		TotalUsers:    len(all),
		ActiveUsers:   active,
		Groups:        groups,
		MessagesToday: today,
		RecentUsers:   recent,
	}, nil
}
