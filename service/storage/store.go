package storage

import (
	"context"

	chatmodel "UzChat/module/chat/model"
	usermodel "UzChat/module/user/model"
)

// Store is the persistence collaborator. Get* methods return (nil, nil)
// when the record does not exist.
type Store interface {
	// users
	GetUser(ctx context.Context, id string) (*usermodel.User, error)
	GetUserByUsername(ctx context.Context, username string) (*usermodel.User, error)
	CreateUser(ctx context.Context, u *usermodel.User) (*usermodel.User, error)
	UpsertUser(ctx context.Context, u *usermodel.User) (*usermodel.User, error)
	SearchUsers(ctx context.Context, query, currentUserID string) ([]*usermodel.User, error)
	UpdateUserOnlineStatus(ctx context.Context, userID string, online bool) error
	GetAllUsers(ctx context.Context) ([]*usermodel.User, error)
	GetActiveUsersCount(ctx context.Context) (int, error)

	// chats
	CreateChat(ctx context.Context, c *chatmodel.Chat) (*chatmodel.Chat, error)
	GetChat(ctx context.Context, id int64) (*chatmodel.Chat, error)
	AddChatParticipant(ctx context.Context, chatID int64, userID string, isAdmin bool) error
	GetChatParticipants(ctx context.Context, chatID int64) ([]*usermodel.User, error)
	GetUserChats(ctx context.Context, userID string) ([]*chatmodel.ChatWithLastMessage, error)

	// messages
	CreateMessage(ctx context.Context, chatID int64, senderID, content string) (*chatmodel.Message, error)
	GetChatMessages(ctx context.Context, chatID int64) ([]*chatmodel.MessageWithSender, error)
	MarkMessageAsRead(ctx context.Context, messageID int64, userID string) error
	GetUnreadCount(ctx context.Context, chatID int64, userID string) (int, error)
	GetTotalMessagesToday(ctx context.Context) (int, error)

	// admin
	GetGroupsCount(ctx context.Context) (int, error)
}
