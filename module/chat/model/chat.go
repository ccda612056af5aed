package model

import (
	"time"

	usermodel "UzChat/module/user/model"
)

// Chat covers both one-on-one and group chats.
type Chat struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name,omitempty"` // group chats only
	IsGroup   bool      `json:"isGroup"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChatWithLastMessage is the chat-list projection the client renders.
type ChatWithLastMessage struct {
	Chat
	LastMessage  *Message          `json:"lastMessage,omitempty"`
	UnreadCount  int               `json:"unreadCount"`
	Participants []*usermodel.User `json:"participants"`
}
