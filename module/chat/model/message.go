package model

import (
	"time"

	usermodel "UzChat/module/user/model"
)

type Message struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chatId"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageWithSender is what both the history endpoint and the live
// `message` envelope carry.
type MessageWithSender struct {
	Message
	Sender *usermodel.User `json:"sender"`
}
