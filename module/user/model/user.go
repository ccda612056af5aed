package model

import "time"

// User mirrors the users table. Password never leaves the server.
type User struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Nickname        string     `json:"nickname"`
	Password        string     `json:"-"`
	Email           string     `json:"email,omitempty"`
	FirstName       string     `json:"firstName,omitempty"`
	LastName        string     `json:"lastName,omitempty"`
	ProfileImageURL string     `json:"profileImageUrl,omitempty"`
	IsOnline        bool       `json:"isOnline"`
	LastSeen        *time.Time `json:"lastSeen,omitempty"`
	IsAdmin         bool       `json:"isAdmin"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}
