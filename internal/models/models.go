package models

import "time"

type User struct {
	ID                int       `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	Password          string    `json:"-"`
	IsVerified        bool      `json:"is_verified"`
	VerificationToken string    `json:"-"`
	LastActiveAt      time.Time `json:"last_active_at"`
}

type ChatType string

const (
	ChatDirect ChatType = "direct"
	ChatGroup  ChatType = "group"
)

type Chat struct {
	ID             int       `json:"id"`
	Type           ChatType  `json:"type"`
	Name           string    `json:"name,omitempty"`
	Participants   []int     `json:"participants"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// ChatSummary is a chat as one participant sees it in their chat list.
type ChatSummary struct {
	Chat
	UnreadCount int `json:"unread_count"`
}

type Message struct {
	ID          int       `json:"id"`
	ChatID      int       `json:"chat_id"`
	SenderID    int       `json:"sender_id"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	DeliveredTo []int     `json:"delivered_to"`
	ReadBy      []int     `json:"read_by"`
}

// ActiveSession records that a user has a chat open in the foreground.
// Liveness is derived from heartbeat age by readers, never stored.
type ActiveSession struct {
	ChatID          int       `json:"chat_id"`
	UserID          int       `json:"user_id"`
	LastHeartbeatAt time.Time `json:"last_heartbeat_at"`
}
