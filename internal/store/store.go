package store

import (
	"errors"
	"time"

	"github.com/encorehq/chatcore/internal/models"
)

// Permanent errors. Callers must not retry these; the HTTP layer maps them
// to 4xx responses.
var (
	ErrNotFound            = errors.New("not found")
	ErrNotAParticipant     = errors.New("not a participant")
	ErrInvalidParticipants = errors.New("invalid participants")
	ErrEmptyContent        = errors.New("empty content")
)

// BulkResult reports the outcome of a bulk receipt operation. Each message
// is attempted independently; there is no all-or-nothing mode.
type BulkResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id int) (*models.User, error)
	SearchUsers(query string) ([]models.User, error)
	VerifyUser(token string) error
	UserLastActive(userID int) (time.Time, error)

	// Chat directory
	GetOrCreateDirectChat(userA, userB int) (int, error)
	CreateGroupChat(name string, creatorID int, memberIDs []int) (int, error)
	GetChat(chatID int) (*models.Chat, error)
	GetParticipants(chatID int) ([]int, error)
	GetChatMembers(chatID int) ([]models.User, error)
	IsParticipant(chatID, userID int) (bool, error)
	GetUserChats(userID int) ([]models.ChatSummary, error)

	// Messages and receipts
	AppendMessage(chatID, senderID int, content string) (int, error)
	GetMessage(messageID int) (*models.Message, error)
	GetChatMessages(chatID int) ([]models.Message, error)
	MarkDelivered(messageID, userID int) error
	MarkRead(messageID, userID int) error
	BulkMarkRead(messageIDs []int, userID int) (BulkResult, error)

	// Active sessions
	UpsertSession(chatID, userID int, at time.Time) error
	DeleteSession(chatID, userID int) error
	GetSession(chatID, userID int) (*models.ActiveSession, error)
}
