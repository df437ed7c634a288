package sqlstore

import (
	"database/sql"
	"errors"
	"time"

	"github.com/encorehq/chatcore/internal/models"
	"github.com/encorehq/chatcore/internal/store"
)

// UpsertSession records or refreshes a chat-view heartbeat. Open and refresh
// share this path so a refresh after a concurrent close simply recreates the
// row instead of failing.
func (s *SQLStore) UpsertSession(chatID, userID int, at time.Time) error {
	at = at.UTC()
	query := s.rebind(`
		INSERT INTO sessions (chat_id, user_id, last_heartbeat_at) VALUES (?, ?, ?)
		ON CONFLICT (chat_id, user_id) DO UPDATE SET last_heartbeat_at = excluded.last_heartbeat_at
	`)
	if _, err := s.db.Exec(query, chatID, userID, at); err != nil {
		return err
	}
	return s.touchUserActivity(s.db, userID, at)
}

func (s *SQLStore) DeleteSession(chatID, userID int) error {
	query := s.rebind("DELETE FROM sessions WHERE chat_id = ? AND user_id = ?")
	_, err := s.db.Exec(query, chatID, userID)
	return err
}

func (s *SQLStore) GetSession(chatID, userID int) (*models.ActiveSession, error) {
	session := models.ActiveSession{ChatID: chatID, UserID: userID}
	query := s.rebind("SELECT last_heartbeat_at FROM sessions WHERE chat_id = ? AND user_id = ?")
	err := s.db.QueryRow(query, chatID, userID).Scan(&session.LastHeartbeatAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}
