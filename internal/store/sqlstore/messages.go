package sqlstore

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/encorehq/chatcore/internal/models"
	"github.com/encorehq/chatcore/internal/store"
)

const (
	receiptDelivered = "delivered"
	receiptRead      = "read"
)

func (s *SQLStore) AppendMessage(chatID, senderID int, content string) (int, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return 0, store.ErrEmptyContent
	}

	if _, err := s.GetParticipants(chatID); err != nil {
		return 0, err
	}
	isParticipant, err := s.IsParticipant(chatID, senderID)
	if err != nil {
		return 0, err
	}
	if !isParticipant {
		return 0, store.ErrNotAParticipant
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	var id int
	query := s.rebind("INSERT INTO messages (chat_id, sender_id, content, created_at) VALUES (?, ?, ?, ?) RETURNING id")
	if err := tx.QueryRow(query, chatID, senderID, content, now).Scan(&id); err != nil {
		return 0, err
	}

	query = s.rebind("UPDATE participants SET unread_count = unread_count + 1 WHERE chat_id = ? AND user_id != ?")
	if _, err := tx.Exec(query, chatID, senderID); err != nil {
		return 0, err
	}

	query = s.rebind("UPDATE chats SET last_activity_at = ? WHERE id = ?")
	if _, err := tx.Exec(query, now, chatID); err != nil {
		return 0, err
	}

	if err := s.touchUserActivity(tx, senderID, now); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// messageMeta resolves the chat and sender of a message, shared by the
// receipt-marking paths.
func (s *SQLStore) messageMeta(messageID int) (chatID, senderID int, err error) {
	query := s.rebind("SELECT chat_id, sender_id FROM messages WHERE id = ?")
	err = s.db.QueryRow(query, messageID).Scan(&chatID, &senderID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, store.ErrNotFound
	}
	return chatID, senderID, err
}

func (s *SQLStore) MarkDelivered(messageID, userID int) error {
	chatID, senderID, err := s.messageMeta(messageID)
	if err != nil {
		return err
	}
	if userID == senderID {
		// Self-receipts are meaningless; silently ignored.
		return nil
	}
	isParticipant, err := s.IsParticipant(chatID, userID)
	if err != nil {
		return err
	}
	if !isParticipant {
		return store.ErrNotAParticipant
	}

	query := s.rebind("INSERT INTO receipts (message_id, user_id, kind) VALUES (?, ?, ?) ON CONFLICT DO NOTHING")
	_, err = s.db.Exec(query, messageID, userID, receiptDelivered)
	return err
}

func (s *SQLStore) MarkRead(messageID, userID int) error {
	chatID, senderID, err := s.messageMeta(messageID)
	if err != nil {
		return err
	}
	if userID == senderID {
		return nil
	}
	isParticipant, err := s.IsParticipant(chatID, userID)
	if err != nil {
		return err
	}
	if !isParticipant {
		return store.ErrNotAParticipant
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Reading implies delivery.
	query := s.rebind("INSERT INTO receipts (message_id, user_id, kind) VALUES (?, ?, ?) ON CONFLICT DO NOTHING")
	if _, err := tx.Exec(query, messageID, userID, receiptDelivered); err != nil {
		return err
	}

	result, err := tx.Exec(query, messageID, userID, receiptRead)
	if err != nil {
		return err
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return err
	}

	// The unread counter only moves when the read receipt is new, so
	// repeated marks decrement at most once per message.
	if inserted > 0 {
		query = s.rebind("UPDATE participants SET unread_count = CASE WHEN unread_count > 0 THEN unread_count - 1 ELSE 0 END WHERE chat_id = ? AND user_id = ?")
		if _, err := tx.Exec(query, chatID, userID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLStore) BulkMarkRead(messageIDs []int, userID int) (store.BulkResult, error) {
	var result store.BulkResult
	for _, messageID := range messageIDs {
		if err := s.MarkRead(messageID, userID); err != nil {
			result.Failed++
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

func (s *SQLStore) GetMessage(messageID int) (*models.Message, error) {
	var m models.Message
	query := s.rebind("SELECT id, chat_id, sender_id, content, created_at FROM messages WHERE id = ?")
	err := s.db.QueryRow(query, messageID).Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	query = s.rebind("SELECT user_id, kind FROM receipts WHERE message_id = ? ORDER BY user_id")
	rows, err := s.db.Query(query, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID int
		var kind string
		if err := rows.Scan(&userID, &kind); err != nil {
			return nil, err
		}
		switch kind {
		case receiptDelivered:
			m.DeliveredTo = append(m.DeliveredTo, userID)
		case receiptRead:
			m.ReadBy = append(m.ReadBy, userID)
		}
	}
	return &m, rows.Err()
}

func (s *SQLStore) GetChatMessages(chatID int) ([]models.Message, error) {
	if _, err := s.GetParticipants(chatID); err != nil {
		return nil, err
	}

	query := s.rebind(`
		SELECT id, chat_id, sender_id, content, created_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY created_at ASC, id ASC
	`)
	rows, err := s.db.Query(query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	index := make(map[int]int)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		index[m.ID] = len(messages)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	query = s.rebind(`
		SELECT r.message_id, r.user_id, r.kind
		FROM receipts r
		JOIN messages m ON r.message_id = m.id
		WHERE m.chat_id = ?
		ORDER BY r.user_id
	`)
	receiptRows, err := s.db.Query(query, chatID)
	if err != nil {
		return nil, err
	}
	defer receiptRows.Close()

	for receiptRows.Next() {
		var messageID, userID int
		var kind string
		if err := receiptRows.Scan(&messageID, &userID, &kind); err != nil {
			return nil, err
		}
		i, ok := index[messageID]
		if !ok {
			continue
		}
		switch kind {
		case receiptDelivered:
			messages[i].DeliveredTo = append(messages[i].DeliveredTo, userID)
		case receiptRead:
			messages[i].ReadBy = append(messages[i].ReadBy, userID)
		}
	}
	return messages, receiptRows.Err()
}
