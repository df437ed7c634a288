package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/encorehq/chatcore/internal/models"
	"github.com/encorehq/chatcore/internal/store"
)

// pairKey is the unique key that serializes direct-chat creation per
// unordered user pair. Concurrent GetOrCreateDirectChat calls race on the
// UNIQUE constraint and all resolve to the winning row.
func pairKey(userA, userB int) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("%d:%d", userA, userB)
}

func (s *SQLStore) GetOrCreateDirectChat(userA, userB int) (int, error) {
	if userA == userB || userA <= 0 || userB <= 0 {
		return 0, store.ErrInvalidParticipants
	}
	key := pairKey(userA, userB)

	var id int
	query := s.rebind("SELECT id FROM chats WHERE pair_key = ?")
	err := s.db.QueryRow(query, key).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	query = s.rebind("INSERT INTO chats (chat_type, pair_key) VALUES (?, ?) ON CONFLICT (pair_key) DO NOTHING")
	result, err := tx.Exec(query, models.ChatDirect, key)
	if err != nil {
		return 0, err
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	query = s.rebind("SELECT id FROM chats WHERE pair_key = ?")
	if err := tx.QueryRow(query, key).Scan(&id); err != nil {
		return 0, err
	}

	if inserted > 0 {
		query = s.rebind("INSERT INTO participants (chat_id, user_id) VALUES (?, ?)")
		for _, userID := range []int{userA, userB} {
			if _, err := tx.Exec(query, id, userID); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *SQLStore) CreateGroupChat(name string, creatorID int, memberIDs []int) (int, error) {
	members := map[int]bool{creatorID: true}
	for _, id := range memberIDs {
		members[id] = true
	}
	if creatorID <= 0 || len(members) < 2 {
		return 0, store.ErrInvalidParticipants
	}
	for id := range members {
		if id <= 0 {
			return 0, store.ErrInvalidParticipants
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int
	query := s.rebind("INSERT INTO chats (chat_type, name) VALUES (?, ?) RETURNING id")
	if err := tx.QueryRow(query, models.ChatGroup, name).Scan(&id); err != nil {
		return 0, err
	}

	query = s.rebind("INSERT INTO participants (chat_id, user_id) VALUES (?, ?)")
	for userID := range members {
		if _, err := tx.Exec(query, id, userID); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *SQLStore) GetChat(chatID int) (*models.Chat, error) {
	var chat models.Chat
	query := s.rebind("SELECT id, chat_type, name, last_activity_at FROM chats WHERE id = ?")
	err := s.db.QueryRow(query, chatID).Scan(&chat.ID, &chat.Type, &chat.Name, &chat.LastActivityAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	chat.Participants, err = s.GetParticipants(chatID)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (s *SQLStore) GetParticipants(chatID int) ([]int, error) {
	var exists bool
	query := s.rebind("SELECT EXISTS(SELECT 1 FROM chats WHERE id = ?)")
	if err := s.db.QueryRow(query, chatID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	query = s.rebind("SELECT user_id FROM participants WHERE chat_id = ? ORDER BY user_id")
	rows, err := s.db.Query(query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLStore) GetChatMembers(chatID int) ([]models.User, error) {
	query := s.rebind(`
		SELECT u.id, u.username, u.email
		FROM users u
		JOIN participants p ON u.id = p.user_id
		WHERE p.chat_id = ?
		ORDER BY u.id
	`)
	rows, err := s.db.Query(query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email); err != nil {
			return nil, err
		}
		u.Email = maskEmail(u.Email)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLStore) IsParticipant(chatID, userID int) (bool, error) {
	var exists bool
	query := s.rebind("SELECT EXISTS(SELECT 1 FROM participants WHERE chat_id = ? AND user_id = ?)")
	err := s.db.QueryRow(query, chatID, userID).Scan(&exists)
	return exists, err
}

func (s *SQLStore) GetUserChats(userID int) ([]models.ChatSummary, error) {
	query := s.rebind(`
		SELECT c.id, c.chat_type, c.name, c.last_activity_at, p.unread_count
		FROM chats c
		JOIN participants p ON c.id = p.chat_id
		WHERE p.user_id = ?
		ORDER BY c.last_activity_at DESC
	`)
	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []models.ChatSummary
	for rows.Next() {
		var c models.ChatSummary
		if err := rows.Scan(&c.ID, &c.Type, &c.Name, &c.LastActivityAt, &c.UnreadCount); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range chats {
		participants, err := s.GetParticipants(chats[i].ID)
		if err != nil {
			return nil, err
		}
		chats[i].Participants = participants
	}
	return chats, nil
}
