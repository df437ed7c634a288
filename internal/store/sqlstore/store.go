package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"           // Postgres driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/encorehq/chatcore/internal/models"
	"github.com/encorehq/chatcore/internal/store"
)

type SQLStore struct {
	db         *sql.DB
	driverName string
}

func New(driverName, dataSourceName string) (*SQLStore, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if driverName == "sqlite3" {
		// :memory: databases are per-connection, and SQLite serializes
		// writers anyway.
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db, driverName: driverName}
	if err := s.createTables(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) createTables() error {
	// Simplified for brevity, ideally use migrations
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		is_verified BOOLEAN DEFAULT FALSE,
		verification_token TEXT,
		last_active_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS chats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_type TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		pair_key TEXT UNIQUE,
		last_activity_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS participants (
		chat_id INTEGER,
		user_id INTEGER,
		unread_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (chat_id, user_id),
		FOREIGN KEY (chat_id) REFERENCES chats(id),
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id INTEGER,
		sender_id INTEGER,
		content TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (chat_id) REFERENCES chats(id),
		FOREIGN KEY (sender_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS receipts (
		message_id INTEGER,
		user_id INTEGER,
		kind TEXT NOT NULL,
		PRIMARY KEY (message_id, user_id, kind),
		FOREIGN KEY (message_id) REFERENCES messages(id)
	);

	CREATE TABLE IF NOT EXISTS sessions (
		chat_id INTEGER,
		user_id INTEGER,
		last_heartbeat_at DATETIME NOT NULL,
		PRIMARY KEY (chat_id, user_id)
	);
	`

	if s.driverName == "postgres" {
		// Adjust for Postgres syntax
		query = strings.ReplaceAll(query, "INTEGER PRIMARY KEY AUTOINCREMENT", "SERIAL PRIMARY KEY")
		query = strings.ReplaceAll(query, "DATETIME", "TIMESTAMP")
	}

	_, err := s.db.Exec(query)
	return err
}

// Helper to handle placeholders
func (s *SQLStore) rebind(query string) string {
	if s.driverName == "postgres" {
		// Replace ? with $1, $2, etc.
		n := strings.Count(query, "?")
		for i := 1; i <= n; i++ {
			query = strings.Replace(query, "?", fmt.Sprintf("$%d", i), 1)
		}
	}
	return query
}

func (s *SQLStore) CreateUser(user *models.User) error {
	query := s.rebind("INSERT INTO users (username, email, password, is_verified, verification_token) VALUES (?, ?, ?, ?, ?)")
	_, err := s.db.Exec(query, user.Username, user.Email, user.Password, user.IsVerified, user.VerificationToken)
	return err
}

func (s *SQLStore) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var lastActive sql.NullTime
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.IsVerified, &lastActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastActive.Valid {
		user.LastActiveAt = lastActive.Time
	}
	return &user, nil
}

func (s *SQLStore) GetUserByUsername(username string) (*models.User, error) {
	query := s.rebind("SELECT id, username, email, password, is_verified, last_active_at FROM users WHERE username = ?")
	return s.scanUser(s.db.QueryRow(query, username))
}

func (s *SQLStore) GetUserByID(id int) (*models.User, error) {
	query := s.rebind("SELECT id, username, email, password, is_verified, last_active_at FROM users WHERE id = ?")
	return s.scanUser(s.db.QueryRow(query, id))
}

func (s *SQLStore) SearchUsers(queryStr string) ([]models.User, error) {
	query := s.rebind("SELECT id, username, email FROM users WHERE username LIKE ? LIMIT 10")
	rows, err := s.db.Query(query, "%"+queryStr+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email); err != nil {
			return nil, err
		}
		user.Email = maskEmail(user.Email)
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *SQLStore) VerifyUser(token string) error {
	query := s.rebind("UPDATE users SET is_verified = TRUE, verification_token = '' WHERE verification_token = ? AND verification_token != ''")
	result, err := s.db.Exec(query, token)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *SQLStore) UserLastActive(userID int) (time.Time, error) {
	var lastActive sql.NullTime
	query := s.rebind("SELECT last_active_at FROM users WHERE id = ?")
	err := s.db.QueryRow(query, userID).Scan(&lastActive)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, store.ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	if !lastActive.Valid {
		return time.Time{}, nil
	}
	return lastActive.Time, nil
}

// execer lets activity bumps run either on the pool or inside a transaction.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *SQLStore) touchUserActivity(e execer, userID int, at time.Time) error {
	query := s.rebind("UPDATE users SET last_active_at = ? WHERE id = ?")
	_, err := e.Exec(query, at, userID)
	return err
}

func maskEmail(email string) string {
	if email == "" {
		return ""
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}
	local, domain := parts[0], parts[1]
	length := len(local)
	visible := 1
	if length > 2 {
		visible = length / 2
		if visible > 3 {
			visible = 3
		}
	}

	maskedLocal := local[:visible] + strings.Repeat("*", length-visible)
	return maskedLocal + "@" + domain
}
