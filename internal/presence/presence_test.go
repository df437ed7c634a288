package presence

import (
	"testing"
	"time"

	"github.com/encorehq/chatcore/internal/models"
	"github.com/encorehq/chatcore/internal/store/sqlstore"
)

func newTestRegistry(t *testing.T) (*Registry, *sqlstore.SQLStore, int, int) {
	t.Helper()
	s, err := sqlstore.New("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	s.CreateUser(&models.User{Username: "alice", Email: "alice@example.com", Password: "pass"})
	s.CreateUser(&models.User{Username: "bob", Email: "bob@example.com", Password: "pass"})
	alice, _ := s.GetUserByUsername("alice")
	bob, _ := s.GetUserByUsername("bob")
	chatID, err := s.GetOrCreateDirectChat(alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("Failed to create chat: %v", err)
	}
	return NewRegistry(s, 30*time.Second), s, chatID, alice.ID
}

func TestIsLiveToleratesOneMissedHeartbeat(t *testing.T) {
	registry, s, chatID, userID := newTestRegistry(t)

	// 45s old: one heartbeat missed, still live.
	s.UpsertSession(chatID, userID, time.Now().Add(-45*time.Second))
	live, err := registry.IsLive(chatID, userID)
	if err != nil {
		t.Fatalf("IsLive failed: %v", err)
	}
	if !live {
		t.Error("Expected session with 45s-old heartbeat to be live")
	}

	// 65s old: two heartbeats missed, dead.
	s.UpsertSession(chatID, userID, time.Now().Add(-65*time.Second))
	live, _ = registry.IsLive(chatID, userID)
	if live {
		t.Error("Expected session with 65s-old heartbeat to be dead")
	}
}

func TestIsLiveMissingSession(t *testing.T) {
	registry, _, chatID, userID := newTestRegistry(t)

	live, err := registry.IsLive(chatID, userID)
	if err != nil {
		t.Fatalf("IsLive failed: %v", err)
	}
	if live {
		t.Error("Expected missing session to be dead")
	}
}

func TestOpenRefreshClose(t *testing.T) {
	registry, s, chatID, userID := newTestRegistry(t)

	if err := registry.Open(chatID, userID); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	live, _ := registry.IsLive(chatID, userID)
	if !live {
		t.Error("Expected freshly opened session to be live")
	}

	// Refresh after a concurrent close recreates the session.
	s.DeleteSession(chatID, userID)
	if err := registry.Refresh(chatID, userID); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	live, _ = registry.IsLive(chatID, userID)
	if !live {
		t.Error("Expected refresh to recreate the session")
	}

	registry.Close(chatID, userID)
	live, _ = registry.IsLive(chatID, userID)
	if live {
		t.Error("Expected closed session to be dead")
	}
}

func TestOnline(t *testing.T) {
	now := time.Now()

	if !Online(now.Add(-4*time.Minute), now) {
		t.Error("Expected activity 4 minutes ago to count as online")
	}
	if Online(now.Add(-6*time.Minute), now) {
		t.Error("Expected activity 6 minutes ago to count as offline")
	}
	if Online(time.Time{}, now) {
		t.Error("Expected never-active user to be offline")
	}
}
