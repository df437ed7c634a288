// Package presence tracks which participants have a chat open, via
// heartbeat records with reader-side expiry, and the coarser "online" badge
// derived from a user's last activity.
package presence

import (
	"errors"
	"log"
	"time"

	"github.com/encorehq/chatcore/internal/models"
	"github.com/encorehq/chatcore/internal/store"
)

// OnlineThreshold is how recent a user's last activity must be for the
// profile "online" badge. It is a separate concern from chat-session
// liveness and deliberately much coarser.
const OnlineThreshold = 5 * time.Minute

// SessionStore is the subset of the store the registry needs.
type SessionStore interface {
	UpsertSession(chatID, userID int, at time.Time) error
	DeleteSession(chatID, userID int) error
	GetSession(chatID, userID int) (*models.ActiveSession, error)
}

// Registry tracks active chat-view sessions. A session is live while its
// heartbeat is younger than twice the heartbeat interval, so one missed
// heartbeat is tolerated and stale rows go dead on their own.
type Registry struct {
	store    SessionStore
	interval time.Duration
}

func NewRegistry(store SessionStore, heartbeatInterval time.Duration) *Registry {
	return &Registry{store: store, interval: heartbeatInterval}
}

// Open records a heartbeat for the (chat, user) pair. Opening an already
// open session just refreshes it.
func (r *Registry) Open(chatID, userID int) error {
	return r.store.UpsertSession(chatID, userID, time.Now())
}

// Refresh is the periodic heartbeat. The upsert recreates the row if a
// close from another tab removed it concurrently.
func (r *Registry) Refresh(chatID, userID int) error {
	return r.store.UpsertSession(chatID, userID, time.Now())
}

// Close removes the session, best-effort. A failed close is logged and left
// to the liveness window to clean up.
func (r *Registry) Close(chatID, userID int) {
	if err := r.store.DeleteSession(chatID, userID); err != nil {
		log.Printf("close session chat=%d user=%d: %v", chatID, userID, err)
	}
}

func (r *Registry) IsLive(chatID, userID int) (bool, error) {
	session, err := r.store.GetSession(chatID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return time.Since(session.LastHeartbeatAt) < 2*r.interval, nil
}

// Online reports whether a user counts as online for the profile badge.
func Online(lastActiveAt, now time.Time) bool {
	return !lastActiveAt.IsZero() && now.Sub(lastActiveAt) < OnlineThreshold
}
