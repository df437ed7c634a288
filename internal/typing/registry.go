package typing

import (
	"sort"
	"sync"
	"time"
)

type key struct {
	chatID int
	userID int
}

// Registry is the server-side typing table: last-write-wins per (chat, user),
// expired lazily by readers. A lost stop signal self-heals once the entry
// ages past the TTL.
type Registry struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[key]time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{ttl: ttl, entries: make(map[key]time.Time)}
}

func (r *Registry) Start(chatID, userID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key{chatID, userID}] = time.Now()
}

func (r *Registry) Stop(chatID, userID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key{chatID, userID})
}

// TypingUsers returns who is composing in the chat, excluding the requester.
func (r *Registry) TypingUsers(chatID, requesterID int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var ids []int
	for k, startedAt := range r.entries {
		if now.Sub(startedAt) >= r.ttl {
			delete(r.entries, k)
			continue
		}
		if k.chatID == chatID && k.userID != requesterID {
			ids = append(ids, k.userID)
		}
	}
	sort.Ints(ids)
	return ids
}
