package presence

import (
	"log"
	"sync"
	"time"
)

// Sessions is the registry surface the heartbeater drives.
type Sessions interface {
	Open(chatID, userID int) error
	Refresh(chatID, userID int) error
	Close(chatID, userID int)
}

// Heartbeater keeps one chat-view session alive: it opens the session
// immediately and refreshes it on a fixed interval until closed. It is the
// client-side counterpart of the Registry.
type Heartbeater struct {
	sessions Sessions
	chatID   int
	userID   int
	interval time.Duration

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func StartHeartbeat(sessions Sessions, chatID, userID int, interval time.Duration) *Heartbeater {
	h := &Heartbeater{
		sessions: sessions,
		chatID:   chatID,
		userID:   userID,
		interval: interval,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Heartbeater) run() {
	defer close(h.done)

	if err := h.sessions.Open(h.chatID, h.userID); err != nil {
		log.Printf("open session chat=%d user=%d: %v", h.chatID, h.userID, err)
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := h.sessions.Refresh(h.chatID, h.userID); err != nil {
				log.Printf("refresh session chat=%d user=%d: %v", h.chatID, h.userID, err)
			}
		case <-h.quit:
			return
		}
	}
}

// Close stops the heartbeat loop and fires a best-effort session close
// without blocking the caller. Must be called on every exit path from the
// chat view; a missed close self-heals via the liveness window.
func (h *Heartbeater) Close() {
	h.closeOnce.Do(func() {
		close(h.quit)
		<-h.done
		go h.sessions.Close(h.chatID, h.userID)
	})
}
