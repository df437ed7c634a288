// Package typing tracks who is composing a message: a Tracker drives the
// local composer's Idle/Typing state machine, a Registry holds the
// server-side view with lazy expiry.
package typing

import (
	"log"
	"strings"
	"sync"
	"time"
)

// Signaler publishes typing transitions to the other participants. Errors
// are best-effort signals, logged and swallowed.
type Signaler interface {
	StartTyping(chatID int) error
	StopTyping(chatID int) error
}

// Tracker owns the typing state for one composer. The first non-empty input
// signals start; each further keystroke resets the self-timeout; send, an
// emptied composer, the timeout, or Close all signal stop. Stop while
// already idle is a no-op.
type Tracker struct {
	chatID   int
	signaler Signaler
	timeout  time.Duration

	mu     sync.Mutex
	typing bool
	timer  *time.Timer
	closed bool
}

func NewTracker(chatID int, signaler Signaler, timeout time.Duration) *Tracker {
	return &Tracker{chatID: chatID, signaler: signaler, timeout: timeout}
}

// Input reports the composer content after a keystroke.
func (t *Tracker) Input(content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	if strings.TrimSpace(content) == "" {
		t.stopLocked()
		return
	}

	if !t.typing {
		t.typing = true
		if err := t.signaler.StartTyping(t.chatID); err != nil {
			log.Printf("start typing chat=%d: %v", t.chatID, err)
		}
	}
	if t.timer == nil {
		t.timer = time.AfterFunc(t.timeout, t.expire)
	} else {
		t.timer.Reset(t.timeout)
	}
}

// MessageSent clears the typing state immediately, without waiting for the
// timeout.
func (t *Tracker) MessageSent() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Close tears the tracker down, signalling stop if still typing.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.stopLocked()
}

func (t *Tracker) expire() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Tracker) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
	}
	if !t.typing {
		return
	}
	t.typing = false
	if err := t.signaler.StopTyping(t.chatID); err != nil {
		log.Printf("stop typing chat=%d: %v", t.chatID, err)
	}
}
