// Package readsync batches mark-as-read operations for messages that become
// visible to the local user, so a burst of unread messages does not turn
// into one network call per message.
package readsync

import (
	"log"
	"sync"
	"time"
)

// Marker issues read receipts. Failures are best-effort: the debouncer logs
// and swallows them, relying on the next window to retry naturally.
type Marker interface {
	MarkRead(messageID int) error
	BulkMarkRead(messageIDs []int) error
}

// Debouncer collects message ids for a fixed window starting at the first
// observation, then flushes them in one pass: a single bulk call when the
// batch is large, parallel individual calls otherwise. Ids observed after a
// window fires land in the next window, never retroactively in a fired one.
type Debouncer struct {
	marker        Marker
	window        time.Duration
	bulkThreshold int

	observe   chan int
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func New(marker Marker, window time.Duration, bulkThreshold int) *Debouncer {
	d := &Debouncer{
		marker:        marker,
		window:        window,
		bulkThreshold: bulkThreshold,
		observe:       make(chan int),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go d.run()
	return d
}

// Observe reports that an unread message from another sender became visible.
func (d *Debouncer) Observe(messageID int) {
	select {
	case d.observe <- messageID:
	case <-d.quit:
	}
}

// Close stops the debouncer and its timer. Pending ids are discarded; the
// next view naturally re-observes anything still unread.
func (d *Debouncer) Close() {
	d.closeOnce.Do(func() { close(d.quit) })
	<-d.done
}

func (d *Debouncer) run() {
	defer close(d.done)

	timer := time.NewTimer(d.window)
	if !timer.Stop() {
		<-timer.C
	}
	var fire <-chan time.Time

	pending := make(map[int]bool)
	var order []int

	for {
		select {
		case id := <-d.observe:
			if pending[id] {
				continue
			}
			pending[id] = true
			order = append(order, id)
			if fire == nil {
				timer.Reset(d.window)
				fire = timer.C
			}
		case <-fire:
			fire = nil
			batch := order
			pending = make(map[int]bool)
			order = nil
			d.flush(batch)
		case <-d.quit:
			if fire != nil && !timer.Stop() {
				<-timer.C
			}
			return
		}
	}
}

func (d *Debouncer) flush(ids []int) {
	if len(ids) == 0 {
		return
	}

	if len(ids) > d.bulkThreshold {
		if err := d.marker.BulkMarkRead(ids); err != nil {
			log.Printf("bulk mark read (%d messages): %v", len(ids), err)
		}
		return
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(messageID int) {
			defer wg.Done()
			if err := d.marker.MarkRead(messageID); err != nil {
				log.Printf("mark read %d: %v", messageID, err)
			}
		}(id)
	}
	wg.Wait()
}
