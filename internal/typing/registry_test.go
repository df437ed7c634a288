package typing

import (
	"reflect"
	"testing"
	"time"
)

func TestRegistryExcludesRequester(t *testing.T) {
	r := NewRegistry(time.Minute)
	r.Start(1, 10)
	r.Start(1, 11)
	r.Start(2, 12)

	got := r.TypingUsers(1, 10)
	if !reflect.DeepEqual(got, []int{11}) {
		t.Errorf("Expected [11], got %v", got)
	}

	if got := r.TypingUsers(3, 10); len(got) != 0 {
		t.Errorf("Expected no typists in chat 3, got %v", got)
	}
}

func TestRegistryStop(t *testing.T) {
	r := NewRegistry(time.Minute)
	r.Start(1, 10)
	r.Stop(1, 10)

	if got := r.TypingUsers(1, 99); len(got) != 0 {
		t.Errorf("Expected empty after stop, got %v", got)
	}

	// Stopping an absent entry is a no-op.
	r.Stop(1, 10)
}

func TestRegistryLazyExpiry(t *testing.T) {
	r := NewRegistry(50 * time.Millisecond)
	r.Start(1, 10)

	time.Sleep(80 * time.Millisecond)

	if got := r.TypingUsers(1, 99); len(got) != 0 {
		t.Errorf("Expected entry to expire without explicit stop, got %v", got)
	}
}

func TestRegistryRefreshExtends(t *testing.T) {
	r := NewRegistry(60 * time.Millisecond)
	r.Start(1, 10)

	time.Sleep(40 * time.Millisecond)
	r.Start(1, 10) // keystroke refresh

	time.Sleep(40 * time.Millisecond)
	if got := r.TypingUsers(1, 99); !reflect.DeepEqual(got, []int{10}) {
		t.Errorf("Expected refreshed entry to survive, got %v", got)
	}
}
