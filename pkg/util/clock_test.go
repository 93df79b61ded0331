package util

import (
	"testing"
	"time"
)

// frozenClock always returns the same instant, forcing the sequencer to
// resolve collisions itself.
type frozenClock struct{ t time.Time }

func (c frozenClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (c frozenClock) Now() time.Time                         { return c.t }

func TestSequencerStrictlyIncreasing(t *testing.T) {
	s := NewSequencer(frozenClock{t: time.UnixMicro(1_000_000)})

	prev := int64(0)
	for i := 0; i < 100; i++ {
		ts := s.Next()
		if ts <= prev {
			t.Fatalf("timestamp %d not strictly greater than %d", ts, prev)
		}
		prev = ts
	}
}

func TestSequencerIDsUnique(t *testing.T) {
	s := NewSequencer(nil)
	seen := make(map[uint64]bool)
	for i := 0; i < 100; i++ {
		id := s.NextID()
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
}
