package util

import (
	"sync"
	"time"
)

type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

type RealClock struct{}

func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (RealClock) Now() time.Time                         { return time.Now() }

// Sequencer is the book's source of submission timestamps and order IDs.
//
// Timestamps are wall-clock microseconds bumped to stay strictly increasing
// even when the clock resolution is coarser than the order arrival rate, so
// time priority is always deterministic. IDs are a plain counter, unique
// within one process.
type Sequencer struct {
	mu     sync.Mutex
	clock  Clock
	last   int64
	nextID uint64
}

func NewSequencer(clock Clock) *Sequencer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Sequencer{clock: clock}
}

// Next returns a submission timestamp strictly greater than any previously
// returned by this sequencer.
func (s *Sequencer) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now().UnixMicro()
	if now <= s.last {
		now = s.last + 1
	}
	s.last = now
	return now
}

// NextID returns a fresh order ID, starting at 1.
func (s *Sequencer) NextID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return s.nextID
}
