package engine

import (
	"math/rand"
	"time"
)

const (
	maxLevel = 16
	levelP   = 0.5
)

// node is one entry in the skip list. forward has one pointer per level the
// node participates in; higher levels act as express lanes over the base
// linked list at level 0.
type node struct {
	key     bookKey
	order   *Order
	forward []*node
}

// skipList keeps (bookKey, *Order) pairs sorted by price-time-ID priority.
// The side decides the price direction: bids sort by descending price, asks
// by ascending, so the minimum-keyed entry is always the best order on that
// side. Insert and delete are expected O(log n); best-order peek is O(1).
//
// Level assignment is probabilistic (repeated coin flips with p=0.5, capped
// at maxLevel). The rand source is injectable so tests can seed it.
type skipList struct {
	head  *node // sentinel, anchors every level
	level int
	size  int
	side  Side
	rng   *rand.Rand
}

func newSkipList(side Side, rng *rand.Rand) *skipList {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &skipList{
		head: &node{forward: make([]*node, maxLevel)},
		side: side,
		rng:  rng,
	}
}

// less orders keys by price in this side's priority direction, then by
// submission time, then by order ID.
func (s *skipList) less(a, b bookKey) bool {
	if a.price != b.price {
		if s.side == Buy {
			return a.price > b.price
		}
		return a.price < b.price
	}
	if a.time != b.time {
		return a.time < b.time
	}
	return a.id < b.id
}

func (s *skipList) randomLevel() int {
	lvl := 1
	for s.rng.Float64() < levelP && lvl < maxLevel {
		lvl++
	}
	return lvl
}

// insert splices o into the list. Keys are unique per live order, so
// duplicates are not expected and not checked for.
func (s *skipList) insert(o *Order) {
	key := keyOf(o)
	var update [maxLevel]*node

	x := s.head
	for i := s.level - 1; i >= 0; i-- {
		for x.forward[i] != nil && s.less(x.forward[i].key, key) {
			x = x.forward[i]
		}
		update[i] = x
	}

	lvl := s.randomLevel()
	if lvl > s.level {
		for i := s.level; i < lvl; i++ {
			update[i] = s.head
		}
		s.level = lvl
	}

	n := &node{key: key, order: o, forward: make([]*node, lvl)}
	for i := 0; i < lvl; i++ {
		n.forward[i] = update[i].forward[i]
		update[i].forward[i] = n
	}
	s.size++
}

// delete unsplices the entry with the given key and returns its order.
// A missing key is not an error: cancelling an already-matched order is an
// expected no-op.
func (s *skipList) delete(key bookKey) (*Order, bool) {
	var update [maxLevel]*node

	x := s.head
	for i := s.level - 1; i >= 0; i-- {
		for x.forward[i] != nil && s.less(x.forward[i].key, key) {
			x = x.forward[i]
		}
		update[i] = x
	}

	x = x.forward[0]
	if x == nil || x.key != key {
		return nil, false
	}

	for i := 0; i < s.level; i++ {
		if update[i].forward[i] != x {
			break
		}
		update[i].forward[i] = x.forward[i]
	}

	for s.level > 1 && s.head.forward[s.level-1] == nil {
		s.level--
	}

	s.size--
	return x.order, true
}

// peekMin returns the best order on this side without removing it.
func (s *skipList) peekMin() *Order {
	if s.head.forward[0] == nil {
		return nil
	}
	return s.head.forward[0].order
}

// popMin removes and returns the best order on this side.
func (s *skipList) popMin() *Order {
	first := s.head.forward[0]
	if first == nil {
		return nil
	}
	o, _ := s.delete(first.key)
	return o
}

// ascend walks entries in priority order until fn returns false.
func (s *skipList) ascend(fn func(*Order) bool) {
	for x := s.head.forward[0]; x != nil; x = x.forward[0] {
		if !fn(x.order) {
			return
		}
	}
}

func (s *skipList) len() int { return s.size }
