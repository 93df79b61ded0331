package engine

import "math/rand"

// OrderStatus is the post-call state of an order returned by Process.
type OrderStatus int8

const (
	// StatusNew means the order was not touched (never happens for orders
	// returned by Process; zero value only).
	StatusNew OrderStatus = iota
	// StatusResting means a limit order entered the book unfilled.
	StatusResting
	// StatusPartiallyFilled means a limit order matched partially and its
	// remainder now rests in the book.
	StatusPartiallyFilled
	// StatusFilled means the order matched completely and never rests.
	StatusFilled
	// StatusCancelled means a cancel instruction removed its target.
	StatusCancelled
	// StatusNoop means a cancel instruction found no matching resting
	// order. Not an error; cancelling twice is expected.
	StatusNoop
	// StatusExhausted means a market order ran out of opposite liquidity
	// with Remaining > 0. The remainder is dropped, not rested.
	StatusExhausted
)

func (st OrderStatus) String() string {
	switch st {
	case StatusNew:
		return "new"
	case StatusResting:
		return "resting"
	case StatusPartiallyFilled:
		return "partially_filled"
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	case StatusNoop:
		return "noop"
	case StatusExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// PriceLevel is one aggregated depth entry: total resting size at a price.
type PriceLevel struct {
	Price int64 `json:"price"`
	Size  int64 `json:"size"`
}

// resting locates a live order for O(log n) cancellation.
type resting struct {
	key  bookKey
	side Side
}

// Orderbook owns one bid list, one ask list and the append-only trade log.
//
// It is deliberately single-threaded: Process runs one order to completion
// before the next is accepted and the book performs no internal locking.
// A caller that needs concurrent intake must serialize at a single point
// (one owner goroutine or one mutex) in front of the book.
type Orderbook struct {
	bids  *skipList
	asks  *skipList
	index map[uint64]resting // live resting orders, id -> placement key
	log   []Trade
}

// NewOrderbook creates an empty book. A nil rng falls back to a
// time-seeded source; tests pass a seeded one for deterministic skip-list
// levels.
func NewOrderbook(rng *rand.Rand) *Orderbook {
	return &Orderbook{
		bids:  newSkipList(Buy, rng),
		asks:  newSkipList(Sell, rng),
		index: make(map[uint64]resting),
	}
}

func min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// Process takes ownership of one order and runs it to completion: cancels
// remove their target, market and limit orders cross against the opposite
// side under price-time priority, and an unfilled limit remainder rests.
// It returns the trades produced by this call and the order's final state.
func (b *Orderbook) Process(o *Order) ([]Trade, OrderStatus) {
	if o.Type == Cancel {
		return nil, b.cancel(o.ID)
	}

	var trades []Trade
	opposite := b.asks
	if o.Side == Sell {
		opposite = b.bids
	}

	for o.Remaining > 0 && b.crosses(o) {
		maker := opposite.popMin()
		delete(b.index, maker.ID)

		volume := min(o.Remaining, maker.Remaining)
		o.Remaining -= volume
		maker.Remaining -= volume
		trades = append(trades, newTrade(o, maker, volume))

		if maker.Remaining > 0 {
			// The maker was the larger side of the last crossing step, so
			// the incoming order is exhausted; put the remainder back and
			// stop.
			b.rest(maker)
			break
		}
	}

	b.log = append(b.log, trades...)

	if o.Remaining == 0 {
		return trades, StatusFilled
	}
	switch o.Type {
	case Limit:
		b.rest(o)
		if o.Remaining < o.Size {
			return trades, StatusPartiallyFilled
		}
		return trades, StatusResting
	default: // Market remainder is dropped, never rested.
		return trades, StatusExhausted
	}
}

// crosses reports whether the incoming order can still match: the opposite
// side must be non-empty, and a limit order's price must satisfy the best
// opposite price. A market order crosses against any available liquidity.
func (b *Orderbook) crosses(o *Order) bool {
	if o.Side == Buy {
		best := b.asks.peekMin()
		if best == nil {
			return false
		}
		return o.Type == Market || o.Price >= best.Price
	}
	best := b.bids.peekMin()
	if best == nil {
		return false
	}
	return o.Type == Market || o.Price <= best.Price
}

func (b *Orderbook) rest(o *Order) {
	if o.Side == Buy {
		b.bids.insert(o)
	} else {
		b.asks.insert(o)
	}
	b.index[o.ID] = resting{key: keyOf(o), side: o.Side}
}

func (b *Orderbook) cancel(id uint64) OrderStatus {
	r, ok := b.index[id]
	if !ok {
		return StatusNoop
	}
	if r.side == Buy {
		b.bids.delete(r.key)
	} else {
		b.asks.delete(r.key)
	}
	delete(b.index, id)
	return StatusCancelled
}

// BestBid returns the highest resting bid price.
func (b *Orderbook) BestBid() (int64, bool) {
	if o := b.bids.peekMin(); o != nil {
		return o.Price, true
	}
	return 0, false
}

// BestAsk returns the lowest resting ask price.
func (b *Orderbook) BestAsk() (int64, bool) {
	if o := b.asks.peekMin(); o != nil {
		return o.Price, true
	}
	return 0, false
}

// AscendBids walks resting bids in priority order (highest price, earliest
// time first) until fn returns false.
func (b *Orderbook) AscendBids(fn func(*Order) bool) { b.bids.ascend(fn) }

// AscendAsks walks resting asks in priority order (lowest price, earliest
// time first) until fn returns false.
func (b *Orderbook) AscendAsks(fn func(*Order) bool) { b.asks.ascend(fn) }

// BidDepth aggregates the top n bid price levels; n <= 0 means all.
func (b *Orderbook) BidDepth(n int) []PriceLevel { return depth(b.bids, n) }

// AskDepth aggregates the top n ask price levels; n <= 0 means all.
func (b *Orderbook) AskDepth(n int) []PriceLevel { return depth(b.asks, n) }

func depth(s *skipList, n int) []PriceLevel {
	var levels []PriceLevel
	s.ascend(func(o *Order) bool {
		if len(levels) > 0 && levels[len(levels)-1].Price == o.Price {
			levels[len(levels)-1].Size += o.Remaining
			return true
		}
		if n > 0 && len(levels) == n {
			return false
		}
		levels = append(levels, PriceLevel{Price: o.Price, Size: o.Remaining})
		return true
	})
	return levels
}

// Len returns the number of resting orders on both sides.
func (b *Orderbook) Len() int { return b.bids.len() + b.asks.len() }

// Trades returns a read-only view of the accumulated trade log.
func (b *Orderbook) Trades() []Trade { return b.log }

// DrainTrades hands the accumulated trade log to the caller (typically the
// settlement packager) and resets it, keeping the log bounded.
func (b *Orderbook) DrainTrades() []Trade {
	out := b.log
	b.log = nil
	return out
}
