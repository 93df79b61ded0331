package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidOrder is returned by the order constructors when a required
// field is missing or non-positive. The book itself never sees an invalid
// order; validation happens entirely at construction time.
var ErrInvalidOrder = errors.New("invalid order")

type Side int8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType distinguishes the three order variants. They share one struct;
// the book dispatches on Type rather than on concrete types.
type OrderType int8

const (
	Limit OrderType = iota
	Market
	Cancel
)

func (t OrderType) String() string {
	switch t {
	case Limit:
		return "limit"
	case Market:
		return "market"
	case Cancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Signature is the authentication payload attached to an order before
// submission. The engine neither validates nor interprets it; it is carried
// through unmodified onto the trades the order participates in.
type Signature struct {
	Type string `json:"signatureType"` // e.g. "EIP-712"
	V    uint8  `json:"v"`
	R    string `json:"r"` // 0x-prefixed 32-byte hex
	S    string `json:"s"`
}

// Order is a single order intent. Price is in integer ticks, Size and
// Remaining in integer lots. Time is the submission timestamp assigned by
// the caller's sequencer; it must be strictly increasing across orders
// submitted to one book so that time priority is deterministic.
type Order struct {
	ID        uint64
	Type      OrderType
	Side      Side
	Price     int64 // zero for market and cancel orders
	Size      int64
	Remaining int64
	Time      int64
	Trader    string
	Sig       Signature
}

// NewLimitOrder builds a limit order. Price and size must be positive.
func NewLimitOrder(id uint64, side Side, price, size, time int64, trader string) (*Order, error) {
	if price <= 0 {
		return nil, fmt.Errorf("%w: limit order price must be positive, got %d", ErrInvalidOrder, price)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: order size must be positive, got %d", ErrInvalidOrder, size)
	}
	return &Order{
		ID:        id,
		Type:      Limit,
		Side:      side,
		Price:     price,
		Size:      size,
		Remaining: size,
		Time:      time,
		Trader:    trader,
	}, nil
}

// NewMarketOrder builds a market order. It carries no price and matches at
// whatever the opposite side offers.
func NewMarketOrder(id uint64, side Side, size, time int64, trader string) (*Order, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: order size must be positive, got %d", ErrInvalidOrder, size)
	}
	return &Order{
		ID:        id,
		Type:      Market,
		Side:      side,
		Size:      size,
		Remaining: size,
		Time:      time,
		Trader:    trader,
	}, nil
}

// NewCancelOrder builds a removal instruction for the resting order with
// the given ID. It is not itself an order and never rests.
func NewCancelOrder(id uint64) *Order {
	return &Order{ID: id, Type: Cancel}
}

// SetSignature attaches the authentication payload. Opaque to the engine.
func (o *Order) SetSignature(sig Signature) { o.Sig = sig }

func (o *Order) String() string {
	if o.Type == Cancel {
		return fmt.Sprintf("Order(id=%d, cancel)", o.ID)
	}
	return fmt.Sprintf("Order(id=%d, %s %s, price=%d, size=%d, remaining=%d)",
		o.ID, o.Type, o.Side, o.Price, o.Size, o.Remaining)
}

// bookKey is the total order used for book placement: price (direction
// depends on side, applied by the owning list), then submission time, then
// order ID. The ID tiebreak guarantees a strict total order even when two
// orders carry the same timestamp.
type bookKey struct {
	price int64
	time  int64
	id    uint64
}

func keyOf(o *Order) bookKey {
	return bookKey{price: o.Price, time: o.Time, id: o.ID}
}
