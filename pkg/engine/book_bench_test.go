package engine

import (
	"math/rand"
	"testing"
)

// BenchmarkProcess measures matching throughput against a book pre-filled
// with realistic depth.
func BenchmarkProcess(b *testing.B) {
	book := NewOrderbook(rand.New(rand.NewSource(1)))

	tm := int64(0)
	nextTime := func() int64 { tm++; return tm }

	// 100 price levels a side.
	for i := 0; i < 100; i++ {
		bid, _ := NewLimitOrder(uint64(i*2+1), Buy, int64(1000-i), 100, nextTime(), "0xmaker")
		ask, _ := NewLimitOrder(uint64(i*2+2), Sell, int64(1100+i), 100, nextTime(), "0xmaker")
		book.Process(bid)
		book.Process(ask)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		side := Buy
		if i%2 == 0 {
			side = Sell
		}
		// Alternating mid-price orders: each fills against the one the
		// previous iteration rested.
		o, _ := NewLimitOrder(uint64(1000+i), side, 1050, 10, nextTime(), "0xtaker")
		book.Process(o)
		if i%1000 == 0 {
			book.DrainTrades()
		}
	}
}

// BenchmarkSkipListInsert measures raw index insertion.
func BenchmarkSkipListInsert(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	s := newSkipList(Sell, rand.New(rand.NewSource(2)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		o, _ := NewLimitOrder(uint64(i+1), Sell, rng.Int63n(10000)+1, 1, int64(i), "0xmaker")
		s.insert(o)
	}
}
