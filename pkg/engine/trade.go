package engine

import "fmt"

// Trade is the immutable record of one crossing event. Price is always the
// maker's (resting order's) quoted price; price improvement accrues to the
// taker. Trades are append-only and never mutated after creation.
type Trade struct {
	TakerOrderID uint64
	MakerOrderID uint64
	TakerSide    Side
	Price        int64
	Size         int64
	Time         int64 // taker's submission time
	BuyerID      string
	SellerID     string
	BuyerSig     Signature
	SellerSig    Signature
}

// newTrade builds the record for one crossing step, attributing buyer and
// seller by the taker's side.
func newTrade(taker, maker *Order, volume int64) Trade {
	t := Trade{
		TakerOrderID: taker.ID,
		MakerOrderID: maker.ID,
		TakerSide:    taker.Side,
		Price:        maker.Price,
		Size:         volume,
		Time:         taker.Time,
	}
	if taker.Side == Buy {
		t.BuyerID, t.SellerID = taker.Trader, maker.Trader
		t.BuyerSig, t.SellerSig = taker.Sig, maker.Sig
	} else {
		t.BuyerID, t.SellerID = maker.Trader, taker.Trader
		t.BuyerSig, t.SellerSig = maker.Sig, taker.Sig
	}
	return t
}

func (t Trade) String() string {
	return fmt.Sprintf("Trade(taker=%d, maker=%d, price=%d, size=%d, buyer=%s, seller=%s)",
		t.TakerOrderID, t.MakerOrderID, t.Price, t.Size, t.BuyerID, t.SellerID)
}
