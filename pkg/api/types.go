package api

import "github.com/clobx/matchbook/pkg/engine"

// API request/response types for REST endpoints and WebSocket messages

// SubmitOrderRequest places one order. Type is "limit" or "market"; side
// follows the wire convention 0 = buy, 1 = sell. OrderID may be omitted to
// have the server assign one. Signature fields are opaque and optional.
type SubmitOrderRequest struct {
	Type          string `json:"type"`
	Side          int    `json:"side"`
	Price         int64  `json:"price,omitempty"`
	Size          int64  `json:"size"`
	Trader        string `json:"trader"`
	OrderID       uint64 `json:"orderId,omitempty"`
	SignatureType string `json:"signatureType,omitempty"`
	V             uint8  `json:"v,omitempty"`
	R             string `json:"r,omitempty"`
	S             string `json:"s,omitempty"`
}

// SubmitOrderResponse reports the order's final state and the trades the
// call produced.
type SubmitOrderResponse struct {
	OrderID   uint64      `json:"orderId"`
	Status    string      `json:"status"`
	Remaining int64       `json:"remaining"`
	Trades    []TradeInfo `json:"trades"`
}

type CancelOrderRequest struct {
	OrderID uint64 `json:"orderId"`
}

type CancelOrderResponse struct {
	OrderID uint64 `json:"orderId"`
	Status  string `json:"status"`
}

// TradeInfo is one fill as reported over REST and WebSocket.
type TradeInfo struct {
	MakerOrderID uint64 `json:"makerOrderId"`
	TakerOrderID uint64 `json:"takerOrderId"`
	Price        int64  `json:"price"`
	Size         int64  `json:"size"`
	TakerSide    string `json:"takerSide"`
	Buyer        string `json:"buyer"`
	Seller       string `json:"seller"`
	Time         int64  `json:"time"`
}

// OrderbookSnapshot is aggregated depth: bids best-first (high to low),
// asks best-first (low to high).
type OrderbookSnapshot struct {
	Bids      []engine.PriceLevel `json:"bids"`
	Asks      []engine.PriceLevel `json:"asks"`
	Timestamp int64               `json:"timestamp"`
}

// BBOResponse is the top of book; a nil price means that side is empty.
type BBOResponse struct {
	Bid *int64 `json:"bid"`
	Ask *int64 `json:"ask"`
}

// WSMessage is the envelope pushed to WebSocket subscribers.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func tradeInfo(t engine.Trade) TradeInfo {
	return TradeInfo{
		MakerOrderID: t.MakerOrderID,
		TakerOrderID: t.TakerOrderID,
		Price:        t.Price,
		Size:         t.Size,
		TakerSide:    t.TakerSide.String(),
		Buyer:        t.BuyerID,
		Seller:       t.SellerID,
		Time:         t.Time,
	}
}
