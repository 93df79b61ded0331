// Package ingest loads order batches from JSON files and replays them
// through a book. Batch files are how pre-signed orders arrive from the
// order-creation tooling.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/clobx/matchbook/pkg/engine"
	"github.com/clobx/matchbook/pkg/util"
)

// Record is one order in a batch file. Side follows the wire convention
// 0 = buy, 1 = sell; the signature fields are carried opaquely.
type Record struct {
	OrderID       uint64 `json:"orderId"`
	Side          int    `json:"side"`
	Price         int64  `json:"price"`
	Size          int64  `json:"size"`
	Trader        string `json:"trader"`
	SignatureType string `json:"signatureType"`
	V             uint8  `json:"v"`
	R             string `json:"r"`
	S             string `json:"s"`
}

// LoadFile reads a JSON array of order records.
func LoadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read order batch: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse order batch %s: %w", path, err)
	}
	return records, nil
}

// Result summarizes one replayed batch. Trades carries every fill the
// batch produced so the caller can hand them to settlement.
type Result struct {
	Orders   int
	Trades   []engine.Trade
	Rejected int
}

// Apply converts records to limit orders and runs them through the book in
// file order, stamping submission times from the sequencer. Records that
// fail validation are counted and skipped rather than aborting the batch.
func Apply(book *engine.Orderbook, seq *util.Sequencer, records []Record, log *zap.SugaredLogger) Result {
	var res Result
	for _, rec := range records {
		var side engine.Side
		switch rec.Side {
		case 0:
			side = engine.Buy
		case 1:
			side = engine.Sell
		default:
			res.Rejected++
			if log != nil {
				log.Warnw("order_rejected", "order_id", rec.OrderID, "err",
					fmt.Sprintf("side must be 0 or 1, got %d", rec.Side))
			}
			continue
		}

		o, err := engine.NewLimitOrder(rec.OrderID, side, rec.Price, rec.Size, seq.Next(), rec.Trader)
		if err != nil {
			res.Rejected++
			if log != nil {
				log.Warnw("order_rejected", "order_id", rec.OrderID, "err", err)
			}
			continue
		}
		o.SetSignature(engine.Signature{Type: rec.SignatureType, V: rec.V, R: rec.R, S: rec.S})

		trades, _ := book.Process(o)
		res.Orders++
		res.Trades = append(res.Trades, trades...)
	}

	// Rotate the book's log: the batch's fills leave through Result.Trades
	// and must not linger in the engine.
	book.DrainTrades()

	if log != nil {
		log.Infow("batch_applied",
			"orders", res.Orders, "trades", len(res.Trades), "rejected", res.Rejected)
	}
	return res
}
