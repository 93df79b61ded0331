package settlement

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// Archive is the durable record of packaged trades, keyed by a monotonic
// sequence number. The matching engine's book state is rebuilt from order
// flow and deliberately not persisted; packaged trades are the one output
// that must survive a restart, so they can be resubmitted to the venue.
type Archive struct {
	db   *pebble.DB
	next uint64
}

// keys: t:<8-byte-seq> for trades, n for the next sequence number
func kTrade(seq uint64) []byte {
	k := make([]byte, 2+8)
	copy(k, "t:")
	binary.BigEndian.PutUint64(k[2:], seq)
	return k
}
func kNext() []byte { return []byte("n") }

func OpenArchive(path string) (*Archive, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	a := &Archive{db: db}

	val, closer, err := db.Get(kNext())
	switch err {
	case nil:
		a.next = binary.BigEndian.Uint64(val)
		closer.Close()
	case pebble.ErrNotFound:
		// fresh archive
	default:
		db.Close()
		return nil, fmt.Errorf("read archive sequence: %w", err)
	}
	return a, nil
}

func (a *Archive) Close() error { return a.db.Close() }

// Append stores a batch of packaged trades and returns the sequence number
// assigned to the first one. The batch and the sequence bump commit
// atomically.
func (a *Archive) Append(trades []ReadyTrade) (uint64, error) {
	start := a.next
	batch := a.db.NewBatch()
	defer batch.Close()

	seq := start
	for _, rt := range trades {
		val, err := json.Marshal(rt)
		if err != nil {
			return 0, fmt.Errorf("encode trade: %w", err)
		}
		if err := batch.Set(kTrade(seq), val, nil); err != nil {
			return 0, err
		}
		seq++
	}

	var nextVal [8]byte
	binary.BigEndian.PutUint64(nextVal[:], seq)
	if err := batch.Set(kNext(), nextVal[:], nil); err != nil {
		return 0, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, fmt.Errorf("commit archive batch: %w", err)
	}
	a.next = seq
	return start, nil
}

// Get returns the packaged trade at seq.
func (a *Archive) Get(seq uint64) (ReadyTrade, bool, error) {
	val, closer, err := a.db.Get(kTrade(seq))
	if err == pebble.ErrNotFound {
		return ReadyTrade{}, false, nil
	}
	if err != nil {
		return ReadyTrade{}, false, err
	}
	defer closer.Close()

	var rt ReadyTrade
	if err := json.Unmarshal(val, &rt); err != nil {
		return ReadyTrade{}, false, fmt.Errorf("decode trade %d: %w", seq, err)
	}
	return rt, true, nil
}

// Len returns the number of archived trades.
func (a *Archive) Len() uint64 { return a.next }

// All iterates archived trades in sequence order until fn returns false.
func (a *Archive) All(fn func(seq uint64, rt ReadyTrade) bool) error {
	// UpperBound is exclusive, so bound by the next key prefix rather than
	// the maximum trade key, which would be unreachable.
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: kTrade(0),
		UpperBound: []byte("t;"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq := binary.BigEndian.Uint64(iter.Key()[2:])
		var rt ReadyTrade
		if err := json.Unmarshal(iter.Value(), &rt); err != nil {
			return fmt.Errorf("decode trade %d: %w", seq, err)
		}
		if !fn(seq, rt) {
			break
		}
	}
	return iter.Error()
}
