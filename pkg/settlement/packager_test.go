package settlement

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"

	"github.com/clobx/matchbook/pkg/engine"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (c fixedClock) Now() time.Time                         { return c.t }

const (
	buyerAddr  = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	sellerAddr = "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"
)

func testConfig() Config {
	return Config{
		CashToken:     common.HexToAddress("0x1234567890123456789012345678901234567890"),
		SecurityToken: common.HexToAddress("0xabcdefabcdefabcdefabcdefabcdefabcdefabcd"),
		FeeRecipient:  common.HexToAddress("0x3C44CdddB6a900fa2b585dd299e03d12FA4293BC"),
	}
}

func testTrade(takerSide engine.Side) engine.Trade {
	t := engine.Trade{
		TakerOrderID: 2,
		MakerOrderID: 1,
		TakerSide:    takerSide,
		Price:        100,
		Size:         5,
		BuyerID:      buyerAddr,
		SellerID:     sellerAddr,
		BuyerSig:     engine.Signature{Type: "EIP-712", V: 27, R: "0xr1", S: "0xs1"},
		SellerSig:    engine.Signature{Type: "EIP-712", V: 28, R: "0xr2", S: "0xs2"},
	}
	return t
}

func TestPackageSellingTakerMakerIsBuyer(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	p := NewPackager(testConfig()).WithClock(fixedClock{t: now})

	out := p.Package([]engine.Trade{testTrade(engine.Sell)})
	if len(out) != 1 {
		t.Fatalf("packaged = %d, want 1", len(out))
	}
	rt := out[0]

	if !rt.MakerIsBuyer {
		t.Error("selling taker means resting buyer is maker")
	}
	// Buyer is the maker: pays cash, receives security.
	if rt.Maker != "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed" {
		t.Errorf("Maker = %s, want checksummed buyer", rt.Maker)
	}
	if rt.Taker != "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359" {
		t.Errorf("Taker = %s, want checksummed seller", rt.Taker)
	}
	if rt.Sender != rt.Taker {
		t.Errorf("Sender = %s, want the taker", rt.Sender)
	}
	if rt.MakerToken != testConfig().CashToken.Hex() {
		t.Errorf("MakerToken = %s, want cash token", rt.MakerToken)
	}
	if rt.TakerToken != testConfig().SecurityToken.Hex() {
		t.Errorf("TakerToken = %s, want security token", rt.TakerToken)
	}
	if rt.MakerAmount != "500" { // price * size
		t.Errorf("MakerAmount = %s, want 500", rt.MakerAmount)
	}
	if rt.TakerAmount != "5" {
		t.Errorf("TakerAmount = %s, want 5", rt.TakerAmount)
	}
	if rt.Expiration != now.Add(time.Hour).Unix() {
		t.Errorf("Expiration = %d, want now+1h", rt.Expiration)
	}
	if rt.Pool != (common.Address{}).Hex() {
		t.Errorf("Pool = %s, want zero address", rt.Pool)
	}
}

func TestPackageBuyingTakerMakerIsSeller(t *testing.T) {
	p := NewPackager(testConfig())

	rt := p.Package([]engine.Trade{testTrade(engine.Buy)})[0]
	if rt.MakerIsBuyer {
		t.Error("buying taker means resting seller is maker")
	}
	if rt.Maker != "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359" {
		t.Errorf("Maker = %s, want checksummed seller", rt.Maker)
	}
	if rt.MakerToken != testConfig().SecurityToken.Hex() {
		t.Errorf("MakerToken = %s, want security token", rt.MakerToken)
	}
	if rt.MakerAmount != "5" {
		t.Errorf("MakerAmount = %s, want 5", rt.MakerAmount)
	}
	if rt.TakerAmount != "500" {
		t.Errorf("TakerAmount = %s, want 500", rt.TakerAmount)
	}
}

func TestPackageCarriesSignatures(t *testing.T) {
	p := NewPackager(testConfig())
	rt := p.Package([]engine.Trade{testTrade(engine.Sell)})[0]

	if rt.SignatureType != "EIP-712" {
		t.Errorf("SignatureType = %s, want EIP-712", rt.SignatureType)
	}
	if rt.BuyerV != 27 || rt.BuyerR != "0xr1" || rt.BuyerS != "0xs1" {
		t.Errorf("buyer sig = (%d, %s, %s), want (27, 0xr1, 0xs1)", rt.BuyerV, rt.BuyerR, rt.BuyerS)
	}
	if rt.SellerV != 28 || rt.SellerR != "0xr2" || rt.SellerS != "0xs2" {
		t.Errorf("seller sig = (%d, %s, %s), want (28, 0xr2, 0xs2)", rt.SellerV, rt.SellerR, rt.SellerS)
	}
}

func TestPackageSaltsUnique(t *testing.T) {
	p := NewPackager(testConfig())
	trades := []engine.Trade{testTrade(engine.Sell), testTrade(engine.Sell), testTrade(engine.Sell)}

	out := p.Package(trades)
	seen := make(map[string]bool)
	for _, rt := range out {
		if len(rt.Salt) != 66 { // 0x + 32 bytes hex
			t.Errorf("salt %q is not a 32-byte hex hash", rt.Salt)
		}
		if seen[rt.Salt] {
			t.Errorf("duplicate salt %s", rt.Salt)
		}
		seen[rt.Salt] = true
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	a, err := OpenArchive(t.TempDir())
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer a.Close()

	p := NewPackager(testConfig())
	batch := p.Package([]engine.Trade{testTrade(engine.Sell), testTrade(engine.Buy)})

	start, err := a.Append(batch)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if start != 0 {
		t.Errorf("first batch start = %d, want 0", start)
	}
	if a.Len() != 2 {
		t.Errorf("Len = %d, want 2", a.Len())
	}

	got, ok, err := a.Get(1)
	if err != nil || !ok {
		t.Fatalf("Get(1) = (%v, %v)", ok, err)
	}
	if got.Maker != batch[1].Maker || got.Salt != batch[1].Salt {
		t.Errorf("stored trade differs from packaged trade")
	}

	if _, ok, _ := a.Get(99); ok {
		t.Error("Get(99) found a trade, want miss")
	}

	var count int
	if err := a.All(func(seq uint64, rt ReadyTrade) bool { count++; return true }); err != nil {
		t.Fatalf("All: %v", err)
	}
	if count != 2 {
		t.Errorf("All visited %d, want 2", count)
	}
}

func TestArchiveAllVisitsMaxSequence(t *testing.T) {
	a, err := OpenArchive(t.TempDir())
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	defer a.Close()

	p := NewPackager(testConfig())
	rt := p.Package([]engine.Trade{testTrade(engine.Sell)})[0]
	val, err := json.Marshal(rt)
	if err != nil {
		t.Fatal(err)
	}
	// Plant a trade at the highest possible sequence; the iterator's
	// exclusive upper bound must still reach it.
	if err := a.db.Set(kTrade(^uint64(0)), val, pebble.Sync); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var seqs []uint64
	if err := a.All(func(seq uint64, got ReadyTrade) bool {
		seqs = append(seqs, seq)
		return true
	}); err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(seqs) != 1 || seqs[0] != ^uint64(0) {
		t.Errorf("All visited %v, want the max-sequence trade", seqs)
	}
}
