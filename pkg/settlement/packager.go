// Package settlement translates matched trades into the payloads the
// on-chain settlement contract consumes, archives them, and submits them to
// an execution venue. It sits strictly downstream of the matching engine:
// nothing here feeds back into the book.
package settlement

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/clobx/matchbook/pkg/crypto"
	"github.com/clobx/matchbook/pkg/engine"
	"github.com/clobx/matchbook/pkg/util"
)

// Config identifies the token pair being settled and the fee recipient.
type Config struct {
	CashToken     common.Address
	SecurityToken common.Address
	FeeRecipient  common.Address
	// Expiry is how long a packaged trade stays fillable. Zero means the
	// default of one hour.
	Expiry time.Duration
}

// ReadyTrade is one settleable fill in the wire format of the settlement
// contract's fillLimitOrder call. Amounts are decimal strings: the contract
// side deals in uint256 and JSON numbers would lose precision.
type ReadyTrade struct {
	MakerToken    string `json:"makerToken"`
	TakerToken    string `json:"takerToken"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Maker         string `json:"maker"`
	Taker         string `json:"taker"`
	Sender        string `json:"sender"`
	FeeRecipient  string `json:"feeRecipient"`
	Pool          string `json:"pool"`
	Expiration    int64  `json:"expiration"`
	Salt          string `json:"salt"`
	MakerIsBuyer  bool   `json:"makerIsBuyer"`
	SignatureType string `json:"signatureType"`
	BuyerV        uint8  `json:"buyer_v"`
	BuyerR        string `json:"buyer_r"`
	BuyerS        string `json:"buyer_s"`
	SellerV       uint8  `json:"seller_v"`
	SellerR       string `json:"seller_r"`
	SellerS       string `json:"seller_s"`
}

// Packager maps engine trades onto ReadyTrades for one token pair.
type Packager struct {
	cfg   Config
	clock util.Clock
	nonce uint64 // salt uniqueness across same-instant trades
}

func NewPackager(cfg Config) *Packager {
	if cfg.Expiry == 0 {
		cfg.Expiry = time.Hour
	}
	return &Packager{cfg: cfg, clock: util.RealClock{}}
}

// WithClock overrides the wall clock; tests use it to pin expirations.
func (p *Packager) WithClock(clock util.Clock) *Packager {
	p.clock = clock
	return p
}

// Package converts a batch of trades, typically the output of one
// Orderbook.DrainTrades call, into settlement-ready payloads.
func (p *Packager) Package(trades []engine.Trade) []ReadyTrade {
	out := make([]ReadyTrade, 0, len(trades))
	for _, t := range trades {
		out = append(out, p.packageOne(t))
	}
	return out
}

func (p *Packager) packageOne(t engine.Trade) ReadyTrade {
	cashAmount := t.Price * t.Size
	securityAmount := t.Size

	buyer := crypto.ChecksumAddress(t.BuyerID)
	seller := crypto.ChecksumAddress(t.SellerID)

	// The maker is the party whose order rested in the book. A selling
	// taker hit a resting bid, so the maker is the buyer.
	makerIsBuyer := t.TakerSide != engine.Buy

	rt := ReadyTrade{
		FeeRecipient:  p.cfg.FeeRecipient.Hex(),
		Pool:          (common.Address{}).Hex(),
		Expiration:    p.clock.Now().Add(p.cfg.Expiry).Unix(),
		MakerIsBuyer:  makerIsBuyer,
		SignatureType: signatureType(t),
		BuyerV:        t.BuyerSig.V,
		BuyerR:        t.BuyerSig.R,
		BuyerS:        t.BuyerSig.S,
		SellerV:       t.SellerSig.V,
		SellerR:       t.SellerSig.R,
		SellerS:       t.SellerSig.S,
	}

	// The buyer pays cash and receives the security; maker/taker legs
	// follow from who the buyer is.
	if makerIsBuyer {
		rt.Maker, rt.Taker = buyer, seller
		rt.MakerToken = p.cfg.CashToken.Hex()
		rt.TakerToken = p.cfg.SecurityToken.Hex()
		rt.MakerAmount = fmt.Sprintf("%d", cashAmount)
		rt.TakerAmount = fmt.Sprintf("%d", securityAmount)
	} else {
		rt.Maker, rt.Taker = seller, buyer
		rt.MakerToken = p.cfg.SecurityToken.Hex()
		rt.TakerToken = p.cfg.CashToken.Hex()
		rt.MakerAmount = fmt.Sprintf("%d", securityAmount)
		rt.TakerAmount = fmt.Sprintf("%d", cashAmount)
	}
	rt.Sender = rt.Taker
	rt.Salt = p.salt(rt.Maker, rt.Taker)
	return rt
}

func signatureType(t engine.Trade) string {
	if t.BuyerSig.Type != "" {
		return t.BuyerSig.Type
	}
	if t.SellerSig.Type != "" {
		return t.SellerSig.Type
	}
	return "EIP-712"
}

// salt derives a unique order salt from the counterparties, the current
// time and a per-packager counter.
func (p *Packager) salt(maker, taker string) string {
	p.nonce++
	seed := fmt.Sprintf("%s%s%d%d", maker, taker, p.clock.Now().UnixNano(), p.nonce)
	return ethcrypto.Keccak256Hash([]byte(seed)).Hex()
}
