package crypto

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// EIP712Domain is the domain separator for typed-data signing; it prevents
// replay across chains and contracts.
type EIP712Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// OrderEIP712 is the typed data a trader signs in their wallet before the
// order is submitted to the book. The resulting v/r/s travel with the order
// through matching and out to settlement unmodified.
type OrderEIP712 struct {
	Trader     common.Address
	Side       uint8 // 0 = buy, 1 = sell
	Price      *big.Int
	Size       *big.Int
	Nonce      *big.Int
	Expiration *big.Int // Unix seconds
}

// EIP712Signer hashes and signs orders as EIP-712 typed data.
type EIP712Signer struct {
	domain EIP712Domain
}

func NewEIP712Signer(domain EIP712Domain) *EIP712Signer {
	return &EIP712Signer{domain: domain}
}

// DefaultDomain returns the protocol's signing domain.
func DefaultDomain(chainID int64, contract common.Address) EIP712Domain {
	return EIP712Domain{
		Name:              "DEX Protocol",
		Version:           "1",
		ChainID:           big.NewInt(chainID),
		VerifyingContract: contract,
	}
}

func (e *EIP712Signer) typedData(order *OrderEIP712) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Order": []apitypes.Type{
				{Name: "trader", Type: "address"},
				{Name: "side", Type: "uint8"},
				{Name: "price", Type: "uint256"},
				{Name: "size", Type: "uint256"},
				{Name: "nonce", Type: "uint256"},
				{Name: "expiration", Type: "uint256"},
			},
		},
		PrimaryType: "Order",
		Domain: apitypes.TypedDataDomain{
			Name:              e.domain.Name,
			Version:           e.domain.Version,
			ChainId:           (*math.HexOrDecimal256)(e.domain.ChainID),
			VerifyingContract: e.domain.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"trader":     order.Trader.Hex(),
			"side":       fmt.Sprintf("%d", order.Side),
			"price":      order.Price.String(),
			"size":       order.Size.String(),
			"nonce":      order.Nonce.String(),
			"expiration": order.Expiration.String(),
		},
	}
}

// HashOrder returns the EIP-712 digest for an order:
// keccak256("\x19\x01" || domainSeparator || structHash).
func (e *EIP712Signer) HashOrder(order *OrderEIP712) ([]byte, error) {
	typedData := e.typedData(order)

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}
	structHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to hash message: %w", err)
	}

	rawData := []byte(fmt.Sprintf("\x19\x01%s%s", string(domainSeparator), string(structHash)))
	return crypto.Keccak256Hash(rawData).Bytes(), nil
}

// SignOrder hashes and signs an order with the given key.
func (e *EIP712Signer) SignOrder(signer *Signer, order *OrderEIP712) ([]byte, error) {
	hash, err := e.HashOrder(order)
	if err != nil {
		return nil, fmt.Errorf("failed to hash order: %w", err)
	}
	signature, err := signer.Sign(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to sign order: %w", err)
	}
	return signature, nil
}

// VerifyOrderSignature reports whether signature was made over order by its
// claimed trader.
func (e *EIP712Signer) VerifyOrderSignature(order *OrderEIP712, signature []byte) (bool, error) {
	recovered, err := e.RecoverOrderSigner(order, signature)
	if err != nil {
		return false, err
	}
	return recovered == order.Trader, nil
}

// RecoverOrderSigner recovers the address that signed an order.
func (e *EIP712Signer) RecoverOrderSigner(order *OrderEIP712, signature []byte) (common.Address, error) {
	hash, err := e.HashOrder(order)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to hash order: %w", err)
	}
	return RecoverAddress(hash, signature)
}
