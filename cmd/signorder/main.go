package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/clobx/matchbook/pkg/api"
	"github.com/clobx/matchbook/pkg/crypto"
)

// signorder generates (or loads) a secp256k1 key, signs an order as EIP-712
// typed data, and prints a request body ready to POST to /api/v1/orders.
func main() {
	var (
		keyHex   = flag.String("key", "", "private key hex; empty generates a fresh key")
		side     = flag.Int("side", 0, "0 = buy, 1 = sell")
		price    = flag.Int64("price", 100, "limit price")
		size     = flag.Int64("size", 10, "order size")
		nonce    = flag.Int64("nonce", 1, "signing nonce")
		chainID  = flag.Int64("chain", 1337, "EIP-712 chain ID")
		contract = flag.String("contract", "", "verifying contract address")
		ttl      = flag.Duration("ttl", time.Hour, "order expiration from now")
	)
	flag.Parse()

	var (
		signer *crypto.Signer
		err    error
	)
	if *keyHex != "" {
		signer, err = crypto.FromPrivateKeyHex(*keyHex)
	} else {
		signer, err = crypto.GenerateKey()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Address:     %s\n", signer.Address().Hex())
	if *keyHex == "" {
		fmt.Printf("Private Key: %s (keep secret)\n", signer.PrivateKeyHex())
	}

	order := &crypto.OrderEIP712{
		Trader:     signer.Address(),
		Side:       uint8(*side),
		Price:      big.NewInt(*price),
		Size:       big.NewInt(*size),
		Nonce:      big.NewInt(*nonce),
		Expiration: big.NewInt(time.Now().Add(*ttl).Unix()),
	}

	domain := crypto.DefaultDomain(*chainID, common.HexToAddress(*contract))
	eip712 := crypto.NewEIP712Signer(domain)

	sig, err := eip712.SignOrder(signer, order)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign: %v\n", err)
		os.Exit(1)
	}

	valid, err := eip712.VerifyOrderSignature(order, sig)
	if err != nil || !valid {
		fmt.Fprintf(os.Stderr, "verify: valid=%v err=%v\n", valid, err)
		os.Exit(1)
	}

	r, s, v, err := crypto.SignatureToRSV(sig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rsv: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Signature:   0x%x\n\n", sig)

	req := api.SubmitOrderRequest{
		Type:          "limit",
		Side:          *side,
		Price:         *price,
		Size:          *size,
		Trader:        signer.Address().Hex(),
		SignatureType: "EIP-712",
		V:             v,
		R:             fmt.Sprintf("0x%064x", r),
		S:             fmt.Sprintf("0x%064x", s),
	}
	body, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("POST http://localhost:8080/api/v1/orders")
	fmt.Println(string(body))
}
