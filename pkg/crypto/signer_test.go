package crypto

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestGenerateKey(t *testing.T) {
	signer, err := GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	if signer.Address() == (common.Address{}) {
		t.Error("generated zero address")
	}
	if len(signer.PrivateKeyHex()) != 64 {
		t.Errorf("private key hex length = %d, want 64", len(signer.PrivateKeyHex()))
	}
}

func TestFromPrivateKeyHex(t *testing.T) {
	signer1, _ := GenerateKey()
	privHex := signer1.PrivateKeyHex()

	signer2, err := FromPrivateKeyHex(privHex)
	if err != nil {
		t.Fatalf("failed to load key: %v", err)
	}
	if signer2.Address() != signer1.Address() {
		t.Errorf("address = %s, want %s", signer2.Address().Hex(), signer1.Address().Hex())
	}
}

func TestSignatureRSVRoundTrip(t *testing.T) {
	signer, _ := GenerateKey()
	hash := make([]byte, 32)
	hash[31] = 1

	signature, err := signer.Sign(hash)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	if len(signature) != 65 {
		t.Fatalf("signature length = %d, want 65", len(signature))
	}

	r, s, v, err := SignatureToRSV(signature)
	if err != nil {
		t.Fatalf("SignatureToRSV: %v", err)
	}
	rebuilt := RSVToSignature(r, s, v)
	if !bytes.Equal(rebuilt, signature) {
		t.Error("RSV round trip does not reproduce signature")
	}

	recovered, err := RecoverAddress(hash, signature)
	if err != nil {
		t.Fatalf("RecoverAddress: %v", err)
	}
	if recovered != signer.Address() {
		t.Errorf("recovered = %s, want %s", recovered.Hex(), signer.Address().Hex())
	}
}

func TestEIP712SignAndRecover(t *testing.T) {
	signer, _ := GenerateKey()
	e := NewEIP712Signer(DefaultDomain(1337, common.Address{}))

	order := &OrderEIP712{
		Trader:     signer.Address(),
		Side:       0,
		Price:      big.NewInt(100),
		Size:       big.NewInt(10),
		Nonce:      big.NewInt(1),
		Expiration: big.NewInt(1_900_000_000),
	}

	signature, err := e.SignOrder(signer, order)
	if err != nil {
		t.Fatalf("SignOrder: %v", err)
	}

	valid, err := e.VerifyOrderSignature(order, signature)
	if err != nil {
		t.Fatalf("VerifyOrderSignature: %v", err)
	}
	if !valid {
		t.Error("signature did not verify against trader")
	}

	// A tampered order must not verify.
	order.Price = big.NewInt(101)
	valid, err = e.VerifyOrderSignature(order, signature)
	if err != nil {
		t.Fatalf("VerifyOrderSignature(tampered): %v", err)
	}
	if valid {
		t.Error("tampered order still verifies")
	}
}

func TestEIP712DigestDependsOnDomain(t *testing.T) {
	order := &OrderEIP712{
		Trader:     common.HexToAddress("0x3C44CdddB6a900fa2b585dd299e03d12FA4293BC"),
		Side:       1,
		Price:      big.NewInt(100),
		Size:       big.NewInt(10),
		Nonce:      big.NewInt(7),
		Expiration: big.NewInt(0),
	}

	h1, err := NewEIP712Signer(DefaultDomain(1, common.Address{})).HashOrder(order)
	if err != nil {
		t.Fatalf("HashOrder: %v", err)
	}
	h2, err := NewEIP712Signer(DefaultDomain(1337, common.Address{})).HashOrder(order)
	if err != nil {
		t.Fatalf("HashOrder: %v", err)
	}
	if bytes.Equal(h1, h2) {
		t.Error("digest identical across chain IDs")
	}
}

func TestChecksumAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		// EIP-55 reference vectors.
		{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
		{"0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359", "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"},
		{"FB6916095CA1DF60BB79CE92CE3EA74C37C5D359", "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"},
		{"not an address", ""},
		{"0x1234", ""},
	}
	for _, tt := range tests {
		if got := ChecksumAddress(tt.in); got != tt.want {
			t.Errorf("ChecksumAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
