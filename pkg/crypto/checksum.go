package crypto

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ChecksumAddress normalizes a hex address string (with or without 0x
// prefix) into EIP-55 checksummed form. Trader identifiers are opaque to
// the matching engine but must be checksummed before they reach the
// settlement contract. Returns "" for input that is not a 40-char hex
// string.
func ChecksumAddress(addr string) string {
	hexaddr := strings.ToLower(strings.TrimPrefix(addr, "0x"))
	raw, err := hex.DecodeString(hexaddr)
	if err != nil || len(raw) != 20 {
		return ""
	}

	// Checksum: keccak of the lowercase hex; a nibble >= 8 uppercases the
	// corresponding hex char.
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(hexaddr))
	hash := h.Sum(nil)

	out := make([]byte, 2+len(hexaddr))
	copy(out, "0x")
	for i, c := range []byte(hexaddr) {
		if c >= '0' && c <= '9' {
			out[2+i] = c
			continue
		}
		nibble := hash[i>>1]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[2+i] = c - 'a' + 'A'
		} else {
			out[2+i] = c
		}
	}
	return string(out)
}
