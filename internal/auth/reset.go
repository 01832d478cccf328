package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// resetNonceLen is the number of random bytes in a reset nonce
// (hex encoded to 64 chars).
const resetNonceLen = 32

// ResetNonce holds a freshly generated password-reset nonce.
// Raw is disclosed to the user exactly once; only Hash is stored.
type ResetNonce struct {
	Raw  string
	Hash string
}

// NewResetNonce generates a random reset nonce and its storage hash.
func NewResetNonce() (*ResetNonce, error) {
	buf := make([]byte, resetNonceLen)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate reset nonce: %w", err)
	}

	raw := hex.EncodeToString(buf)
	return &ResetNonce{
		Raw:  raw,
		Hash: HashResetNonce(raw),
	}, nil
}

// HashResetNonce computes the one-way hash stored for a reset ticket.
// The lookup on reset hashes the presented nonce with this same
// function, so the raw nonce never needs to be persisted.
func HashResetNonce(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
