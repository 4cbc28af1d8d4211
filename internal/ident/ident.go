package ident

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// maxAttempts bounds the collision retry loop for entity IDs. The space
// is only 1000 per letter, so exhaustion is reported instead of spinning.
const maxAttempts = 64

// NewEntityID builds a short ID from the uppercased first letter of name
// followed by three random digits, retrying while exists reports a
// collision.
func NewEntityID(name string, exists func(id string) bool) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("name required for id generation")
	}
	prefix := strings.ToUpper(trimmed[:1])

	for i := 0; i < maxAttempts; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(900))
		if err != nil {
			return "", fmt.Errorf("id generation: %w", err)
		}
		id := fmt.Sprintf("%s%03d", prefix, n.Int64()+100)
		if exists == nil || !exists(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("id space exhausted for prefix %s", prefix)
}

// NewReferenceNumber returns an 8-character uppercase alphanumeric sale
// reference. Uniqueness is not checked here; the store enforces it on
// insert and callers retry on conflict.
func NewReferenceNumber() (string, error) {
	var b strings.Builder
	for i := 0; i < 8; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referenceAlphabet))))
		if err != nil {
			return "", fmt.Errorf("reference generation: %w", err)
		}
		b.WriteByte(referenceAlphabet[n.Int64()])
	}
	return b.String(), nil
}
