package domain

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

const (
	// OrderCodePrefix starts every human-readable order code.
	OrderCodePrefix = "ORD-"
	// MaxOrderCodeAttempts bounds code generation retries on collision.
	MaxOrderCodeAttempts = 5

	orderCodeBytes = 6
)

// NewOrderCode returns OrderCodePrefix followed by 12 upper-case hex characters.
func NewOrderCode() (string, error) {
	buf := make([]byte, orderCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return OrderCodePrefix + strings.ToUpper(hex.EncodeToString(buf)), nil
}
