package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Ambiguous characters (0/O, 1/I) are left out of order numbers since
// support reads them back to customers over the phone.
const orderNumberAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// NewOrderNumber generates a human-readable order number such as
// LS-20250615-4F7K2Q.
func NewOrderNumber(now time.Time) (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}
	for i, b := range buf {
		buf[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("LS-%s-%s", now.UTC().Format("20060102"), buf), nil
}

// NewTrackingCode generates the opaque 16-character code buyers use to
// look up an order without logging in.
func NewTrackingCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate tracking code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
