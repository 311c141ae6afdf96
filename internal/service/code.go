package service

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Unambiguous alphabet: no 0/O, 1/I/L.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// newOrderCode returns a buyer-facing order code of the form
// ORD-20260829-X7K2QD. The date prefix keeps codes roughly sortable and the
// random suffix makes them unguessable.
func newOrderCode(now time.Time) (string, error) {
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generate order code: %w", err)
	}
	for i, b := range suffix {
		suffix[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix), nil
}
