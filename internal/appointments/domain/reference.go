package domain

import (
	"crypto/rand"
	"time"
)

const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewReferenceNumber returns a human-friendly identifier such as
// FSM-20260314-K7QX2M.
func NewReferenceNumber(now time.Time) string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return "FSM-" + now.UTC().Format("20060102") + "-" + string(buf)
}
