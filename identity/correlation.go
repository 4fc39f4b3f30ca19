package identity

import (
	"math/rand/v2"
	"strings"
)

const (
	correlationAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// MinCorrelationIDLength is the shortest correlation id NewCorrelationID produces.
	MinCorrelationIDLength = 8
	// MaxCorrelationIDLength is the longest correlation id NewCorrelationID produces.
	MaxCorrelationIDLength = 16
)

// NewCorrelationID returns a random alphanumeric id whose length is uniform in
// [MinCorrelationIDLength, MaxCorrelationIDLength].
//
// The generator is math/rand/v2; the result is a correlation token, not a secret.
func NewCorrelationID() string {
	return newCorrelationID(rand.IntN)
}

// NewCorrelationIDFrom is NewCorrelationID drawing from r. Useful for reproducible tests.
func NewCorrelationIDFrom(r *rand.Rand) string {
	if r == nil {
		return NewCorrelationID()
	}
	return newCorrelationID(r.IntN)
}

func newCorrelationID(intN func(int) int) string {
	n := MinCorrelationIDLength + intN(MaxCorrelationIDLength-MinCorrelationIDLength+1)

	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(correlationAlphabet[intN(len(correlationAlphabet))])
	}
	return b.String()
}

// ValidCorrelationID reports whether id has an allowed length and only alphanumeric
// characters.
func ValidCorrelationID(id string) bool {
	if len(id) < MinCorrelationIDLength || len(id) > MaxCorrelationIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if strings.IndexByte(correlationAlphabet, id[i]) < 0 {
			return false
		}
	}
	return true
}
