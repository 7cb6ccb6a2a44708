package order

import (
	"fmt"
	"math/rand"
	"time"
)

// NewNumber composes an externally visible order number from a short prefix,
// time-derived digits and a random suffix, e.g. "NN-582104-257". Uniqueness
// is enforced by the store's unique constraint; callers regenerate on
// conflict.
func NewNumber(now time.Time, rnd *rand.Rand) string {
	timestamp := now.UnixMilli() % 1_000_000
	suffix := rnd.Intn(1000)
	return fmt.Sprintf("NN-%06d-%03d", timestamp, suffix)
}
