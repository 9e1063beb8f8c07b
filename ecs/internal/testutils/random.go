package testutils

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"testing"
	"time"
)

// Seed drives every test PRNG in the suite. Set TEST_SEED to replay a failing run.
var Seed uint64 //nolint:gochecknoglobals // one seed reproduces the whole run

func init() { //nolint:gochecknoinits // the seed must be fixed before any test runs
	Seed = uint64(time.Now().UnixNano()) //nolint:gosec // not cryptographic
	if env := os.Getenv("TEST_SEED"); env != "" {
		if parsed, err := strconv.ParseUint(env, 0, 64); err == nil {
			Seed = parsed
		}
	}
	fmt.Printf("to reproduce: TEST_SEED=0x%x\n", Seed) //nolint:forbidigo // reproduction hint
}

// NewRand returns a PRNG seeded from Seed.
func NewRand(t *testing.T) *rand.Rand {
	t.Helper()
	return rand.New(rand.NewPCG(Seed, Seed)) //nolint:gosec // weak RNG is fine for tests
}

// WeightedChoice pairs a candidate value with its selection weight.
type WeightedChoice[T any] struct {
	Value  T
	Weight int
}

// RandChoice picks one candidate with probability proportional to its weight. Panics when the
// weights don't sum to a positive total.
func RandChoice[T any](r *rand.Rand, choices []WeightedChoice[T]) T {
	total := 0
	for _, c := range choices {
		total += c.Weight
	}

	pick := r.IntN(total)
	for _, c := range choices {
		if pick < c.Weight {
			return c.Value
		}
		pick -= c.Weight
	}
	panic("unreachable")
}

// RandString generates a random alphanumeric string of the given length.
func RandString(r *rand.Rand, length int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = chars[r.IntN(len(chars))]
	}
	return string(b)
}
