package workload

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Rand is the source of every decorative random value. *rand.Rand
// satisfies it; tests substitute fixed values.
type Rand interface {
	Float64() float64
	IntN(n int) int
	NormFloat64() float64
}

// NewRand returns a PCG source. A zero seed picks a random one.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed))
}

// ── Weighted random helpers ─────────────────────────────────────────

type weightedChoice struct {
	value  string
	weight float64
}

func pickWeighted(rnd Rand, choices []weightedChoice) string {
	total := 0.0
	for _, c := range choices {
		total += c.weight
	}
	r := rnd.Float64() * total
	for _, c := range choices {
		r -= c.weight
		if r <= 0 {
			return c.value
		}
	}
	return choices[len(choices)-1].value
}

// gaussianDuration draws around the midpoint of [lo, hi] and clamps to it.
func gaussianDuration(rnd Rand, lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	mean := float64(lo+hi) / 2
	stddev := float64(hi-lo) / 4
	d := time.Duration(mean + rnd.NormFloat64()*stddev)
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

// ── Attribute pools ─────────────────────────────────────────────────

var (
	regions = []weightedChoice{
		{"us-east-1", 40},
		{"us-west-2", 30},
		{"eu-west-1", 20},
		{"ap-southeast-1", 10},
	}

	storageTypes = []weightedChoice{
		{"database", 70},
		{"cache", 20},
		{"object_store", 10},
	}
)

func userID(rnd Rand) string {
	return fmt.Sprintf("user_%d", rnd.IntN(100)+1)
}

// errorTypeFor names the failure recorded when op is the injected fault.
func errorTypeFor(op string) string {
	switch op {
	case "validate_data":
		return "validation_error"
	case "store_data":
		return "storage_error"
	default:
		return op + "_error"
	}
}
