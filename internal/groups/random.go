package groups

import (
	"math/rand/v2"
	"time"
)

// Randomizer is the source of every random draw the engine makes.
type Randomizer interface {
	// IntN returns a value in [0, n). n must be positive.
	IntN(n int) int
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
}

// NewRandomizer returns a PCG-backed Randomizer. A zero seed seeds from the clock.
func NewRandomizer(seed uint64) Randomizer {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func pick[T any](r Randomizer, items []T) T {
	return items[r.IntN(len(items))]
}
