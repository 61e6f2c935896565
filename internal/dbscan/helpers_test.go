package dbscan

import (
	"math"
	"math/rand/v2"
)

func nan() float64 { return math.NaN() }
func inf() float64 { return math.Inf(1) }

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
