package bench

import (
	"math"
	"math/rand"
)

type Distribution string

const (
	DistributionUniform   Distribution = "uniform"
	DistributionNormal    Distribution = "normal"
	DistributionLogNormal Distribution = "lognormal"
)

// The skewed distributions draw from a deliberately narrow key space to
// model hot keys hitting the routers.
const (
	maxSkewedKey   = 10.0
	meanSkewedKey  = maxSkewedKey / 2
	sigmaSkewedKey = 1.0
)

// KeyGenerator yields a reproducible stream of 64-bit request keys: the same
// seed, distribution and count always produce the same sequence, so trial
// workloads are comparable across algorithms.
type KeyGenerator struct {
	rnd  *rand.Rand
	dist Distribution
}

func NewKeyGenerator(dist Distribution, seed int64) *KeyGenerator {
	if dist == "" {
		dist = DistributionUniform
	}
	return &KeyGenerator{
		rnd:  rand.New(rand.NewSource(seed)),
		dist: dist,
	}
}

func (g *KeyGenerator) Next() uint64 {
	switch g.dist {
	case DistributionNormal:
		return clampKey(g.rnd.NormFloat64()*sigmaSkewedKey + meanSkewedKey)
	case DistributionLogNormal:
		return clampKey(math.Exp(g.rnd.NormFloat64()*sigmaSkewedKey + meanSkewedKey))
	default:
		return g.rnd.Uint64()
	}
}

func (g *KeyGenerator) NextN(n int) []uint64 {
	keys := make([]uint64, n)
	for i := range keys {
		keys[i] = g.Next()
	}
	return keys
}

func clampKey(v float64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(math.Floor(v))
}
