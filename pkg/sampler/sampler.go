// Package sampler draws uniform random samples without replacement.
//
// The generator is always an explicit *rand.Rand built from a seed; nothing
// here touches the global source, so concurrent or repeated runs with the
// same seed are independent and identical.
//
// Selection uses a partial Fisher-Yates shuffle over the index permutation
// 0..population-1: step i swaps position i with a uniformly chosen position
// in [i, population), and the first n positions are the sample. Each of the
// C(population, n) subsets is equally likely, and the draw order is itself
// uniformly random.
package sampler

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/ajitpratap0/geosample/pkg/errors"
	"github.com/ajitpratap0/geosample/pkg/models"
)

// pcgStream is the fixed PCG stream selector; the seed picks the state.
const pcgStream = 0x9e3779b97f4a7c15

// NewRand returns a generator whose output is fully determined by seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), pcgStream))
}

// Indices returns n distinct indices drawn uniformly from [0, population),
// in draw order.
func Indices(rng *rand.Rand, population, n int) ([]int, error) {
	if n < 0 {
		return nil, errors.Newf(errors.ErrorTypeConfig, "sample size cannot be negative: %d", n)
	}
	if n > population {
		return nil, errors.Newf(errors.ErrorTypeSampleSizeExceedsPopulation,
			"cannot draw %d records from a dataset of %d", n, population).
			WithDetail("requested", n).
			WithDetail("population", population)
	}

	perm := make([]int, population)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < n; i++ {
		j := i + rng.IntN(population-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm[:n:n], nil
}

// Sampler holds the parameters of a sampling run.
type Sampler struct {
	// Size is the number of records to draw
	Size int
	// Fraction, when > 0, replaces Size with round(Fraction * population)
	Fraction float64
	// Seed fixes the generator state
	Seed int64
	// PreserveOrder returns sampled records in source order
	PreserveOrder bool
}

// New creates a sampler drawing size records with the given seed.
func New(size int, seed int64) *Sampler {
	return &Sampler{Size: size, Seed: seed}
}

// SizeFor returns the number of records drawn from a population.
func (s *Sampler) SizeFor(population int) int {
	if s.Fraction > 0 {
		return int(math.Round(s.Fraction * float64(population)))
	}
	return s.Size
}

// Sample draws from ds. A fresh generator is built from Seed on every call,
// so repeated calls on the same dataset return the same records in the same
// order. The result shares records, schema and members with ds.
func (s *Sampler) Sample(ds *models.Dataset) (*models.Dataset, error) {
	if s.Fraction < 0 || s.Fraction > 1 {
		return nil, errors.Newf(errors.ErrorTypeConfig, "fraction must be within [0, 1]: %v", s.Fraction)
	}

	indices, err := Indices(NewRand(s.Seed), ds.Len(), s.SizeFor(ds.Len()))
	if err != nil {
		return nil, err
	}
	if s.PreserveOrder {
		sort.Ints(indices)
	}
	return ds.Subset(indices), nil
}
