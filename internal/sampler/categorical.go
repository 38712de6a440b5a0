package sampler

import (
	"math/rand/v2"
	"sort"

	"github.com/Lumos-Labs-HQ/flowpulse/internal/config"
	ierr "github.com/Lumos-Labs-HQ/flowpulse/internal/errors"
)

// Categorical is an immutable weighted distribution over values of T.
type Categorical[T any] struct {
	values []T
	cum    []float64
}

// Choice is one (value, weight) pair.
type Choice[T any] struct {
	Value  T
	Weight float64
}

// NewCategorical builds a distribution from choices whose weights must be
// non-negative and sum to 1 within tolerance.
func NewCategorical[T any](name string, choices ...Choice[T]) (*Categorical[T], error) {
	if len(choices) == 0 {
		return nil, ierr.NewErrorf("distribution %s is empty", name).Mark(ierr.ErrConfiguration)
	}

	c := &Categorical[T]{
		values: make([]T, len(choices)),
		cum:    make([]float64, len(choices)),
	}
	total := 0.0
	for i, ch := range choices {
		if ch.Weight < 0 {
			return nil, ierr.NewErrorf("distribution %s has negative weight %v", name, ch.Weight).
				Mark(ierr.ErrConfiguration)
		}
		total += ch.Weight
		c.values[i] = ch.Value
		c.cum[i] = total
	}
	if total < 1-tolerance || total > 1+tolerance {
		return nil, ierr.NewErrorf("distribution %s weights sum to %.6f, expected 1", name, total).
			Mark(ierr.ErrConfiguration)
	}
	// absorb rounding so the last bucket always catches u close to 1
	c.cum[len(c.cum)-1] = 1
	return c, nil
}

// Uniform builds a distribution giving every value the same weight.
func Uniform[T any](name string, values ...T) (*Categorical[T], error) {
	choices := make([]Choice[T], len(values))
	for i, v := range values {
		choices[i] = Choice[T]{Value: v, Weight: 1 / float64(len(values))}
	}
	return NewCategorical(name, choices...)
}

// FromConfig builds a string distribution from configured weights.
func FromConfig(name string, weights []config.Weighted) (*Categorical[string], error) {
	choices := make([]Choice[string], len(weights))
	for i, w := range weights {
		choices[i] = Choice[string]{Value: w.Value, Weight: w.Weight}
	}
	return NewCategorical(name, choices...)
}

// Draw returns one value. Exactly one uniform is consumed from r.
func (c *Categorical[T]) Draw(r *rand.Rand) T {
	u := r.Float64()
	i := sort.SearchFloat64s(c.cum, u)
	// SearchFloat64s returns the first index with cum >= u; equality means
	// u sits on the boundary and belongs to the next bucket
	for i < len(c.cum)-1 && c.cum[i] <= u {
		i++
	}
	return c.values[i]
}

// Values returns the outcomes in declaration order.
func (c *Categorical[T]) Values() []T {
	out := make([]T, len(c.values))
	copy(out, c.values)
	return out
}

const tolerance = 1e-6
