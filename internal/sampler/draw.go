package sampler

import (
	"math"
	"math/rand/v2"
	"time"
)

const day = 24 * time.Hour

// IntRange draws uniformly from [lo, hi). An empty range returns lo.
func IntRange(r *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo)
}

// Bernoulli reports true with probability p.
func Bernoulli(r *rand.Rand, p float64) bool {
	return r.Float64() < p
}

// Normal draws from N(mean, sd).
func Normal(r *rand.Rand, mean, sd float64) float64 {
	return mean + sd*r.NormFloat64()
}

// poissonStep keeps exp(-step) well inside float64 range.
const poissonStep = 500

// Poisson draws a Poisson(lambda) count by multiplying uniforms, folding
// exp(lambda) in steps so large means do not underflow.
func Poisson(r *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	k := 0
	p := 1.0
	left := lambda
	for {
		k++
		p *= r.Float64()
		for p < 1 && left > 0 {
			if left > poissonStep {
				p *= math.Exp(poissonStep)
				left -= poissonStep
			} else {
				p *= math.Exp(left)
				left = 0
			}
		}
		if p <= 1 {
			break
		}
	}
	return k - 1
}

// DateBetween draws a calendar day uniformly from [a, b], both inclusive.
// a and b are expected at midnight UTC.
func DateBetween(r *rand.Rand, a, b time.Time) time.Time {
	days := DaysBetween(a, b)
	if days <= 0 {
		return a
	}
	return a.AddDate(0, 0, r.IntN(days+1))
}

// TimestampInDays draws a second-resolution instant uniformly over the
// whole calendar days firstDay..lastDay, i.e. [firstDay, lastDay+24h).
// Both arguments are expected at midnight UTC; a lastDay before firstDay
// collapses to firstDay alone.
func TimestampInDays(r *rand.Rand, firstDay, lastDay time.Time) time.Time {
	if lastDay.Before(firstDay) {
		lastDay = firstDay
	}
	secs := int64(lastDay.Add(day).Sub(firstDay) / time.Second)
	return firstDay.Add(time.Duration(r.Int64N(secs)) * time.Second)
}

// DaysBetween counts whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a) / day)
}
