package scoring

import (
	"fmt"
	"math"
)

// Numeric holds the sufficient statistics of a set of numeric observations.
type Numeric struct {
	support     int
	sum         float64
	sumOfSquare float64
}

// NewRating returns the attribute of a single observed rating.
func NewRating(r float64) *Numeric {
	return &Numeric{support: 1, sum: r, sumOfSquare: r * r}
}

// NewNumeric returns an attribute from precomputed statistics.
func NewNumeric(support int, sum, sumOfSquare float64) *Numeric {
	return &Numeric{support: support, sum: sum, sumOfSquare: sumOfSquare}
}

// Support implements node.Attribute.
func (a *Numeric) Support() int { return a.support }

// Sum returns the sum of observations.
func (a *Numeric) Sum() float64 { return a.sum }

// SumOfSquares returns the sum of squared observations.
func (a *Numeric) SumOfSquares() float64 { return a.sumOfSquare }

// Mean returns the average observation.
func (a *Numeric) Mean() float64 {
	if a.support == 0 {
		return 0
	}
	return a.sum / float64(a.support)
}

// StdDev returns the population standard deviation.
func (a *Numeric) StdDev() float64 {
	if a.support == 0 {
		return 0
	}
	n := float64(a.support)
	mean := a.sum / n
	variance := a.sumOfSquare/n - mean*mean
	if variance <= 0 {
		// Cancellation can yield tiny negative values for identical observations.
		return 0
	}
	return math.Sqrt(variance)
}

// String implements fmt.Stringer.
func (a *Numeric) String() string {
	return fmt.Sprintf("avg=%.4g sd=%.4g n=%d", a.Mean(), a.StdDev(), a.support)
}
