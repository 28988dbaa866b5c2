// Package reactive provides the per-tick utility scorer that decides when
// an environmental condition should preempt the current plan.
package reactive

import "math"

// Curve transforms a raw consideration input in [0,1] into a response in
// [0,1]. Curves let a consideration respond non-linearly: a threat two
// blocks away matters far more than twice a threat four blocks away.
type Curve func(x float64) float64

// Linear passes the input through unchanged.
func Linear() Curve {
	return func(x float64) float64 { return clamp(x) }
}

// Quadratic accentuates high inputs.
func Quadratic() Curve {
	return func(x float64) float64 {
		x = clamp(x)
		return x * x
	}
}

// Inverse inverts the input: high input, low response.
func Inverse() Curve {
	return func(x float64) float64 { return 1 - clamp(x) }
}

// Logistic produces an S-curve centered at midpoint with the given
// steepness.
func Logistic(steepness, midpoint float64) Curve {
	return func(x float64) float64 {
		return clamp(1 / (1 + math.Exp(-steepness*(clamp(x)-midpoint))))
	}
}

func clamp(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
