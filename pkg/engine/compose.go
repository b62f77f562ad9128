package engine

import (
	"github.com/chainsight/measures/pkg/measures"
)

// compose folds already-resolved component values into one scalar. Components
// arrive ordered by sortOrder (ties by declaration order); values are
// parallel to components.
//
// The accumulator starts from the first component's value only when its
// declared operation is multiply, divide or fallback; otherwise the fold
// starts from zero and the first component participates like any other.
func compose(components []measures.Component, values []float64) float64 {
	if len(components) == 0 {
		return 0
	}

	acc := 0.0
	start := 0

	switch components[0].EffectiveOperation() {
	case measures.OperationMultiply, measures.OperationDivide, measures.OperationFallback:
		acc = values[0]
		start = 1
	}

	for i := start; i < len(components); i++ {
		value := values[i]

		switch components[i].EffectiveOperation() {
		case measures.OperationSum, measures.OperationAdd, measures.OperationConditional:
			acc += value
		case measures.OperationSubtract:
			acc -= value
		case measures.OperationMultiply:
			acc *= value
		case measures.OperationDivide:
			// Business-safety clamp: a zero divisor yields 0, never Inf/NaN
			if value == 0 {
				acc = 0
			} else {
				acc /= value
			}
		case measures.OperationFallback:
			// Keep the first non-zero value in fold order
			if acc == 0 && value != 0 {
				acc = value
			}
		}
	}

	return acc
}
