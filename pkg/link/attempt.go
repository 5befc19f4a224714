package link

import (
	"context"
	"math"
	"time"
)

type attemptKey struct{}

// WithAttempt records the zero-based retry attempt of the operation that
// will run under ctx. Links use it to widen their deadlines.
func WithAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptKey{}, attempt)
}

// AttemptFrom returns the attempt stored in ctx, or 0
func AttemptFrom(ctx context.Context) int {
	if n, ok := ctx.Value(attemptKey{}).(int); ok && n > 0 {
		return n
	}
	return 0
}

// EscalatedTimeout returns base * factor^attempt. Factors below 1 are
// treated as 1 so later attempts never get less time.
func EscalatedTimeout(base time.Duration, factor float64, attempt int) time.Duration {
	if factor < 1 {
		factor = 1
	}
	scaled := float64(base) * math.Pow(factor, float64(attempt))
	if scaled > float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(scaled)
}
