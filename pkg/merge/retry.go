package merge

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sdejongh/devsync/pkg/link"
)

// Decision is the answer to a timed-out transfer
type Decision int

const (
	// Abort stops the merge; files already transferred stay in place
	Abort Decision = iota
	// Retry attempts the file again with a longer deadline
	Retry
	// Ignore skips the file, keeps the existing copy and continues
	Ignore
)

func (d Decision) String() string {
	switch d {
	case Retry:
		return "retry"
	case Ignore:
		return "ignore"
	default:
		return "abort"
	}
}

// ParseDecision parses "retry", "ignore" or "abort"
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "retry":
		return Retry, nil
	case "ignore":
		return Ignore, nil
	case "abort":
		return Abort, nil
	default:
		return Abort, fmt.Errorf("unknown timeout decision %q (want retry, ignore or abort)", s)
	}
}

// RetryFunc is consulted when a transfer of path times out. It may block,
// for example while a user chooses.
type RetryFunc func(ctx context.Context, err *link.TransferError, path string) Decision

// Fixed always answers d
func Fixed(d Decision) RetryFunc {
	return func(context.Context, *link.TransferError, string) Decision {
		return d
	}
}

// AutoRetry retries each path up to n times, then answers fallback
func AutoRetry(n int, fallback Decision) RetryFunc {
	var mu sync.Mutex
	retries := make(map[string]int)

	return func(_ context.Context, _ *link.TransferError, path string) Decision {
		mu.Lock()
		defer mu.Unlock()

		if retries[path] < n {
			retries[path]++
			return Retry
		}
		return fallback
	}
}
