// Package ratelimit throttles upload bodies with a token bucket shared by
// every transfer of a link.
package ratelimit

import (
	"context"
	"io"
	"sync"
	"time"
)

// minBucket keeps bursts large enough for smooth HTTP writes at low rates
const minBucket = 64 * 1024

// Limiter is a token bucket measured in bytes
type Limiter struct {
	bytesPerSecond int64
	mu             sync.Mutex
	tokens         int64
	lastUpdate     time.Time
	bucketSize     int64
}

// NewLimiter creates a limiter for bytesPerSecond. A non-positive rate
// returns nil, which every caller treats as unlimited.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	bucketSize := bytesPerSecond
	if bucketSize < minBucket {
		bucketSize = minBucket
	}

	return &Limiter{
		bytesPerSecond: bytesPerSecond,
		tokens:         bucketSize,
		lastUpdate:     time.Now(),
		bucketSize:     bucketSize,
	}
}

// Rate returns the configured limit in bytes per second (0 when unlimited)
func (l *Limiter) Rate() int64 {
	if l == nil {
		return 0
	}
	return l.bytesPerSecond
}

// Wait blocks until n bytes may be sent, or ctx ends
func (l *Limiter) Wait(ctx context.Context, n int64) error {
	if l == nil {
		return nil
	}
	if n > l.bucketSize {
		n = l.bucketSize
	}

	for {
		l.mu.Lock()
		l.refillTokens()
		if l.tokens >= n {
			l.tokens -= n
			l.mu.Unlock()
			return nil
		}

		deficit := n - l.tokens
		wait := time.Duration(float64(deficit) / float64(l.bytesPerSecond) * float64(time.Second))
		if wait < time.Millisecond {
			wait = time.Millisecond
		}
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// refillTokens adds tokens for the elapsed time; call with mu held
func (l *Limiter) refillTokens() {
	now := time.Now()
	add := int64(float64(now.Sub(l.lastUpdate)) / float64(time.Second) * float64(l.bytesPerSecond))
	if add > 0 {
		l.tokens += add
		if l.tokens > l.bucketSize {
			l.tokens = l.bucketSize
		}
		l.lastUpdate = now
	}
}

// giveBack returns tokens reserved for bytes that were never read
func (l *Limiter) giveBack(n int64) {
	if n <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens += n
	if l.tokens > l.bucketSize {
		l.tokens = l.bucketSize
	}
}

// Reader throttles reads from an underlying reader
type Reader struct {
	reader  io.Reader
	limiter *Limiter
	ctx     context.Context
}

// NewReader wraps r; with a nil limiter r is returned unchanged
func NewReader(ctx context.Context, r io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return r
	}
	return &Reader{reader: r, limiter: limiter, ctx: ctx}
}

func (r *Reader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}

	want := int64(len(p))
	if want > r.limiter.bucketSize {
		want = r.limiter.bucketSize
	}
	if err := r.limiter.Wait(r.ctx, want); err != nil {
		return 0, err
	}

	n, err := r.reader.Read(p[:want])
	r.limiter.giveBack(want - int64(n))
	return n, err
}
