package service

import (
	"sync"
	"time"
)

const (
	sweepInterval = 5 * time.Minute
	bucketIdleAge = 10 * time.Minute
)

// TokenBucket is an in-memory per-client rate limiter using the token bucket
// algorithm. Requests are keyed by caller identity (API key or remote host).
// It is safe for concurrent use; idle buckets are swept in the background
// until Close is called.
type TokenBucket struct {
	rate     float64 // tokens added per second
	capacity float64 // maximum tokens

	mu      sync.Mutex
	buckets map[string]*bucket

	done      chan struct{}
	closeOnce sync.Once
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewTokenBucket creates a rate limiter refilling at rate tokens per second
// with the given burst capacity, and starts the background sweeper.
func NewTokenBucket(rate, capacity float64) *TokenBucket {
	tb := &TokenBucket{
		rate:     rate,
		capacity: capacity,
		buckets:  make(map[string]*bucket),
		done:     make(chan struct{}),
	}
	go tb.sweep()
	return tb
}

// Allow reports whether the given client key may proceed, consuming one
// token if so.
func (tb *TokenBucket) Allow(key string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: tb.capacity, last: now}
		tb.buckets[key] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	b.tokens = min(b.tokens+elapsed*tb.rate, tb.capacity)
	b.last = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Close stops the background sweeper. Allow keeps working after Close;
// safe to call more than once.
func (tb *TokenBucket) Close() {
	tb.closeOnce.Do(func() { close(tb.done) })
}

// sweep drops buckets idle longer than bucketIdleAge so the map stays
// bounded by the set of recently active clients.
func (tb *TokenBucket) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-tb.done:
			return
		case <-ticker.C:
			tb.mu.Lock()
			cutoff := time.Now().Add(-bucketIdleAge)
			for key, b := range tb.buckets {
				if b.last.Before(cutoff) {
					delete(tb.buckets, key)
				}
			}
			tb.mu.Unlock()
		}
	}
}
