package meta

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a token bucket rate limiter keyed by ad account.
// It throttles outbound Graph API calls before they leave the process so
// the server stays under Meta's per-account request limits.
type RateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*bucket
	rate     float64       // tokens per second
	burst    int           // max burst size
	cleanup  time.Duration // cleanup interval for inactive limiters
	stop     chan struct{}
	stopOnce sync.Once
}

// bucket represents a token bucket for rate limiting
type bucket struct {
	tokens     float64
	lastUpdate time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a new rate limiter.
// rate: tokens per second, burst: maximum burst size.
// A non-positive rate disables throttling entirely.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*bucket),
		rate:     rate,
		burst:    burst,
		cleanup:  5 * time.Minute,
		stop:     make(chan struct{}),
	}

	// Start cleanup goroutine
	go rl.cleanupInactiveLimiters()

	return rl
}

// Allow checks if a request for the given account should be allowed.
func (rl *RateLimiter) Allow(account string) bool {
	if rl.rate <= 0 {
		return true
	}

	b := rl.bucketFor(account)

	b.mu.Lock()
	defer b.mu.Unlock()

	rl.refill(b)

	if b.tokens >= 1 {
		b.tokens--
		return true
	}

	return false
}

// Wait blocks until a token is available for the given account or the
// context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context, account string) error {
	if rl.rate <= 0 {
		return nil
	}

	for {
		b := rl.bucketFor(account)

		b.mu.Lock()
		rl.refill(b)
		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}
		// Time until the next full token accrues.
		wait := time.Duration((1 - b.tokens) / rl.rate * float64(time.Second))
		b.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Stop terminates the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stop)
	})
}

func (rl *RateLimiter) bucketFor(account string) *bucket {
	rl.mu.RLock()
	b, exists := rl.limiters[account]
	rl.mu.RUnlock()

	if exists {
		return b
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if b, exists = rl.limiters[account]; exists {
		return b
	}
	b = &bucket{
		tokens:     float64(rl.burst),
		lastUpdate: time.Now(),
	}
	rl.limiters[account] = b
	return b
}

// refill adds tokens based on elapsed time. Caller must hold b.mu.
func (rl *RateLimiter) refill(b *bucket) {
	now := time.Now()
	elapsed := now.Sub(b.lastUpdate).Seconds()

	b.tokens += elapsed * rl.rate
	if b.tokens > float64(rl.burst) {
		b.tokens = float64(rl.burst)
	}
	b.lastUpdate = now
}

// cleanupInactiveLimiters removes limiters that haven't been used recently
func (rl *RateLimiter) cleanupInactiveLimiters() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for account, b := range rl.limiters {
				b.mu.Lock()
				if now.Sub(b.lastUpdate) > 10*time.Minute {
					delete(rl.limiters, account)
				}
				b.mu.Unlock()
			}
			rl.mu.Unlock()
		}
	}
}
