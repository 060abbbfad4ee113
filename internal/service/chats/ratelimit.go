package chats

import (
	"sync"
	"time"
)

// rateLimiter allows up to limit sends per user in each fixed one-minute window.
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[int64]*bucket
}

type bucket struct {
	start time.Time
	count int
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  time.Minute,
		now:     time.Now,
		buckets: make(map[int64]*bucket),
	}
}

func (r *rateLimiter) allow(userID int64) bool {
	if r == nil || r.limit <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	b, ok := r.buckets[userID]
	if !ok || now.Sub(b.start) >= r.window {
		r.sweep(now)
		r.buckets[userID] = &bucket{start: now, count: 1}
		return true
	}
	b.count++
	return b.count <= r.limit
}

// sweep drops expired windows. Callers hold r.mu.
func (r *rateLimiter) sweep(now time.Time) {
	for id, b := range r.buckets {
		if now.Sub(b.start) >= r.window {
			delete(r.buckets, id)
		}
	}
}
