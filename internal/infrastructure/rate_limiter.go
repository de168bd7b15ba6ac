package infrastructure

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterCleanupTick = 5 * time.Minute
	limiterIdleTTL     = 10 * time.Minute
)

// OwnerLimiter implements token bucket rate limiting per owner
type OwnerLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*ownerBucket
	limit    rate.Limit
	burst    int
	stop     chan struct{}
	stopOnce sync.Once
}

type ownerBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewOwnerLimiter allows perSecond commands per owner with the given burst
func NewOwnerLimiter(perSecond float64, burst int) *OwnerLimiter {
	l := &OwnerLimiter{
		buckets: make(map[string]*ownerBucket),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		stop:    make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *OwnerLimiter) bucket(ownerID string, now time.Time) *ownerBucket {
	b, ok := l.buckets[ownerID]
	if !ok {
		b = &ownerBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ownerID] = b
	}
	b.lastSeen = now
	return b
}

// Allow consumes one token for the owner if available
func (l *OwnerLimiter) Allow(ownerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	return l.bucket(ownerID, now).limiter.AllowN(now, 1)
}

// WaitTime returns how long until the owner may send again
func (l *OwnerLimiter) WaitTime(ownerID string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	r := l.bucket(ownerID, now).limiter.ReserveN(now, 1)
	defer r.CancelAt(now)
	return r.DelayFrom(now)
}

func (l *OwnerLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Prune forgets owners not seen since now minus the idle ttl
func (l *OwnerLimiter) Prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for owner, b := range l.buckets {
		if now.Sub(b.lastSeen) > limiterIdleTTL {
			delete(l.buckets, owner)
			removed++
		}
	}
	return removed
}

func (l *OwnerLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *OwnerLimiter) cleanup() {
	ticker := time.NewTicker(limiterCleanupTick)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.Prune(now)
		}
	}
}
