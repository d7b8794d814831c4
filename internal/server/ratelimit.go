package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter hands each client identifier its own token bucket sized
// to maxRequests per window. It is deliberately independent of the
// game core: handlers that front expensive work (image generation)
// consult it before doing anything. Idle identifiers are evicted so
// the map stays bounded; an evicted bucket comes back full, which is
// what a full window of silence earns anyway.
type rateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	window    time.Duration
	clients   map[string]*clientLimiter
	lastPrune time.Time
	now       func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(maxRequests int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   rate.Limit(float64(maxRequests) / window.Seconds()),
		burst:   maxRequests,
		window:  window,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Allow reports whether the identifier has a token left. Rejected
// requests do not consume anything.
func (l *rateLimiter) Allow(identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	allowed := l.client(identifier, now).limiter.AllowN(now, 1)

	if now.Sub(l.lastPrune) > l.window {
		l.prune(now)
		l.lastPrune = now
	}
	return allowed
}

// RetryAfter reports how long the identifier has to wait for the next
// token. The reservation made to measure the delay is cancelled so
// asking costs nothing.
func (l *rateLimiter) RetryAfter(identifier string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	client, ok := l.clients[identifier]
	if !ok {
		return 0
	}
	now := l.now()
	reservation := client.limiter.ReserveN(now, 1)
	wait := reservation.DelayFrom(now)
	reservation.CancelAt(now)
	return wait
}

func (l *rateLimiter) client(identifier string, now time.Time) *clientLimiter {
	client := l.clients[identifier]
	if client == nil {
		client = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[identifier] = client
	}
	client.lastSeen = now
	return client
}

func (l *rateLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	for identifier, client := range l.clients {
		if client.lastSeen.Before(cutoff) {
			delete(l.clients, identifier)
		}
	}
}
