// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per key. A key may make `limit`
// requests in a burst, refilled evenly over `duration`.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	limit    int
	duration time.Duration
	every    rate.Limit
	stop     chan struct{}
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New creates a new rate limiter.
// limit: maximum requests allowed per duration
// duration: the time window for counting requests
func New(limit int, duration time.Duration) *Limiter {
	if limit < 1 {
		limit = 1
	}
	l := &Limiter{
		buckets:  make(map[string]*bucket),
		limit:    limit,
		duration: duration,
		every:    rate.Every(duration / time.Duration(limit)),
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop(duration * 2)
	return l
}

func (l *Limiter) get(key string, now time.Time) *rate.Limiter {
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.every, l.limit)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim
}

// Allow checks if a request from the given key should be allowed.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	return l.get(key, now).AllowN(now, 1)
}

// Remaining returns how many requests this key could make right now.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		return l.limit
	}
	n := int(b.lim.TokensAt(time.Now()))
	if n < 0 {
		return 0
	}
	return n
}

// Reset clears the limit for key. Called after a successful login.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Close stops the cleanup goroutine.
func (l *Limiter) Close() {
	close(l.stop)
}

// cleanupLoop drops buckets idle for longer than ttl.
func (l *Limiter) cleanupLoop(ttl time.Duration) {
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for key, b := range l.buckets {
				if now.Sub(b.lastSeen) > ttl {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// FormLimiter throttles unauthenticated form posts (login, signup,
// forgot-password) by client IP and by submitted email, so neither a
// single address nor a single account can be hammered.
type FormLimiter struct {
	ipLimiter    *Limiter
	emailLimiter *Limiter
}

// NewFormLimiter creates a limiter allowing ipLimit posts per IP and
// emailLimit posts per email address within window.
func NewFormLimiter(ipLimit, emailLimit int, window time.Duration) *FormLimiter {
	return &FormLimiter{
		ipLimiter:    New(ipLimit, window),
		emailLimiter: New(emailLimit, window),
	}
}

// Check verifies if a submission should be allowed.
// Returns (allowed, reason) where reason is user-facing.
func (fl *FormLimiter) Check(r *http.Request, email string) (bool, string) {
	if fl == nil {
		return true, ""
	}
	if !fl.ipLimiter.Allow(ClientIP(r)) {
		return false, "Too many attempts. Please wait a minute before trying again."
	}
	if key := emailKey(email); key != "" {
		if !fl.emailLimiter.Allow(key) {
			return false, "Too many attempts for this account. Please wait a few minutes."
		}
	}
	return true, ""
}

// ResetEmail clears the per-email limit after a successful login.
func (fl *FormLimiter) ResetEmail(email string) {
	if fl == nil {
		return
	}
	if key := emailKey(email); key != "" {
		fl.emailLimiter.Reset(key)
	}
}

// Close stops background cleanup.
func (fl *FormLimiter) Close() {
	if fl == nil {
		return
	}
	fl.ipLimiter.Close()
	fl.emailLimiter.Close()
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
