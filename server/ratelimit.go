package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// passwordRateLimiter tracks failed admin-password attempts per client IP
// and enforces exponential backoff. There is only one admin identity, so
// the IP is the only meaningful key.
type passwordRateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptRecord
}

type attemptRecord struct {
	failures    int
	lastFailure time.Time
	lockedUntil time.Time
}

const (
	// maxFailures is the number of consecutive failures before lockout begins.
	maxFailures = 5
	// baseLockout is the initial lockout duration after maxFailures is reached.
	baseLockout = 1 * time.Minute
	// maxLockout caps the exponential backoff.
	maxLockout = 15 * time.Minute
	// attemptExpiry is how long after the last failure before the record is
	// garbage-collected.
	attemptExpiry = 1 * time.Hour
)

func newPasswordRateLimiter() *passwordRateLimiter {
	return &passwordRateLimiter{
		attempts: make(map[string]*attemptRecord),
	}
}

// check returns true if the client is currently locked out, along with how
// long the caller should wait. A zero duration means the request may proceed.
func (rl *passwordRateLimiter) check(clientIP string) (blocked bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rec, ok := rl.attempts[clientIP]
	if !ok {
		return false, 0
	}
	// Expire stale records.
	if time.Since(rec.lastFailure) > attemptExpiry {
		delete(rl.attempts, clientIP)
		return false, 0
	}
	if time.Now().Before(rec.lockedUntil) {
		return true, time.Until(rec.lockedUntil)
	}
	return false, 0
}

// recordFailure increments the failure counter and applies exponential
// backoff once maxFailures is exceeded.
func (rl *passwordRateLimiter) recordFailure(clientIP string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rec, ok := rl.attempts[clientIP]
	if !ok {
		rec = &attemptRecord{}
		rl.attempts[clientIP] = rec
	}
	rec.failures++
	rec.lastFailure = time.Now()

	if rec.failures >= maxFailures {
		// Exponential backoff: baseLockout * 2^(failures - maxFailures)
		shift := rec.failures - maxFailures
		lockout := baseLockout
		for i := 0; i < shift; i++ {
			lockout *= 2
			if lockout > maxLockout {
				lockout = maxLockout
				break
			}
		}
		rec.lockedUntil = time.Now().Add(lockout)
	}
}

// recordSuccess resets the failure counter on a successful login.
func (rl *passwordRateLimiter) recordSuccess(clientIP string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, clientIP)
}

// extractClientIP returns the client address for rate-limit keying. The
// first X-Forwarded-For hop is trusted when present (reverse-proxy
// deployments), otherwise the connection address is used.
func extractClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			fwd = fwd[:idx]
		}
		if ip := strings.TrimSpace(fwd); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
