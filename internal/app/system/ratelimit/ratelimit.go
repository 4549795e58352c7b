// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// Limiter counts hits per key in fixed windows. It is safe for concurrent use.
// Expired windows are swept lazily from Allow, so no background goroutine is needed.
type Limiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	max       int
	per       time.Duration
	now       func() time.Time
	nextSweep time.Time
}

type window struct {
	hits    int
	resetAt time.Time
}

// Option tweaks a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now; tests use it to step through windows.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New allows max hits per key in each window of length per.
func New(max int, per time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		windows: make(map[string]*window),
		max:     max,
		per:     per,
		now:     time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	l.nextSweep = l.now().Add(2 * per)
	return l
}

// Allow records a hit for key. When the key is over its limit it returns false
// and how long until the window resets.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		l.windows[key] = &window{hits: 1, resetAt: now.Add(l.per)}
		return true, 0
	}
	if w.hits >= l.max {
		return false, w.resetAt.Sub(now)
	}
	w.hits++
	return true, 0
}

// Remaining reports how many hits key has left in its current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !l.now().Before(w.resetAt) {
		return l.max
	}
	if left := l.max - w.hits; left > 0 {
		return left
	}
	return 0
}

// Reset forgets key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.windows, key)
	l.mu.Unlock()
}

// Len is the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

func (l *Limiter) sweepLocked(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for k, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, k)
		}
	}
	l.nextSweep = now.Add(2 * l.per)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Sign-in attempts                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// Decision is the outcome of a LoginLimiter check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string
}

// LoginLimiter throttles sign-in attempts by client IP and by account email.
type LoginLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

// NewLoginLimiter allows ipMax attempts per minute from one address and
// emailMax attempts per five minutes against one account.
func NewLoginLimiter(ipMax, emailMax int, opts ...Option) *LoginLimiter {
	return &LoginLimiter{
		byIP:    New(ipMax, time.Minute, opts...),
		byEmail: New(emailMax, 5*time.Minute, opts...),
	}
}

// Check records an attempt from ip against email.
func (ll *LoginLimiter) Check(ip, email string) Decision {
	if ok, wait := ll.byIP.Allow(ip); !ok {
		return Decision{RetryAfter: wait, Reason: "Too many sign-in attempts. Please wait a minute and try again."}
	}
	if key := emailKey(email); key != "" {
		if ok, wait := ll.byEmail.Allow(key); !ok {
			return Decision{RetryAfter: wait, Reason: "Too many sign-in attempts for this account. Please wait a few minutes."}
		}
	}
	return Decision{Allowed: true}
}

// Succeeded clears the account's counter after a good sign-in.
func (ll *LoginLimiter) Succeeded(email string) {
	if key := emailKey(email); key != "" {
		ll.byEmail.Reset(key)
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
