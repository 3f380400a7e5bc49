package auth

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/blog-service/pkg/util"
)

// IPRateLimiter applies a fixed-window counter per client IP. Counters live
// in process memory only; restarts reset all windows.
type IPRateLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	windows map[string]*ipWindow
	now     func() time.Time
}

type ipWindow struct {
	count    int
	startsAt time.Time
}

// NewIPRateLimiter allows at most max requests per IP within each window.
func NewIPRateLimiter(max int, window time.Duration) *IPRateLimiter {
	if max <= 0 {
		max = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &IPRateLimiter{
		max:     max,
		window:  window,
		windows: make(map[string]*ipWindow),
		now:     time.Now,
	}
}

// Allow records one request for the IP and reports whether it fits in the
// current window. Increment and compare happen under one lock so concurrent
// bursts from the same IP cannot slip past the limit.
func (l *IPRateLimiter) Allow(ip string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[ip]
	if !ok || now.Sub(w.startsAt) >= l.window {
		l.sweep(now)
		w = &ipWindow{startsAt: now}
		l.windows[ip] = w
	}

	w.count++
	return w.count <= l.max
}

// sweep drops elapsed windows; called under the lock when a window rolls.
func (l *IPRateLimiter) sweep(now time.Time) {
	for ip, w := range l.windows {
		if now.Sub(w.startsAt) >= l.window {
			delete(l.windows, ip)
		}
	}
}

// Handler wraps sensitive routes such as registration.
func (l *IPRateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.Allow(c.IP()) {
			return apperrors.NewRateLimited("too many attempts, please try again later")
		}
		return c.Next()
	}
}
