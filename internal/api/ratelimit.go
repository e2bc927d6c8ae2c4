package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// writeLimiter is a per-client token bucket for requests that change the
// court set. Each client refills perMinute tokens a minute and can burst up
// to perMinute.
type writeLimiter struct {
	mu        sync.Mutex
	perMinute int
	clients   map[string]*tokens
	now       func() time.Time
}

type tokens struct {
	left   float64
	seenAt time.Time
}

func newWriteLimiter(perMinute int) *writeLimiter {
	if perMinute <= 0 {
		perMinute = 120
	}
	return &writeLimiter{
		perMinute: perMinute,
		clients:   make(map[string]*tokens),
		now:       time.Now,
	}
}

// take spends one token for client. When none is left it reports how long
// until the next one.
func (l *writeLimiter) take(client string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	capacity := float64(l.perMinute)
	t, ok := l.clients[client]
	if !ok {
		t = &tokens{left: capacity, seenAt: now}
		l.clients[client] = t
	}
	perSecond := capacity / 60
	t.left = math.Min(capacity, t.left+now.Sub(t.seenAt).Seconds()*perSecond)
	t.seenAt = now

	if t.left < 1 {
		wait := time.Duration((1 - t.left) / perSecond * float64(time.Second))
		return false, wait
	}
	t.left--
	return true, 0
}

// prune forgets clients idle for longer than idle. A forgotten client is
// back to a full bucket anyway once a minute has passed.
func (l *writeLimiter) prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-idle)
	n := 0
	for k, t := range l.clients {
		if t.seenAt.Before(cutoff) {
			delete(l.clients, k)
			n++
		}
	}
	return n
}

// limitWrites applies the limiter to POST and DELETE. Reads are never limited.
func limitWrites(l *writeLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodDelete {
				next.ServeHTTP(w, r)
				return
			}
			ip := clientIP(r)
			if ok, wait := l.take(ip); !ok {
				secs := int(math.Ceil(wait.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
				logFor(r.Context()).Warn("write rate limited", "ip", ip, "path", r.URL.Path, "retry_after", secs)
				writeError(w, http.StatusTooManyRequests, ErrCodeRateLimited, "too many writes, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop over the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
