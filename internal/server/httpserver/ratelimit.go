package httpserver

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/meterd/internal/core/domain"
	"github.com/yndnr/meterd/internal/server/httpserver/handler"
)

// Idle limiters are swept once the table holds maxRateLimiters clients.
const (
	rateLimiterIdle = 10 * time.Minute
	maxRateLimiters = 10000
)

// limiterTable keeps one token bucket per client IP.
type limiterTable struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

type clientLimiter struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

func newLimiterTable(perSecond float64, burst int) *limiterTable {
	return &limiterTable{
		limit:   rate.Limit(perSecond),
		burst:   max(burst, 1),
		clients: make(map[string]*clientLimiter),
	}
}

// take spends one token of ip's bucket. When none is left it returns how
// long until one is.
func (t *limiterTable) take(ip string, now time.Time) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.clients[ip]
	if !ok {
		if len(t.clients) >= maxRateLimiters {
			t.sweep(now)
		}
		c = &clientLimiter{bucket: rate.NewLimiter(t.limit, t.burst)}
		t.clients[ip] = c
	}
	c.lastSeen = now

	res := c.bucket.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (t *limiterTable) sweep(now time.Time) {
	for ip, c := range t.clients {
		if now.Sub(c.lastSeen) > rateLimiterIdle {
			delete(t.clients, ip)
		}
	}
}

func (t *limiterTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.clients)
}

// RateLimit applies a per-client token bucket. Rejections carry
// MD-SYS-4290 and a Retry-After in whole seconds.
func RateLimit(perSecond float64, burst int) Middleware {
	table := newLimiterTable(perSecond, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := table.take(getClientIP(r), time.Now())
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				handler.WriteError(w, r, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
