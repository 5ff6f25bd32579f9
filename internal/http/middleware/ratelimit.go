package middleware

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/wolfman30/realitycheck-ai/internal/observability/metrics"
	"github.com/wolfman30/realitycheck-ai/pkg/logging"
)

// RateLimitMessage is the body error text for rejected requests.
const RateLimitMessage = "Too many requests, please try again later."

// Decision is the result of one limiter check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Duration
}

// Limiter counts requests per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Name() string
}

// WindowLimiter is an in-process fixed-window limiter keyed by client IP.
type WindowLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	max     int
	period  time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type window struct {
	count int
	start time.Time
}

// NewWindowLimiter allows max requests per period for each key.
func NewWindowLimiter(max int, period time.Duration) *WindowLimiter {
	l := &WindowLimiter{
		windows: make(map[string]*window),
		max:     max,
		period:  period,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	// Periodically evict expired windows to prevent memory growth.
	go l.cleanup()
	return l
}

func (l *WindowLimiter) Name() string { return "memory" }

func (l *WindowLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.period {
		w = &window{start: now}
		l.windows[key] = w
	}
	w.count++

	return Decision{
		Allowed:   w.count <= l.max,
		Limit:     l.max,
		Remaining: max(l.max-w.count, 0),
		Reset:     w.start.Add(l.period).Sub(now),
	}, nil
}

// Close stops the cleanup goroutine.
func (l *WindowLimiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *WindowLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.evict()
		}
	}
}

func (l *WindowLimiter) evict() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.period {
			delete(l.windows, key)
		}
	}
}

// RateLimit rejects requests over the limiter's budget with 429 and a JSON
// error body. Limiter errors fail open.
func RateLimit(limiter Limiter, m *metrics.AnalysisMetrics, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			decision, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Error("rate limit check failed", "backend", limiter.Name(), "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("RateLimit-Reset", strconv.Itoa(int(math.Ceil(decision.Reset.Seconds()))))

			if !decision.Allowed {
				m.ObserveRateLimited(limiter.Name())
				logger.Warn("rate limit exceeded", "backend", limiter.Name(), "remote_ip", key)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(decision.Reset.Seconds()))))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": RateLimitMessage})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers X-Real-Ip set by chi's RealIP middleware.
func clientIP(r *http.Request) string {
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
