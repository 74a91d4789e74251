package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/metgallery/internal/models"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client in memory. Each client may
// burst up to requests at once and regains one request every window/requests.
// Each server instance limits independently.
type RateLimiter struct {
	clients  map[string]*client
	requests int
	window   time.Duration
	now      func() time.Time
	mu       sync.Mutex
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows requests per window for each client. Idle clients are
// swept every window until ctx is done.
func NewRateLimiter(ctx context.Context, requests int, window time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	rl := &RateLimiter{
		clients:  make(map[string]*client),
		requests: requests,
		window:   window,
		now:      time.Now,
	}

	go rl.cleanup(ctx)

	return rl
}

// Middleware rejects clients over their limit with 429
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := clientIP(r)

		if delay := rl.reserve(clientID); delay > 0 {
			slog.Warn("Rate limit exceeded", "client", clientID, "path", r.URL.Path, "retry_after", delay)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(delay)))
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Rate limit exceeded. Please try again later."})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// reserve takes a token for clientID and returns zero, or returns how long the
// client must wait and takes nothing
func (rl *RateLimiter) reserve(clientID string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	c, exists := rl.clients[clientID]
	if !exists {
		c = &client{limiter: rate.NewLimiter(rate.Every(rl.window/time.Duration(rl.requests)), rl.requests)}
		rl.clients[clientID] = c
	}
	c.lastSeen = now

	res := c.limiter.ReserveN(now, 1)
	if !res.OK() {
		return rl.window
	}
	delay := res.DelayFrom(now)
	if delay > 0 {
		res.CancelAt(now)
	}
	return delay
}

func (rl *RateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for clientID, c := range rl.clients {
				// an idle bucket has refilled completely, so forgetting it changes nothing
				if now.Sub(c.lastSeen) > rl.window {
					delete(rl.clients, clientID)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// retryAfterSeconds rounds to whole seconds, never below one
func retryAfterSeconds(delay time.Duration) int {
	return max(1, int(delay.Round(time.Second)/time.Second))
}

// clientIP expects chi's RealIP middleware to have normalized RemoteAddr
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
