package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"shopora/utils"

	"golang.org/x/time/rate"
)

// RateLimiter throttles an endpoint class per client address. Used on order
// creation so a client can only place one order every few seconds.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rate.Limiter
	every   time.Duration
	burst   int
}

func NewRateLimiter(every time.Duration, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*rate.Limiter),
		every:   every,
		burst:   burst,
	}
}

func (rl *RateLimiter) limiterFor(addr string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.clients[addr]
	if !ok {
		l = rate.NewLimiter(rate.Every(rl.every), rl.burst)
		rl.clients[addr] = l
	}
	return l
}

// Middleware rejects requests past the per-client budget with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !rl.limiterFor(host).Allow() {
			utils.WriteError(w, &utils.APIError{
				Status:  http.StatusTooManyRequests,
				Message: "Too many requests, slow down",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
