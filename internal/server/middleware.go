package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nyxlab/nyx/internal/config"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// requestIDHeader is echoed on every response so clients can correlate logs.
const requestIDHeader = "X-Request-ID"

// requestIDMiddleware attaches a UUID to each request, honoring one supplied
// by the client.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the request ID, or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// clientLimiter applies a per-client token bucket keyed by remote IP. Idle
// clients are pruned so the map does not grow without bound.
type clientLimiter struct {
	cfg    config.RateLimitConfig
	logger *zap.Logger

	mu      sync.Mutex
	clients map[string]*clientBucket
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const clientIdleTTL = 3 * time.Minute

func newClientLimiter(cfg config.RateLimitConfig, logger *zap.Logger) *clientLimiter {
	return &clientLimiter{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[string]*clientBucket),
	}
}

func (l *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientKey(r)) {
			l.logger.Warn("rate limit exceeded", zap.String("client", clientKey(r)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *clientLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.clients[key]
	if !ok {
		l.prune(now)
		b = &clientBucket{limiter: rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)}
		l.clients[key] = b
	}
	b.lastSeen = now
	return b.limiter.Allow()
}

// prune drops buckets idle past the TTL. Called with the lock held.
func (l *clientLimiter) prune(now time.Time) {
	for key, b := range l.clients {
		if now.Sub(b.lastSeen) > clientIdleTTL {
			delete(l.clients, key)
		}
	}
}

// clientKey is the host portion of the remote address; RealIP middleware has
// already resolved proxy headers by the time this runs.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
