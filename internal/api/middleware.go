package api

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/earningbee/bee-engine/internal/auth"
)

// SessionMiddleware resolves bearer tokens to users
type SessionMiddleware struct {
	auth   *auth.Service
	logger *zap.Logger
}

// NewSessionMiddleware creates new session middleware
func NewSessionMiddleware(svc *auth.Service, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{auth: svc, logger: logger}
}

// RequireSession rejects requests without a live session.
// The token is read from "Authorization: Bearer <token>" or, for websocket
// upgrades, the session_token query parameter.
func (m *SessionMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "session token required")
			return
		}

		user, session, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrSessionExpired):
				respondError(w, http.StatusUnauthorized, "session_expired", "session has expired, please log in again")
			case errors.Is(err, auth.ErrSessionNotFound):
				m.logger.Debug("invalid session token", zap.String("token_prefix", maskToken(token)), zap.String("remote_addr", r.RemoteAddr))
				respondError(w, http.StatusUnauthorized, "unauthorized", "invalid session token")
			default:
				m.logger.Error("failed to authenticate session", zap.Error(err))
				respondError(w, http.StatusInternalServerError, "internal_error", "authentication error")
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), user, session)))
	})
}

// OptionalSession attaches the session when a valid token is present and
// otherwise lets the request through anonymously.
func (m *SessionMiddleware) OptionalSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, session, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			m.logger.Debug("ignoring unusable session token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), user, session)))
	})
}

func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("session_token")
}

// maskToken returns first 8 chars of a token for safe logging
func maskToken(token string) string {
	if len(token) < 8 {
		return "***"
	}
	return token[:8] + "..."
}

// RateLimiter applies a token bucket per client IP
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const pruneThreshold = 1024

// NewRateLimiter allows rps requests per second per IP with the given burst
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(rps),
		burst:   burst,
		idle:    10 * time.Minute,
		now:     time.Now,
	}
}

// Allow reports whether a request from ip may proceed
func (l *RateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.clients[ip]
	if !ok {
		if len(l.clients) >= pruneThreshold {
			l.prune(now)
		}
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// prune drops clients idle for longer than l.idle. Callers hold l.mu.
func (l *RateLimiter) prune(now time.Time) {
	for ip, c := range l.clients {
		if now.Sub(c.lastSeen) > l.idle {
			delete(l.clients, ip)
		}
	}
}

// Middleware rejects requests over the limit with 429
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}

		if !l.Allow(ip) {
			w.Header().Set("Retry-After", "1")
			respondError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}
