package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/zenops/valuation-api/internal/auth"
	"github.com/zenops/valuation-api/internal/config"
	"go.uber.org/zap"
)

// RateLimit limits request throughput per caller. Authenticated requests are
// keyed by user id, anonymous ones by client IP. Whitelisted paths bypass
// the limiter entirely.
func RateLimit(cfg *config.RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		logger.Info("rate limiting disabled")
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	logger.Info("rate limiting enabled",
		zap.Int("requests_per_minute", cfg.RequestsPerMinute),
		zap.Strings("whitelist_paths", cfg.WhitelistPaths))

	limiter := httprate.Limit(
		cfg.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(rateLimitExceededHandler(logger)),
	)

	return func(next http.Handler) http.Handler {
		limited := limiter(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPathWhitelisted(r.URL.Path, cfg.WhitelistPaths) {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) (string, error) {
	if uc, ok := auth.FromContext(r.Context()); ok {
		return "user:" + uc.UserID.String(), nil
	}
	return "ip:" + getClientIP(r), nil
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isPathWhitelisted(path string, whitelist []string) bool {
	for _, p := range whitelist {
		if strings.HasSuffix(p, "/*") {
			if strings.HasPrefix(path, strings.TrimSuffix(p, "/*")) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}

func rateLimitExceededHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("rate limit exceeded",
			zap.String("path", r.URL.Path),
			zap.String("client_ip", getClientIP(r)))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"type":"rate_limit_exceeded","title":"Too Many Requests","status":429,"detail":"Request rate limit exceeded, try again later"}`))
	}
}
