package ratelimit

import (
	"encoding/json"
	"listing-repricer/internal/infrastructure/config"
	"listing-repricer/internal/infrastructure/logging"
	"listing-repricer/internal/infrastructure/metrics"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// RateLimitMiddleware aplica rate limiting por cliente a la API de admin
type RateLimitMiddleware struct {
	limiter   *RateLimiterCollection
	skipPaths []string
	enabled   bool
}

// DefaultSkipPaths no se limitan (health checks, métricas, documentación)
var DefaultSkipPaths = []string{"/health", "/ready", "/metrics", "/swagger/"}

// NewRateLimitMiddlewareWithConfig crea el middleware a partir de la configuración
func NewRateLimitMiddlewareWithConfig(rateLimitConfig config.RateLimitConfig) *RateLimitMiddleware {
	var limiter *RateLimiterCollection
	if rateLimitConfig.Enabled {
		limiter = NewRateLimiterCollection(rateLimitConfig.Capacity, rateLimitConfig.RefillRate)
	}

	return &RateLimitMiddleware{
		limiter:   limiter,
		skipPaths: DefaultSkipPaths,
		enabled:   rateLimitConfig.Enabled,
	}
}

// Handler returns the HTTP middleware handler
func (rlm *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rlm.enabled || rlm.skip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		clientID := getClientID(r)

		allowed := rlm.limiter.Allow(clientID)
		tokensRemaining := rlm.limiter.Tokens(clientID)

		metrics.RecordRateLimitResult(allowed)
		metrics.UpdateRateLimitTokens(clientID, tokensRemaining)

		if !allowed {
			logging.Security().RateLimitExceeded(r.Context(), clientID, r.URL.Path)
			writeRateLimitError(w)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(math.Max(0, math.Floor(tokensRemaining)))))
		next.ServeHTTP(w, r)
	})
}

func (rlm *RateLimitMiddleware) skip(path string) bool {
	for _, p := range rlm.skipPaths {
		if path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

// Stats returns rate limiting statistics
func (rlm *RateLimitMiddleware) Stats() map[string]interface{} {
	stats := map[string]interface{}{"enabled": rlm.enabled}
	if rlm.limiter != nil {
		for k, v := range rlm.limiter.Stats() {
			stats[k] = v
		}
	}
	return stats
}

// getClientID extrae el identificador del cliente (IP real detrás de un proxy)
func getClientID(r *http.Request) string {
	if xForwardedFor := r.Header.Get("X-Forwarded-For"); xForwardedFor != "" {
		parts := strings.Split(xForwardedFor, ",")
		return strings.TrimSpace(parts[0])
	}

	if xRealIP := r.Header.Get("X-Real-IP"); xRealIP != "" {
		return xRealIP
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeRateLimitError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusTooManyRequests)

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   "RATE_LIMIT_EXCEEDED",
		"message": "Rate limit exceeded. Please slow down your requests.",
		"code":    http.StatusTooManyRequests,
		"details": map[string]interface{}{
			"retry_after_seconds": 1,
		},
	})
}
