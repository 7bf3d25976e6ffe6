package middleware

import (
	"listing-repricer/internal/infrastructure/logging"
	"net/http"
	"net/url"
	"strings"
)

// suspiciousPatterns son fragmentos típicos de path traversal e inyección
var suspiciousPatterns = []string{
	"../",
	"<script",
	"union select",
	"drop table",
	"exec(",
	"eval(",
}

// LoggingMiddleware complementa a RequestTracingMiddleware con logs de debug
// y detección de requests sospechosos.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		logging.HTTP().RequestReceived(ctx, r.Method, r.URL.Path, r.UserAgent(), getClientIP(r))

		if reason, suspicious := isSuspiciousRequest(r); suspicious {
			logging.Security().SuspiciousActivity(ctx, getClientIP(r), reason)
		}

		next.ServeHTTP(w, r)
	})
}

// isSuspiciousRequest retorna el motivo cuando el request parece un ataque
func isSuspiciousRequest(r *http.Request) (string, bool) {
	query, err := url.QueryUnescape(r.URL.RawQuery)
	if err != nil {
		query = r.URL.RawQuery
	}

	target := strings.ToLower(r.URL.Path + "?" + query)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(target, pattern) {
			return "pattern:" + pattern, true
		}
	}

	if r.ContentLength > 1024*1024 {
		return "oversized_body", true
	}
	return "", false
}
