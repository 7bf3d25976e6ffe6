package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"
)

// HTTPMetricsMiddleware collects HTTP metrics for Prometheus
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		// Wrap response writer to capture metrics
		wrapped := &responseWriterMetrics{
			ResponseWriter: w,
			statusCode:     200, // Default to 200 if WriteHeader is not called
			written:        0,
		}

		// Extract normalized path (to avoid high cardinality)
		normalizedPath := normalizePath(r.URL.Path)
		method := r.Method

		// Process request
		next.ServeHTTP(wrapped, r)

		// Calculate metrics
		duration := time.Since(startTime).Seconds()
		statusCode := wrapped.statusCode
		responseSize := wrapped.written

		// Record metrics
		RecordHTTPRequest(method, normalizedPath, statusCode, duration, responseSize)
	})
}

// responseWriterMetrics wraps http.ResponseWriter to capture metrics
type responseWriterMetrics struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

// WriteHeader captures the status code
func (rw *responseWriterMetrics) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size
func (rw *responseWriterMetrics) Write(b []byte) (int, error) {
	if rw.statusCode == 0 {
		rw.statusCode = 200
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Hijack permite el upgrade a WebSocket a través del wrapper
func (rw *responseWriterMetrics) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// normalizePath normalizes URL paths to avoid high cardinality in metrics
// This is important to prevent metrics explosion from dynamic paths
func normalizePath(path string) string {
	// Handle root path
	if path == "/" {
		return "/"
	}

	// Remove trailing slash
	path = strings.TrimSuffix(path, "/")

	// Los IDs de listing se colapsan para mantener baja la cardinalidad
	switch {
	case path == "/health", path == "/ready", path == "/metrics":
		return path
	case strings.HasPrefix(path, "/swagger"):
		return "/swagger"
	case path == "/api/v1/listings":
		return path
	case strings.HasPrefix(path, "/api/v1/listings/"):
		rest := strings.TrimPrefix(path, "/api/v1/listings/")
		if i := strings.Index(rest, "/"); i >= 0 {
			return "/api/v1/listings/{id}" + rest[i:]
		}
		return "/api/v1/listings/{id}"
	case strings.HasPrefix(path, "/api/v1/rates"),
		path == "/api/v1/reprice",
		path == "/api/v1/settings",
		path == "/api/v1/status",
		path == "/api/v1/events":
		return path
	case strings.HasPrefix(path, "/api/v1/"):
		return "/api/v1/*"
	default:
		// For unknown paths, use a generic label
		return "/unknown"
	}
}
