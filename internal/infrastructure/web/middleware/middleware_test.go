package middleware

import (
	"bufio"
	"listing-repricer/internal/infrastructure/config"
	"listing-repricer/internal/infrastructure/logging"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	cfg := config.AuthConfig{
		Enabled:     true,
		APIKey:      "secret",
		HeaderName:  "X-API-Key",
		UnauthPaths: []string{"/health", "/swagger/"},
	}
	handler := NewAuthMiddleware(cfg).Handler(okHandler())

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
	}{
		{name: "valid key", path: "/api/v1/listings", header: "secret", wantStatus: http.StatusOK},
		{name: "missing key", path: "/api/v1/listings", wantStatus: http.StatusUnauthorized},
		{name: "wrong key", path: "/api/v1/listings", header: "nope", wantStatus: http.StatusUnauthorized},
		{name: "unauth exact path", path: "/health", wantStatus: http.StatusOK},
		{name: "unauth prefix", path: "/swagger/index.html", wantStatus: http.StatusOK},
		{name: "exact path is not a prefix", path: "/healthz", wantStatus: http.StatusUnauthorized},
		{name: "query param key", path: "/api/v1/events?api_key=secret", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("X-API-Key", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	handler := NewAuthMiddleware(config.AuthConfig{Enabled: false}).Handler(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestTracingMiddleware(t *testing.T) {
	var seenID string
	handler := RequestTracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = logging.GetRequestID(r.Context())
		assert.False(t, logging.GetStartTime(r.Context()).IsZero())
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.NotEmpty(t, seenID)
	assert.Equal(t, seenID, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("X-Request-ID", "req-from-proxy")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-from-proxy", seenID)
}

type hijackRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	return nil, nil, nil
}

func TestResponseWriter_Hijack(t *testing.T) {
	inner := &hijackRecorder{ResponseRecorder: httptest.NewRecorder()}
	rw := &responseWriter{ResponseWriter: inner}

	_, _, err := rw.Hijack()
	require.NoError(t, err)
	assert.True(t, inner.hijacked)
	assert.Equal(t, http.StatusSwitchingProtocols, rw.statusCode)

	plain := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err = plain.Hijack()
	assert.Error(t, err)
}

func TestIsSuspiciousRequest(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{target: "/api/v1/listings", want: false},
		{target: "/api/v1/listings/../../etc/passwd", want: true},
		{target: "/api/v1/listings?id=1%20UNION%20SELECT", want: true},
		{target: "/api/v1/listings?q=%3Cscript%3E", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			_, got := isSuspiciousRequest(req)
			assert.Equal(t, tt.want, got)
		})
	}
}
