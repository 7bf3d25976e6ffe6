package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/infrastructure/logging"
	"listing-repricer/internal/infrastructure/metrics"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	DefaultRequestTimeout = 15 * time.Second
	DefaultMaxRetries     = 3
	BaseBackoff           = 200 * time.Millisecond
	MaxBackoff            = 2 * time.Second
)

// Config parametriza un Client para un servicio externo concreto
type Config struct {
	// Service es la etiqueta usada en métricas y logs (ej: "steam", "nbu")
	Service        string
	RequestTimeout time.Duration
	MaxRetries     int
	BaseBackoff    time.Duration
	MaxBackoff     time.Duration
	Headers        map[string]string
}

// Client ejecuta requests HTTP con timeout por intento, retry con backoff y métricas
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Request describe un request; Endpoint es la etiqueta de baja cardinalidad para métricas
type Request struct {
	Method   string
	URL      string
	Endpoint string
	Body     []byte
	Headers  map[string]string
}

// New crea un Client; los valores en cero toman los defaults del paquete
func New(cfg Config) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = BaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = MaxBackoff
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			// el timeout real es por intento vía context
			Timeout: cfg.RequestTimeout + time.Second,
		},
	}
}

// Service retorna la etiqueta del servicio
func (c *Client) Service() string {
	return c.cfg.Service
}

// GetJSON hace GET y decodifica el body JSON en out
func (c *Client) GetJSON(ctx context.Context, url, endpoint string, out interface{}) error {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: url, Endpoint: endpoint}, func(body io.Reader) error {
		return json.NewDecoder(body).Decode(out)
	})
}

// SendJSON serializa payload y lo envía con el método indicado; out puede ser nil
func (c *Client) SendJSON(ctx context.Context, method, url, endpoint string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: failed to encode request: %v", ErrNonRetryable, err)
	}

	req := Request{
		Method:   method,
		URL:      url,
		Endpoint: endpoint,
		Body:     body,
		Headers:  map[string]string{"Content-Type": "application/json"},
	}

	return c.Do(ctx, req, func(r io.Reader) error {
		if out == nil {
			_, _ = io.Copy(io.Discard, r)
			return nil
		}
		return json.NewDecoder(r).Decode(out)
	})
}

// Do ejecuta el request con retry. decode recibe el body de una respuesta 2xx.
func (c *Client) Do(ctx context.Context, req Request, decode func(io.Reader) error) error {
	retryErr := retry.Do(
		func() error {
			reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
			defer cancel()

			return c.doRequest(reqCtx, req, decode)
		},
		retry.Attempts(uint(c.cfg.MaxRetries)),
		retry.Delay(c.cfg.BaseBackoff),
		retry.MaxDelay(c.cfg.MaxBackoff),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(c.isRetryableError),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			metrics.RecordExternalAPIRetry(c.cfg.Service, req.Endpoint, int(n+1))
			logging.ExternalAPI().RetryAttempt(ctx, c.cfg.Service, req.Endpoint, n+1, err)
		}),
	)

	if retryErr != nil {
		return fmt.Errorf("%s %s failed: %w", c.cfg.Service, req.Endpoint, retryErr)
	}
	return nil
}

// doRequest performs a single HTTP attempt and classifies the failure
func (c *Client) doRequest(ctx context.Context, req Request, decode func(io.Reader) error) error {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrNonRetryable, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range c.cfg.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	requestDuration := time.Since(requestStart)
	durationMs := float64(requestDuration.Nanoseconds()) / 1e6

	if err != nil {
		logging.ExternalAPI().RequestFailed(ctx, c.cfg.Service, req.Endpoint, 0, err, durationMs)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %w: context timeout/canceled", ErrRetryableRequest, entities.ErrTransientSource)
		}
		return fmt.Errorf("%w: %w: %v", ErrRetryableRequest, entities.ErrTransientSource, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	metrics.RecordExternalAPICall(c.cfg.Service, req.Endpoint, resp.StatusCode, requestDuration.Seconds())

	switch {
	case resp.StatusCode >= 500 && resp.StatusCode < 600:
		return fmt.Errorf("%w: %w: HTTP %d (server error)", ErrRetryableRequest, entities.ErrTransientSource, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		metrics.RecordExternalRateLimitDrop(c.cfg.Service)
		return fmt.Errorf("%w: %w: HTTP %d (rate limited by %s)", ErrRetryableRequest, entities.ErrTransientSource, resp.StatusCode, c.cfg.Service)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w: HTTP 404", ErrNotFound, ErrNonRetryable)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: %w: HTTP %d (client error)", ErrNonRetryable, entities.ErrTransientSource, resp.StatusCode)
	}

	if decode != nil {
		if err := decode(resp.Body); err != nil {
			return fmt.Errorf("%w: %w: failed to decode response: %v", ErrRetryableRequest, entities.ErrTransientSource, err)
		}
	}

	logging.ExternalRequest(ctx, c.cfg.Service, req.Endpoint, durationMs, resp.StatusCode)
	return nil
}

// isRetryableError determines if an error should trigger a retry
func (c *Client) isRetryableError(err error) bool {
	return errors.Is(err, ErrRetryableRequest)
}
