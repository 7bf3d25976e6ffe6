package logging

import (
	"context"
)

// Logger define la interfaz principal para logging estructurado
type Logger interface {
	Debug(ctx context.Context, message string, fields Fields)
	Info(ctx context.Context, message string, fields Fields)
	Warn(ctx context.Context, message string, fields Fields)
	Error(ctx context.Context, message string, fields Fields)

	InfoWithError(ctx context.Context, message string, err error, fields Fields)
	WarnWithError(ctx context.Context, message string, err error, fields Fields)
	ErrorWithError(ctx context.Context, message string, err error, fields Fields)

	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

// DomainLogger representa loggers especializados por dominio
type DomainLogger interface {
	Logger
	Domain() string
}

// HTTPLogger para la API de administración
type HTTPLogger interface {
	DomainLogger

	RequestReceived(ctx context.Context, method, path, userAgent, remoteIP string)
	RequestCompleted(ctx context.Context, method, path string, statusCode int, durationMs float64)
	RequestFailed(ctx context.Context, method, path string, statusCode int, err error, durationMs float64)
}

// ExternalAPILogger para catálogo, fuentes de tasas y API de la cuenta
type ExternalAPILogger interface {
	DomainLogger

	RequestStarted(ctx context.Context, service, endpoint, method string)
	RequestCompleted(ctx context.Context, service, endpoint string, statusCode int, durationMs float64)
	RequestFailed(ctx context.Context, service, endpoint string, statusCode int, err error, durationMs float64)
	RetryAttempt(ctx context.Context, service, endpoint string, attempt uint, err error)
}

// CacheLogger para el TTLCache
type CacheLogger interface {
	DomainLogger

	Hit(ctx context.Context, key string, operation string)
	Miss(ctx context.Context, key string, operation string)
	Set(ctx context.Context, key string, ttlSeconds float64)
	Evicted(ctx context.Context, key string, reason string)
	Cleared(ctx context.Context, scope string, count int)
}

// PricingLogger para tasas, cálculo y reprice de listings
type PricingLogger interface {
	DomainLogger

	RateResolved(ctx context.Context, currency string, rate float64, source string, cached bool)
	RateDegraded(ctx context.Context, currency string, rate float64, source string, reason string)
	CatalogPriceResolved(ctx context.Context, item, currency string, price float64, cached bool)
	CatalogPriceAbsent(ctx context.Context, item, currency string, reason string)
	DataError(ctx context.Context, input string, reason string)
	RepriceOutcome(ctx context.Context, listingID, outcome, reason string, fields Fields)
	ListingRemoved(ctx context.Context, listingID string, reason string)
}

// SecurityLogger para autenticación y rate limiting del API
type SecurityLogger interface {
	DomainLogger

	RateLimitExceeded(ctx context.Context, clientIP string, endpoint string)
	AuthFailed(ctx context.Context, clientIP string, reason string)
	SuspiciousActivity(ctx context.Context, clientIP string, activity string)
}
