package logging

import (
	"context"
)

// BaseDomainLogger agrega el campo domain a todo lo que registra
type BaseDomainLogger struct {
	Logger
	domain string
}

func newBaseDomainLogger(base Logger, domain string) *BaseDomainLogger {
	return &BaseDomainLogger{Logger: base, domain: domain}
}

func (dl *BaseDomainLogger) Domain() string {
	return dl.domain
}

func (dl *BaseDomainLogger) withDomain(fields Fields) Fields {
	out := make(Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[FieldDomain] = dl.domain
	return out
}

func (dl *BaseDomainLogger) logAt(ctx context.Context, level LogLevel, message string, fields Fields) {
	fields = dl.withDomain(fields)
	switch level {
	case LevelDebug:
		dl.Logger.Debug(ctx, message, fields)
	case LevelWarn:
		dl.Logger.Warn(ctx, message, fields)
	case LevelError:
		dl.Logger.Error(ctx, message, fields)
	default:
		dl.Logger.Info(ctx, message, fields)
	}
}

func (dl *BaseDomainLogger) Debug(ctx context.Context, message string, fields Fields) {
	dl.logAt(ctx, LevelDebug, message, fields)
}

func (dl *BaseDomainLogger) Info(ctx context.Context, message string, fields Fields) {
	dl.logAt(ctx, LevelInfo, message, fields)
}

func (dl *BaseDomainLogger) Warn(ctx context.Context, message string, fields Fields) {
	dl.logAt(ctx, LevelWarn, message, fields)
}

func (dl *BaseDomainLogger) Error(ctx context.Context, message string, fields Fields) {
	dl.logAt(ctx, LevelError, message, fields)
}

func (dl *BaseDomainLogger) InfoWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.Logger.InfoWithError(ctx, message, err, dl.withDomain(fields))
}

func (dl *BaseDomainLogger) WarnWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.Logger.WarnWithError(ctx, message, err, dl.withDomain(fields))
}

func (dl *BaseDomainLogger) ErrorWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.Logger.ErrorWithError(ctx, message, err, dl.withDomain(fields))
}

// levelForStatus: 4xx es WARN, 5xx es ERROR
func levelForStatus(statusCode int) LogLevel {
	switch {
	case statusCode >= 500:
		return LevelError
	case statusCode >= 400:
		return LevelWarn
	default:
		return LevelInfo
	}
}

// HTTPDomainLogger especializado para logs HTTP
type HTTPDomainLogger struct {
	*BaseDomainLogger
}

func NewHTTPLogger(baseLogger Logger) HTTPLogger {
	return &HTTPDomainLogger{BaseDomainLogger: newBaseDomainLogger(baseLogger, "http")}
}

func (hl *HTTPDomainLogger) RequestReceived(ctx context.Context, method, path, userAgent, remoteIP string) {
	fields := NewFieldBuilder().
		WithHTTPInfo(method, path, 0).
		WithUserAgent(userAgent).
		WithRemoteIP(remoteIP).
		Build()

	hl.Debug(ctx, "HTTP request received", fields)
}

func (hl *HTTPDomainLogger) RequestCompleted(ctx context.Context, method, path string, statusCode int, durationMs float64) {
	fields := NewFieldBuilder().
		WithHTTPInfo(method, path, statusCode).
		WithCustomField(FieldDuration, durationMs).
		Build()

	hl.logAt(ctx, levelForStatus(statusCode), "HTTP request completed", fields)
}

func (hl *HTTPDomainLogger) RequestFailed(ctx context.Context, method, path string, statusCode int, err error, durationMs float64) {
	fields := NewFieldBuilder().
		WithHTTPInfo(method, path, statusCode).
		WithCustomField(FieldDuration, durationMs).
		Build()

	hl.ErrorWithError(ctx, "HTTP request failed", err, fields)
}

// ExternalAPIDomainLogger especializado para APIs externas
type ExternalAPIDomainLogger struct {
	*BaseDomainLogger
}

func NewExternalAPILogger(baseLogger Logger) ExternalAPILogger {
	return &ExternalAPIDomainLogger{BaseDomainLogger: newBaseDomainLogger(baseLogger, "external_api")}
}

func (el *ExternalAPIDomainLogger) RequestStarted(ctx context.Context, service, endpoint, method string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldExternalService, service).
		WithCustomField(FieldExternalEndpoint, endpoint).
		WithCustomField(FieldExternalMethod, method).
		Build()

	el.Debug(ctx, "External API request started", fields)
}

func (el *ExternalAPIDomainLogger) RequestCompleted(ctx context.Context, service, endpoint string, statusCode int, durationMs float64) {
	fields := NewFieldBuilder().
		WithCustomField(FieldExternalService, service).
		WithCustomField(FieldExternalEndpoint, endpoint).
		WithCustomField(FieldExternalStatus, statusCode).
		WithCustomField(FieldExternalDuration, durationMs).
		Build()

	level := levelForStatus(statusCode)
	if level == LevelInfo {
		level = LevelDebug
	}
	el.logAt(ctx, level, "External API request completed", fields)
}

func (el *ExternalAPIDomainLogger) RequestFailed(ctx context.Context, service, endpoint string, statusCode int, err error, durationMs float64) {
	fields := NewFieldBuilder().
		WithCustomField(FieldExternalService, service).
		WithCustomField(FieldExternalEndpoint, endpoint).
		WithCustomField(FieldExternalStatus, statusCode).
		WithCustomField(FieldExternalDuration, durationMs).
		Build()

	el.WarnWithError(ctx, "External API request failed", err, fields)
}

func (el *ExternalAPIDomainLogger) RetryAttempt(ctx context.Context, service, endpoint string, attempt uint, err error) {
	fields := NewFieldBuilder().
		WithCustomField(FieldExternalService, service).
		WithCustomField(FieldExternalEndpoint, endpoint).
		WithCustomField(FieldAttempt, attempt).
		Build()

	el.WarnWithError(ctx, "External API retry attempt", err, fields)
}

// CacheDomainLogger especializado para cache
type CacheDomainLogger struct {
	*BaseDomainLogger
}

func NewCacheLogger(baseLogger Logger) CacheLogger {
	return &CacheDomainLogger{BaseDomainLogger: newBaseDomainLogger(baseLogger, "cache")}
}

func (cl *CacheDomainLogger) Hit(ctx context.Context, key string, operation string) {
	cl.Debug(ctx, "Cache hit", NewFieldBuilder().WithCache(operation, key, true).Build())
}

func (cl *CacheDomainLogger) Miss(ctx context.Context, key string, operation string) {
	cl.Debug(ctx, "Cache miss", NewFieldBuilder().WithCache(operation, key, false).Build())
}

func (cl *CacheDomainLogger) Set(ctx context.Context, key string, ttlSeconds float64) {
	fields := NewFieldBuilder().
		WithCustomField(FieldCacheKey, key).
		WithCustomField(FieldCacheOperation, CacheOpSet).
		WithCustomField(FieldCacheTTL, ttlSeconds).
		Build()

	cl.Debug(ctx, "Cache set", fields)
}

func (cl *CacheDomainLogger) Evicted(ctx context.Context, key string, reason string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldCacheKey, key).
		WithCustomField(FieldCacheOperation, CacheOpEvict).
		WithCustomField(FieldReason, reason).
		Build()

	cl.Debug(ctx, "Cache entry evicted", fields)
}

func (cl *CacheDomainLogger) Cleared(ctx context.Context, scope string, count int) {
	fields := NewFieldBuilder().
		WithCustomField(FieldCacheOperation, CacheOpClear).
		WithCustomField("scope", scope).
		WithCustomField(FieldCacheEvicted, count).
		Build()

	cl.Info(ctx, "Cache entries cleared", fields)
}

// PricingDomainLogger especializado para el dominio de repricing
type PricingDomainLogger struct {
	*BaseDomainLogger
}

func NewPricingLogger(baseLogger Logger) PricingLogger {
	return &PricingDomainLogger{BaseDomainLogger: newBaseDomainLogger(baseLogger, "pricing")}
}

func (pl *PricingDomainLogger) RateResolved(ctx context.Context, currency string, rate float64, source string, cached bool) {
	fields := NewFieldBuilder().
		WithRate(currency, rate, source).
		WithCustomField(FieldCached, cached).
		Build()

	pl.Debug(ctx, "Exchange rate resolved", fields)
}

func (pl *PricingDomainLogger) RateDegraded(ctx context.Context, currency string, rate float64, source string, reason string) {
	fields := NewFieldBuilder().
		WithRate(currency, rate, source).
		WithCustomField(FieldDegraded, true).
		WithCustomField(FieldReason, reason).
		Build()

	pl.Warn(ctx, "Stale or fallback exchange rate used", fields)
}

func (pl *PricingDomainLogger) CatalogPriceResolved(ctx context.Context, item, currency string, price float64, cached bool) {
	fields := NewFieldBuilder().
		WithCustomField(FieldCatalogItem, item).
		WithCustomField(FieldCurrency, currency).
		WithCustomField(FieldCatalogPrice, price).
		WithCustomField(FieldCached, cached).
		Build()

	pl.Debug(ctx, "Catalog price resolved", fields)
}

func (pl *PricingDomainLogger) CatalogPriceAbsent(ctx context.Context, item, currency string, reason string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldCatalogItem, item).
		WithCustomField(FieldCurrency, currency).
		WithCustomField(FieldReason, reason).
		Build()

	pl.Warn(ctx, "Catalog price unavailable", fields)
}

func (pl *PricingDomainLogger) DataError(ctx context.Context, input string, reason string) {
	fields := NewFieldBuilder().
		WithCustomField("input", input).
		WithCustomField(FieldReason, reason).
		Build()

	pl.Error(ctx, "Pricing data error", fields)
}

func (pl *PricingDomainLogger) RepriceOutcome(ctx context.Context, listingID, outcome, reason string, fields Fields) {
	built := NewFieldBuilder().
		WithCustomField(FieldListingID, listingID).
		WithCustomField(FieldOutcome, outcome).
		WithCustomField(FieldReason, reason).
		Merge(fields).
		Build()

	switch outcome {
	case "updated":
		pl.Info(ctx, "Listing repriced", built)
	case "unchanged":
		pl.Debug(ctx, "Listing price unchanged", built)
	default:
		pl.Warn(ctx, "Listing reprice skipped", built)
	}
}

func (pl *PricingDomainLogger) ListingRemoved(ctx context.Context, listingID string, reason string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldListingID, listingID).
		WithCustomField(FieldReason, reason).
		Build()

	pl.Warn(ctx, "Listing removed from managed set", fields)
}

// SecurityDomainLogger especializado para seguridad
type SecurityDomainLogger struct {
	*BaseDomainLogger
}

func NewSecurityLogger(baseLogger Logger) SecurityLogger {
	return &SecurityDomainLogger{BaseDomainLogger: newBaseDomainLogger(baseLogger, "security")}
}

func (sl *SecurityDomainLogger) RateLimitExceeded(ctx context.Context, clientIP string, endpoint string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldClientIP, clientIP).
		WithCustomField("endpoint", endpoint).
		WithCustomField(FieldRateLimit, "exceeded").
		Build()

	sl.Warn(ctx, "Rate limit exceeded", fields)
}

func (sl *SecurityDomainLogger) AuthFailed(ctx context.Context, clientIP string, reason string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldClientIP, clientIP).
		WithCustomField(FieldReason, reason).
		Build()

	sl.Warn(ctx, "API key authentication failed", fields)
}

func (sl *SecurityDomainLogger) SuspiciousActivity(ctx context.Context, clientIP string, activity string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldClientIP, clientIP).
		WithCustomField(FieldSuspiciousReason, activity).
		Build()

	sl.Error(ctx, "Suspicious activity detected", fields)
}
