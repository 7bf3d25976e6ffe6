package logging

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Fields representa campos estructurados para logs
type Fields map[string]interface{}

// LogLevel representa los diferentes niveles de log
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// Campos estándar
const (
	FieldRequestID = "request_id"
	FieldDomain    = "domain"
	FieldError     = "error"
	FieldErrorType = "error_type"
	FieldDuration  = "duration_ms"
	FieldComponent = "component"
)

// Campos HTTP
const (
	FieldHTTPMethod     = "http_method"
	FieldHTTPPath       = "http_path"
	FieldHTTPStatusCode = "http_status_code"
	FieldHTTPUserAgent  = "http_user_agent"
	FieldHTTPRemoteIP   = "http_remote_ip"
)

// Campos para APIs externas
const (
	FieldExternalService  = "external_service"
	FieldExternalEndpoint = "external_endpoint"
	FieldExternalMethod   = "external_method"
	FieldExternalStatus   = "external_status_code"
	FieldExternalDuration = "external_duration_ms"
	FieldAttempt          = "attempt"
)

// Campos para cache
const (
	FieldCacheOperation = "cache_operation"
	FieldCacheKey       = "cache_key"
	FieldCacheHit       = "cache_hit"
	FieldCacheTTL       = "cache_ttl_seconds"
	FieldCacheEvicted   = "cache_evicted"
)

// Campos del dominio de repricing
const (
	FieldListingID       = "listing_id"
	FieldCatalogItem     = "catalog_item"
	FieldCurrency        = "currency"
	FieldRate            = "rate"
	FieldRateSource      = "rate_source"
	FieldCatalogPrice    = "catalog_price"
	FieldCalculatedPrice = "calculated_price"
	FieldOldPrice        = "old_price"
	FieldNewPrice        = "new_price"
	FieldOutcome         = "outcome"
	FieldReason          = "reason"
	FieldCached          = "cached"
	FieldDegraded        = "degraded"
)

// Campos para seguridad
const (
	FieldClientIP         = "client_ip"
	FieldSuspiciousReason = "suspicious_reason"
	FieldRateLimit        = "rate_limit"
)

// Operaciones de cache
const (
	CacheOpGet    = "GET"
	CacheOpSet    = "SET"
	CacheOpDelete = "DELETE"
	CacheOpClear  = "CLEAR"
	CacheOpEvict  = "EVICT"
)

// FieldBuilder ayuda a construir campos de manera estandarizada
type FieldBuilder struct {
	fields Fields
}

// NewFieldBuilder crea un nuevo builder de campos
func NewFieldBuilder() *FieldBuilder {
	return &FieldBuilder{fields: make(Fields)}
}

// WithHTTPInfo añade información HTTP básica; statusCode 0 se omite
func (fb *FieldBuilder) WithHTTPInfo(method, path string, statusCode int) *FieldBuilder {
	fb.fields[FieldHTTPMethod] = method
	fb.fields[FieldHTTPPath] = path
	if statusCode > 0 {
		fb.fields[FieldHTTPStatusCode] = statusCode
	}
	return fb
}

func (fb *FieldBuilder) WithUserAgent(userAgent string) *FieldBuilder {
	if userAgent != "" {
		fb.fields[FieldHTTPUserAgent] = userAgent
	}
	return fb
}

func (fb *FieldBuilder) WithRemoteIP(ip string) *FieldBuilder {
	if ip != "" {
		fb.fields[FieldHTTPRemoteIP] = ip
	}
	return fb
}

// WithCache añade información de cache
func (fb *FieldBuilder) WithCache(operation, key string, hit bool) *FieldBuilder {
	fb.fields[FieldCacheOperation] = operation
	fb.fields[FieldCacheKey] = key
	fb.fields[FieldCacheHit] = hit
	return fb
}

// WithListing añade el listing y su item de catálogo
func (fb *FieldBuilder) WithListing(listingID, catalogItem string) *FieldBuilder {
	fb.fields[FieldListingID] = listingID
	if catalogItem != "" {
		fb.fields[FieldCatalogItem] = catalogItem
	}
	return fb
}

// WithRate añade una tasa resuelta y su fuente
func (fb *FieldBuilder) WithRate(currency string, rate float64, source string) *FieldBuilder {
	fb.fields[FieldCurrency] = currency
	fb.fields[FieldRate] = rate
	fb.fields[FieldRateSource] = source
	return fb
}

// WithPricing añade precio de catálogo y precio calculado
func (fb *FieldBuilder) WithPricing(catalogPrice, calculatedPrice float64, currency string) *FieldBuilder {
	fb.fields[FieldCatalogPrice] = catalogPrice
	if calculatedPrice > 0 {
		fb.fields[FieldCalculatedPrice] = calculatedPrice
	}
	if currency != "" {
		fb.fields[FieldCurrency] = currency
	}
	return fb
}

// WithCustomField añade un campo personalizado
func (fb *FieldBuilder) WithCustomField(key string, value interface{}) *FieldBuilder {
	if key != "" && value != nil {
		fb.fields[key] = value
	}
	return fb
}

// Merge copia campos adicionales sin pisar los ya presentes
func (fb *FieldBuilder) Merge(extra Fields) *FieldBuilder {
	for k, v := range extra {
		if _, exists := fb.fields[k]; !exists {
			fb.fields[k] = v
		}
	}
	return fb
}

// Build retorna los campos construidos
func (fb *FieldBuilder) Build() Fields {
	if len(fb.fields) == 0 {
		return nil
	}
	return fb.fields
}

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	StartTimeKey contextKey = "start_time"
	ListingIDKey contextKey = "listing_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func WithStartTime(ctx context.Context, startTime time.Time) context.Context {
	return context.WithValue(ctx, StartTimeKey, startTime)
}

// WithListingID marca el contexto con el listing en proceso; los logs lo incluyen automáticamente
func WithListingID(ctx context.Context, listingID string) context.Context {
	return context.WithValue(ctx, ListingIDKey, listingID)
}

func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func GetStartTime(ctx context.Context) time.Time {
	if ctx == nil {
		return time.Time{}
	}
	if startTime, ok := ctx.Value(StartTimeKey).(time.Time); ok {
		return startTime
	}
	return time.Time{}
}

func GetListingID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if listingID, ok := ctx.Value(ListingIDKey).(string); ok {
		return listingID
	}
	return ""
}

// getErrorType devuelve el tipo concreto del error más interno
func getErrorType(err error) string {
	if err == nil {
		return ""
	}
	for {
		inner := errors.Unwrap(err)
		if inner == nil {
			return fmt.Sprintf("%T", err)
		}
		err = inner
	}
}

func durationMs(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
