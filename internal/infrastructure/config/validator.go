package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validator valida la configuración cargada
type Validator struct{}

// NewValidator crea una nueva instancia del validador
func NewValidator() *Validator {
	return &Validator{}
}

// Validate valida toda la configuración
func (v *Validator) Validate(config *Config) error {
	if err := v.validateServer(config.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := v.validateCache(config.Cache); err != nil {
		return fmt.Errorf("cache config validation failed: %w", err)
	}

	if err := v.validateRates(config.Rates); err != nil {
		return fmt.Errorf("rates config validation failed: %w", err)
	}

	if err := v.validateCatalog(config.Catalog); err != nil {
		return fmt.Errorf("catalog config validation failed: %w", err)
	}

	if err := v.validateAccount(config.Account); err != nil {
		return fmt.Errorf("account config validation failed: %w", err)
	}

	if err := v.validateScheduler(config.Scheduler); err != nil {
		return fmt.Errorf("scheduler config validation failed: %w", err)
	}

	if err := v.validatePricing(config.Pricing, config.Account.Currencies); err != nil {
		return fmt.Errorf("pricing config validation failed: %w", err)
	}

	if err := v.validatePersistence(config.Persistence); err != nil {
		return fmt.Errorf("persistence config validation failed: %w", err)
	}

	if err := v.validateEvents(config.Events); err != nil {
		return fmt.Errorf("events config validation failed: %w", err)
	}

	if err := v.validateRateLimit(config.RateLimit); err != nil {
		return fmt.Errorf("rate limit config validation failed: %w", err)
	}

	if err := v.validateAuth(config.Auth); err != nil {
		return fmt.Errorf("auth config validation failed: %w", err)
	}

	if err := v.validateLogging(config.Logging); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}

	return nil
}

// validateServer valida la configuración del servidor
func (v *Validator) validateServer(config ServerConfig) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port: %d, must be between 1-65535", config.Port)
	}

	if config.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got: %v", config.ShutdownTimeout)
	}

	if config.ShutdownTimeout > 5*time.Minute {
		return fmt.Errorf("shutdown_timeout too long: %v, max 5 minutes", config.ShutdownTimeout)
	}

	return nil
}

// validateCache valida la configuración del cache
func (v *Validator) validateCache(config CacheConfig) error {
	if config.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %v", config.TTL)
	}

	if config.TTL > 24*time.Hour {
		return fmt.Errorf("cache TTL too long: %v, max 24 hours", config.TTL)
	}

	if config.MaxSize <= 0 {
		return fmt.Errorf("cache max_size must be positive, got: %d", config.MaxSize)
	}

	return nil
}

// validateRates valida fuentes y fallbacks de tasas de cambio
func (v *Validator) validateRates(config RatesConfig) error {
	if !isCurrencyCode(config.BaseCurrency) {
		return fmt.Errorf("invalid base_currency: %q", config.BaseCurrency)
	}

	if len(config.SupportedCurrencies) == 0 {
		return fmt.Errorf("supported_currencies cannot be empty")
	}

	for _, currency := range config.SupportedCurrencies {
		if !isCurrencyCode(currency) {
			return fmt.Errorf("invalid currency code: %q, expected 3 letters", currency)
		}
	}

	if config.FreshnessThreshold <= 0 {
		return fmt.Errorf("freshness_threshold must be positive, got: %v", config.FreshnessThreshold)
	}

	if config.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got: %v", config.RequestTimeout)
	}

	if config.MaxRetries < 1 || config.MaxRetries > 10 {
		return fmt.Errorf("max_retries must be between 1-10, got: %d", config.MaxRetries)
	}

	sources := map[string]string{
		"primary_url":   config.PrimaryURL,
		"nbu_url":       config.NBUURL,
		"cbr_url":       config.CBRURL,
		"nbk_url":       config.NBKURL,
		"secondary_url": config.SecondaryURL,
	}
	for name, raw := range sources {
		if err := v.validateURL(raw, name); err != nil {
			return err
		}
	}

	for currency, rate := range config.FallbackRates {
		if rate <= 0 {
			return fmt.Errorf("fallback rate for %s must be positive, got: %v", currency, rate)
		}
	}

	return nil
}

// validateCatalog valida la configuración del cliente de Steam
func (v *Validator) validateCatalog(config CatalogConfig) error {
	if err := v.validateURL(config.BaseURL, "catalog base_url"); err != nil {
		return err
	}

	if config.RequestDelay < 0 {
		return fmt.Errorf("catalog request_delay cannot be negative, got: %v", config.RequestDelay)
	}

	if config.RequestTimeout <= 0 {
		return fmt.Errorf("catalog request_timeout must be positive, got: %v", config.RequestTimeout)
	}

	if config.MaxRetries < 1 || config.MaxRetries > 10 {
		return fmt.Errorf("catalog max_retries must be between 1-10, got: %d", config.MaxRetries)
	}

	if config.DefaultRegion == "" {
		return fmt.Errorf("catalog default_region cannot be empty")
	}

	return nil
}

// validateAccount valida la configuración de la API de la cuenta
func (v *Validator) validateAccount(config AccountConfig) error {
	if err := v.validateURL(config.BaseURL, "account base_url"); err != nil {
		return err
	}

	if config.RequestTimeout <= 0 {
		return fmt.Errorf("account request_timeout must be positive, got: %v", config.RequestTimeout)
	}

	if len(config.Currencies) == 0 {
		return fmt.Errorf("account currencies cannot be empty")
	}

	return nil
}

// validateScheduler valida los tiempos del loop de repricing
func (v *Validator) validateScheduler(config SchedulerConfig) error {
	if config.CyclePause <= 0 {
		return fmt.Errorf("cycle_pause must be positive, got: %v", config.CyclePause)
	}

	if config.LotProcessingDelay < 0 {
		return fmt.Errorf("lot_processing_delay cannot be negative, got: %v", config.LotProcessingDelay)
	}

	if config.MaxRetries < 1 || config.MaxRetries > 10 {
		return fmt.Errorf("scheduler max_retries must be between 1-10, got: %d", config.MaxRetries)
	}

	if config.PriceEpsilon <= 0 || config.PriceEpsilon >= 1 {
		return fmt.Errorf("price_epsilon must be in (0, 1), got: %v", config.PriceEpsilon)
	}

	return nil
}

// validatePricing valida los settings globales por defecto
func (v *Validator) validatePricing(config PricingConfig, accountCurrencies []string) error {
	if !contains(accountCurrencies, config.AccountCurrency) {
		return fmt.Errorf("account_currency %s must be one of: %v", config.AccountCurrency, accountCurrencies)
	}

	if config.RecheckInterval <= 0 {
		return fmt.Errorf("recheck_interval must be positive, got: %v", config.RecheckInterval)
	}

	if config.MinPrice < 0 {
		return fmt.Errorf("min_price cannot be negative, got: %v", config.MinPrice)
	}

	if config.MaxPrice <= config.MinPrice {
		return fmt.Errorf("max_price (%v) must be greater than min_price (%v)", config.MaxPrice, config.MinPrice)
	}

	return nil
}

// validatePersistence valida el backend de persistencia elegido
func (v *Validator) validatePersistence(config PersistenceConfig) error {
	validBackends := []string{"file", "redis", "postgres", "memory"}
	if !contains(validBackends, config.Backend) {
		return fmt.Errorf("invalid persistence backend: %s, must be one of: %v", config.Backend, validBackends)
	}

	switch strings.ToLower(config.Backend) {
	case "file":
		if config.FilePath == "" {
			return fmt.Errorf("file_path cannot be empty for file backend")
		}
	case "redis":
		return v.validateRedis(config.Redis)
	case "postgres":
		return v.validatePostgres(config.Postgres)
	}

	return nil
}

// validateRedis valida la configuración de Redis
func (v *Validator) validateRedis(config RedisConfig) error {
	if config.Addr == "" {
		return fmt.Errorf("redis addr cannot be empty")
	}

	if !strings.Contains(config.Addr, ":") {
		return fmt.Errorf("invalid redis addr format: %s, expected host:port", config.Addr)
	}

	if config.DB < 0 || config.DB > 15 {
		return fmt.Errorf("invalid redis DB: %d, must be between 0-15", config.DB)
	}

	return nil
}

// validatePostgres valida la configuración de PostgreSQL
func (v *Validator) validatePostgres(config PostgresConfig) error {
	if config.Host == "" {
		return fmt.Errorf("postgres host cannot be empty")
	}

	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid postgres port: %d", config.Port)
	}

	if config.Database == "" {
		return fmt.Errorf("postgres database cannot be empty")
	}

	return nil
}

// validateEvents valida la difusión de eventos
func (v *Validator) validateEvents(config EventsConfig) error {
	if config.BufferSize <= 0 {
		return fmt.Errorf("events buffer_size must be positive, got: %d", config.BufferSize)
	}

	if config.Kafka.Enabled {
		if len(config.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers cannot be empty when enabled")
		}
		if config.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic cannot be empty when enabled")
		}
	}

	return nil
}

// validateRateLimit valida la configuración de rate limiting
func (v *Validator) validateRateLimit(config RateLimitConfig) error {
	if config.Enabled {
		if config.Capacity <= 0 {
			return fmt.Errorf("rate_limit capacity must be positive when enabled, got: %d", config.Capacity)
		}

		if config.RefillRate <= 0 {
			return fmt.Errorf("rate_limit refill_rate must be positive when enabled, got: %d", config.RefillRate)
		}

		if config.Capacity > 10000 {
			return fmt.Errorf("rate_limit capacity too high: %d, max 10000", config.Capacity)
		}

		if config.RefillRate > 1000 {
			return fmt.Errorf("rate_limit refill_rate too high: %d, max 1000", config.RefillRate)
		}
	}

	return nil
}

// validateAuth valida la autenticación del API de administración
func (v *Validator) validateAuth(config AuthConfig) error {
	if !config.Enabled {
		return nil
	}

	if config.APIKey == "" {
		return fmt.Errorf("api_key cannot be empty when auth is enabled")
	}

	if config.HeaderName == "" {
		return fmt.Errorf("header_name cannot be empty when auth is enabled")
	}

	return nil
}

// validateLogging valida la configuración de logging
func (v *Validator) validateLogging(config LoggingConfig) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, strings.ToLower(config.Level)) {
		return fmt.Errorf("invalid log level: %s, must be one of: %v", config.Level, validLevels)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, strings.ToLower(config.Format)) {
		return fmt.Errorf("invalid log format: %s, must be one of: %v", config.Format, validFormats)
	}

	return nil
}

// validateURL valida que una URL sea válida para HTTP/HTTPS
func (v *Validator) validateURL(rawURL, fieldName string) error {
	if rawURL == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %s, error: %v", fieldName, rawURL, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("invalid %s scheme: %s, must be http or https", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s must have a host", fieldName)
	}

	return nil
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// contains verifica si un slice contiene un elemento
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
