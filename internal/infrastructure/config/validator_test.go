package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_DefaultConfigIsValid(t *testing.T) {
	require.NoError(t, NewValidator().Validate(GetDefaultConfig()))
}

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(c *Config)
		errorContains string
	}{
		{
			name:          "Inválido - puerto fuera de rango",
			mutate:        func(c *Config) { c.Server.Port = 70000 },
			errorContains: "invalid port",
		},
		{
			name:          "Inválido - TTL zero",
			mutate:        func(c *Config) { c.Cache.TTL = 0 },
			errorContains: "TTL must be positive",
		},
		{
			name:          "Inválido - TTL muy largo (25h)",
			mutate:        func(c *Config) { c.Cache.TTL = 25 * time.Hour },
			errorContains: "TTL too long",
		},
		{
			name:          "Inválido - cache sin capacidad",
			mutate:        func(c *Config) { c.Cache.MaxSize = 0 },
			errorContains: "max_size must be positive",
		},
		{
			name:          "Inválido - moneda mal formada",
			mutate:        func(c *Config) { c.Rates.SupportedCurrencies = []string{"UAH", "EURO"} },
			errorContains: "invalid currency code",
		},
		{
			name:          "Inválido - fallback rate negativo",
			mutate:        func(c *Config) { c.Rates.FallbackRates["UAH"] = -1 },
			errorContains: "fallback rate for UAH",
		},
		{
			name:          "Inválido - URL de fuente sin esquema",
			mutate:        func(c *Config) { c.Rates.CBRURL = "cbr-xml-daily.ru/daily_json.js" },
			errorContains: "cbr_url",
		},
		{
			name:          "Inválido - catálogo sin región por defecto",
			mutate:        func(c *Config) { c.Catalog.DefaultRegion = "" },
			errorContains: "default_region",
		},
		{
			name:          "Inválido - epsilon fuera de rango",
			mutate:        func(c *Config) { c.Scheduler.PriceEpsilon = 0 },
			errorContains: "price_epsilon",
		},
		{
			name:          "Inválido - moneda de cuenta no soportada",
			mutate:        func(c *Config) { c.Pricing.AccountCurrency = "UAH" },
			errorContains: "account_currency",
		},
		{
			name:          "Inválido - máximo menor que mínimo",
			mutate:        func(c *Config) { c.Pricing.MaxPrice = 0.5 },
			errorContains: "max_price",
		},
		{
			name:          "Inválido - backend desconocido",
			mutate:        func(c *Config) { c.Persistence.Backend = "mongo" },
			errorContains: "invalid persistence backend",
		},
		{
			name: "Inválido - redis sin puerto",
			mutate: func(c *Config) {
				c.Persistence.Backend = "redis"
				c.Persistence.Redis.Addr = "localhost"
			},
			errorContains: "expected host:port",
		},
		{
			name: "Inválido - postgres sin base",
			mutate: func(c *Config) {
				c.Persistence.Backend = "postgres"
				c.Persistence.Postgres.Database = ""
			},
			errorContains: "postgres database",
		},
		{
			name: "Inválido - kafka sin brokers",
			mutate: func(c *Config) {
				c.Events.Kafka.Enabled = true
				c.Events.Kafka.Brokers = nil
			},
			errorContains: "kafka brokers",
		},
		{
			name: "Inválido - auth sin api key",
			mutate: func(c *Config) {
				c.Auth.Enabled = true
				c.Auth.APIKey = ""
			},
			errorContains: "api_key cannot be empty",
		},
		{
			name:          "Inválido - nivel de log",
			mutate:        func(c *Config) { c.Logging.Level = "trace" },
			errorContains: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := NewValidator().Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestConfig_DefaultSettings(t *testing.T) {
	settings := GetDefaultConfig().DefaultSettings()

	assert.Equal(t, "USD", settings.AccountCurrency)
	assert.Equal(t, 6*time.Hour, settings.RecheckInterval)
	assert.Equal(t, 3.0, settings.MarkupCurrencyPct)
	assert.Equal(t, 5.0, settings.MarkupMarginPct)
	assert.Equal(t, 0.5, settings.MarkupFixedAmount)
	assert.Equal(t, 1.0, settings.GlobalMinPrice)
	assert.Equal(t, 5000.0, settings.GlobalMaxPrice)
}
