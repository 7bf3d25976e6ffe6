package config

import (
	"listing-repricer/internal/domain/entities"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Rates       RatesConfig       `yaml:"rates" mapstructure:"rates"`
	Catalog     CatalogConfig     `yaml:"catalog" mapstructure:"catalog"`
	Account     AccountConfig     `yaml:"account" mapstructure:"account"`
	Scheduler   SchedulerConfig   `yaml:"scheduler" mapstructure:"scheduler"`
	Pricing     PricingConfig     `yaml:"pricing" mapstructure:"pricing"`
	Persistence PersistenceConfig `yaml:"persistence" mapstructure:"persistence"`
	Events      EventsConfig      `yaml:"events" mapstructure:"events"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" mapstructure:"rate_limit"`
	Auth        AuthConfig        `yaml:"auth" mapstructure:"auth"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Development DevelopmentConfig `yaml:"development" mapstructure:"development"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" mapstructure:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// CacheConfig configura el TTLCache compartido por tasas y precios de catálogo
type CacheConfig struct {
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	MaxSize int           `yaml:"max_size" mapstructure:"max_size"`
}

// RatesConfig contains exchange rate sources configuration
type RatesConfig struct {
	BaseCurrency        string             `yaml:"base_currency" mapstructure:"base_currency"`
	SupportedCurrencies []string           `yaml:"supported_currencies" mapstructure:"supported_currencies"`
	FreshnessThreshold  time.Duration      `yaml:"freshness_threshold" mapstructure:"freshness_threshold"`
	RequestTimeout      time.Duration      `yaml:"request_timeout" mapstructure:"request_timeout"`
	MaxRetries          int                `yaml:"max_retries" mapstructure:"max_retries"`
	PrimaryURL          string             `yaml:"primary_url" mapstructure:"primary_url"`
	NBUURL              string             `yaml:"nbu_url" mapstructure:"nbu_url"`
	CBRURL              string             `yaml:"cbr_url" mapstructure:"cbr_url"`
	NBKURL              string             `yaml:"nbk_url" mapstructure:"nbk_url"`
	SecondaryURL        string             `yaml:"secondary_url" mapstructure:"secondary_url"`
	FallbackRates       map[string]float64 `yaml:"fallback_rates" mapstructure:"fallback_rates"`
}

// CatalogConfig contains Steam store API configuration
type CatalogConfig struct {
	BaseURL        string            `yaml:"base_url" mapstructure:"base_url"`
	RequestDelay   time.Duration     `yaml:"request_delay" mapstructure:"request_delay"`
	RequestTimeout time.Duration     `yaml:"request_timeout" mapstructure:"request_timeout"`
	MaxRetries     int               `yaml:"max_retries" mapstructure:"max_retries"`
	DefaultRegion  string            `yaml:"default_region" mapstructure:"default_region"`
	Regions        map[string]string `yaml:"regions" mapstructure:"regions"`
}

// AccountConfig contains marketplace account API configuration
type AccountConfig struct {
	BaseURL        string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey         string        `yaml:"api_key" mapstructure:"api_key"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries"`
	Currencies     []string      `yaml:"currencies" mapstructure:"currencies"`
}

// SchedulerConfig controla el loop de repricing
type SchedulerConfig struct {
	Enabled            bool          `yaml:"enabled" mapstructure:"enabled"`
	CyclePause         time.Duration `yaml:"cycle_pause" mapstructure:"cycle_pause"`
	LotProcessingDelay time.Duration `yaml:"lot_processing_delay" mapstructure:"lot_processing_delay"`
	MaxRetries         int           `yaml:"max_retries" mapstructure:"max_retries"`
	PriceEpsilon       float64       `yaml:"price_epsilon" mapstructure:"price_epsilon"`
}

// PricingConfig son los settings globales iniciales cuando no hay estado persistido
type PricingConfig struct {
	AccountCurrency   string        `yaml:"account_currency" mapstructure:"account_currency"`
	RecheckInterval   time.Duration `yaml:"recheck_interval" mapstructure:"recheck_interval"`
	MarkupCurrencyPct float64       `yaml:"markup_currency_pct" mapstructure:"markup_currency_pct"`
	MarkupMarginPct   float64       `yaml:"markup_margin_pct" mapstructure:"markup_margin_pct"`
	MarkupFixedAmount float64       `yaml:"markup_fixed_amount" mapstructure:"markup_fixed_amount"`
	MinPrice          float64       `yaml:"min_price" mapstructure:"min_price"`
	MaxPrice          float64       `yaml:"max_price" mapstructure:"max_price"`
}

// PersistenceConfig selects where listings and settings are stored
type PersistenceConfig struct {
	Backend  string         `yaml:"backend" mapstructure:"backend"`
	FilePath string         `yaml:"file_path" mapstructure:"file_path"`
	Redis    RedisConfig    `yaml:"redis" mapstructure:"redis"`
	Postgres PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
}

// RedisConfig contains Redis-specific configuration
type RedisConfig struct {
	Addr      string `yaml:"addr" mapstructure:"addr"`
	Password  string `yaml:"password" mapstructure:"password"`
	DB        int    `yaml:"db" mapstructure:"db"`
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"ssl_mode" mapstructure:"ssl_mode"`
}

// EventsConfig configura la difusión de resultados de reprice
type EventsConfig struct {
	WebSocketEnabled bool        `yaml:"websocket_enabled" mapstructure:"websocket_enabled"`
	BufferSize       int         `yaml:"buffer_size" mapstructure:"buffer_size"`
	Kafka            KafkaConfig `yaml:"kafka" mapstructure:"kafka"`
}

// KafkaConfig contains Kafka publisher configuration
type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	Brokers      []string      `yaml:"brokers" mapstructure:"brokers"`
	Topic        string        `yaml:"topic" mapstructure:"topic"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// RateLimitConfig contains rate limiting configuration for the admin API
type RateLimitConfig struct {
	Enabled    bool `yaml:"enabled" mapstructure:"enabled"`
	Capacity   int  `yaml:"capacity" mapstructure:"capacity"`
	RefillRate int  `yaml:"refill_rate" mapstructure:"refill_rate"`
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	Enabled     bool     `yaml:"enabled" mapstructure:"enabled"`
	APIKey      string   `yaml:"api_key" mapstructure:"api_key"`
	HeaderName  string   `yaml:"header_name" mapstructure:"header_name"`
	UnauthPaths []string `yaml:"unauth_paths" mapstructure:"unauth_paths"`
}

// LoggingConfig contains logging system configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DevelopmentConfig contiene configuraciones para desarrollo y testing
type DevelopmentConfig struct {
	MockMode  bool `yaml:"mock_mode" mapstructure:"mock_mode"`
	DebugMode bool `yaml:"debug_mode" mapstructure:"debug_mode"`
}

// DefaultSupportedCurrencies son las monedas de catálogo soportadas
var DefaultSupportedCurrencies = []string{"UAH", "KZT", "RUB", "USD", "EUR"}

// DefaultAccountCurrencies son las monedas en las que puede operar la cuenta
var DefaultAccountCurrencies = []string{"USD", "RUB", "EUR"}

// GetDefaultConfig returns the default configuration
func GetDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			TTL:     time.Hour,
			MaxSize: 1000,
		},
		Rates: RatesConfig{
			BaseCurrency:        entities.BaseCurrency,
			SupportedCurrencies: append([]string(nil), DefaultSupportedCurrencies...),
			FreshnessThreshold:  15 * time.Minute,
			RequestTimeout:      15 * time.Second,
			MaxRetries:          2,
			PrimaryURL:          "https://api.exchangerate-api.com/v4/latest/USD",
			NBUURL:              "https://bank.gov.ua/NBUStatService/v1/statdirectory/exchange?valcode=USD&json",
			CBRURL:              "https://www.cbr-xml-daily.ru/daily_json.js",
			NBKURL:              "https://www.nationalbank.kz/rss/get_rates.cfm",
			SecondaryURL:        "https://open.er-api.com/v6/latest/USD",
			FallbackRates: map[string]float64{
				"UAH": 41.82,
				"RUB": 78.42,
				"KZT": 519.86,
				"EUR": 0.85,
				"USD": 1.0,
			},
		},
		Catalog: CatalogConfig{
			BaseURL:        "https://store.steampowered.com/api",
			RequestDelay:   10 * time.Second,
			RequestTimeout: 15 * time.Second,
			MaxRetries:     2,
			DefaultRegion:  "ua",
			Regions: map[string]string{
				"UAH": "ua",
				"KZT": "kz",
				"RUB": "ru",
				"USD": "us",
				"EUR": "eu",
			},
		},
		Account: AccountConfig{
			BaseURL:        "http://localhost:9090/api",
			RequestTimeout: 15 * time.Second,
			MaxRetries:     3,
			Currencies:     append([]string(nil), DefaultAccountCurrencies...),
		},
		Scheduler: SchedulerConfig{
			Enabled:            true,
			CyclePause:         5 * time.Minute,
			LotProcessingDelay: 2 * time.Second,
			MaxRetries:         3,
			PriceEpsilon:       0.005,
		},
		Pricing: PricingConfig{
			AccountCurrency:   entities.BaseCurrency,
			RecheckInterval:   6 * time.Hour,
			MarkupCurrencyPct: 3.0,
			MarkupMarginPct:   5.0,
			MarkupFixedAmount: 0.5,
			MinPrice:          1.0,
			MaxPrice:          5000.0,
		},
		Persistence: PersistenceConfig{
			Backend:  "file",
			FilePath: "data/repricer_state.json",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "repricer:",
			},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "repricer",
				Database: "repricer",
				SSLMode:  "disable",
			},
		},
		Events: EventsConfig{
			WebSocketEnabled: true,
			BufferSize:       64,
			Kafka: KafkaConfig{
				Enabled:      false,
				Brokers:      []string{"localhost:9092"},
				Topic:        "repricer.events",
				WriteTimeout: 10 * time.Second,
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:    true,
			Capacity:   100,
			RefillRate: 10,
		},
		Auth: AuthConfig{
			Enabled:     false,
			HeaderName:  "X-API-Key",
			UnauthPaths: []string{"/health", "/ready", "/metrics", "/swagger/"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// DefaultSettings convierte la sección pricing en GlobalSettings del dominio
func (c *Config) DefaultSettings() entities.GlobalSettings {
	return entities.GlobalSettings{
		AccountCurrency:   c.Pricing.AccountCurrency,
		RecheckInterval:   c.Pricing.RecheckInterval,
		MarkupCurrencyPct: c.Pricing.MarkupCurrencyPct,
		MarkupMarginPct:   c.Pricing.MarkupMarginPct,
		MarkupFixedAmount: c.Pricing.MarkupFixedAmount,
		GlobalMinPrice:    c.Pricing.MinPrice,
		GlobalMaxPrice:    c.Pricing.MaxPrice,
	}.Normalize()
}
