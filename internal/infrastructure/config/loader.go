package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Loader handles configuration loading using Viper
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader instance
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// Load loads configuration from files and environment variables
func (l *Loader) Load() (*Config, error) {
	// 1. Configure Viper
	if err := l.setupViper(); err != nil {
		return nil, fmt.Errorf("failed to setup viper: %w", err)
	}

	// 2. Read configuration
	if err := l.v.ReadInConfig(); err != nil {
		// If config.yaml doesn't exist, use only env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 3. Unmarshall a struct
	config := GetDefaultConfig()
	if err := l.v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 4. Override with specific env vars (for compatibility)
	l.overrideWithEnvVars(config)
	normalize(config)

	return config, nil
}

// setupViper configures Viper to read files and env vars
func (l *Loader) setupViper() error {
	l.v.SetConfigName("config")
	l.v.SetConfigType("yaml")

	l.v.AddConfigPath("./configs")
	l.v.AddConfigPath("../configs")
	l.v.AddConfigPath(".")
	l.v.AddConfigPath("/etc/listing-repricer")

	// REPRICER_SCHEDULER_CYCLE_PAUSE -> scheduler.cycle_pause
	l.v.AutomaticEnv()
	l.v.SetEnvPrefix("REPRICER")
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.bindEnvVars()

	return nil
}

// bindEnvVars maps specific environment variables to configuration keys
func (l *Loader) bindEnvVars() {
	envMappings := map[string]string{
		"server.port":                   "PORT",
		"persistence.backend":           "PERSISTENCE_BACKEND",
		"persistence.file_path":         "STATE_FILE",
		"persistence.redis.addr":        "REDIS_ADDR",
		"persistence.redis.password":    "REDIS_PASSWORD",
		"persistence.redis.db":          "REDIS_DB",
		"persistence.postgres.host":     "POSTGRES_HOST",
		"persistence.postgres.user":     "POSTGRES_USER",
		"persistence.postgres.password": "POSTGRES_PASSWORD",
		"persistence.postgres.database": "POSTGRES_DB",
		"account.base_url":              "ACCOUNT_API_URL",
		"account.api_key":               "ACCOUNT_API_KEY",
		"catalog.base_url":              "STEAM_API_URL",
		"events.kafka.enabled":          "KAFKA_ENABLED",
		"events.kafka.topic":            "KAFKA_TOPIC",
		"auth.api_key":                  "ADMIN_API_KEY",
		"auth.enabled":                  "ADMIN_AUTH_ENABLED",
		"logging.level":                 "LOG_LEVEL",
		"logging.format":                "LOG_FORMAT",
		"rate_limit.capacity":           "RATE_LIMIT_CAPACITY",
		"rate_limit.refill_rate":        "RATE_LIMIT_REFILL_RATE",
		"rate_limit.enabled":            "RATE_LIMIT_ENABLED",
	}

	for configKey, envVar := range envMappings {
		_ = l.v.BindEnv(configKey, envVar)
	}
}

// overrideWithEnvVars maneja casos especiales de env vars
func (l *Loader) overrideWithEnvVars(config *Config) {
	// Variables heredadas expresadas en segundos enteros
	if ttl, ok := secondsFromEnv("CACHE_TTL"); ok {
		config.Cache.TTL = ttl
	}
	if delay, ok := secondsFromEnv("STEAM_REQUEST_DELAY"); ok {
		config.Catalog.RequestDelay = delay
	}
	if timeout, ok := secondsFromEnv("REQUEST_TIMEOUT"); ok {
		config.Catalog.RequestTimeout = timeout
		config.Rates.RequestTimeout = timeout
		config.Account.RequestTimeout = timeout
	}
	if size := os.Getenv("MAX_CACHE_SIZE"); size != "" {
		if n, err := strconv.Atoi(size); err == nil && n > 0 {
			config.Cache.MaxSize = n
		}
	}

	// SUPPORTED_CURRENCIES y ACCOUNT_CURRENCIES como strings separados por comas
	if currencies := splitCurrencies(os.Getenv("SUPPORTED_CURRENCIES")); len(currencies) > 0 {
		config.Rates.SupportedCurrencies = currencies
	}
	if currencies := splitCurrencies(os.Getenv("ACCOUNT_CURRENCIES")); len(currencies) > 0 {
		config.Account.Currencies = currencies
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		var clean []string
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				clean = append(clean, b)
			}
		}
		if len(clean) > 0 {
			config.Events.Kafka.Brokers = clean
		}
	}

	// Development mode env vars
	if mockMode := os.Getenv("MOCK_MODE"); mockMode == "true" || mockMode == "1" {
		config.Development.MockMode = true
	}
	if debugMode := os.Getenv("DEBUG_MODE"); debugMode == "true" || debugMode == "1" {
		config.Development.DebugMode = true
	}
}

// LoadForEnvironment loads specific configuration for an environment
func (l *Loader) LoadForEnvironment(environment string) (*Config, error) {
	config, err := l.Load()
	if err != nil {
		return nil, err
	}

	if environment != "" {
		envConfigFile := fmt.Sprintf("config.%s", environment)
		l.v.SetConfigName(envConfigFile)

		if err := l.v.MergeInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to merge environment config: %w", err)
			}
		}

		if err := l.v.Unmarshal(config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal merged config: %w", err)
		}

		l.overrideWithEnvVars(config)
		normalize(config)
	}

	return config, nil
}

// GetEnvironment determina el entorno actual desde ENV vars
func GetEnvironment() string {
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		env = strings.ToLower(os.Getenv("ENVIRONMENT"))
	}
	if env == "" {
		env = "development"
	}
	return env
}

// normalize deja códigos de moneda en mayúsculas; viper baja a minúsculas las claves de mapas
func normalize(config *Config) {
	config.Rates.BaseCurrency = strings.ToUpper(config.Rates.BaseCurrency)
	config.Pricing.AccountCurrency = strings.ToUpper(config.Pricing.AccountCurrency)
	config.Rates.SupportedCurrencies = upperAll(config.Rates.SupportedCurrencies)
	config.Account.Currencies = upperAll(config.Account.Currencies)

	// Las claves en minúsculas vienen del archivo y pisan a los defaults
	rates := make(map[string]float64, len(config.Rates.FallbackRates))
	for currency, rate := range config.Rates.FallbackRates {
		if currency == strings.ToUpper(currency) {
			rates[currency] = rate
		}
	}
	for currency, rate := range config.Rates.FallbackRates {
		if currency != strings.ToUpper(currency) {
			rates[strings.ToUpper(currency)] = rate
		}
	}
	config.Rates.FallbackRates = rates

	regions := make(map[string]string, len(config.Catalog.Regions))
	for currency, region := range config.Catalog.Regions {
		if currency == strings.ToUpper(currency) {
			regions[currency] = strings.ToLower(region)
		}
	}
	for currency, region := range config.Catalog.Regions {
		if currency != strings.ToUpper(currency) {
			regions[strings.ToUpper(currency)] = strings.ToLower(region)
		}
	}
	config.Catalog.Regions = regions
	config.Catalog.DefaultRegion = strings.ToLower(config.Catalog.DefaultRegion)
}

func secondsFromEnv(name string) (time.Duration, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || seconds <= 0 {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

func splitCurrencies(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(strings.ToUpper(c)); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func upperAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToUpper(strings.TrimSpace(v)))
	}
	return out
}
