package main

import (
	"context"
	"fmt"
	"listing-repricer/internal/application/services"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"listing-repricer/internal/infrastructure/account"
	"listing-repricer/internal/infrastructure/catalog"
	"listing-repricer/internal/infrastructure/config"
	"listing-repricer/internal/infrastructure/events"
	"listing-repricer/internal/infrastructure/exchange"
	"listing-repricer/internal/infrastructure/exchange/sources"
	"listing-repricer/internal/infrastructure/logging"
	"listing-repricer/internal/infrastructure/metrics"
	"listing-repricer/internal/infrastructure/ratelimit"
	"listing-repricer/internal/infrastructure/repositories/cache"
	"listing-repricer/internal/infrastructure/repositories/memory"
	"listing-repricer/internal/infrastructure/repositories/persistence"
	"listing-repricer/internal/infrastructure/restclient"
	"listing-repricer/internal/infrastructure/web/handlers"
	"listing-repricer/internal/infrastructure/web/middleware"
	"listing-repricer/internal/infrastructure/web/server"
	"listing-repricer/pkg/utils"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

// Se sobreescriben con -ldflags en el build
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
)

const uptimeInterval = 15 * time.Second

// @title Listing Repricer Admin API
// @version 1.0
// @description Manages marketplace listings whose prices follow a regional catalog price.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	// .env es opcional; las variables ya exportadas tienen prioridad
	_ = godotenv.Load()

	environment := config.GetEnvironment()
	cfg, err := config.NewLoader().LoadForEnvironment(environment)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := initLogging(cfg, environment); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	startedAt := time.Now()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.SetApplicationInfo(Version, BuildTime, runtime.Version())
	logging.Info(ctx, "Starting listing repricer", logging.Fields{
		"version":     Version,
		"environment": environment,
		"mock_mode":   cfg.Development.MockMode,
		"persistence": cfg.Persistence.Backend,
	})

	// Caches
	rateCache := cache.NewTTLCache[string, entities.ExchangeRate]("rates", cfg.Cache.TTL, cfg.Cache.MaxSize)
	priceCache := cache.NewTTLCache[catalog.PriceKey, float64]("catalog_prices", cfg.Cache.TTL, cfg.Cache.MaxSize)
	nameCache := cache.NewTTLCache[entities.CatalogItemKey, string]("catalog_names", cfg.Cache.TTL, cfg.Cache.MaxSize)

	// Tasas de cambio
	primary, secondary := buildRateSources(cfg)
	rateProvider := exchange.NewRateProvider(exchange.RateProviderConfig{
		BaseCurrency:        cfg.Rates.BaseCurrency,
		SupportedCurrencies: cfg.Rates.SupportedCurrencies,
		FreshnessThreshold:  cfg.Rates.FreshnessThreshold,
		FallbackRates:       cfg.Rates.FallbackRates,
	}, primary, secondary, rateCache)

	// Catálogo
	catalogProvider := catalog.NewPriceProvider(catalog.ProviderConfig{
		RequestDelay:  cfg.Catalog.RequestDelay,
		Regions:       cfg.Catalog.Regions,
		DefaultRegion: cfg.Catalog.DefaultRegion,
	}, buildCatalogClient(cfg), priceCache, nameCache)

	// Estado
	listings := memory.NewListingStore()
	settings := memory.NewSettingsStore(cfg.DefaultSettings())

	store, err := persistence.NewFactory().Create(persistence.Config{
		Backend:        persistence.Backend(cfg.Persistence.Backend),
		FilePath:       cfg.Persistence.FilePath,
		RedisAddr:      cfg.Persistence.Redis.Addr,
		RedisPassword:  cfg.Persistence.Redis.Password,
		RedisDB:        cfg.Persistence.Redis.DB,
		RedisKeyPrefix: cfg.Persistence.Redis.KeyPrefix,
		Postgres: persistence.PostgresConfig{
			Host:     cfg.Persistence.Postgres.Host,
			Port:     cfg.Persistence.Postgres.Port,
			User:     cfg.Persistence.Postgres.User,
			Password: cfg.Persistence.Postgres.Password,
			Database: cfg.Persistence.Postgres.Database,
			SSLMode:  cfg.Persistence.Postgres.SSLMode,
		},
	})
	if err != nil {
		logging.ErrorWithError(ctx, "Failed to create persistence backend", err, nil)
		os.Exit(1)
	}
	defer store.Close()

	listingService := services.NewListingService(listings, settings, catalogProvider, store,
		cfg.Rates.SupportedCurrencies, cfg.Account.Currencies)
	if err := listingService.Restore(ctx); err != nil {
		logging.ErrorWithError(ctx, "Failed to restore persisted state", err, nil)
		os.Exit(1)
	}

	// Difusión de resultados
	var sinks []events.Sink
	var hub *events.Hub
	if cfg.Events.WebSocketEnabled {
		hub = events.NewHub(cfg.Events.BufferSize)
		sinks = append(sinks, hub)
	}
	if cfg.Events.Kafka.Enabled {
		sinks = append(sinks, events.NewKafkaSink(cfg.Events.Kafka.Brokers, cfg.Events.Kafka.Topic, cfg.Events.Kafka.WriteTimeout))
	}
	notifier := events.NewNotifier(sinks...)
	defer notifier.Close()

	// Scheduler
	calculator := services.NewPriceCalculator(rateProvider, settings)
	scheduler := services.NewListingScheduler(
		services.SchedulerConfig{
			CyclePause:         cfg.Scheduler.CyclePause,
			LotProcessingDelay: cfg.Scheduler.LotProcessingDelay,
			MaxRetries:         cfg.Scheduler.MaxRetries,
			PriceEpsilon:       cfg.Scheduler.PriceEpsilon,
		},
		listings, settings, catalogProvider, calculator, buildAccountClient(cfg),
		services.WithPersistence(store),
		services.WithEventPublisher(notifier),
		services.WithCacheSweepers(rateCache, catalogProvider),
	)

	var readiness handlers.RepriceRunner
	if cfg.Scheduler.Enabled {
		// el loop no depende de la señal: Stop lo detiene en orden durante el shutdown
		if err := scheduler.Start(context.Background()); err != nil {
			logging.ErrorWithError(ctx, "Failed to start scheduler", err, nil)
			os.Exit(1)
		}
		readiness = scheduler
	} else {
		logging.Warn(ctx, "Automatic repricing disabled; only manual reprices will run", nil)
	}

	// HTTP
	rateLimiter := ratelimit.NewRateLimitMiddlewareWithConfig(cfg.RateLimit)
	status := handlers.StatusSources{
		Scheduler: scheduler,
		Caches: func() []cache.Stats {
			return append(catalogProvider.CacheStats(), rateCache.Stats())
		},
		RateLimit: rateLimiter.Stats,
	}
	deps := server.RouterDeps{
		Health:    handlers.NewHealthHandler(listingService, readiness),
		Listings:  handlers.NewListingHandler(listingService, scheduler),
		Settings:  handlers.NewSettingsHandler(listingService),
		Rates:     handlers.NewRatesHandler(rateProvider),
		Auth:      middleware.NewAuthMiddleware(cfg.Auth),
		RateLimit: rateLimiter,
	}
	if hub != nil {
		deps.Events = hub
		status.Clients = hub.Clients
	}
	deps.Status = handlers.NewStatusHandler(status)

	httpServer := server.NewServer(server.NewRouter(deps), cfg.Server.Port)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()
	logging.Info(ctx, "Admin API listening", logging.Fields{
		"port":      httpServer.GetPort(),
		"auth":      cfg.Auth.Enabled,
		"scheduler": cfg.Scheduler.Enabled,
	})

	go utils.RunEvery(ctx, uptimeInterval, true, func(context.Context) {
		metrics.UpdateUptime(time.Since(startedAt).Seconds())
	})
	// precalienta las tasas para que el primer ciclo no espere a las fuentes
	go rateProvider.RefreshAll(ctx)

	select {
	case <-ctx.Done():
		logging.Info(context.Background(), "Shutdown signal received", nil)
	case err := <-serverErr:
		if err != nil {
			logging.ErrorWithError(context.Background(), "HTTP server failed", err, nil)
		}
	}

	shutdown(cfg.Server.ShutdownTimeout, httpServer, scheduler)
}

// shutdown detiene primero el HTTP y después el scheduler, que guarda el estado final
func shutdown(timeout time.Duration, httpServer *server.Server, scheduler *services.ListingScheduler) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		logging.ErrorWithError(ctx, "HTTP server forced to shutdown", err, nil)
	}
	if err := scheduler.Stop(ctx); err != nil {
		logging.ErrorWithError(ctx, "Scheduler did not stop cleanly", err, nil)
	}

	logging.Info(ctx, "Listing repricer stopped", nil)
}

func initLogging(cfg *config.Config, environment string) error {
	if cfg.Development.DebugMode {
		return logging.InitializeGlobalLoggers(logging.NewDevelopmentConfig(logging.DefaultServiceName))
	}

	loggerConfig := logging.NewConfig(logging.DefaultServiceName, Version, environment).
		WithLevel(logging.LogLevelFromString(cfg.Logging.Level)).
		WithFormat(logging.LogFormatFromString(cfg.Logging.Format))

	return logging.InitializeGlobalLoggers(loggerConfig)
}

// buildRateSources arma la fuente primaria y las secundarias por moneda
func buildRateSources(cfg *config.Config) (interfaces.RateSource, map[string]interfaces.RateSource) {
	if cfg.Development.MockMode {
		return exchange.NewMockSource(cfg.Rates.FallbackRates), nil
	}

	client := func(service string) *restclient.Client {
		return restclient.New(restclient.Config{
			Service:        service,
			RequestTimeout: cfg.Rates.RequestTimeout,
			MaxRetries:     cfg.Rates.MaxRetries,
		})
	}

	primary := sources.NewRatesTableSource("exchangerate-api", cfg.Rates.PrimaryURL, client("exchangerate-api"))
	openER := sources.NewRatesTableSource("open-er-api", cfg.Rates.SecondaryURL, client("open-er-api"))

	return primary, map[string]interfaces.RateSource{
		"UAH": sources.NewNBUSource(cfg.Rates.NBUURL, client("nbu")),
		"RUB": sources.NewCBRSource(cfg.Rates.CBRURL, client("cbr")),
		"KZT": sources.NewNBKSource(cfg.Rates.NBKURL, client("nbk")),
		"EUR": openER,
	}
}

func buildCatalogClient(cfg *config.Config) interfaces.CatalogClient {
	if cfg.Development.MockMode {
		return catalog.NewMockClient()
	}
	return catalog.NewSteamClient(cfg.Catalog.BaseURL, restclient.New(restclient.Config{
		Service:        "steam",
		RequestTimeout: cfg.Catalog.RequestTimeout,
		MaxRetries:     cfg.Catalog.MaxRetries,
	}))
}

func buildAccountClient(cfg *config.Config) interfaces.AccountClient {
	if cfg.Development.MockMode {
		mock := account.NewMockClient()
		mock.AutoCreate = true
		return mock
	}
	return account.NewHTTPClient(cfg.Account.BaseURL, cfg.Account.APIKey, restclient.Config{
		Service:        "account",
		RequestTimeout: cfg.Account.RequestTimeout,
		MaxRetries:     cfg.Account.MaxRetries,
		Headers:        map[string]string{"User-Agent": fmt.Sprintf("listing-repricer/%s", Version)},
	})
}
