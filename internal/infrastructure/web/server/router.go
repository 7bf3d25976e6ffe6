package server

import (
	_ "listing-repricer/internal/docs"
	"listing-repricer/internal/infrastructure/metrics"
	"listing-repricer/internal/infrastructure/ratelimit"
	"listing-repricer/internal/infrastructure/web/handlers"
	"listing-repricer/internal/infrastructure/web/middleware"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterDeps son los handlers y middlewares que arman la API de admin.
// Events y RateLimit son opcionales.
type RouterDeps struct {
	Health    *handlers.HealthHandler
	Listings  *handlers.ListingHandler
	Settings  *handlers.SettingsHandler
	Rates     *handlers.RatesHandler
	Status    *handlers.StatusHandler
	Events    http.Handler
	Auth      *middleware.AuthMiddleware
	RateLimit *ratelimit.RateLimitMiddleware
}

// NewRouter registra todas las rutas y aplica la cadena de middlewares:
// tracing → logging → métricas → rate limit → auth.
func NewRouter(deps RouterDeps) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", deps.Health.Health).Methods(http.MethodGet)
	r.HandleFunc("/ready", deps.Health.Ready).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
	r.Handle("/docs", http.RedirectHandler("/swagger/index.html", http.StatusMovedPermanently))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/listings", deps.Listings.List).Methods(http.MethodGet)
	api.HandleFunc("/listings", deps.Listings.Create).Methods(http.MethodPost)
	api.HandleFunc("/listings/{id}", deps.Listings.Get).Methods(http.MethodGet)
	api.HandleFunc("/listings/{id}", deps.Listings.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/listings/{id}/toggle", deps.Listings.Toggle).Methods(http.MethodPost)
	api.HandleFunc("/listings/{id}/bounds", deps.Listings.UpdateBounds).Methods(http.MethodPut)
	api.HandleFunc("/listings/{id}/reprice", deps.Listings.Reprice).Methods(http.MethodPost)
	api.HandleFunc("/reprice", deps.Listings.RepriceAll).Methods(http.MethodPost)

	api.HandleFunc("/settings", deps.Settings.Get).Methods(http.MethodGet)
	api.HandleFunc("/settings", deps.Settings.Update).Methods(http.MethodPut)
	api.HandleFunc("/settings/reset", deps.Settings.Reset).Methods(http.MethodPost)

	api.HandleFunc("/rates", deps.Rates.Get).Methods(http.MethodGet)
	api.HandleFunc("/rates/refresh", deps.Rates.Refresh).Methods(http.MethodPost)

	api.HandleFunc("/status", deps.Status.Status).Methods(http.MethodGet)

	if deps.Events != nil {
		api.Handle("/events", deps.Events).Methods(http.MethodGet)
	}

	// mux aplica los middlewares en orden de registro, el primero es el más externo
	r.Use(middleware.RequestTracingMiddleware)
	r.Use(middleware.LoggingMiddleware)
	r.Use(metrics.HTTPMetricsMiddleware)
	if deps.RateLimit != nil {
		r.Use(deps.RateLimit.Handler)
	}
	if deps.Auth != nil {
		r.Use(deps.Auth.Handler)
	}

	return r
}
