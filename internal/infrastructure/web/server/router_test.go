package server

import (
	"bytes"
	"context"
	"encoding/json"
	"listing-repricer/internal/application/dto"
	"listing-repricer/internal/application/services"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/infrastructure/account"
	"listing-repricer/internal/infrastructure/catalog"
	"listing-repricer/internal/infrastructure/config"
	"listing-repricer/internal/infrastructure/events"
	"listing-repricer/internal/infrastructure/ratelimit"
	"listing-repricer/internal/infrastructure/repositories/cache"
	"listing-repricer/internal/infrastructure/repositories/memory"
	"listing-repricer/internal/infrastructure/repositories/persistence"
	"listing-repricer/internal/infrastructure/web/handlers"
	"listing-repricer/internal/infrastructure/web/middleware"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "admin-secret"

// fixedRates cotiza UAH a 41.82 por dólar
type fixedRates struct{}

func (fixedRates) GetRate(_ context.Context, currency string) float64 {
	if currency == "UAH" {
		return 41.82
	}
	return 1
}

func (fixedRates) RefreshAll(_ context.Context) map[string]float64 {
	return map[string]float64{"UAH": 41.82, "USD": 1}
}

func (fixedRates) Snapshot() []entities.ExchangeRate {
	return []entities.ExchangeRate{{Currency: "UAH", Rate: 41.82, Kind: entities.RateSourceLive, Source: "test"}}
}

type testApp struct {
	server  *httptest.Server
	account *account.MockClient
	hub     *events.Hub
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	listings := memory.NewListingStore()
	settings := memory.NewSettingsStore(entities.DefaultGlobalSettings())
	store := persistence.NewMemoryStore()

	catalogClient := catalog.NewMockClient()
	item, err := entities.ParseCatalogItemKey("570")
	require.NoError(t, err)
	catalogClient.SetItem(item, 83640, "Dota 2")

	prices := cache.NewTTLCache[catalog.PriceKey, float64]("catalog_prices", time.Hour, 100)
	names := cache.NewTTLCache[entities.CatalogItemKey, string]("catalog_names", time.Hour, 100)
	provider := catalog.NewPriceProvider(catalog.ProviderConfig{}, catalogClient, prices, names)

	accountClient := account.NewMockClient()
	accountClient.SetListing("lot-1", 1)

	hub := events.NewHub(8)
	notifier := events.NewNotifier(hub)

	calculator := services.NewPriceCalculator(fixedRates{}, settings)
	scheduler := services.NewListingScheduler(
		services.SchedulerConfig{CyclePause: time.Hour, LotProcessingDelay: time.Millisecond, MaxRetries: 1},
		listings, settings, provider, calculator, accountClient,
		services.WithPersistence(store),
		services.WithEventPublisher(notifier),
	)
	listingService := services.NewListingService(listings, settings, provider, store,
		[]string{"UAH", "USD"}, []string{"USD"})

	router := NewRouter(RouterDeps{
		Health:   handlers.NewHealthHandler(listingService, nil),
		Listings: handlers.NewListingHandler(listingService, scheduler),
		Settings: handlers.NewSettingsHandler(listingService),
		Rates:    handlers.NewRatesHandler(fixedRates{}),
		Status: handlers.NewStatusHandler(handlers.StatusSources{
			Scheduler: scheduler,
			Caches:    provider.CacheStats,
			Clients:   hub.Clients,
		}),
		Events: hub,
		Auth: middleware.NewAuthMiddleware(config.AuthConfig{
			Enabled:     true,
			APIKey:      testAPIKey,
			HeaderName:  "X-API-Key",
			UnauthPaths: []string{"/health", "/ready", "/metrics", "/swagger/"},
		}),
		RateLimit: ratelimit.NewRateLimitMiddlewareWithConfig(config.RateLimitConfig{Enabled: true, Capacity: 100, RefillRate: 10}),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		_ = hub.Close()
		srv.Close()
	})
	return &testApp{server: srv, account: accountClient, hub: hub}
}

func (a *testApp) call(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", testAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestRouter_ListingLifecycle(t *testing.T) {
	app := newTestApp(t)

	resp := app.call(t, http.MethodPost, "/api/v1/listings", dto.AddListingRequest{
		ID: "lot-1", CatalogItem: "570", CatalogCurrency: "UAH", MinPrice: 1, MaxPrice: 100,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created dto.ListingData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "Dota 2", created.DisplayName)

	resp = app.call(t, http.MethodPost, "/api/v1/listings", dto.AddListingRequest{
		ID: "lot-1", CatalogItem: "570", CatalogCurrency: "UAH", MinPrice: 1, MaxPrice: 100,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = app.call(t, http.MethodPost, "/api/v1/listings/lot-1/reprice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result entities.RepriceResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	// 836.40 UAH / 41.82 = 20 USD; 20 * 1.03 * 1.05 + 0.5 = 22.13
	assert.Equal(t, entities.OutcomeUpdated, result.Outcome)
	assert.Equal(t, 22.13, result.NewPrice)
	assert.Equal(t, []account.PriceWrite{{ID: "lot-1", Price: 22.13}}, app.account.Writes())

	resp = app.call(t, http.MethodGet, "/api/v1/listings/lot-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got dto.ListingData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.NotNil(t, got.LastAppliedPrice)
	assert.Equal(t, 22.13, *got.LastAppliedPrice)

	resp = app.call(t, http.MethodPost, "/api/v1/listings/lot-1/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = app.call(t, http.MethodPost, "/api/v1/listings/lot-1/reprice", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = app.call(t, http.MethodDelete, "/api/v1/listings/lot-1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = app.call(t, http.MethodGet, "/api/v1/listings/lot-1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_AuthAndPublicEndpoints(t *testing.T) {
	app := newTestApp(t)

	resp, err := http.Get(app.server.URL + "/api/v1/listings")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	for _, path := range []string{"/health", "/ready", "/metrics", "/swagger/doc.json"} {
		resp, err := http.Get(app.server.URL + path)
		require.NoError(t, err, path)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp = app.call(t, http.MethodGet, "/api/v1/settings", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = app.call(t, http.MethodGet, "/api/v1/status", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = app.call(t, http.MethodGet, "/api/v1/rates", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = app.call(t, http.MethodPut, "/api/v1/rates", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRouter_EventsStream(t *testing.T) {
	app := newTestApp(t)

	wsURL := "ws" + strings.TrimPrefix(app.server.URL, "http") + "/api/v1/events"
	header := http.Header{}
	header.Set("X-API-Key", testAPIKey)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return app.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	resp := app.call(t, http.MethodPost, "/api/v1/listings", dto.AddListingRequest{
		ID: "lot-1", CatalogItem: "570", CatalogCurrency: "UAH", MinPrice: 1, MaxPrice: 100,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = app.call(t, http.MethodPost, "/api/v1/reprice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event events.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, events.EventTypeReprice, event.Type)
	assert.Equal(t, "lot-1", event.Result.ListingID)
}
