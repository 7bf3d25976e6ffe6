package exchange

import (
	"context"
	"errors"
	"fmt"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"listing-repricer/internal/infrastructure/exchange/sources"
	"listing-repricer/internal/infrastructure/repositories/cache"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource devuelve resultados configurables por moneda y cuenta llamadas
type stubSource struct {
	name string

	mu    sync.Mutex
	rates map[string]float64
	errs  map[string]error
	calls map[string]int
}

func newStubSource(name string) *stubSource {
	return &stubSource{
		name:  name,
		rates: map[string]float64{},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchRate(_ context.Context, currency string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[currency]++
	if err, ok := s.errs[currency]; ok {
		return 0, err
	}
	rate, ok := s.rates[currency]
	if !ok {
		return 0, fmt.Errorf("%w: %s", sources.ErrRateNotFound, currency)
	}
	return rate, nil
}

func (s *stubSource) set(currency string, rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[currency] = rate
	delete(s.errs, currency)
}

func (s *stubSource) fail(currency string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[currency] = err
}

func (s *stubSource) callCount(currency string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[currency]
}

type providerFixture struct {
	provider  *RateProvider
	primary   *stubSource
	secondary *stubSource
	now       time.Time
}

func (f *providerFixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func newProviderFixture(t *testing.T) *providerFixture {
	t.Helper()
	f := &providerFixture{
		primary:   newStubSource("exchangerate-api"),
		secondary: newStubSource("nbu"),
		now:       time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	rateCache := cache.NewTTLCache[string, entities.ExchangeRate]("rates", time.Hour, 100, cache.WithClock(clock))
	f.provider = NewRateProvider(RateProviderConfig{
		BaseCurrency:        "USD",
		SupportedCurrencies: []string{"UAH", "RUB", "USD"},
		FreshnessThreshold:  15 * time.Minute,
		FallbackRates:       map[string]float64{"UAH": 41.82, "RUB": 78.42},
	}, f.primary, map[string]interfaces.RateSource{"uah": f.secondary}, rateCache)
	f.provider.now = clock
	return f
}

func TestRateProvider_BaseCurrencyIsOne(t *testing.T) {
	f := newProviderFixture(t)
	assert.Equal(t, 1.0, f.provider.GetRate(context.Background(), "usd"))
	assert.Zero(t, f.primary.callCount("USD"))
}

func TestRateProvider_FreshCacheAvoidsCalls(t *testing.T) {
	f := newProviderFixture(t)
	f.primary.set("UAH", 41.0)
	ctx := context.Background()

	assert.Equal(t, 41.0, f.provider.GetRate(ctx, "UAH"))
	f.advance(10 * time.Minute)
	assert.Equal(t, 41.0, f.provider.GetRate(ctx, "UAH"))
	assert.Equal(t, 1, f.primary.callCount("UAH"))

	// pasado el umbral de frescura se vuelve a consultar aunque siga en cache
	f.primary.set("UAH", 42.0)
	f.advance(6 * time.Minute)
	assert.Equal(t, 42.0, f.provider.GetRate(ctx, "UAH"))
	assert.Equal(t, 2, f.primary.callCount("UAH"))
}

func TestRateProvider_TierOrder(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(f *providerFixture)
		currency   string
		want       float64
		wantSource string
	}{
		{
			name:     "primary",
			setup:    func(f *providerFixture) { f.primary.set("UAH", 41.0) },
			currency: "UAH",
			want:     41.0,
		},
		{
			name: "secondary when primary fails",
			setup: func(f *providerFixture) {
				f.primary.fail("UAH", entities.ErrTransientSource)
				f.secondary.set("UAH", 41.5)
			},
			currency: "UAH",
			want:     41.5,
		},
		{
			name: "non positive primary rate falls through",
			setup: func(f *providerFixture) {
				f.primary.fail("UAH", fmt.Errorf("%w: zero", entities.ErrDataInconsistency))
				f.secondary.set("UAH", 41.6)
			},
			currency: "UAH",
			want:     41.6,
		},
		{
			name: "constant when everything fails",
			setup: func(f *providerFixture) {
				f.primary.fail("UAH", entities.ErrTransientSource)
				f.secondary.fail("UAH", entities.ErrTransientSource)
			},
			currency: "UAH",
			want:     41.82,
		},
		{
			name:     "constant for currency without secondary",
			setup:    func(f *providerFixture) { f.primary.fail("RUB", context.DeadlineExceeded) },
			currency: "RUB",
			want:     78.42,
		},
		{
			name:     "unknown currency defaults to one",
			setup:    func(f *providerFixture) { f.primary.fail("GBP", errors.New("down")) },
			currency: "GBP",
			want:     1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProviderFixture(t)
			tt.setup(f)
			assert.Equal(t, tt.want, f.provider.GetRate(context.Background(), tt.currency))
		})
	}
}

func TestRateProvider_StaleRateBeatsConstant(t *testing.T) {
	f := newProviderFixture(t)
	ctx := context.Background()

	f.primary.set("RUB", 90.0)
	require.Equal(t, 90.0, f.provider.GetRate(ctx, "RUB"))

	// la entrada de cache expira y se elimina, pero la última tasa buena se conserva
	f.primary.fail("RUB", entities.ErrTransientSource)
	f.advance(3 * time.Hour)

	assert.Equal(t, 90.0, f.provider.GetRate(ctx, "RUB"))
}

func TestRateProvider_AlwaysPositiveUnderTotalOutage(t *testing.T) {
	f := newProviderFixture(t)
	for _, currency := range []string{"UAH", "RUB", "KZT", "EUR", "XYZ"} {
		f.primary.fail(currency, entities.ErrTransientSource)
		f.secondary.fail(currency, entities.ErrTransientSource)
		assert.Greater(t, f.provider.GetRate(context.Background(), currency), 0.0, currency)
	}
}

func TestRateProvider_FailedRatesAreNotCached(t *testing.T) {
	f := newProviderFixture(t)
	ctx := context.Background()

	f.primary.fail("UAH", entities.ErrTransientSource)
	f.secondary.fail("UAH", entities.ErrTransientSource)
	f.provider.GetRate(ctx, "UAH")

	_, ok := f.provider.cache.Peek(RateCacheKeyPrefix + "UAH")
	assert.False(t, ok)

	f.primary.set("UAH", 40.0)
	assert.Equal(t, 40.0, f.provider.GetRate(ctx, "UAH"))
}

func TestRateProvider_InvalidSourceRatesAreRejected(t *testing.T) {
	tests := []struct {
		name string
		rate float64
	}{
		{name: "negative", rate: -5},
		{name: "zero", rate: 0},
		{name: "nan", rate: math.NaN()},
		{name: "infinite", rate: math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProviderFixture(t)
			ctx := context.Background()
			f.primary.set("UAH", tt.rate)
			f.secondary.fail("UAH", entities.ErrTransientSource)

			assert.Equal(t, 41.82, f.provider.GetRate(ctx, "UAH"))
			_, cached := f.provider.cache.Peek(RateCacheKeyPrefix + "UAH")
			assert.False(t, cached)

			// el secundario válido gana sobre un primario inválido
			f.secondary.set("UAH", 41.5)
			assert.Equal(t, 41.5, f.provider.GetRate(ctx, "UAH"))
		})
	}
}

func TestRateProvider_MockSourceZeroRateFallsBack(t *testing.T) {
	mock := NewMockSource(map[string]float64{"UAH": 0})
	rateCache := cache.NewTTLCache[string, entities.ExchangeRate]("rates", time.Hour, 10)
	provider := NewRateProvider(RateProviderConfig{
		FallbackRates: map[string]float64{"UAH": 41.82},
	}, mock, nil, rateCache)

	assert.Equal(t, 41.82, provider.GetRate(context.Background(), "UAH"))
	assert.Zero(t, rateCache.Size())
}

func TestRateProvider_RefreshAllBypassesCache(t *testing.T) {
	f := newProviderFixture(t)
	ctx := context.Background()
	f.primary.set("UAH", 41.0)
	f.primary.set("RUB", 90.0)
	f.provider.GetRate(ctx, "UAH")

	f.primary.set("UAH", 43.0)
	rates := f.provider.RefreshAll(ctx)

	assert.Equal(t, map[string]float64{"UAH": 43.0, "RUB": 90.0, "USD": 1.0}, rates)
	assert.Equal(t, 2, f.primary.callCount("UAH"))
}

func TestRateProvider_Snapshot(t *testing.T) {
	f := newProviderFixture(t)
	f.primary.set("UAH", 41.0)
	f.provider.GetRate(context.Background(), "UAH")

	snapshot := f.provider.Snapshot()
	require.Len(t, snapshot, 3)

	byCurrency := map[string]entities.ExchangeRate{}
	for _, r := range snapshot {
		byCurrency[r.Currency] = r
	}
	assert.Equal(t, "exchangerate-api", byCurrency["UAH"].Source)
	assert.Equal(t, entities.RateSourceLive, byCurrency["UAH"].Kind)
	assert.Equal(t, entities.SourceConstant, byCurrency["RUB"].Source)
	assert.Equal(t, 78.42, byCurrency["RUB"].Rate)
	assert.Equal(t, 1.0, byCurrency["USD"].Rate)
}

func TestDetermineFallbackReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "unknown"},
		{context.DeadlineExceeded, "timeout"},
		{fmt.Errorf("x: %w", entities.ErrDataInconsistency), "invalid_rate"},
		{sources.ErrRateNotFound, "rate_not_found"},
		{sources.ErrUnsupportedCurrency, "unsupported_currency"},
		{errors.New("boom"), "unknown_error"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, determineFallbackReason(tt.err))
	}
}

func TestMockSource(t *testing.T) {
	m := NewMockSource(map[string]float64{"uah": 40})
	m.SetVariance(0)

	rate, err := m.FetchRate(context.Background(), "UAH")
	require.NoError(t, err)
	assert.Equal(t, 40.0, rate)

	_, err = m.FetchRate(context.Background(), "JPY")
	assert.ErrorIs(t, err, sources.ErrRateNotFound)
}

func TestMockSource_SetRate(t *testing.T) {
	m := NewMockSource(nil)
	m.SetVariance(0)
	m.SetRate("kzt", 519.86)

	rate, err := m.FetchRate(context.Background(), "KZT")
	require.NoError(t, err)
	assert.Equal(t, 519.86, rate)
}
