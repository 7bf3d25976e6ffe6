package catalog

import (
	"context"
	"errors"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"listing-repricer/internal/infrastructure/repositories/cache"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog cuenta llamadas y registra la región pedida
type fakeCatalog struct {
	mu      sync.Mutex
	quote   *interfaces.CatalogQuote
	err     error
	name    string
	nameErr error
	delay   time.Duration
	calls   int32
	regions []string
}

func (f *fakeCatalog) FetchQuote(_ context.Context, _ entities.CatalogItemKey, region string) (*interfaces.CatalogQuote, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regions = append(f.regions, region)
	return f.quote, f.err
}

func (f *fakeCatalog) FetchDisplayName(_ context.Context, _ entities.CatalogItemKey) (string, error) {
	return f.name, f.nameErr
}

func newTestProvider(client interfaces.CatalogClient, delay time.Duration) *PriceProvider {
	return NewPriceProvider(
		ProviderConfig{RequestDelay: delay},
		client,
		cache.NewTTLCache[PriceKey, float64]("catalog_prices", time.Hour, 100),
		cache.NewTTLCache[entities.CatalogItemKey, string]("catalog_names", time.Hour, 100),
	)
}

func quoteWith(minor int64) *interfaces.CatalogQuote {
	return &interfaces.CatalogQuote{Success: true, MinorUnits: &minor}
}

func TestPriceProvider_GetPrice(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeCatalog
		raw    string
		want   float64
		wantOK bool
	}{
		{name: "price in minor units", client: &fakeCatalog{quote: quoteWith(19900)}, raw: "570", want: 199.0, wantOK: true},
		{name: "free item", client: &fakeCatalog{quote: &interfaces.CatalogQuote{Success: true}}, raw: "440", want: 0.0, wantOK: true},
		{name: "success false", client: &fakeCatalog{quote: &interfaces.CatalogQuote{Success: false}}, raw: "1", wantOK: false},
		{name: "client error", client: &fakeCatalog{err: entities.ErrTransientSource}, raw: "2", wantOK: false},
		{name: "bundle", client: &fakeCatalog{quote: quoteWith(4999)}, raw: "sub_99", want: 49.99, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newTestProvider(tt.client, 0)
			key, err := entities.ParseCatalogItemKey(tt.raw)
			require.NoError(t, err)

			price, ok := provider.GetPrice(context.Background(), key, "UAH")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, price)
		})
	}
}

func TestPriceProvider_InvalidKeyIsAbsentWithoutCall(t *testing.T) {
	client := &fakeCatalog{quote: quoteWith(100)}
	provider := newTestProvider(client, 0)

	_, ok := provider.GetPrice(context.Background(), entities.CatalogItemKey{Kind: entities.CatalogItemSingle, ID: "12a"}, "UAH")
	assert.False(t, ok)
	assert.Zero(t, atomic.LoadInt32(&client.calls))
}

func TestPriceProvider_CachesSuccessAndFreeButNotFailures(t *testing.T) {
	ctx := context.Background()
	key := entities.CatalogItemKey{Kind: entities.CatalogItemSingle, ID: "440"}

	free := &fakeCatalog{quote: &interfaces.CatalogQuote{Success: true}}
	provider := newTestProvider(free, 0)
	provider.GetPrice(ctx, key, "UAH")
	price, ok := provider.GetPrice(ctx, key, "UAH")
	assert.True(t, ok)
	assert.Zero(t, price)
	assert.Equal(t, int32(1), atomic.LoadInt32(&free.calls), "free price is cached")

	failing := &fakeCatalog{err: errors.New("down")}
	provider = newTestProvider(failing, 0)
	provider.GetPrice(ctx, key, "UAH")
	provider.GetPrice(ctx, key, "UAH")
	assert.Equal(t, int32(2), atomic.LoadInt32(&failing.calls), "failures are not cached")
}

func TestPriceProvider_CacheKeyIncludesCurrency(t *testing.T) {
	client := &fakeCatalog{quote: quoteWith(1000)}
	provider := newTestProvider(client, 0)
	key := entities.CatalogItemKey{Kind: entities.CatalogItemSingle, ID: "570"}

	provider.GetPrice(context.Background(), key, "UAH")
	provider.GetPrice(context.Background(), key, "KZT")
	provider.GetPrice(context.Background(), key, "GBP")

	assert.Equal(t, int32(3), atomic.LoadInt32(&client.calls))
	assert.Equal(t, []string{"ua", "kz", "ua"}, client.regions)
}

func TestPriceProvider_ConcurrentMissesShareOneFetch(t *testing.T) {
	client := &fakeCatalog{quote: quoteWith(500), delay: 50 * time.Millisecond}
	provider := newTestProvider(client, 0)
	key := entities.CatalogItemKey{Kind: entities.CatalogItemSingle, ID: "570"}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			price, ok := provider.GetPrice(context.Background(), key, "USD")
			assert.True(t, ok)
			assert.Equal(t, 5.0, price)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&client.calls))
}

func TestPriceProvider_PacingBetweenFetches(t *testing.T) {
	client := &fakeCatalog{quote: quoteWith(500)}
	provider := newTestProvider(client, 100*time.Millisecond)

	start := time.Now()
	provider.GetPrice(context.Background(), entities.CatalogItemKey{Kind: entities.CatalogItemSingle, ID: "1"}, "USD")
	provider.GetPrice(context.Background(), entities.CatalogItemKey{Kind: entities.CatalogItemSingle, ID: "2"}, "USD")

	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestPriceProvider_PacingRespectsContext(t *testing.T) {
	client := &fakeCatalog{quote: quoteWith(500)}
	provider := newTestProvider(client, time.Hour)
	provider.GetPrice(context.Background(), entities.CatalogItemKey{Kind: entities.CatalogItemSingle, ID: "1"}, "USD")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, ok := provider.GetPrice(ctx, entities.CatalogItemKey{Kind: entities.CatalogItemSingle, ID: "2"}, "USD")

	assert.False(t, ok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&client.calls))
}

func TestPriceProvider_GetDisplayName(t *testing.T) {
	key := entities.CatalogItemKey{Kind: entities.CatalogItemBundle, ID: "77"}

	ok := newTestProvider(&fakeCatalog{name: "Bundle"}, 0)
	assert.Equal(t, "Bundle", ok.GetDisplayName(context.Background(), key))

	failing := newTestProvider(&fakeCatalog{nameErr: errors.New("down")}, 0)
	assert.Equal(t, "Steam sub_77", failing.GetDisplayName(context.Background(), key))
}

func TestPriceProvider_NameCachedFromQuote(t *testing.T) {
	quote := quoteWith(100)
	quote.DisplayName = "From quote"
	provider := newTestProvider(&fakeCatalog{quote: quote, nameErr: errors.New("unused")}, 0)
	key := entities.CatalogItemKey{Kind: entities.CatalogItemSingle, ID: "10"}

	provider.GetPrice(context.Background(), key, "USD")
	assert.Equal(t, "From quote", provider.GetDisplayName(context.Background(), key))
	assert.Len(t, provider.CacheStats(), 2)
}
