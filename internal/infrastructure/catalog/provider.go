package catalog

import (
	"context"
	"errors"
	"fmt"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"listing-repricer/internal/infrastructure/logging"
	"listing-repricer/internal/infrastructure/metrics"
	"listing-repricer/internal/infrastructure/repositories/cache"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// DefaultRegion se usa para monedas sin región mapeada
const DefaultRegion = "ua"

// ErrPriceUnavailable indica que el catálogo respondió sin success
var ErrPriceUnavailable = errors.New("catalog price unavailable")

// DefaultRegions mapea moneda de catálogo a código de país de Steam
var DefaultRegions = map[string]string{
	"UAH": "ua",
	"KZT": "kz",
	"RUB": "ru",
	"USD": "us",
	"EUR": "eu",
}

// PriceKey identifica un precio cacheado: (tipo, id, moneda)
type PriceKey struct {
	Kind     entities.CatalogItemKind
	ID       string
	Currency string
}

func (k PriceKey) String() string {
	return fmt.Sprintf("%s_%s_%s", k.Kind, k.ID, k.Currency)
}

// ProviderConfig contiene pacing y regiones del proveedor de precios
type ProviderConfig struct {
	RequestDelay  time.Duration
	Regions       map[string]string
	DefaultRegion string
}

// PriceProvider resuelve precios de catálogo con cache TTL, pacing global
// entre requests y deduplicación de fetches concurrentes para la misma clave.
type PriceProvider struct {
	client  interfaces.CatalogClient
	prices  *cache.TTLCache[PriceKey, float64]
	names   *cache.TTLCache[entities.CatalogItemKey, string]
	limiter *rate.Limiter
	group   singleflight.Group
	regions map[string]string
	region  string
}

var _ interfaces.CatalogPriceProvider = (*PriceProvider)(nil)

// NewPriceProvider crea el proveedor; RequestDelay <= 0 desactiva el pacing
func NewPriceProvider(
	cfg ProviderConfig,
	client interfaces.CatalogClient,
	prices *cache.TTLCache[PriceKey, float64],
	names *cache.TTLCache[entities.CatalogItemKey, string],
) *PriceProvider {
	limit := rate.Inf
	if cfg.RequestDelay > 0 {
		limit = rate.Every(cfg.RequestDelay)
	}

	regions := cfg.Regions
	if len(regions) == 0 {
		regions = DefaultRegions
	}
	defaultRegion := cfg.DefaultRegion
	if defaultRegion == "" {
		defaultRegion = DefaultRegion
	}

	normalized := make(map[string]string, len(regions))
	for currency, region := range regions {
		normalized[strings.ToUpper(currency)] = strings.ToLower(region)
	}

	return &PriceProvider{
		client:  client,
		prices:  prices,
		names:   names,
		limiter: rate.NewLimiter(limit, 1),
		regions: normalized,
		region:  defaultRegion,
	}
}

// RegionFor retorna el código de país de Steam para una moneda
func (p *PriceProvider) RegionFor(currency string) string {
	if region, ok := p.regions[strings.ToUpper(currency)]; ok {
		return region
	}
	return p.region
}

// GetPrice retorna (precio, true) o (0, false) cuando el precio no está disponible.
// Un item gratuito devuelve (0, true).
func (p *PriceProvider) GetPrice(ctx context.Context, key entities.CatalogItemKey, currency string) (float64, bool) {
	if !key.IsValid() {
		metrics.RecordCatalogLookup(string(key.Kind), "invalid")
		logging.Pricing().CatalogPriceAbsent(ctx, key.String(), currency, "invalid catalog item key")
		return 0, false
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	priceKey := PriceKey{Kind: key.Kind, ID: key.ID, Currency: currency}

	if price, ok := p.prices.Get(priceKey); ok {
		metrics.RecordCatalogLookup(string(key.Kind), "hit")
		logging.Pricing().CatalogPriceResolved(ctx, key.String(), currency, price, true)
		return price, true
	}

	value, err, shared := p.group.Do(priceKey.String(), func() (interface{}, error) {
		// otro caller pudo completar el fetch mientras esperábamos
		if price, ok := p.prices.Get(priceKey); ok {
			return price, nil
		}
		return p.fetchPrice(ctx, key, priceKey)
	})
	if err != nil {
		metrics.RecordCatalogLookup(string(key.Kind), "absent")
		logging.Pricing().CatalogPriceAbsent(ctx, key.String(), currency, err.Error())
		return 0, false
	}

	price := value.(float64)
	metrics.RecordCatalogLookup(string(key.Kind), "fetched")
	logging.Pricing().CatalogPriceResolved(ctx, key.String(), currency, price, shared)
	return price, true
}

func (p *PriceProvider) fetchPrice(ctx context.Context, key entities.CatalogItemKey, priceKey PriceKey) (float64, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("catalog pacing wait: %w", err)
	}

	quote, err := p.client.FetchQuote(ctx, key, p.RegionFor(priceKey.Currency))
	if err != nil {
		return 0, err
	}
	if quote == nil || !quote.Success {
		return 0, fmt.Errorf("%w: %s", ErrPriceUnavailable, key)
	}

	// success sin precio es contenido gratuito
	price := 0.0
	if quote.MinorUnits != nil && *quote.MinorUnits > 0 {
		price = float64(*quote.MinorUnits) / 100.0
	}

	p.prices.Set(priceKey, price)
	if quote.DisplayName != "" && p.names != nil {
		p.names.Set(key, quote.DisplayName)
	}
	return price, nil
}

// GetDisplayName retorna el nombre del item, o "Steam <id>" si no se puede obtener
func (p *PriceProvider) GetDisplayName(ctx context.Context, key entities.CatalogItemKey) string {
	fallback := "Steam " + key.String()
	if !key.IsValid() || p.names == nil {
		return fallback
	}

	name, ok := p.names.Get(key)
	logging.CacheOperation(ctx, "get_name", key.String(), ok)
	if ok {
		return name
	}

	value, err, _ := p.group.Do("name_"+key.String(), func() (interface{}, error) {
		if name, ok := p.names.Get(key); ok {
			return name, nil
		}
		if err := p.limiter.Wait(ctx); err != nil {
			return "", err
		}
		name, err := p.client.FetchDisplayName(ctx, key)
		if err != nil {
			return "", err
		}
		p.names.Set(key, name)
		return name, nil
	})
	if err != nil {
		logging.Pricing().Debug(ctx, "Catalog name lookup failed", logging.Fields{
			logging.FieldCatalogItem: key.String(),
			logging.FieldError:       err.Error(),
		})
		return fallback
	}

	return value.(string)
}

// ClearExpired limpia entradas expiradas de precios y nombres
func (p *PriceProvider) ClearExpired() int {
	removed := p.prices.ClearExpired()
	if p.names != nil {
		removed += p.names.ClearExpired()
	}
	return removed
}

// CacheStats retorna las estadísticas de los caches del proveedor
func (p *PriceProvider) CacheStats() []cache.Stats {
	stats := []cache.Stats{p.prices.Stats()}
	if p.names != nil {
		stats = append(stats, p.names.Stats())
	}
	return stats
}
