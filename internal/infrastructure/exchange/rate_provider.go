package exchange

import (
	"context"
	"errors"
	"fmt"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"listing-repricer/internal/infrastructure/exchange/sources"
	"listing-repricer/internal/infrastructure/logging"
	"listing-repricer/internal/infrastructure/metrics"
	"listing-repricer/internal/infrastructure/repositories/cache"
	"listing-repricer/internal/infrastructure/restclient"
	"sort"
	"strings"
	"sync"
	"time"
)

// RateCacheKeyPrefix prefija las claves de tasas en el TTLCache compartido
const RateCacheKeyPrefix = "rate_"

const (
	defaultFreshness = 15 * time.Minute
	// defaultUnknownRate se usa para monedas sin constante configurada
	defaultUnknownRate = 1.0
)

// RateProviderConfig contiene los parámetros de resolución de tasas
type RateProviderConfig struct {
	BaseCurrency        string
	SupportedCurrencies []string
	FreshnessThreshold  time.Duration
	FallbackRates       map[string]float64
}

// RateProvider resuelve tasas con la cadena cache fresco → fuente primaria →
// fuente secundaria por moneda → última tasa buena → constante configurada.
// GetRate nunca falla y siempre devuelve un valor positivo.
type RateProvider struct {
	cfg       RateProviderConfig
	primary   interfaces.RateSource
	secondary map[string]interfaces.RateSource
	cache     *cache.TTLCache[string, entities.ExchangeRate]
	now       func() time.Time

	mu       sync.RWMutex
	lastGood map[string]entities.ExchangeRate
}

var _ interfaces.RateProvider = (*RateProvider)(nil)

// NewRateProvider crea el proveedor; secondary mapea moneda → fuente específica
func NewRateProvider(
	cfg RateProviderConfig,
	primary interfaces.RateSource,
	secondary map[string]interfaces.RateSource,
	rateCache *cache.TTLCache[string, entities.ExchangeRate],
) *RateProvider {
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = entities.BaseCurrency
	}
	if cfg.FreshnessThreshold <= 0 {
		cfg.FreshnessThreshold = defaultFreshness
	}

	normalized := make(map[string]interfaces.RateSource, len(secondary))
	for currency, source := range secondary {
		normalized[strings.ToUpper(currency)] = source
	}

	return &RateProvider{
		cfg:       cfg,
		primary:   primary,
		secondary: normalized,
		cache:     rateCache,
		now:       time.Now,
		lastGood:  make(map[string]entities.ExchangeRate),
	}
}

// GetRate devuelve cuántas unidades de currency equivalen a 1 unidad de la moneda base
func (p *RateProvider) GetRate(ctx context.Context, currency string) float64 {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if currency == p.cfg.BaseCurrency {
		metrics.RecordRateResolution(currency, entities.SourceBase)
		return 1.0
	}

	key := RateCacheKeyPrefix + currency
	if entry, ok := p.cache.GetEntry(key); ok && entry.Value.IsValid() && entry.Age(p.now()) < p.cfg.FreshnessThreshold {
		metrics.RecordRateResolution(currency, "cache")
		logging.Pricing().RateResolved(ctx, currency, entry.Value.Rate, entry.Value.Source, true)
		return entry.Value.Rate
	}

	// 1. Fuente primaria
	var primaryErr error
	if p.primary != nil {
		rate, err := p.fetchValid(ctx, p.primary, currency)
		if err == nil {
			return p.store(ctx, currency, rate, p.primary.Name())
		}
		primaryErr = err
	} else {
		primaryErr = errors.New("no primary rate source configured")
	}

	fallbackReason := determineFallbackReason(primaryErr)
	metrics.RecordFallbackActivation(fallbackReason, currency)
	logging.Pricing().WarnWithError(ctx, "Primary rate source failed", primaryErr, logging.Fields{
		logging.FieldCurrency: currency,
		logging.FieldReason:   fallbackReason,
	})

	// 2. Fuente secundaria específica de la moneda
	if secondary, ok := p.secondary[currency]; ok && secondary != nil {
		rate, err := p.fetchValid(ctx, secondary, currency)
		if err == nil {
			return p.store(ctx, currency, rate, secondary.Name())
		}
		logging.Pricing().WarnWithError(ctx, "Secondary rate source failed", err, logging.Fields{
			logging.FieldCurrency:   currency,
			logging.FieldRateSource: secondary.Name(),
			logging.FieldReason:     determineFallbackReason(err),
		})
	}

	// 3. Última tasa buena conocida, sin importar su antigüedad
	p.mu.RLock()
	last, ok := p.lastGood[currency]
	p.mu.RUnlock()
	if ok && last.IsValid() {
		metrics.RecordRateResolution(currency, entities.SourceStaleCache)
		logging.Pricing().RateDegraded(ctx, currency, last.Rate, entities.SourceStaleCache,
			"stale data used: all live sources failed, age "+last.Age(p.now()).Round(time.Second).String())
		return last.Rate
	}

	// 4. Constante configurada
	rate := p.constantRate(currency)
	metrics.RecordRateResolution(currency, entities.SourceConstant)
	logging.Pricing().RateDegraded(ctx, currency, rate, entities.SourceConstant, "all live sources failed and no previous rate")
	return rate
}

// RefreshAll descarta las tasas cacheadas y vuelve a resolver todas las monedas soportadas
func (p *RateProvider) RefreshAll(ctx context.Context) map[string]float64 {
	cleared := cache.DeletePrefix(p.cache, RateCacheKeyPrefix)
	logging.Cache().Cleared(ctx, RateCacheKeyPrefix+"*", cleared)

	out := make(map[string]float64, len(p.cfg.SupportedCurrencies))
	for _, currency := range p.cfg.SupportedCurrencies {
		out[strings.ToUpper(currency)] = p.GetRate(ctx, currency)
	}
	return out
}

// Snapshot retorna la última tasa conocida de cada moneda soportada, o su constante
func (p *RateProvider) Snapshot() []entities.ExchangeRate {
	p.mu.RLock()
	defer p.mu.RUnlock()

	now := p.now()
	out := make([]entities.ExchangeRate, 0, len(p.cfg.SupportedCurrencies))
	for _, currency := range p.cfg.SupportedCurrencies {
		currency = strings.ToUpper(currency)
		switch {
		case currency == p.cfg.BaseCurrency:
			out = append(out, entities.ExchangeRate{
				Currency: currency, Rate: 1.0, Timestamp: now, Kind: entities.RateSourceLive, Source: entities.SourceBase,
			})
		case p.lastGood[currency].IsValid():
			out = append(out, p.lastGood[currency])
		default:
			out = append(out, entities.ExchangeRate{
				Currency: currency, Rate: p.constantRate(currency), Kind: entities.RateSourceFallback, Source: entities.SourceConstant,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

// fetchValid consulta una fuente; una tasa no positiva o no finita cuenta como fallo del tier
func (p *RateProvider) fetchValid(ctx context.Context, source interfaces.RateSource, currency string) (float64, error) {
	rate, err := source.FetchRate(ctx, currency)
	if err != nil {
		return 0, err
	}
	if !(entities.ExchangeRate{Rate: rate}).IsValid() {
		return 0, fmt.Errorf("%w: %w: %s returned %v for %s",
			sources.ErrInvalidRate, entities.ErrDataInconsistency, source.Name(), rate, currency)
	}
	return rate, nil
}

// store cachea una tasa válida y la registra como última buena
func (p *RateProvider) store(ctx context.Context, currency string, rate float64, source string) float64 {
	exchangeRate := entities.ExchangeRate{
		Currency:  currency,
		Rate:      rate,
		Timestamp: p.now(),
		Kind:      entities.RateSourceLive,
		Source:    source,
	}

	p.cache.Set(RateCacheKeyPrefix+currency, exchangeRate)
	p.mu.Lock()
	p.lastGood[currency] = exchangeRate
	p.mu.Unlock()

	metrics.RecordRateResolution(currency, source)
	metrics.UpdateCurrentRate(currency, rate)
	logging.Pricing().RateResolved(ctx, currency, rate, source, false)
	return rate
}

func (p *RateProvider) constantRate(currency string) float64 {
	if rate, ok := p.cfg.FallbackRates[currency]; ok && rate > 0 {
		return rate
	}
	return defaultUnknownRate
}

// determineFallbackReason clasifica el error de una fuente para métricas y logs
func determineFallbackReason(err error) string {
	if err == nil {
		return "unknown"
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), strings.Contains(strings.ToLower(err.Error()), "timeout"):
		return "timeout"
	case errors.Is(err, entities.ErrDataInconsistency), errors.Is(err, sources.ErrInvalidRate):
		return "invalid_rate"
	case errors.Is(err, sources.ErrRateNotFound):
		return "rate_not_found"
	case errors.Is(err, sources.ErrUnsupportedCurrency):
		return "unsupported_currency"
	case strings.Contains(err.Error(), "HTTP 429"):
		return "rate_limited"
	case errors.Is(err, restclient.ErrRetryableRequest):
		return "max_retries"
	case errors.Is(err, restclient.ErrNonRetryable):
		return "client_error"
	}

	return "unknown_error"
}
