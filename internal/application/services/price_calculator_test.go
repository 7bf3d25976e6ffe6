package services

import (
	"context"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/infrastructure/repositories/memory"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubRates devuelve tasas fijas; USD siempre vale 1
type stubRates map[string]float64

func (s stubRates) GetRate(_ context.Context, currency string) float64 {
	if currency == entities.BaseCurrency {
		return 1.0
	}
	if rate, ok := s[currency]; ok {
		return rate
	}
	return 1.0
}

func (s stubRates) RefreshAll(_ context.Context) map[string]float64 { return map[string]float64(s) }

func (s stubRates) Snapshot() []entities.ExchangeRate { return nil }

var testRates = stubRates{"UAH": 41.82, "RUB": 78.42, "KZT": 519.86, "EUR": 0.85}

func newCalculator(rates stubRates, mutate func(*entities.GlobalSettings)) *PriceCalculator {
	settings := entities.DefaultGlobalSettings()
	if mutate != nil {
		mutate(&settings)
	}
	return NewPriceCalculator(rates, memory.NewSettingsStore(settings))
}

func TestPriceCalculator_Calculate(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		currency string
		mutate   func(*entities.GlobalSettings)
		want     float64
	}{
		{
			name:     "same currency markup",
			price:    100,
			currency: "USD",
			want:     108.65,
		},
		{
			name:     "free item returns global min",
			price:    0,
			currency: "UAH",
			want:     1.0,
		},
		{
			name:     "negligible price is free",
			price:    0.01,
			currency: "USD",
			mutate:   func(s *entities.GlobalSettings) { s.GlobalMinPrice = 2.5 },
			want:     2.5,
		},
		{
			name:     "negative price returns global min",
			price:    -3,
			currency: "USD",
			want:     1.0,
		},
		{
			name:     "NaN returns global min",
			price:    math.NaN(),
			currency: "USD",
			want:     1.0,
		},
		{
			name:     "infinity returns global min",
			price:    math.Inf(1),
			currency: "USD",
			want:     1.0,
		},
		{
			name:     "catalog currency to base account currency",
			price:    836.4,
			currency: "UAH",
			// 836.4/41.82 = 20 -> 20*1.03*1.05+0.5
			want: 22.13,
		},
		{
			name:     "cross conversion through base",
			price:    836.4,
			currency: "UAH",
			mutate:   func(s *entities.GlobalSettings) { s.AccountCurrency = "RUB" },
			// 20 USD * 78.42 = 1568.4 -> *1.03*1.05+0.5 = 1696.7246
			want: 1696.72,
		},
		{
			name:     "clamped to global max",
			price:    100000,
			currency: "USD",
			want:     5000,
		},
		{
			name:     "clamped to global min",
			price:    0.5,
			currency: "UAH",
			want:     1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := newCalculator(testRates, tt.mutate)
			assert.Equal(t, tt.want, calc.Calculate(context.Background(), tt.price, tt.currency))
		})
	}
}

func TestPriceCalculator_NonPositiveRateFails(t *testing.T) {
	calc := newCalculator(stubRates{"UAH": 0}, nil)
	assert.Zero(t, calc.Calculate(context.Background(), 100, "UAH"))

	calc = newCalculator(stubRates{"RUB": -1}, func(s *entities.GlobalSettings) { s.AccountCurrency = "RUB" })
	assert.Zero(t, calc.Calculate(context.Background(), 100, "UAH"))
}

func TestPriceCalculator_ConvertRoundTrip(t *testing.T) {
	calc := newCalculator(testRates, nil)
	ctx := context.Background()
	currencies := []string{"USD", "UAH", "RUB", "KZT", "EUR"}

	for _, from := range currencies {
		for _, to := range currencies {
			for _, amount := range []float64{0.99, 19.99, 1234.56} {
				there := calc.Convert(ctx, amount, from, to)
				back := calc.Convert(ctx, there, to, from)
				assert.InDelta(t, amount, back, 0.005, "%s -> %s -> %s", from, to, from)
			}
		}
	}
}

func TestPriceCalculator_ConvertSameCurrencyIgnoresRates(t *testing.T) {
	calc := newCalculator(stubRates{"UAH": 0}, nil)
	assert.Equal(t, 42.0, calc.Convert(context.Background(), 42, "uah", "UAH"))
}

func TestPriceCalculator_MarkupMonotonicity(t *testing.T) {
	ctx := context.Background()
	prev := 0.0
	for margin := 0.0; margin <= 50; margin += 2.5 {
		m := margin
		price := newCalculator(testRates, func(s *entities.GlobalSettings) { s.MarkupMarginPct = m }).
			Calculate(ctx, 1000, "UAH")
		assert.GreaterOrEqual(t, price, prev, "margin %.1f", margin)
		prev = price
	}

	prev = 0.0
	for fixed := 0.0; fixed <= 10; fixed += 0.25 {
		f := fixed
		price := newCalculator(testRates, func(s *entities.GlobalSettings) { s.MarkupFixedAmount = f }).
			Calculate(ctx, 1000, "UAH")
		assert.GreaterOrEqual(t, price, prev, "fixed %.2f", fixed)
		prev = price
	}
}

func TestPriceCalculator_ResultWithinBounds(t *testing.T) {
	calc := newCalculator(testRates, func(s *entities.GlobalSettings) {
		s.GlobalMinPrice = 5
		s.GlobalMaxPrice = 50
	})
	for _, price := range []float64{0, 1, 100, 1000, 10000, 1e9} {
		got := calc.Calculate(context.Background(), price, "UAH")
		assert.GreaterOrEqual(t, got, 5.0)
		assert.LessOrEqual(t, got, 50.0)
	}
}

func TestPriceChanged(t *testing.T) {
	tests := []struct {
		name     string
		from, to float64
		want     bool
	}{
		{name: "identical", from: 10, to: 10, want: false},
		{name: "sub-cent noise", from: 10.001, to: 10.004, want: false},
		{name: "one cent", from: 10.00, to: 10.01, want: true},
		{name: "rounds to same cent", from: 10.004, to: 9.996, want: false},
		{name: "decrease", from: 12.5, to: 11.0, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PriceChanged(tt.from, tt.to, 0.005))
		})
	}
}

func TestRoundPrice(t *testing.T) {
	assert.Equal(t, 108.65, RoundPrice(108.6499999))
	assert.Equal(t, 1.01, RoundPrice(1.005))
	assert.Equal(t, 0.0, RoundPrice(0.004))
}
