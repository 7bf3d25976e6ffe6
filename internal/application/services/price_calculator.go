package services

import (
	"context"
	"fmt"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"listing-repricer/internal/infrastructure/logging"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// FreePriceThreshold: precios de catálogo en o por debajo se tratan como gratuitos
const FreePriceThreshold = 0.01

var hundred = decimal.NewFromInt(100)

// PriceCalculator convierte un precio de catálogo a la moneda de la cuenta y le aplica el markup.
// Lee los settings en cada llamada para reflejar cambios hechos desde la API de admin.
type PriceCalculator struct {
	rates    interfaces.RateProvider
	settings interfaces.SettingsStore
}

func NewPriceCalculator(rates interfaces.RateProvider, settings interfaces.SettingsStore) *PriceCalculator {
	return &PriceCalculator{rates: rates, settings: settings}
}

// Calculate retorna el precio final en la moneda de la cuenta, acotado a los bounds
// globales y redondeado a 2 decimales. Retorna 0 si la conversión falla.
func (c *PriceCalculator) Calculate(ctx context.Context, catalogPrice float64, catalogCurrency string) float64 {
	settings := c.settings.Get()

	if math.IsNaN(catalogPrice) || math.IsInf(catalogPrice, 0) || catalogPrice < 0 {
		logging.Pricing().DataError(ctx, fmt.Sprintf("%v %s", catalogPrice, catalogCurrency),
			"catalog price is not a finite non-negative number")
		return settings.GlobalMinPrice
	}
	if catalogPrice <= FreePriceThreshold {
		logging.Pricing().Debug(ctx, "Free catalog item, using global minimum", logging.Fields{
			logging.FieldCatalogPrice: catalogPrice,
			logging.FieldCurrency:     catalogCurrency,
		})
		return settings.GlobalMinPrice
	}

	base := c.Convert(ctx, catalogPrice, catalogCurrency, settings.AccountCurrency)
	if base <= 0 {
		logging.Pricing().Warn(ctx, "Price conversion failed", logging.Fields{
			logging.FieldCatalogPrice: catalogPrice,
			logging.FieldCurrency:     catalogCurrency,
			"account_currency":        settings.AccountCurrency,
		})
		return 0
	}

	price := applyMarkup(base, settings)
	final := clampAndRound(price, settings.GlobalMinPrice, settings.GlobalMaxPrice)

	logging.Pricing().Debug(ctx, "Price calculated", logging.NewFieldBuilder().
		WithPricing(catalogPrice, final, catalogCurrency).
		WithCustomField("base_price", base).
		WithCustomField("account_currency", settings.AccountCurrency).
		Build())

	return final
}

// Convert pasa amount de from a to vía la moneda base. Retorna 0 si alguna tasa no es positiva.
func (c *PriceCalculator) Convert(ctx context.Context, amount float64, from, to string) float64 {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	if from == to {
		return amount
	}

	fromRate := c.rates.GetRate(ctx, from)
	if fromRate <= 0 {
		logging.Pricing().DataError(ctx, from, "non-positive exchange rate")
		return 0
	}
	inBase := amount / fromRate

	if to == entities.BaseCurrency {
		return inBase
	}

	toRate := c.rates.GetRate(ctx, to)
	if toRate <= 0 {
		logging.Pricing().DataError(ctx, to, "non-positive exchange rate")
		return 0
	}
	return inBase * toRate
}

// applyMarkup: base*(1+cur%) y luego *(1+margin%) + fijo
func applyMarkup(base float64, settings entities.GlobalSettings) decimal.Decimal {
	currencyFactor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(settings.MarkupCurrencyPct).Div(hundred))
	marginFactor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(settings.MarkupMarginPct).Div(hundred))

	return decimal.NewFromFloat(base).
		Mul(currencyFactor).
		Mul(marginFactor).
		Add(decimal.NewFromFloat(settings.MarkupFixedAmount))
}

func clampAndRound(price decimal.Decimal, minPrice, maxPrice float64) float64 {
	lo := decimal.NewFromFloat(minPrice)
	hi := decimal.NewFromFloat(maxPrice)
	if price.LessThan(lo) {
		price = lo
	}
	if price.GreaterThan(hi) {
		price = hi
	}
	return price.Round(2).InexactFloat64()
}

// RoundPrice redondea a 2 decimales, mitad lejos de cero
func RoundPrice(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// PriceChanged compara precios ya redondeados contra epsilon
func PriceChanged(oldPrice, newPrice, epsilon float64) bool {
	diff := decimal.NewFromFloat(RoundPrice(newPrice)).Sub(decimal.NewFromFloat(RoundPrice(oldPrice))).Abs()
	return diff.GreaterThanOrEqual(decimal.NewFromFloat(epsilon))
}
