package entities

import (
	"fmt"
	"strings"
	"time"
)

// BaseCurrency es la moneda de referencia en la que cotizan las fuentes de tasas
const BaseCurrency = "USD"

// GlobalSettings agrupa la configuración de pricing compartida por todos los listings
type GlobalSettings struct {
	AccountCurrency   string        `json:"account_currency"`
	RecheckInterval   time.Duration `json:"recheck_interval"`
	MarkupCurrencyPct float64       `json:"markup_currency_pct"`
	MarkupMarginPct   float64       `json:"markup_margin_pct"`
	MarkupFixedAmount float64       `json:"markup_fixed_amount"`
	GlobalMinPrice    float64       `json:"global_min_price"`
	GlobalMaxPrice    float64       `json:"global_max_price"`
}

// DefaultGlobalSettings retorna los valores por defecto del repricer
func DefaultGlobalSettings() GlobalSettings {
	return GlobalSettings{
		AccountCurrency:   BaseCurrency,
		RecheckInterval:   6 * time.Hour,
		MarkupCurrencyPct: 3.0,
		MarkupMarginPct:   5.0,
		MarkupFixedAmount: 0.5,
		GlobalMinPrice:    1.0,
		GlobalMaxPrice:    5000.0,
	}
}

// Validate verifica la coherencia de los settings contra las monedas de cuenta permitidas
func (s GlobalSettings) Validate(accountCurrencies []string) error {
	if s.AccountCurrency == "" {
		return fmt.Errorf("%w: account currency cannot be empty", ErrInvalidInput)
	}
	if len(accountCurrencies) > 0 && !containsCurrency(accountCurrencies, s.AccountCurrency) {
		return fmt.Errorf("%w: unsupported account currency %s (supported: %s)",
			ErrInvalidInput, s.AccountCurrency, strings.Join(accountCurrencies, ","))
	}
	if s.RecheckInterval <= 0 {
		return fmt.Errorf("%w: recheck interval must be positive, got %v", ErrInvalidInput, s.RecheckInterval)
	}
	if s.MarkupCurrencyPct < 0 || s.MarkupMarginPct < 0 || s.MarkupFixedAmount < 0 {
		return fmt.Errorf("%w: markups cannot be negative", ErrInvalidInput)
	}
	return ValidatePriceBounds(s.GlobalMinPrice, s.GlobalMaxPrice)
}

// Normalize deja la moneda en mayúsculas
func (s GlobalSettings) Normalize() GlobalSettings {
	s.AccountCurrency = strings.ToUpper(strings.TrimSpace(s.AccountCurrency))
	return s
}

func containsCurrency(list []string, currency string) bool {
	for _, c := range list {
		if strings.EqualFold(c, currency) {
			return true
		}
	}
	return false
}
