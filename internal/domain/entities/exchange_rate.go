package entities

import (
	"math"
	"time"
)

// RateSourceKind indica si una tasa proviene de una fuente viva o de un fallback
type RateSourceKind string

const (
	RateSourceLive     RateSourceKind = "live"
	RateSourceFallback RateSourceKind = "fallback"
)

// Nombres concretos de fuentes usados en logs, métricas y snapshots
const (
	SourceBase       = "base"
	SourceStaleCache = "stale-cache"
	SourceConstant   = "constant"
)

// ExchangeRate es la cantidad de Currency equivalente a una unidad de BaseCurrency
type ExchangeRate struct {
	Currency  string         `json:"currency"`
	Rate      float64        `json:"rate"`
	Timestamp time.Time      `json:"timestamp"`
	Kind      RateSourceKind `json:"kind"`
	Source    string         `json:"source"`
}

// IsValid: las tasas no positivas son inválidas y nunca se cachean
func (r ExchangeRate) IsValid() bool {
	return r.Rate > 0 && !math.IsNaN(r.Rate) && !math.IsInf(r.Rate, 0)
}

// Age devuelve la antigüedad de la tasa respecto a now
func (r ExchangeRate) Age(now time.Time) time.Duration {
	return now.Sub(r.Timestamp)
}
