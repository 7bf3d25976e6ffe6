package sources

import (
	"fmt"
	"listing-repricer/internal/domain/entities"
	"math"
)

// validateRate rechaza tasas no positivas o no finitas
func validateRate(source, currency string, rate float64) (float64, error) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return 0, fmt.Errorf("%w: %w: %s returned %v for %s", ErrInvalidRate, entities.ErrDataInconsistency, source, rate, currency)
	}
	return rate, nil
}
