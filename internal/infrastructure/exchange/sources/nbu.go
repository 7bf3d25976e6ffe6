package sources

import (
	"context"
	"fmt"
	"listing-repricer/internal/infrastructure/restclient"
	"strings"
)

// NBUSource consulta el tipo oficial UAH/USD del Banco Nacional de Ucrania
type NBUSource struct {
	url    string
	client *restclient.Client
}

func NewNBUSource(url string, client *restclient.Client) *NBUSource {
	return &NBUSource{url: url, client: client}
}

func (s *NBUSource) Name() string {
	return "nbu"
}

func (s *NBUSource) FetchRate(ctx context.Context, currency string) (float64, error) {
	if !strings.EqualFold(currency, "UAH") {
		return 0, fmt.Errorf("%w: nbu serves UAH only, got %s", ErrUnsupportedCurrency, currency)
	}

	var entries []NBUEntry
	if err := s.client.GetJSON(ctx, s.url, "/exchange", &entries); err != nil {
		return 0, fmt.Errorf("nbu request failed: %w", err)
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("%w: empty nbu response", ErrRateNotFound)
	}

	return validateRate(s.Name(), currency, entries[0].Rate)
}
