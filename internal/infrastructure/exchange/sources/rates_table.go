package sources

import (
	"context"
	"fmt"
	"listing-repricer/internal/domain/interfaces"
	"listing-repricer/internal/infrastructure/restclient"
	"strings"
)

// RatesTableSource lee un endpoint que devuelve todas las tasas respecto a USD
// (exchangerate-api como fuente primaria, open.er-api como secundaria para EUR).
type RatesTableSource struct {
	name   string
	url    string
	client *restclient.Client
}

var _ interfaces.RateSource = (*RatesTableSource)(nil)

func NewRatesTableSource(name, url string, client *restclient.Client) *RatesTableSource {
	return &RatesTableSource{name: name, url: url, client: client}
}

func (s *RatesTableSource) Name() string {
	return s.name
}

// FetchRate retorna las unidades de currency por 1 USD
func (s *RatesTableSource) FetchRate(ctx context.Context, currency string) (float64, error) {
	table, err := s.FetchAll(ctx)
	if err != nil {
		return 0, err
	}

	rate, ok := table[strings.ToUpper(currency)]
	if !ok {
		return 0, fmt.Errorf("%w: %s not in %s response", ErrRateNotFound, currency, s.name)
	}
	return validateRate(s.name, currency, rate)
}

// FetchAll retorna la tabla completa de tasas
func (s *RatesTableSource) FetchAll(ctx context.Context) (map[string]float64, error) {
	var resp RatesTableResponse
	if err := s.client.GetJSON(ctx, s.url, "/latest", &resp); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", s.name, err)
	}
	if len(resp.Rates) == 0 {
		return nil, fmt.Errorf("%w: empty rates table from %s", ErrRateNotFound, s.name)
	}
	return resp.Rates, nil
}
