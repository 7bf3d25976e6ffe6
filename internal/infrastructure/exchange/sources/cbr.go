package sources

import (
	"context"
	"fmt"
	"listing-repricer/internal/infrastructure/restclient"
	"strings"
)

// CBRSource consulta el tipo RUB/USD del Banco Central de Rusia
type CBRSource struct {
	url    string
	client *restclient.Client
}

func NewCBRSource(url string, client *restclient.Client) *CBRSource {
	return &CBRSource{url: url, client: client}
}

func (s *CBRSource) Name() string {
	return "cbr"
}

func (s *CBRSource) FetchRate(ctx context.Context, currency string) (float64, error) {
	if !strings.EqualFold(currency, "RUB") {
		return 0, fmt.Errorf("%w: cbr serves RUB only, got %s", ErrUnsupportedCurrency, currency)
	}

	var resp CBRResponse
	if err := s.client.GetJSON(ctx, s.url, "/daily_json", &resp); err != nil {
		return 0, fmt.Errorf("cbr request failed: %w", err)
	}

	usd, ok := resp.Valute["USD"]
	if !ok {
		return 0, fmt.Errorf("%w: USD missing from cbr response", ErrRateNotFound)
	}

	rate := usd.Value
	if usd.Nominal > 1 {
		rate = usd.Value / usd.Nominal
	}
	return validateRate(s.Name(), currency, rate)
}
