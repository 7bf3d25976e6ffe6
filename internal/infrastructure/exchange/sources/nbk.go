package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"listing-repricer/internal/infrastructure/restclient"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// NBKSource lee el feed RSS del Banco Nacional de Kazajistán (KZT por USD)
type NBKSource struct {
	baseURL string
	client  *restclient.Client
	now     func() time.Time
}

func NewNBKSource(baseURL string, client *restclient.Client) *NBKSource {
	return &NBKSource{baseURL: baseURL, client: client, now: time.Now}
}

func (s *NBKSource) Name() string {
	return "nbk"
}

func (s *NBKSource) FetchRate(ctx context.Context, currency string) (float64, error) {
	if !strings.EqualFold(currency, "KZT") {
		return 0, fmt.Errorf("%w: nbk serves KZT only, got %s", ErrUnsupportedCurrency, currency)
	}

	var feed NBKFeed
	req := restclient.Request{Method: http.MethodGet, URL: s.feedURL(), Endpoint: "/get_rates"}
	err := s.client.Do(ctx, req, func(body io.Reader) error {
		return xml.NewDecoder(body).Decode(&feed)
	})
	if err != nil {
		return 0, fmt.Errorf("nbk request failed: %w", err)
	}

	for _, item := range feed.Items {
		if !strings.Contains(strings.ToUpper(item.Title), "USD") {
			continue
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(item.Description), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: nbk description %q: %v", ErrInvalidRate, item.Description, err)
		}
		if quant, err := strconv.ParseFloat(strings.TrimSpace(item.Quant), 64); err == nil && quant > 1 {
			rate /= quant
		}
		return validateRate(s.Name(), currency, rate)
	}

	return 0, fmt.Errorf("%w: USD item missing from nbk feed", ErrRateNotFound)
}

// feedURL agrega fdate=dd.mm.yyyy con la fecha actual
func (s *NBKSource) feedURL() string {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return s.baseURL
	}
	q := u.Query()
	q.Set("fdate", s.now().Format("02.01.2006"))
	u.RawQuery = q.Encode()
	return u.String()
}
