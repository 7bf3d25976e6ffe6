package account

import (
	"context"
	"errors"
	"fmt"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"listing-repricer/internal/infrastructure/restclient"
	"net/http"
	"net/url"
	"strings"
)

const serviceName = "account"

// HTTPClient implementa interfaces.AccountClient contra la API REST de la cuenta.
// GET /lots/{id} lee los campos del lote y PUT /lots/{id} los reescribe con el precio nuevo.
type HTTPClient struct {
	baseURL string
	rest    *restclient.Client
}

var _ interfaces.AccountClient = (*HTTPClient)(nil)

// NewHTTPClient crea el cliente; apiKey vacío omite el header de autenticación
func NewHTTPClient(baseURL, apiKey string, cfg restclient.Config) *HTTPClient {
	return NewHTTPClientWithRest(baseURL, restclient.New(withAuth(cfg, apiKey)))
}

// NewHTTPClientWithRest permite inyectar el restclient (tests)
func NewHTTPClientWithRest(baseURL string, rest *restclient.Client) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		rest:    rest,
	}
}

func withAuth(cfg restclient.Config, apiKey string) restclient.Config {
	if cfg.Service == "" {
		cfg.Service = serviceName
	}
	if apiKey == "" {
		return cfg
	}
	headers := make(map[string]string, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	headers["Authorization"] = "Bearer " + apiKey
	cfg.Headers = headers
	return cfg
}

// GetListing obtiene los campos actuales del lote
func (c *HTTPClient) GetListing(ctx context.Context, id string) (*interfaces.AccountListing, error) {
	var listing interfaces.AccountListing
	if err := c.rest.GetJSON(ctx, c.lotURL(id), "/lots/{id}", &listing); err != nil {
		return nil, mapError(id, err)
	}
	if listing.ID == "" {
		listing.ID = id
	}
	return &listing, nil
}

// SetPrice reescribe el lote con el precio nuevo conservando el resto de los campos
func (c *HTTPClient) SetPrice(ctx context.Context, listing *interfaces.AccountListing, newPrice float64) error {
	if listing == nil || listing.ID == "" {
		return fmt.Errorf("%w: listing fields are required", entities.ErrInvalidInput)
	}
	if newPrice <= 0 {
		return fmt.Errorf("%w: price must be positive, got %.2f", entities.ErrInvalidInput, newPrice)
	}

	payload := *listing
	payload.Price = newPrice

	if err := c.rest.SendJSON(ctx, http.MethodPut, c.lotURL(listing.ID), "/lots/{id}", payload, nil); err != nil {
		return mapError(listing.ID, err)
	}
	return nil
}

func (c *HTTPClient) lotURL(id string) string {
	return fmt.Sprintf("%s/lots/%s", c.baseURL, url.PathEscape(id))
}

// mapError traduce 404 al error terminal del dominio
func mapError(id string, err error) error {
	if errors.Is(err, restclient.ErrNotFound) {
		return fmt.Errorf("lot %s: %w", id, entities.ErrListingGone)
	}
	return fmt.Errorf("lot %s: %w", id, err)
}
