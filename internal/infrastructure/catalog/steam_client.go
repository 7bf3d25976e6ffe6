package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"listing-repricer/internal/infrastructure/restclient"
	"net/url"
	"strings"
)

const DefaultSteamBaseURL = "https://store.steampowered.com/api"

var (
	ErrMissingEntry   = errors.New("item missing from steam response")
	ErrMissingSuccess = errors.New("steam response without success flag")
	ErrMalformedData  = errors.New("malformed steam item data")
)

// SteamClient consulta la Steam Store API para apps (appdetails) y bundles (packagedetails)
type SteamClient struct {
	baseURL string
	client  *restclient.Client
}

var _ interfaces.CatalogClient = (*SteamClient)(nil)

func NewSteamClient(baseURL string, client *restclient.Client) *SteamClient {
	if baseURL == "" {
		baseURL = DefaultSteamBaseURL
	}
	return &SteamClient{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

// FetchQuote obtiene el precio final en unidades menores para la región indicada
func (s *SteamClient) FetchQuote(ctx context.Context, key entities.CatalogItemKey, region string) (*interfaces.CatalogQuote, error) {
	params := url.Values{}
	params.Set("cc", region)

	envelope, err := s.fetch(ctx, key, params, "price_overview")
	if err != nil {
		return nil, err
	}

	quote := &interfaces.CatalogQuote{Success: *envelope.Success}
	if !quote.Success {
		return quote, nil
	}

	price, name, err := decodeItemData(key, envelope.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrTransientSource, err)
	}
	quote.DisplayName = name
	if price != nil {
		final := price.Final
		quote.MinorUnits = &final
	}
	return quote, nil
}

// FetchDisplayName obtiene el nombre del item (filters=basic)
func (s *SteamClient) FetchDisplayName(ctx context.Context, key entities.CatalogItemKey) (string, error) {
	envelope, err := s.fetch(ctx, key, url.Values{}, "basic")
	if err != nil {
		return "", err
	}
	if !*envelope.Success {
		return "", fmt.Errorf("%w: steam reported no data for %s", entities.ErrTransientSource, key)
	}

	_, name, err := decodeItemData(key, envelope.Data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", entities.ErrTransientSource, err)
	}
	if name == "" {
		return "", fmt.Errorf("%w: empty name for %s", ErrMissingEntry, key)
	}
	return name, nil
}

func (s *SteamClient) fetch(ctx context.Context, key entities.CatalogItemKey, params url.Values, filter string) (*steamEnvelope, error) {
	endpoint := "/appdetails"
	idParam := "appids"
	if key.IsBundle() {
		endpoint = "/packagedetails"
		idParam = "packageids"
	}

	params.Set(idParam, key.ID)
	// packagedetails no soporta price_overview
	if !key.IsBundle() || filter == "basic" {
		params.Set("filters", filter)
	}
	requestURL := fmt.Sprintf("%s%s/?%s", s.baseURL, endpoint, params.Encode())

	var resp map[string]steamEnvelope
	if err := s.client.GetJSON(ctx, requestURL, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("steam %s for %s: %w", endpoint, key, err)
	}

	envelope, ok := resp[key.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", ErrMissingEntry, entities.ErrTransientSource, key)
	}
	if envelope.Success == nil {
		return nil, fmt.Errorf("%w: %w: %s", ErrMissingSuccess, entities.ErrTransientSource, key)
	}
	return &envelope, nil
}

// decodeItemData extrae precio y nombre; data puede venir como [] para items sin precio.
// Un objeto que no decodifica es un error, nunca un item gratuito.
func decodeItemData(key entities.CatalogItemKey, raw json.RawMessage) (*steamPrice, string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] == '[' || bytes.Equal(trimmed, []byte("null")) {
		return nil, "", nil
	}
	if trimmed[0] != '{' {
		return nil, "", fmt.Errorf("%w: unexpected data for %s", ErrMalformedData, key)
	}

	if key.IsBundle() {
		var data steamPackageData
		if err := json.Unmarshal(trimmed, &data); err != nil {
			return nil, "", fmt.Errorf("%w: %s: %w", ErrMalformedData, key, err)
		}
		return data.Price, data.Name, nil
	}

	var data steamAppData
	if err := json.Unmarshal(trimmed, &data); err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", ErrMalformedData, key, err)
	}
	return data.PriceOverview, data.Name, nil
}
