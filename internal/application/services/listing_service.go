package services

import (
	"context"
	"errors"
	"fmt"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"listing-repricer/internal/infrastructure/logging"
	"listing-repricer/internal/infrastructure/metrics"
	"listing-repricer/internal/infrastructure/repositories/persistence"
	"strings"
	"time"
)

// AddListingInput son los datos que el operador envía para dar de alta un listing
type AddListingInput struct {
	ID              string
	CatalogItem     string
	CatalogCurrency string
	MinPrice        float64
	MaxPrice        float64
}

// ListingService implementa las operaciones de administración:
// alta, baja, activación de listings y actualización de settings.
type ListingService struct {
	listings          interfaces.ListingStore
	settings          interfaces.SettingsStore
	catalog           interfaces.CatalogPriceProvider
	persistence       interfaces.Persistence
	catalogCurrencies []string
	accountCurrencies []string
	defaultSettings   entities.GlobalSettings
}

func NewListingService(
	listings interfaces.ListingStore,
	settings interfaces.SettingsStore,
	catalog interfaces.CatalogPriceProvider,
	persistence interfaces.Persistence,
	catalogCurrencies, accountCurrencies []string,
) *ListingService {
	return &ListingService{
		listings:          listings,
		settings:          settings,
		catalog:           catalog,
		persistence:       persistence,
		catalogCurrencies: catalogCurrencies,
		accountCurrencies: accountCurrencies,
		defaultSettings:   settings.Get(),
	}
}

// Restore carga el snapshot persistido; sin snapshot se arranca con los defaults
func (s *ListingService) Restore(ctx context.Context) error {
	if s.persistence == nil {
		return nil
	}

	snapshot, err := s.persistence.Load(ctx)
	if errors.Is(err, persistence.ErrSnapshotNotFound) {
		logging.Info(ctx, "No persisted state found, starting empty", nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load persisted state: %w", err)
	}

	s.listings.Replace(snapshot.Listings)

	settings := snapshot.Settings.Normalize()
	if err := settings.Validate(s.accountCurrencies); err != nil {
		logging.WarnWithError(ctx, "Persisted settings are invalid, keeping configured defaults", err, nil)
	} else {
		s.settings.Set(settings)
	}

	stats := entities.ComputeListingStats(s.listings.List())
	metrics.UpdateListingCounts(stats.Total, stats.Active, stats.WithPrices)
	logging.Info(ctx, "Persisted state restored", logging.Fields{
		"listings": stats.Total,
		"active":   stats.Active,
		"saved_at": snapshot.SavedAt.Format(time.RFC3339),
	})
	return nil
}

// AddListing valida y registra un listing nuevo habilitado
func (s *ListingService) AddListing(ctx context.Context, in AddListingInput) (*entities.Listing, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: listing id cannot be empty", entities.ErrInvalidInput)
	}
	if _, exists := s.listings.Get(id); exists {
		return nil, fmt.Errorf("%w: %s", entities.ErrListingExists, id)
	}

	item, err := entities.ParseCatalogItemKey(in.CatalogItem)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(in.CatalogCurrency))
	if len(s.catalogCurrencies) > 0 && !containsFold(s.catalogCurrencies, currency) {
		return nil, fmt.Errorf("%w: unsupported catalog currency %q (supported: %s)",
			entities.ErrInvalidInput, in.CatalogCurrency, strings.Join(s.catalogCurrencies, ","))
	}

	listing, err := entities.NewListing(id, item, currency, in.MinPrice, in.MaxPrice)
	if err != nil {
		return nil, err
	}
	if s.catalog != nil {
		listing.DisplayName = s.catalog.GetDisplayName(ctx, item)
	}

	s.listings.Put(listing)
	s.save(ctx)

	logging.Info(ctx, "Listing added", logging.NewFieldBuilder().
		WithListing(listing.ID, item.String()).
		WithCustomField(logging.FieldCurrency, currency).
		WithCustomField("min_price", listing.MinPrice).
		WithCustomField("max_price", listing.MaxPrice).
		Build())
	return listing, nil
}

// GetListing retorna un listing o ErrListingNotFound
func (s *ListingService) GetListing(id string) (*entities.Listing, error) {
	listing, ok := s.listings.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrListingNotFound, id)
	}
	return listing, nil
}

// ListListings retorna todos los listings con sus estadísticas
func (s *ListingService) ListListings() ([]*entities.Listing, entities.ListingStats) {
	listings := s.listings.List()
	return listings, entities.ComputeListingStats(listings)
}

// RemoveListing deja de gestionar un listing
func (s *ListingService) RemoveListing(ctx context.Context, id string) error {
	if !s.listings.Remove(id) {
		return fmt.Errorf("%w: %s", entities.ErrListingNotFound, id)
	}
	s.save(ctx)
	logging.Info(ctx, "Listing removed", logging.Fields{logging.FieldListingID: id})
	return nil
}

// ToggleListing invierte el flag enabled y retorna el listing actualizado
func (s *ListingService) ToggleListing(ctx context.Context, id string) (*entities.Listing, error) {
	listing, err := s.listings.Update(id, func(l *entities.Listing) error {
		l.Enabled = !l.Enabled
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.save(ctx)

	logging.Info(ctx, "Listing toggled", logging.Fields{
		logging.FieldListingID: id,
		"enabled":              listing.Enabled,
	})
	return listing, nil
}

// UpdateListingBounds cambia los precios mínimo y máximo de un listing
func (s *ListingService) UpdateListingBounds(ctx context.Context, id string, minPrice, maxPrice float64) (*entities.Listing, error) {
	if err := entities.ValidatePriceBounds(minPrice, maxPrice); err != nil {
		return nil, err
	}
	listing, err := s.listings.Update(id, func(l *entities.Listing) error {
		l.MinPrice = minPrice
		l.MaxPrice = maxPrice
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.save(ctx)
	return listing, nil
}

// Settings retorna los settings vigentes
func (s *ListingService) Settings() entities.GlobalSettings {
	return s.settings.Get()
}

// UpdateSettings valida y reemplaza los settings globales
func (s *ListingService) UpdateSettings(ctx context.Context, settings entities.GlobalSettings) (entities.GlobalSettings, error) {
	settings = settings.Normalize()
	if err := settings.Validate(s.accountCurrencies); err != nil {
		return entities.GlobalSettings{}, err
	}

	s.settings.Set(settings)
	s.save(ctx)

	logging.Info(ctx, "Global settings updated", logging.Fields{
		"account_currency": settings.AccountCurrency,
		"recheck_interval": settings.RecheckInterval.String(),
		"markup_margin":    settings.MarkupMarginPct,
	})
	return settings, nil
}

// ResetSettings vuelve a los settings de configuración
func (s *ListingService) ResetSettings(ctx context.Context) entities.GlobalSettings {
	s.settings.Set(s.defaultSettings)
	s.save(ctx)
	return s.settings.Get()
}

// Ping verifica el backend de persistencia (readiness)
func (s *ListingService) Ping(ctx context.Context) error {
	if s.persistence == nil {
		return nil
	}
	return s.persistence.Ping(ctx)
}

func (s *ListingService) save(ctx context.Context) {
	if s.persistence == nil {
		return
	}

	snapshot := buildSnapshot(s.listings, s.settings, time.Now())

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	if err := s.persistence.Save(saveCtx, snapshot); err != nil {
		logging.ErrorWithError(ctx, "Failed to persist state", err, nil)
	}
}

func containsFold(list []string, value string) bool {
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// buildSnapshot arma el estado persistible a partir de los stores
func buildSnapshot(listings interfaces.ListingStore, settings interfaces.SettingsStore, at time.Time) *entities.Snapshot {
	all := listings.List()
	snapshot := &entities.Snapshot{
		Listings: make(map[string]*entities.Listing, len(all)),
		Settings: settings.Get(),
		SavedAt:  at,
	}
	for _, l := range all {
		snapshot.Listings[l.ID] = l
	}
	return snapshot
}
