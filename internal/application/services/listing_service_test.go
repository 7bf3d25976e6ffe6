package services

import (
	"context"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/infrastructure/repositories/memory"
	"listing-repricer/internal/infrastructure/repositories/persistence"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newListingService(store *persistence.MemoryStore) (*ListingService, *memory.ListingStore, *memory.SettingsStore) {
	listings := memory.NewListingStore()
	settings := memory.NewSettingsStore(entities.DefaultGlobalSettings())
	svc := NewListingService(listings, settings, newScriptedCatalog(), store,
		[]string{"UAH", "KZT", "RUB", "USD", "EUR"}, []string{"USD", "RUB", "EUR"})
	return svc, listings, settings
}

func TestListingService_AddListing(t *testing.T) {
	tests := []struct {
		name    string
		input   AddListingInput
		wantErr error
	}{
		{
			name:  "single item",
			input: AddListingInput{ID: "100", CatalogItem: "570", CatalogCurrency: "uah", MinPrice: 1, MaxPrice: 10},
		},
		{
			name:  "bundle",
			input: AddListingInput{ID: "101", CatalogItem: "sub_42", CatalogCurrency: "KZT", MinPrice: 1, MaxPrice: 1},
		},
		{
			name:    "malformed item",
			input:   AddListingInput{ID: "102", CatalogItem: "sub_x", CatalogCurrency: "UAH", MinPrice: 1, MaxPrice: 10},
			wantErr: entities.ErrInvalidInput,
		},
		{
			name:    "max below min",
			input:   AddListingInput{ID: "103", CatalogItem: "570", CatalogCurrency: "UAH", MinPrice: 10, MaxPrice: 5},
			wantErr: entities.ErrInvalidInput,
		},
		{
			name:    "zero min",
			input:   AddListingInput{ID: "104", CatalogItem: "570", CatalogCurrency: "UAH", MinPrice: 0, MaxPrice: 5},
			wantErr: entities.ErrInvalidInput,
		},
		{
			name:    "unsupported currency",
			input:   AddListingInput{ID: "105", CatalogItem: "570", CatalogCurrency: "GBP", MinPrice: 1, MaxPrice: 5},
			wantErr: entities.ErrInvalidInput,
		},
		{
			name:    "empty id",
			input:   AddListingInput{CatalogItem: "570", CatalogCurrency: "UAH", MinPrice: 1, MaxPrice: 5},
			wantErr: entities.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := persistence.NewMemoryStore()
			svc, listings, _ := newListingService(store)

			listing, err := svc.AddListing(context.Background(), tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 0, listings.Len())
				assert.Equal(t, 0, store.Saves())
				return
			}

			require.NoError(t, err)
			assert.True(t, listing.Enabled)
			assert.Equal(t, "Steam "+tt.input.CatalogItem, listing.DisplayName)
			assert.Equal(t, 1, listings.Len())
			assert.Equal(t, 1, store.Saves())
		})
	}
}

func TestListingService_AddDuplicate(t *testing.T) {
	svc, _, _ := newListingService(persistence.NewMemoryStore())
	input := AddListingInput{ID: "1", CatalogItem: "570", CatalogCurrency: "UAH", MinPrice: 1, MaxPrice: 10}

	_, err := svc.AddListing(context.Background(), input)
	require.NoError(t, err)
	_, err = svc.AddListing(context.Background(), input)
	assert.ErrorIs(t, err, entities.ErrListingExists)
}

func TestListingService_ToggleRemoveAndBounds(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newListingService(persistence.NewMemoryStore())
	_, err := svc.AddListing(ctx, AddListingInput{ID: "1", CatalogItem: "570", CatalogCurrency: "UAH", MinPrice: 1, MaxPrice: 10})
	require.NoError(t, err)

	toggled, err := svc.ToggleListing(ctx, "1")
	require.NoError(t, err)
	assert.False(t, toggled.Enabled)

	toggled, err = svc.ToggleListing(ctx, "1")
	require.NoError(t, err)
	assert.True(t, toggled.Enabled)

	_, err = svc.UpdateListingBounds(ctx, "1", 5, 2)
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
	updated, err := svc.UpdateListingBounds(ctx, "1", 2, 20)
	require.NoError(t, err)
	assert.Equal(t, 20.0, updated.MaxPrice)

	_, stats := svc.ListListings()
	assert.Equal(t, entities.ListingStats{Total: 1, Active: 1}, stats)

	require.NoError(t, svc.RemoveListing(ctx, "1"))
	assert.ErrorIs(t, svc.RemoveListing(ctx, "1"), entities.ErrListingNotFound)
	_, err = svc.ToggleListing(ctx, "1")
	assert.ErrorIs(t, err, entities.ErrListingNotFound)
	_, err = svc.GetListing("1")
	assert.ErrorIs(t, err, entities.ErrListingNotFound)
}

func TestListingService_UpdateSettings(t *testing.T) {
	ctx := context.Background()
	svc, _, settings := newListingService(persistence.NewMemoryStore())

	next := entities.DefaultGlobalSettings()
	next.AccountCurrency = "rub"
	next.MarkupMarginPct = 10
	next.RecheckInterval = time.Hour

	updated, err := svc.UpdateSettings(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, "RUB", updated.AccountCurrency)
	assert.Equal(t, "RUB", settings.Get().AccountCurrency)

	invalid := next
	invalid.AccountCurrency = "UAH"
	_, err = svc.UpdateSettings(ctx, invalid)
	assert.ErrorIs(t, err, entities.ErrInvalidInput)

	invalid = next
	invalid.GlobalMaxPrice = 0.5
	_, err = svc.UpdateSettings(ctx, invalid)
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
	assert.Equal(t, 10.0, settings.Get().MarkupMarginPct, "rejected update leaves settings untouched")

	reset := svc.ResetSettings(ctx)
	assert.Equal(t, entities.DefaultGlobalSettings(), reset)
}

func TestListingService_Restore(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewMemoryStore()

	// sin snapshot arranca vacío
	svc, listings, _ := newListingService(store)
	require.NoError(t, svc.Restore(ctx))
	assert.Equal(t, 0, listings.Len())

	_, err := svc.AddListing(ctx, AddListingInput{ID: "1", CatalogItem: "570", CatalogCurrency: "UAH", MinPrice: 1, MaxPrice: 10})
	require.NoError(t, err)
	custom := entities.DefaultGlobalSettings()
	custom.MarkupFixedAmount = 2
	_, err = svc.UpdateSettings(ctx, custom)
	require.NoError(t, err)

	restored, restoredListings, restoredSettings := newListingService(store)
	require.NoError(t, restored.Restore(ctx))
	assert.Equal(t, 1, restoredListings.Len())
	assert.Equal(t, 2.0, restoredSettings.Get().MarkupFixedAmount)
	assert.NoError(t, restored.Ping(ctx))
}
