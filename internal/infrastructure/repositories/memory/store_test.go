package memory

import (
	"errors"
	"fmt"
	"listing-repricer/internal/domain/entities"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestListing(t *testing.T, id string) *entities.Listing {
	t.Helper()
	key, err := entities.ParseCatalogItemKey("570")
	require.NoError(t, err)
	listing, err := entities.NewListing(id, key, "UAH", 1, 100)
	require.NoError(t, err)
	return listing
}

func TestListingStore_GetReturnsCopy(t *testing.T) {
	store := NewListingStore()
	store.Put(newTestListing(t, "lot-1"))

	got, ok := store.Get("lot-1")
	require.True(t, ok)
	got.MinPrice = 99

	again, _ := store.Get("lot-1")
	assert.Equal(t, 1.0, again.MinPrice)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestListingStore_Update(t *testing.T) {
	store := NewListingStore()
	store.Put(newTestListing(t, "lot-1"))

	updated, err := store.Update("lot-1", func(l *entities.Listing) error {
		l.Enabled = false
		return nil
	})
	require.NoError(t, err)
	assert.False(t, updated.Enabled)

	boom := errors.New("boom")
	_, err = store.Update("lot-1", func(l *entities.Listing) error {
		l.Enabled = true
		return boom
	})
	assert.ErrorIs(t, err, boom)
	current, _ := store.Get("lot-1")
	assert.False(t, current.Enabled, "failed update must not be stored")

	_, err = store.Update("missing", func(l *entities.Listing) error { return nil })
	assert.ErrorIs(t, err, entities.ErrListingNotFound)
}

func TestListingStore_RemoveIsIdempotent(t *testing.T) {
	store := NewListingStore()
	store.Put(newTestListing(t, "lot-1"))
	store.MarkChecked("lot-1", time.Now())

	assert.True(t, store.Remove("lot-1"))
	assert.False(t, store.Remove("lot-1"))
	assert.True(t, store.LastCheck("lot-1").IsZero())
	assert.Equal(t, 0, store.Len())
}

func TestListingStore_MarkCheckedIgnoresUnknown(t *testing.T) {
	store := NewListingStore()
	store.MarkChecked("ghost", time.Now())
	assert.True(t, store.LastCheck("ghost").IsZero())
}

func TestListingStore_ReplaceSeedsLastCheck(t *testing.T) {
	updatedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	withUpdate := newTestListing(t, "lot-1")
	withUpdate.RecordApplied(100, 3.5, updatedAt)

	store := NewListingStore()
	store.Replace(map[string]*entities.Listing{
		"lot-1": withUpdate,
		"lot-2": newTestListing(t, "lot-2"),
		"nil":   nil,
	})

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, updatedAt, store.LastCheck("lot-1"))
	assert.True(t, store.LastCheck("lot-2").IsZero())

	exported := store.Export()
	assert.Len(t, exported, 2)
	assert.Equal(t, 3.5, *exported["lot-1"].LastAppliedPrice)
}

func TestListingStore_ListIsOrdered(t *testing.T) {
	store := NewListingStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"c", "a", "b"} {
		l := newTestListing(t, id)
		l.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		store.Put(l)
	}

	var ids []string
	for _, l := range store.List() {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestListingStore_ConcurrentUpdates(t *testing.T) {
	store := NewListingStore()
	store.Put(newTestListing(t, "lot-1"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = store.Update("lot-1", func(l *entities.Listing) error {
				l.DisplayName = fmt.Sprintf("name-%d", i)
				return nil
			})
			store.List()
		}(i)
	}
	wg.Wait()

	got, ok := store.Get("lot-1")
	require.True(t, ok)
	assert.NotEmpty(t, got.DisplayName)
}

func TestSettingsStore(t *testing.T) {
	store := NewSettingsStore(entities.DefaultGlobalSettings())
	assert.Equal(t, "USD", store.Get().AccountCurrency)

	settings := store.Get()
	settings.AccountCurrency = " eur "
	store.Set(settings)
	assert.Equal(t, "EUR", store.Get().AccountCurrency)
}
