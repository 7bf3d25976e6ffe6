package memory

import (
	"fmt"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"sort"
	"sync"
	"time"
)

// ListingStore guarda los listings gestionados y el último chequeo de cada uno.
// Los lectores reciben copias; las mutaciones pasan por Update bajo el lock.
type ListingStore struct {
	mu        sync.RWMutex
	listings  map[string]*entities.Listing
	lastCheck map[string]time.Time
}

var _ interfaces.ListingStore = (*ListingStore)(nil)

// NewListingStore crea un store vacío
func NewListingStore() *ListingStore {
	return &ListingStore{
		listings:  make(map[string]*entities.Listing),
		lastCheck: make(map[string]time.Time),
	}
}

// Get retorna una copia del listing
func (s *ListingStore) Get(id string) (*entities.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, ok := s.listings[id]
	if !ok {
		return nil, false
	}
	return listing.Clone(), true
}

// List retorna copias de todos los listings ordenadas por fecha de creación e ID
func (s *ListingStore) List() []*entities.Listing {
	s.mu.RLock()
	out := make([]*entities.Listing, 0, len(s.listings))
	for _, listing := range s.listings {
		out = append(out, listing.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Put inserta o reemplaza un listing
func (s *ListingStore) Put(listing *entities.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[listing.ID] = listing.Clone()
}

// Update aplica fn sobre el listing bajo el lock; si fn falla no se guarda nada
func (s *ListingStore) Update(id string, fn func(l *entities.Listing) error) (*entities.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.listings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entities.ErrListingNotFound, id)
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.ID = id
	s.listings[id] = working
	return working.Clone(), nil
}

// Remove elimina el listing y su marca de chequeo; es idempotente
func (s *ListingStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.listings[id]
	delete(s.listings, id)
	delete(s.lastCheck, id)
	return ok
}

// LastCheck retorna el último chequeo o el zero time si nunca se chequeó
func (s *ListingStore) LastCheck(id string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCheck[id]
}

// MarkChecked registra el momento del chequeo de un listing existente
func (s *ListingStore) MarkChecked(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[id]; ok {
		s.lastCheck[id] = at
	}
}

// Replace reemplaza todo el contenido (carga desde persistencia)
func (s *ListingStore) Replace(listings map[string]*entities.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listings = make(map[string]*entities.Listing, len(listings))
	s.lastCheck = make(map[string]time.Time, len(listings))
	for id, listing := range listings {
		if listing == nil {
			continue
		}
		clone := listing.Clone()
		clone.ID = id
		s.listings[id] = clone
		// el último update persistido cuenta como chequeo para no repricear todo al arrancar
		if listing.LastUpdateTime != nil {
			s.lastCheck[id] = *listing.LastUpdateTime
		}
	}
}

// Len retorna la cantidad de listings
func (s *ListingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listings)
}

// Export retorna una copia del mapa para construir snapshots
func (s *ListingStore) Export() map[string]*entities.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*entities.Listing, len(s.listings))
	for id, listing := range s.listings {
		out[id] = listing.Clone()
	}
	return out
}
