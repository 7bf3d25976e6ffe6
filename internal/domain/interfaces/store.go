package interfaces

import (
	"context"
	"listing-repricer/internal/domain/entities"
	"time"
)

// ListingStore es la colección compartida de listings gestionados
type ListingStore interface {
	Get(id string) (*entities.Listing, bool)
	List() []*entities.Listing
	Put(listing *entities.Listing)
	Update(id string, fn func(l *entities.Listing) error) (*entities.Listing, error)
	Remove(id string) bool
	LastCheck(id string) time.Time
	MarkChecked(id string, at time.Time)
	Replace(listings map[string]*entities.Listing)
	Len() int
}

// SettingsStore guarda los settings globales vigentes
type SettingsStore interface {
	Get() entities.GlobalSettings
	Set(settings entities.GlobalSettings)
}

// Persistence carga y guarda el snapshot de estado; el formato es opaco al core
type Persistence interface {
	Load(ctx context.Context) (*entities.Snapshot, error)
	Save(ctx context.Context, snapshot *entities.Snapshot) error
	Ping(ctx context.Context) error
	Close() error
}

// EventPublisher recibe cada resultado de reprice para el canal de estado
type EventPublisher interface {
	Publish(ctx context.Context, result entities.RepriceResult) error
}
