package memory

import (
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"sync"
)

// SettingsStore guarda los GlobalSettings vigentes
type SettingsStore struct {
	mu       sync.RWMutex
	settings entities.GlobalSettings
}

var _ interfaces.SettingsStore = (*SettingsStore)(nil)

func NewSettingsStore(initial entities.GlobalSettings) *SettingsStore {
	return &SettingsStore{settings: initial.Normalize()}
}

func (s *SettingsStore) Get() entities.GlobalSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *SettingsStore) Set(settings entities.GlobalSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings.Normalize()
}
