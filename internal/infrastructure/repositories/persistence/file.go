package persistence

import (
	"context"
	"errors"
	"fmt"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"listing-repricer/internal/infrastructure/metrics"
	"os"
	"path/filepath"
	"sync"
)

// FileStore guarda el snapshot como un único archivo JSON.
// Save escribe a un temporal y hace rename para que un crash no deje el archivo a medias.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ interfaces.Persistence = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load(_ context.Context) (*entities.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		metrics.RecordPersistenceOperation(string(BackendFile), "load", nil)
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		metrics.RecordPersistenceOperation(string(BackendFile), "load", err)
		return nil, fmt.Errorf("failed to read state file %s: %w", f.path, err)
	}

	snapshot, err := decodeSnapshot(data)
	metrics.RecordPersistenceOperation(string(BackendFile), "load", err)
	return snapshot, err
}

func (f *FileStore) Save(_ context.Context, snapshot *entities.Snapshot) error {
	err := f.save(snapshot)
	metrics.RecordPersistenceOperation(string(BackendFile), "save", err)
	return err
}

func (f *FileStore) save(snapshot *entities.Snapshot) error {
	data, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op si el rename ya se hizo
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace state file %s: %w", f.path, err)
	}
	return nil
}

// Ping verifica que el directorio del archivo sea accesible
func (f *FileStore) Ping(_ context.Context) error {
	dir := filepath.Dir(f.path)
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("state path parent %s is not a directory", dir)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }
