package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"listing-repricer/internal/domain/entities"
)

// ErrSnapshotNotFound indica que el backend todavía no tiene estado guardado
var ErrSnapshotNotFound = errors.New("snapshot not found")

func encodeSnapshot(snapshot *entities.Snapshot) ([]byte, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("%w: nil snapshot", entities.ErrInvalidInput)
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (*entities.Snapshot, error) {
	var snapshot entities.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: failed to decode snapshot: %v", entities.ErrDataInconsistency, err)
	}
	if snapshot.Listings == nil {
		snapshot.Listings = make(map[string]*entities.Listing)
	}
	// el id del mapa manda sobre el del valor
	for id, listing := range snapshot.Listings {
		if listing == nil {
			delete(snapshot.Listings, id)
			continue
		}
		listing.ID = id
	}
	return &snapshot, nil
}
