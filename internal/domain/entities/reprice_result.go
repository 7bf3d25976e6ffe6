package entities

import "time"

// RepriceOutcome clasifica el resultado de un ciclo de reprice de un listing
type RepriceOutcome string

const (
	OutcomeUpdated        RepriceOutcome = "updated"
	OutcomeUnchanged      RepriceOutcome = "unchanged"
	OutcomeCatalogFailed  RepriceOutcome = "catalog_unavailable"
	OutcomeCalcFailed     RepriceOutcome = "calculation_failed"
	OutcomeListingRemoved RepriceOutcome = "listing_removed"
	OutcomeWriteFailed    RepriceOutcome = "write_failed"
	OutcomeSkipped        RepriceOutcome = "skipped"
)

// RepriceResult describe lo ocurrido con un listing; se emite al canal de estado
type RepriceResult struct {
	ListingID       string         `json:"listing_id"`
	CatalogItem     string         `json:"catalog_item"`
	Outcome         RepriceOutcome `json:"outcome"`
	Reason          string         `json:"reason,omitempty"`
	CatalogPrice    float64        `json:"catalog_price,omitempty"`
	CalculatedPrice float64        `json:"calculated_price,omitempty"`
	OldPrice        float64        `json:"old_price,omitempty"`
	NewPrice        float64        `json:"new_price,omitempty"`
	Currency        string         `json:"currency,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
}

// Succeeded: updated y unchanged cuentan como éxito
func (r RepriceResult) Succeeded() bool {
	return r.Outcome == OutcomeUpdated || r.Outcome == OutcomeUnchanged
}

// RepriceSummary es el agregado devuelto por reprice_all
type RepriceSummary struct {
	Total   int             `json:"total"`
	Updated int             `json:"updated"`
	Failed  int             `json:"failed"`
	Results []RepriceResult `json:"results,omitempty"`
}

// Add acumula un resultado en el resumen
func (s *RepriceSummary) Add(result RepriceResult) {
	s.Total++
	if result.Succeeded() {
		s.Updated++
	} else {
		s.Failed++
	}
	s.Results = append(s.Results, result)
}

// Snapshot es el estado persistido: listings y settings globales
type Snapshot struct {
	Listings map[string]*Listing `json:"listings"`
	Settings GlobalSettings      `json:"settings"`
	SavedAt  time.Time           `json:"saved_at"`
}
