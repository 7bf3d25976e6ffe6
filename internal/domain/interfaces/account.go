package interfaces

import "context"

// AccountListing son los campos del lote tal como los expone la API de la cuenta
type AccountListing struct {
	ID       string                 `json:"id"`
	Price    float64                `json:"price"`
	Currency string                 `json:"currency,omitempty"`
	Active   bool                   `json:"active"`
	Fields   map[string]interface{} `json:"fields,omitempty"`
}

// AccountClient escribe precios en la cuenta del vendedor.
// Ambos métodos devuelven entities.ErrListingGone cuando el lote ya no existe.
type AccountClient interface {
	GetListing(ctx context.Context, id string) (*AccountListing, error)
	SetPrice(ctx context.Context, listing *AccountListing, newPrice float64) error
}
