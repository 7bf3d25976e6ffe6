package entities

import (
	"fmt"
	"strings"
)

// CatalogItemKind distingue productos individuales de bundles en el catálogo
type CatalogItemKind string

const (
	CatalogItemSingle CatalogItemKind = "app"
	CatalogItemBundle CatalogItemKind = "sub"
)

// BundlePrefix es el prefijo del identificador crudo de un bundle (ej: "sub_12345")
const BundlePrefix = "sub_"

// CatalogItemKey identifica un item del catálogo externo
type CatalogItemKey struct {
	Kind CatalogItemKind `json:"kind"`
	ID   string          `json:"id"`
}

// ParseCatalogItemKey interpreta un identificador crudo: "sub_<digits>" es un bundle,
// "<digits>" es un producto individual.
func ParseCatalogItemKey(raw string) (CatalogItemKey, error) {
	raw = strings.TrimSpace(raw)

	key := CatalogItemKey{Kind: CatalogItemSingle, ID: raw}
	if strings.HasPrefix(raw, BundlePrefix) {
		key = CatalogItemKey{Kind: CatalogItemBundle, ID: strings.TrimPrefix(raw, BundlePrefix)}
	}

	if !key.IsValid() {
		return CatalogItemKey{}, fmt.Errorf("%w: malformed catalog item identifier %q", ErrInvalidInput, raw)
	}

	return key, nil
}

// IsValid reports whether the numeric id is non-empty and all digits.
func (k CatalogItemKey) IsValid() bool {
	if k.Kind != CatalogItemSingle && k.Kind != CatalogItemBundle {
		return false
	}
	if k.ID == "" {
		return false
	}
	for _, r := range k.ID {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsBundle indica si el item es un bundle
func (k CatalogItemKey) IsBundle() bool {
	return k.Kind == CatalogItemBundle
}

// String devuelve la forma cruda del identificador
func (k CatalogItemKey) String() string {
	if k.IsBundle() {
		return BundlePrefix + k.ID
	}
	return k.ID
}
