package entities

import "errors"

// Taxonomía de errores del dominio de repricing
var (
	// ErrInvalidInput se rechaza de forma síncrona y nunca se reintenta
	ErrInvalidInput = errors.New("invalid input")
	// ErrTransientSource cubre timeouts, respuestas no-OK y errores de parseo
	ErrTransientSource = errors.New("transient source failure")
	// ErrDataInconsistency marca tasas o precios no positivos donde se requiere un valor positivo
	ErrDataInconsistency = errors.New("data inconsistency")
	// ErrEntityGone es terminal: el colaborador externo reporta que la entidad ya no existe
	ErrEntityGone = errors.New("entity gone")
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrListingDisabled = errors.New("listing disabled")
	ErrListingExists   = errors.New("listing already exists")
	ErrListingGone     = ErrEntityGone
)
