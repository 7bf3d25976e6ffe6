package events

import (
	"context"
	"listing-repricer/internal/domain/entities"
	"time"

	"github.com/google/uuid"
)

// EventTypeReprice es el tipo de los eventos emitidos por cada reprice
const EventTypeReprice = "reprice.result"

// Event es el envelope que viaja a websocket y kafka
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Result    entities.RepriceResult `json:"result"`
}

// NewRepriceEvent envuelve un resultado con un id único
func NewRepriceEvent(result entities.RepriceResult) Event {
	ts := result.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      EventTypeReprice,
		Timestamp: ts,
		Result:    result,
	}
}

// Sink es un destino de eventos
type Sink interface {
	Name() string
	Send(ctx context.Context, event Event) error
	Close() error
}
