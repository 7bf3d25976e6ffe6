package events

import (
	"context"
	"errors"
	"fmt"
	"listing-repricer/internal/domain/entities"
	"listing-repricer/internal/domain/interfaces"
	"listing-repricer/internal/infrastructure/logging"
	"listing-repricer/internal/infrastructure/metrics"
)

// Notifier reparte cada RepriceResult a todos los sinks configurados.
// Un sink que falla no impide la entrega a los demás.
type Notifier struct {
	sinks []Sink
}

var _ interfaces.EventPublisher = (*Notifier)(nil)

func NewNotifier(sinks ...Sink) *Notifier {
	n := &Notifier{}
	for _, s := range sinks {
		if s != nil {
			n.sinks = append(n.sinks, s)
		}
	}
	return n
}

// Publish envía el resultado a cada sink y junta los errores
func (n *Notifier) Publish(ctx context.Context, result entities.RepriceResult) error {
	if len(n.sinks) == 0 {
		return nil
	}

	event := NewRepriceEvent(result)

	var errs []error
	for _, sink := range n.sinks {
		if err := sink.Send(ctx, event); err != nil {
			metrics.RecordEventPublished(sink.Name(), "error")
			logging.WarnWithError(ctx, "Failed to publish reprice event", err, logging.Fields{
				"sink":                 sink.Name(),
				"event_id":             event.ID,
				logging.FieldListingID: result.ListingID,
				logging.FieldOutcome:   string(result.Outcome),
			})
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		metrics.RecordEventPublished(sink.Name(), "success")
	}

	return errors.Join(errs...)
}

// Close cierra todos los sinks
func (n *Notifier) Close() error {
	var errs []error
	for _, sink := range n.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}
