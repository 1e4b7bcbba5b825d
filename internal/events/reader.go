package events

import (
	"context"
	"encoding/json"
	"log/slog"
)

// EventReader bridges raw bus messages to typed content events, one
// subscription per tracked content model.
type EventReader struct {
	bus    Bus
	config *EventConfig
	logger *slog.Logger
}

func NewEventReader(bus Bus, config *EventConfig, logger *slog.Logger) *EventReader {
	return &EventReader{
		bus:    bus,
		config: config,
		logger: logger,
	}
}

const queue = "search-sync-worker"

// SubscribeContentEvents subscribes to the lifecycle subject of one
// model. Malformed payloads are acked and discarded so they cannot loop.
func (r *EventReader) SubscribeContentEvents(model string, handler func(ctx context.Context, evt ContentEvent) error) error {
	subject := r.config.Subject(model)
	r.logger.Info("Subscribing to content lifecycle events", "model", model, "subject", subject)

	_, err := r.bus.Subscribe(subject, queue, func(ctx context.Context, payload []byte) error {
		var evt ContentEvent
		if err := json.Unmarshal(payload, &evt); err != nil {
			r.logger.Error("Discarding malformed JSON event", "subject", subject, "error", err)
			// Ack: redelivering a poison message loops forever.
			return nil
		}
		return handler(ctx, evt)
	})

	return err
}
