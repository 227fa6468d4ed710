package events

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes one structured log line per event for selected topics.
type LogNotifier struct {
	Logger       zerolog.Logger
	TopicToggles map[string]bool
}

// Notify implements the Notifier interface.
func (n LogNotifier) Notify(_ context.Context, ev Event) error {
	if n.TopicToggles != nil {
		if enabled, ok := n.TopicToggles[ev.Topic]; ok && !enabled {
			return nil
		}
	}
	n.Logger.Info().
		Str("event_id", ev.ID).
		Str("topic", ev.Topic).
		Str("aggregate_id", ev.AggregateID).
		RawJSON("payload", ev.Payload).
		Time("occurred_at", ev.OccurredAt).
		Msg("domain event")
	return nil
}
