package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/boutique-pos/internal/events"
)

type captureSink struct {
	events []events.Event
	err    error
}

func (c *captureSink) Write(_ context.Context, ev events.Event) error {
	c.events = append(c.events, ev)
	return c.err
}

type captureNotifier struct {
	events []events.Event
}

func (c *captureNotifier) Notify(_ context.Context, ev events.Event) error {
	c.events = append(c.events, ev)
	return nil
}

func TestEmitBuildsEnvelope(t *testing.T) {
	sink := &captureSink{}
	notifier := &captureNotifier{}
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	bus := &events.Bus{Sink: sink, Notifiers: []events.Notifier{notifier}, Now: func() time.Time { return fixed }}

	ev, err := bus.Emit(context.Background(), events.TopicSaleRegistered, "42", map[string]any{"total": "150.00"})
	require.NoError(t, err)
	require.NotEmpty(t, ev.ID)
	require.Equal(t, "42", ev.AggregateID)
	require.Equal(t, fixed, ev.OccurredAt)
	require.JSONEq(t, `{"total":"150.00"}`, string(ev.Payload))
	require.Len(t, sink.events, 1)
	require.Len(t, notifier.events, 1)
}

func TestEmitValidatesInput(t *testing.T) {
	bus := &events.Bus{}
	_, err := bus.Emit(context.Background(), " ", "1", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicSaleRegistered, "", nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicSaleRegistered, "1", []byte("{not json"))
	require.Error(t, err)
}

func TestEmitReportsSinkFailureButReturnsEvent(t *testing.T) {
	sink := &captureSink{err: errors.New("broker down")}
	bus := &events.Bus{Sink: sink}
	ev, err := bus.Emit(context.Background(), events.TopicSaleRegistered, "7", json.RawMessage(`{}`))
	require.Error(t, err)
	require.Equal(t, "7", ev.AggregateID)
}
