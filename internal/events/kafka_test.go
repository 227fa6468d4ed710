package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/boutique-pos/internal/resilience"
)

type fakeWriter struct {
	failures int
	messages []kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("leader not available")
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaSinkKeysByAggregateAndRetries(t *testing.T) {
	w := &fakeWriter{failures: 1}
	sink := newKafkaSink(w, KafkaConfig{Guard: &resilience.Guard{MaxAttempts: 2, BaseBackoff: time.Millisecond}})

	ev := Event{ID: "e1", Topic: TopicSaleRegistered, AggregateID: "99", Payload: json.RawMessage(`{"id":99}`)}
	require.NoError(t, sink.Write(context.Background(), ev))
	require.Len(t, w.messages, 1)
	require.Equal(t, []byte("99"), w.messages[0].Key)

	var decoded Event
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	require.Equal(t, "e1", decoded.ID)
}

func TestKafkaSinkSurfacesExhaustedRetries(t *testing.T) {
	w := &fakeWriter{failures: 5}
	sink := newKafkaSink(w, KafkaConfig{Guard: &resilience.Guard{MaxAttempts: 2, BaseBackoff: time.Millisecond}})
	require.Error(t, sink.Write(context.Background(), Event{ID: "e2", AggregateID: "1"}))
	require.Empty(t, w.messages)
}

func TestNewKafkaSinkRequiresBrokers(t *testing.T) {
	_, err := NewKafkaSink(KafkaConfig{Topic: "sales"})
	require.Error(t, err)
}
