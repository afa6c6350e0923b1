package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/serving"
)

type fakeProducer struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (p *fakeProducer) WriteMessage(_ context.Context, msg kafka.Message) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *fakeProducer) Close() error {
	p.closed = true
	return nil
}

func TestForwardWritesEnvelope(t *testing.T) {
	p := &fakeProducer{}
	f := newForwarder("kitchen.events", p)
	sent := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return sent }

	evt := serving.MealServedEvent{RecordID: "s1", MealID: "m1", Portions: 2, UserID: "u1", OccurredAt: sent}
	require.NoError(t, f.Forward(context.Background(), evt))

	require.Len(t, p.msgs, 1)
	msg := p.msgs[0]
	assert.Equal(t, "meal.served", string(msg.Key))
	assert.Equal(t, []kafka.Header{{Key: "event", Value: []byte("meal.served")}}, msg.Headers)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, "meal.served", env.Event)
	assert.True(t, sent.Equal(env.SentAt))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "m1", payload["mealId"])
	assert.EqualValues(t, 2, payload["portions"])
}

func TestForwardWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	f := newForwarder("kitchen.events", &fakeProducer{err: boom})

	err := f.Forward(context.Background(), serving.MealServedEvent{RecordID: "s1"})

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "kitchen.events")
}

func TestNewForwarderRequiresBrokerAndTopic(t *testing.T) {
	_, err := NewForwarder("", "topic", nil)
	assert.Error(t, err)
	_, err = NewForwarder("localhost:9092", "", nil)
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	p := &fakeProducer{}
	require.NoError(t, newForwarder("t", p).Close())
	assert.True(t, p.closed)
}
