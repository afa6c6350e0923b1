package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domoutbox "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/outbox"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/serving"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/infrastructure/outbox"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability"
	workerpresentation "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/presentation/worker"
)

type slowSink struct {
	mu        sync.Mutex
	closed    bool
	delivered int
	late      int
}

func (s *slowSink) Name() string { return "slow" }

func (s *slowSink) Forward(context.Context, domoutbox.Event) error {
	time.Sleep(10 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.late++
		return errors.New("sink closed")
	}
	s.delivered++
	return nil
}

func (s *slowSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func TestEventPipelineDrainsBusBeforeClosingSinks(t *testing.T) {
	bus := outbox.NewBus(observability.Nop(), outbox.Options{})
	bus.Start(context.Background())
	events := &eventPipeline{bus: bus}

	sink := &slowSink{}
	events.onClose(sink.Close)
	workerpresentation.NewRelay(bus, observability.Nop(), sink).Start()

	at := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		rec, err := serving.NewRecord(fmt.Sprintf("rec-%d", i), "pasta", "u1", 1, at)
		require.NoError(t, err)
		require.NoError(t, bus.Publish(context.Background(), serving.NewMealServedEvent(rec)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, events.Close(ctx))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.True(t, sink.closed)
	assert.Equal(t, 5, sink.delivered)
	assert.Zero(t, sink.late)
	assert.ErrorIs(t, bus.Publish(context.Background(), serving.NewMealServedEvent(&serving.Record{ID: "x"})), outbox.ErrClosed)
}

func TestEventPipelineJoinsCloseErrors(t *testing.T) {
	bus := outbox.NewBus(observability.Nop(), outbox.Options{})
	events := &eventPipeline{bus: bus}

	var order []string
	events.onClose(func(context.Context) error { order = append(order, "first"); return errors.New("boom") })
	events.onClose(func(context.Context) error { order = append(order, "second"); return nil })

	err := events.Close(context.Background())
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"second", "first"}, order)
}
