// Package kafka forwards committed kitchen events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/outbox"
)

const (
	defaultBatchTimeout = 10 * time.Millisecond
	defaultBatchSize    = 1
	clientID            = "kitchen-keeper"
)

// producer is the part of the traced writer the forwarder needs.
type producer interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

// Envelope is the message value written for every event.
type Envelope struct {
	Event   string          `json:"event"`
	SentAt  time.Time       `json:"sentAt"`
	Payload json.RawMessage `json:"payload"`
}

type Forwarder struct {
	topic  string
	writer producer
	now    func() time.Time
}

// NewForwarder builds a traced writer for topic. Spans go to tp, or the global
// provider when tp is nil, and the trace context travels in the message headers.
func NewForwarder(broker, topic string, tp trace.TracerProvider) (*Forwarder, error) {
	if broker == "" || topic == "" {
		return nil, errors.New("kafka: broker and topic are required")
	}
	base := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: defaultBatchTimeout,
		BatchSize:    defaultBatchSize,
	}

	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	w, err := otelkafka.NewWriter(base,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes([]attribute.KeyValue{
			semconv.MessagingDestinationNameKey.String(topic),
			attribute.String("messaging.kafka.client_id", clientID),
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka: new writer: %w", err)
	}
	return newForwarder(topic, w), nil
}

func newForwarder(topic string, w producer) *Forwarder {
	return &Forwarder{topic: topic, writer: w, now: func() time.Time { return time.Now().UTC() }}
}

func (f *Forwarder) Name() string { return "kafka" }

// Forward writes one message keyed by the event name, so events of one kind
// keep their order within a partition.
func (f *Forwarder) Forward(ctx context.Context, e outbox.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka: encode %s: %w", e.EventName(), err)
	}
	value, err := json.Marshal(Envelope{Event: e.EventName(), SentAt: f.now(), Payload: payload})
	if err != nil {
		return fmt.Errorf("kafka: encode envelope: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(e.EventName()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(e.EventName())},
		},
	}
	if err := f.writer.WriteMessage(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write %s to %s: %w", e.EventName(), f.topic, err)
	}
	return nil
}

func (f *Forwarder) Close() error {
	return f.writer.Close()
}
