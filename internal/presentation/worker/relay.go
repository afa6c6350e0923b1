package workerpresentation

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/alert"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/outbox"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/serving"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability/logctx"
)

const (
	relayService   = "event-relay"
	forwardTimeout = 5 * time.Second
)

// Sink receives a copy of every committed event, e.g. a broker topic or an archive.
type Sink interface {
	Name() string
	Forward(ctx context.Context, e outbox.Event) error
}

// Relay copies kitchen events from the in-process bus to external sinks.
// One failing sink does not stop delivery to the others.
type Relay struct {
	subscriber outbox.Subscriber
	sinks      []Sink

	log          observability.Logger
	tel          observability.Observability
	tracer       observability.Tracer
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewRelay(subscriber outbox.Subscriber, tel observability.Observability, sinks ...Sink) *Relay {
	if tel == nil {
		tel = observability.Nop()
	}
	active := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}
	return &Relay{
		subscriber:   subscriber,
		sinks:        active,
		log:          tel.Logger().With(observability.F("service", relayService)),
		tel:          tel,
		tracer:       tel.Tracer(),
		extCounter:   tel.Metrics().Counter(observability.MExternalRequests),
		extHistogram: tel.Metrics().Histogram(observability.MExternalRequestDuration),
	}
}

// Start subscribes to every kitchen event. It does nothing without sinks.
func (r *Relay) Start() {
	if r.subscriber == nil || len(r.sinks) == 0 {
		return
	}
	for _, name := range []string{serving.MealServedEvent{}.EventName(), alert.LowStockEvent{}.EventName()} {
		r.subscriber.Subscribe(name, r.handle)
	}
}

func (r *Relay) handle(ctx context.Context, e outbox.Event) error {
	ctx, span := r.tracer.Start(ctx, "Relay "+e.EventName(),
		attribute.String("event", e.EventName()),
		attribute.Int("relay.sinks", len(r.sinks)),
	)
	defer span.End()

	sc := trace.SpanContextFromContext(ctx)
	ctx = WithEventContext(ctx, r.log, r.tel, sc.TraceID(), sc.SpanID(), map[string]string{
		"event_id": eventID(e),
		"event":    e.EventName(),
	})
	logger := logctx.FromOr(ctx, r.log)

	var errs []error
	for _, s := range r.sinks {
		if err := r.forward(ctx, s, e); err != nil {
			errs = append(errs, err)
			logger.Warn("event_forward_failed",
				observability.F("sink", s.Name()),
				observability.F("error", err.Error()),
			)
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "FORWARD_FAILED")
		return err
	}
	span.SetStatus(codes.Ok, "OK")
	return nil
}

func (r *Relay) forward(ctx context.Context, s Sink, e outbox.Event) error {
	fctx, cancel := context.WithTimeout(ctx, forwardTimeout)
	defer cancel()

	start := time.Now()
	err := s.Forward(fctx, e)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.extCounter.Add(1,
		observability.L("peer", s.Name()),
		observability.L("endpoint", e.EventName()),
		observability.L("outcome", outcome),
	)
	r.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", s.Name()),
		observability.L("endpoint", e.EventName()),
	)
	return err
}

// eventID reuses the id of the record the event describes, so log lines
// about one event can be joined across sinks.
func eventID(e outbox.Event) string {
	switch v := e.(type) {
	case serving.MealServedEvent:
		return v.RecordID
	case alert.LowStockEvent:
		return v.AlertID
	default:
		return ""
	}
}
