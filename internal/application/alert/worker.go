package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application"
	domalert "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/alert"
	domoutbox "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/outbox"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/settings"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const workerService = "alert-worker"

// Broadcaster pushes alerts to connected dashboards.
type Broadcaster interface {
	BroadcastLowStock(ctx context.Context, e domalert.LowStockEvent) error
}

// Notifier delivers alerts outside the application, e.g. SMS or e-mail.
type Notifier interface {
	NotifyLowStock(ctx context.Context, e domalert.LowStockEvent) error
}

type SettingsReader interface {
	Current(ctx context.Context) (settings.Settings, error)
}

// Worker fans committed low-stock alerts out to the realtime hub and the
// notifier, each gated by its settings flag.
type Worker struct {
	subscriber  domoutbox.Subscriber
	settings    SettingsReader
	broadcaster Broadcaster
	notifier    Notifier

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

// NewWorker accepts nil broadcaster or notifier when that channel is not configured.
func NewWorker(
	subscriber domoutbox.Subscriber,
	settingsReader SettingsReader,
	broadcaster Broadcaster,
	notifier Notifier,
	tel observability.Observability,
) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return &Worker{
		subscriber:   subscriber,
		settings:     settingsReader,
		broadcaster:  broadcaster,
		notifier:     notifier,
		log:          tel.Logger().With(observability.F("service", workerService)),
		tracer:       tel.Tracer(),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(domalert.LowStockEvent{}.EventName(), w.handleLowStock)
}

func (w *Worker) handleLowStock(ctx context.Context, e domoutbox.Event) (err error) {
	const useCase = "alert.worker.low_stock"
	evt, ok := e.(domalert.LowStockEvent)
	if !ok {
		w.count(useCase, "ignored")
		return nil
	}

	ctx, span := w.tracer.Start(ctx, application.SpanPrefix+"LowStockAlert",
		attribute.String("use_case", useCase),
		attribute.String("event", e.EventName()),
		attribute.String("alert.id", evt.AlertID),
	)
	start := time.Now()
	outcome, status := "success", "OK"
	var delivered []string

	logger := logctx.FromOr(ctx, w.log).With(
		observability.F("use_case", useCase),
		observability.F("event", e.EventName()),
		observability.F("alert_id", evt.AlertID),
		observability.F("ingredient_id", evt.IngredientID),
	)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		logger = logger.With(
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	ctx = logctx.With(ctx, logger)

	defer func() {
		lat := time.Since(start).Seconds()
		w.observe(useCase, outcome, lat)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", status),
			observability.F("latency_seconds", lat),
			observability.F("delivered_to", delivered),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)

		if outcome == "error" {
			span.RecordError(err)
			span.SetStatus(codes.Error, status)
		} else {
			span.SetStatus(codes.Ok, status)
		}
		span.End()
	}()

	current := settings.Defaults()
	if w.settings != nil {
		s, serr := w.settings.Current(ctx)
		if serr != nil {
			outcome, status = "error", "SETTINGS_LOAD_FAILED"
			return fmt.Errorf("worker: load settings: %w", serr)
		}
		current = s
	}

	var errs []error
	if current.EnableRealTimeUpdates && w.broadcaster != nil {
		if derr := w.deliver(ctx, "realtime", func(ctx context.Context) error {
			return w.broadcaster.BroadcastLowStock(ctx, evt)
		}); derr != nil {
			errs = append(errs, derr)
		} else {
			delivered = append(delivered, "realtime")
		}
	}
	if current.EnableNotifications && w.notifier != nil {
		if derr := w.deliver(ctx, "notifier", func(ctx context.Context) error {
			return w.notifier.NotifyLowStock(ctx, evt)
		}); derr != nil {
			errs = append(errs, derr)
		} else {
			delivered = append(delivered, "notifier")
		}
	}

	if len(errs) > 0 {
		outcome, status = "error", "DELIVERY_FAILED"
		return fmt.Errorf("worker: deliver low stock alert: %w", errors.Join(errs...))
	}
	return nil
}

func (w *Worker) deliver(ctx context.Context, peer string, call func(context.Context) error) error {
	start := time.Now()
	err := call(ctx)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	w.extCounter.Add(1,
		observability.L("peer", peer),
		observability.L("endpoint", domalert.LowStockEvent{}.EventName()),
		observability.L("outcome", outcome),
	)
	w.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peer),
		observability.L("endpoint", domalert.LowStockEvent{}.EventName()),
	)
	return err
}

func (w *Worker) count(useCase, outcome string) {
	w.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
}

func (w *Worker) observe(useCase string, outcome string, latencySeconds float64) {
	w.count(useCase, outcome)
	w.durHistogram.Observe(latencySeconds,
		observability.L("use_case", useCase),
	)
}
