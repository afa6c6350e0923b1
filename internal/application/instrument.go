package application

import (
	"context"
	"errors"
	"time"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/ingredient"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/meal"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/settings"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/store"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const SpanPrefix = "UC."

// Instrumentation holds the RED instruments of one service. CRUD services
// share it instead of repeating the span/metric/log epilogue per method.
type Instrumentation struct {
	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewInstrumentation(tel observability.Observability, service string) Instrumentation {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return Instrumentation{
		log:          tel.Logger().With(observability.F("service", service)),
		tracer:       tel.Tracer(),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
	}
}

// Begin opens a span for useCase and returns the enriched context, a scoped
// logger and a finish func that must run exactly once with the final error.
func (in Instrumentation) Begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, observability.Logger, func(err error)) {
	logger := logctx.FromOr(ctx, in.log).With(observability.F("use_case", useCase))
	attrs = append(attrs, attribute.String("use_case", useCase))
	ctx, span := in.tracer.Start(ctx, SpanPrefix+spanName, attrs...)
	start := time.Now()

	return ctx, logger, func(err error) {
		lat := time.Since(start).Seconds()
		outcome, statusText := "success", "OK"
		if err != nil {
			outcome, statusText = "error", StatusText(err)
		}

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		in.reqCounter.Add(1,
			observability.L("use_case", useCase),
			observability.L("outcome", outcome),
		)
		in.durHistogram.Observe(lat, observability.L("use_case", useCase))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}
}

// StatusText maps an error to the low-cardinality status recorded on spans and logs.
func StatusText(err error) string {
	switch {
	case err == nil:
		return "OK"
	case errors.Is(err, ErrValidation),
		errors.Is(err, ingredient.ErrInvalid),
		errors.Is(err, meal.ErrInvalid),
		errors.Is(err, settings.ErrInvalid):
		return "VALIDATION_FAILED"
	case errors.Is(err, ingredient.ErrNotFound), errors.Is(err, meal.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ingredient.ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, store.ErrUnavailable):
		return "STORE_UNAVAILABLE"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CONTEXT_CANCELED"
	default:
		return "INTERNAL"
	}
}
