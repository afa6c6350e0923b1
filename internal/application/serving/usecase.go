package serving

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application"
	domalert "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/alert"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/ingredient"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/meal"
	domoutbox "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/outbox"
	domserving "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/serving"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/store"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	servingService   = "serving-service"
	useCaseServeMeal = "serving.serve_meal"
	spanPrefix       = "UC."
	publishPeer      = "outbox"
	publishTimeout   = 300 * time.Millisecond
)

type ServeMealInput struct {
	MealID   string
	Portions int
	UserID   string
}

type ServeMealResult struct {
	Record *domserving.Record
	// Alerts lists the low-stock alerts written by the same transaction.
	Alerts []*domalert.Alert
}

// ServeMealUseCase checks stock, deducts it, records the serving and raises
// low-stock alerts in one store transaction.
type ServeMealUseCase struct {
	store       store.Store
	idGenerator application.IDGenerator
	now         application.Clock
	publisher   domoutbox.Publisher

	log    observability.Logger
	tracer observability.Tracer
	// RED metrics (supplied via DI; do not instantiate inside methods).
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
	portions     observability.Counter   // portions_served_total
	lowStock     observability.Counter   // low_stock_alerts_total
}

func NewServeMealUseCase(
	st store.Store,
	idGen application.IDGenerator,
	clock application.Clock,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *ServeMealUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	if clock == nil {
		clock = application.SystemClock
	}
	m := tel.Metrics()

	return &ServeMealUseCase{
		store:        st,
		idGenerator:  idGen,
		now:          clock,
		publisher:    publisher,
		log:          tel.Logger().With(observability.F("service", servingService)),
		tracer:       tel.Tracer(),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
		portions:     m.Counter(observability.MPortionsServed),
		lowStock:     m.Counter(observability.MLowStockAlerts),
	}
}

// lowStockHit pairs a written alert with the ingredient state that caused it.
type lowStockHit struct {
	alert *domalert.Alert
	item  *ingredient.Ingredient
}

// Execute serves cmd.Portions of a meal. Nothing is written unless every
// ingredient covers its requirement.
func (uc *ServeMealUseCase) Execute(ctx context.Context, cmd ServeMealInput) (_ *ServeMealResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseServeMeal),
		observability.F("meal_id", cmd.MealID),
		observability.F("portions", cmd.Portions),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"ServeMeal",
		attribute.String("use_case", useCaseServeMeal),
		attribute.String("meal.id", cmd.MealID),
		attribute.Int("serving.portions", cmd.Portions),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var (
		recordID   string
		hits       []lowStockHit
		publishErr error
	)

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseServeMeal),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseServeMeal),
		)

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
		if recordID != "" {
			fields = append(fields,
				observability.F("serving_id", recordID),
				observability.F("low_stock_alerts", len(hits)),
			)
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}()

	if strings.TrimSpace(cmd.MealID) == "" {
		outcome, statusText = "error", "MEAL_ID_REQUIRED"
		return nil, application.NewValidation("mealId is required")
	}
	if cmd.Portions <= 0 {
		outcome, statusText = "error", "PORTIONS_INVALID"
		return nil, application.NewValidation("portions must be greater than zero")
	}
	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	var record *domserving.Record
	txErr := uc.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
		m, err := tx.Meals().Get(ctx, cmd.MealID)
		if err != nil {
			return err
		}
		reqs := m.Requirements(cmd.Portions)

		// Rows are locked in id order so serves of meals sharing ingredients
		// cannot deadlock; checks still report in meal order.
		items := make([]*ingredient.Ingredient, len(reqs))
		missing := make([]error, len(reqs))
		for _, i := range lockOrder(reqs) {
			item, err := tx.Ingredients().GetForUpdate(ctx, reqs[i].IngredientID)
			if errors.Is(err, ingredient.ErrNotFound) {
				missing[i] = err
				continue
			}
			if err != nil {
				return err
			}
			items[i] = item
		}
		for i, r := range reqs {
			if missing[i] != nil {
				return missing[i]
			}
			if err := items[i].CheckAvailable(r.Amount); err != nil {
				return err
			}
		}
		for _, r := range reqs {
			if err := tx.Ingredients().Deduct(ctx, r.IngredientID, r.Amount); err != nil {
				return err
			}
		}

		now := uc.now()
		rec, err := domserving.NewRecord(uc.idGenerator.NewID(), m.ID, cmd.UserID, cmd.Portions, now)
		if err != nil {
			return err
		}
		if err := tx.Servings().Insert(ctx, rec); err != nil {
			return err
		}

		for _, r := range reqs {
			item, err := tx.Ingredients().Get(ctx, r.IngredientID)
			if err != nil {
				return err
			}
			if !item.BelowMinimum() {
				continue
			}
			a := domalert.NewLowStock(uc.idGenerator.NewID(), item.Name, now)
			if err := tx.Alerts().Insert(ctx, a); err != nil {
				return err
			}
			hits = append(hits, lowStockHit{alert: a, item: item})
		}

		record = rec
		return nil
	})
	if txErr != nil {
		hits = nil
		outcome, statusText = "error", statusFor(txErr)
		return nil, fmt.Errorf("serving: serve meal: %w", txErr)
	}
	recordID = record.ID

	uc.portions.Add(float64(record.Portions))
	if len(hits) > 0 {
		uc.lowStock.Add(float64(len(hits)))
	}

	span.SetAttributes(attribute.String("serving.id", record.ID))
	span.AddEvent("meal.served",
		trace.WithAttributes(
			attribute.String("serving.id", record.ID),
			attribute.Int("serving.low_stock_alerts", len(hits)),
		),
	)

	// The transaction is committed; publication failures are reported but not returned.
	events := make([]domoutbox.Event, 0, 1+len(hits))
	events = append(events, domserving.NewMealServedEvent(record))
	for _, h := range hits {
		events = append(events, domalert.LowStockEvent{
			AlertID:         h.alert.ID,
			IngredientID:    h.item.ID,
			IngredientName:  h.item.Name,
			Quantity:        h.item.Quantity,
			MinimumQuantity: h.item.MinimumQuantity,
			Message:         h.alert.Message,
			OccurredAt:      h.alert.Date,
		})
	}
	for _, e := range events {
		if perr := uc.publish(ctx, e); perr != nil {
			publishErr = errors.Join(publishErr, perr)
			statusText = "EVENT_PUBLISH_FAILED"
			span.RecordError(perr)
			logger.Warn("event_publish_failed",
				observability.F("event", e.EventName()),
				observability.F("serving_id", record.ID),
				observability.F("error", perr.Error()),
			)
		}
	}

	res := &ServeMealResult{Record: record, Alerts: make([]*domalert.Alert, 0, len(hits))}
	for _, h := range hits {
		res.Alerts = append(res.Alerts, h.alert)
	}
	return res, nil
}

func (uc *ServeMealUseCase) publish(ctx context.Context, event domoutbox.Event) error {
	if uc.publisher == nil {
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	start := time.Now()
	err := uc.publisher.Publish(pubCtx, event)
	outcome := "success"
	if err != nil {
		outcome = "error"
	} else if pubCtx.Err() != nil {
		outcome = "canceled"
		err = pubCtx.Err()
	}
	cancel()

	uc.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", event.EventName()),
		observability.L("outcome", outcome),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", event.EventName()),
	)
	return err
}

// lockOrder returns the indexes of reqs sorted by ingredient id.
func lockOrder(reqs []meal.Requirement) []int {
	idx := make([]int, len(reqs))
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(a, b int) int {
		return strings.Compare(reqs[a].IngredientID, reqs[b].IngredientID)
	})
	return idx
}

func statusFor(err error) string {
	switch {
	case errors.Is(err, meal.ErrNotFound):
		return "MEAL_NOT_FOUND"
	case errors.Is(err, ingredient.ErrNotFound):
		return "INGREDIENT_NOT_FOUND"
	case errors.Is(err, ingredient.ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CONTEXT_CANCELED"
	default:
		return "TRANSACTION_FAILED"
	}
}
