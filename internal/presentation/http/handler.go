package httppresentation

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	appAlert "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application/alert"
	appInventory "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application/inventory"
	appMenu "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application/menu"
	appReport "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application/report"
	appServing "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application/serving"
	appSettings "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application/settings"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/observability/logctx"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	tracerName           = "kitchen-keeper.http"
	maxBodyBytes         = 1 << 20
	rootMessage          = "KinderKitchen API is running"
)

type Services struct {
	Inventory *appInventory.Service
	Menu      *appMenu.Service
	Serving   *appServing.ServeMealUseCase
	Settings  *appSettings.Service
	Reports   *appReport.Service
	Alerts    *appAlert.Service
}

type Options struct {
	// CORSOrigins defaults to every origin.
	CORSOrigins []string
	// Realtime serves the alert websocket; nil leaves the route unregistered.
	Realtime http.Handler
	// Metrics serves /metrics; nil leaves the route unregistered.
	Metrics http.Handler
	// Health reports data store reachability for /health.
	Health func(ctx context.Context) error
}

type Handler struct {
	svc  Services
	opts Options
	log  observability.Logger
	tel  observability.Observability

	reqCounter   observability.Counter   // http_requests_total{method,route,status}
	durHistogram observability.Histogram // http_request_duration_seconds{method,route,status}
}

func NewHandler(svc Services, opts Options, logger observability.Logger, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = tel.Logger()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Handler{
		svc:          svc,
		opts:         opts,
		log:          baseLogger.With(observability.F("component", componentHTTPHandler)),
		tel:          tel,
		reqCounter:   tel.Metrics().Counter(observability.MHTTPRequests),
		durHistogram: tel.Metrics().Histogram(observability.MHTTPRequestDuration),
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{headerRequestID},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	// Wire each route with middlewares:
	// Trace → ObservabilityMiddleware (request logger) → HTTP metrics → Access log → Handler
	h.route(r, http.MethodGet, "/", h.handleRoot)
	h.route(r, http.MethodGet, "/health", h.handleHealth)

	h.route(r, http.MethodGet, "/ingredients", h.handleListIngredients)
	h.route(r, http.MethodGet, "/ingredients/low-stock", h.handleLowStockIngredients)
	h.route(r, http.MethodPost, "/ingredients", h.handleCreateIngredient)
	h.route(r, http.MethodPut, "/ingredients/{id}", h.handleUpdateIngredient)
	h.route(r, http.MethodDelete, "/ingredients/{id}", h.handleDeleteIngredient)

	h.route(r, http.MethodGet, "/meals", h.handleListMeals)
	h.route(r, http.MethodPost, "/meals", h.handleCreateMeal)
	h.route(r, http.MethodPut, "/meals/{id}", h.handleUpdateMeal)
	h.route(r, http.MethodDelete, "/meals/{id}", h.handleDeleteMeal)
	h.route(r, http.MethodGet, "/meals/{id}/availability", h.handleMealAvailability)

	h.route(r, http.MethodPost, "/serve", h.handleServe)

	h.route(r, http.MethodGet, "/settings", h.handleGetSettings)
	h.route(r, http.MethodPut, "/settings", h.handleUpdateSettings)

	h.route(r, http.MethodGet, "/reports/monthly", h.handleMonthlyReport)
	h.route(r, http.MethodGet, "/alerts", h.handleListAlerts)

	if h.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.opts.Metrics)
	}
	if h.opts.Realtime != nil {
		// long-lived: request logger only, no access log or latency metrics
		r.Method(http.MethodGet, "/ws/alerts",
			ObservabilityMiddleware(h.log, requestIDFromHeader, h.tel)(h.opts.Realtime),
		)
	}
	return r
}

func requestIDFromHeader(r *http.Request) string {
	return r.Header.Get(headerRequestID)
}

func (h *Handler) route(r chi.Router, method, pattern string, handler http.HandlerFunc) {
	route := method + " " + pattern
	wrapped := h.withTrace(
		ObservabilityMiddleware(h.log, requestIDFromHeader, h.tel)(
			h.withHTTPMetrics(
				h.withAccessLog(handler),
			),
		),
	)
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		// Store stable route template for low-cardinality labels
		ctx := contextWithRoute(req.Context(), route)
		wrapped.ServeHTTP(w, req.WithContext(ctx))
	}))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer(tracerName)
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		spanName := route
		if spanName == "unknown" {
			spanName = r.Method + " " + r.URL.Path
		}
		template := route
		if idx := strings.Index(template, " "); idx >= 0 {
			template = template[idx+1:]
		}
		if template == "unknown" || template == "" {
			template = r.URL.Path
		}

		ctxWithSpan, span := tracer.Start(parentCtx,
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r.WithContext(ctxWithSpan))

		span.SetAttributes(attribute.Int("http.status_code", lrw.status))
		if lrw.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(lrw.status))
		}
	})
}

// withHTTPMetrics records RED-ish HTTP metrics using injected instruments.
// DO NOT new metrics inside the middleware.
func (h *Handler) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		route := routeFromContext(r.Context())
		status := strconv.Itoa(lrw.status)
		h.reqCounter.Add(1, observability.L("method", r.Method), observability.L("route", route), observability.L("status", status))
		h.durHistogram.Observe(time.Since(start).Seconds(), observability.L("method", r.Method), observability.L("route", route), observability.L("status", status))
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
