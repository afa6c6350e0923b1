// Package otelsetup installs the OpenTelemetry SDK providers that export
// spans and log records over OTLP/HTTP.
package otelsetup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	TracesPath = "/v1/traces"
	LogsPath   = "/v1/logs"

	exportTimeout = 10 * time.Second
	maxQueueSize  = 2048
)

type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is host[:port] of the collector. Empty disables export.
	Endpoint   string
	AuthHeader string
	Insecure   bool
}

// Providers holds whatever Setup managed to install. Shutdown is always safe to call.
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	LoggerProvider *sdklog.LoggerProvider

	shutdownFuncs []func(context.Context) error
}

func (p *Providers) Enabled() bool {
	return p != nil && (p.TracerProvider != nil || p.LoggerProvider != nil)
}

// Shutdown flushes and stops every installed provider.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var err error
	for i := len(p.shutdownFuncs) - 1; i >= 0; i-- {
		err = errors.Join(err, p.shutdownFuncs[i](ctx))
	}
	p.shutdownFuncs = nil
	return err
}

// Setup always installs the W3C propagator. With an endpoint configured it
// also installs the trace and log providers as the globals. A failing
// exporter is reported in the returned error while the other one is kept.
func Setup(ctx context.Context, cfg Config) (*Providers, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	p := &Providers{}
	if cfg.Endpoint == "" {
		return p, nil
	}

	res, err := newResource(cfg)
	if err != nil {
		return p, fmt.Errorf("otelsetup: resource: %w", err)
	}

	var setupErr error
	if tp, err := newTracerProvider(ctx, cfg, res); err != nil {
		setupErr = errors.Join(setupErr, fmt.Errorf("otelsetup: trace exporter: %w", err))
	} else {
		otel.SetTracerProvider(tp)
		p.TracerProvider = tp
		p.shutdownFuncs = append(p.shutdownFuncs, tp.Shutdown)
	}

	if lp, err := newLoggerProvider(ctx, cfg, res); err != nil {
		setupErr = errors.Join(setupErr, fmt.Errorf("otelsetup: log exporter: %w", err))
	} else {
		global.SetLoggerProvider(lp)
		p.LoggerProvider = lp
		p.shutdownFuncs = append(p.shutdownFuncs, lp.Shutdown)
	}

	return p, setupErr
}

func newResource(cfg Config) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
}

func headers(cfg Config) map[string]string {
	if cfg.AuthHeader == "" {
		return nil
	}
	return map[string]string{"Authorization": cfg.AuthHeader}
}

func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithURLPath(TracesPath),
	}
	if h := headers(cfg); h != nil {
		opts = append(opts, otlptracehttp.WithHeaders(h))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exp,
			sdktrace.WithExportTimeout(exportTimeout),
			sdktrace.WithMaxQueueSize(maxQueueSize),
		)),
	), nil
}

func newLoggerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdklog.LoggerProvider, error) {
	opts := []otlploghttp.Option{
		otlploghttp.WithEndpoint(cfg.Endpoint),
		otlploghttp.WithURLPath(LogsPath),
	}
	if h := headers(cfg); h != nil {
		opts = append(opts, otlploghttp.WithHeaders(h))
	}
	if cfg.Insecure {
		opts = append(opts, otlploghttp.WithInsecure())
	}
	exp, err := otlploghttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp,
			sdklog.WithExportTimeout(exportTimeout),
			sdklog.WithMaxQueueSize(maxQueueSize),
		)),
	), nil
}
