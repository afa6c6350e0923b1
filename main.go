package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application"
	appAlert "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application/alert"
	appInventory "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application/inventory"
	appMenu "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application/menu"
	appReport "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application/report"
	appServing "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application/serving"
	appSettings "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/application/settings"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/config"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/store"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/infrastructure/id"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/infrastructure/kafka"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/infrastructure/memory"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/infrastructure/mongo"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/infrastructure/notify"
	obsprovider "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/infrastructure/observability"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/infrastructure/observability/otelsetup"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/infrastructure/observability/oteltrace"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/infrastructure/observability/prometrics"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/infrastructure/observability/zaplogger"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/infrastructure/outbox"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/infrastructure/postgres"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/infrastructure/realtime"
	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/pkg/logging"
	httppresentation "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/presentation/http"
	workerpresentation "github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/presentation/worker"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	defaults, err := cfg.Settings.Resolve()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, otelErr := otelsetup.Setup(ctx, otelsetup.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Env,
		Endpoint:       cfg.Telemetry.Endpoint,
		AuthHeader:     cfg.Telemetry.AuthHeader,
		Insecure:       cfg.Telemetry.Insecure,
	})

	logOpts := []logging.Option{logging.WithLevel(logging.ParseLevel(cfg.LogLevel))}
	if providers.LoggerProvider != nil {
		logOpts = append(logOpts, logging.WithOTel(global.GetLoggerProvider()))
	}
	baseLogger, err := logging.NewLogger(cfg.ServiceName, cfg.Env, logOpts...)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)
	if otelErr != nil {
		systemLogger.Error("otel_setup_failed", zap.Error(otelErr))
	}

	metrics := prometrics.New("", nil)
	counters, histograms := metrics.Instruments()
	logger := zaplogger.New(baseLogger)
	tel := obsprovider.New(oteltrace.New(cfg.ServiceName), logger, counters, histograms)

	// Closers run in reverse order during shutdown.
	var closers []func(context.Context) error
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i](shutdownCtx))
		}
		errs = append(errs, providers.Shutdown(shutdownCtx))
		if shutdownErr := errors.Join(errs...); shutdownErr != nil {
			systemLogger.Error("shutdown_error", zap.Error(shutdownErr))
			err = errors.Join(err, shutdownErr)
		}
	}()

	st, health, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if c, ok := st.(interface{ Close() error }); ok {
		closers = append(closers, func(context.Context) error { return c.Close() })
	}
	systemLogger.Info("store_ready", zap.String("driver", cfg.Store.Driver))

	// In-memory event bus carries committed facts to the alert worker and the relay
	bus := outbox.NewBus(tel, outbox.Options{})
	bus.Start(ctx)
	events := &eventPipeline{bus: bus}
	closers = append(closers, events.Close)

	idGenerator := id.NewUUIDGenerator()
	settingsService := appSettings.NewService(st, defaults, tel)
	services := httppresentation.Services{
		Inventory: appInventory.NewService(st, idGenerator, settingsService, tel),
		Menu:      appMenu.NewService(st, idGenerator, tel),
		Serving:   appServing.NewServeMealUseCase(st, idGenerator, application.SystemClock, bus, tel),
		Settings:  settingsService,
		Reports:   appReport.NewService(st, settingsService, tel),
		Alerts:    appAlert.NewService(st, tel),
	}

	hub := realtime.NewHub(logger)
	events.onClose(func(context.Context) error { hub.Close(); return nil })

	var notifier appAlert.Notifier
	if cfg.Notify.TopicARN != "" {
		n, err := notify.NewSNSNotifier(ctx, cfg.Notify.Region, cfg.Notify.TopicARN, defaults.KitchenName)
		if err != nil {
			return err
		}
		notifier = n
		systemLogger.Info("sns_notifier_ready", zap.String("topic_arn", cfg.Notify.TopicARN))
	}
	appAlert.NewWorker(bus, settingsService, hub, notifier, tel).Start()

	var sinks []workerpresentation.Sink
	if cfg.Kafka.Broker != "" {
		var tp trace.TracerProvider
		if providers.TracerProvider != nil {
			tp = providers.TracerProvider
		}
		fwd, err := kafka.NewForwarder(cfg.Kafka.Broker, cfg.Kafka.Topic, tp)
		if err != nil {
			return err
		}
		sinks = append(sinks, fwd)
		events.onClose(func(context.Context) error { return fwd.Close() })
		systemLogger.Info("kafka_forwarder_ready", zap.String("topic", cfg.Kafka.Topic))
	}
	if cfg.Mongo.URI != "" {
		archive, err := mongo.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return err
		}
		sinks = append(sinks, archive)
		events.onClose(archive.Close)
		systemLogger.Info("mongo_archive_ready", zap.String("database", cfg.Mongo.Database))
	}
	workerpresentation.NewRelay(bus, tel, sinks...).Start()

	handler := httppresentation.NewHandler(services, httppresentation.Options{
		CORSOrigins: cfg.CORSOrigins,
		Realtime:    hub,
		Metrics:     metrics.Handler(),
		Health:      health,
	}, logger, tel)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
		return err
	}
	systemLogger.Info("http_server_stopped")
	return nil
}

// openStore picks the data store named by the config. The returned health
// check is nil for the memory store.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func(context.Context) error, error) {
	if cfg.Store.Driver == config.DriverMemory {
		return memory.NewStore(), nil, nil
	}
	dsn, err := postgres.DSN(cfg.Store.URL, cfg.Store.Key)
	if err != nil {
		return nil, nil, err
	}
	pg, err := postgres.Open(ctx, dsn, postgres.Options{
		MaxOpenConns:    cfg.Store.MaxOpenConns,
		MaxIdleConns:    cfg.Store.MaxOpenConns,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Ping, nil
}

// eventPipeline owns the bus and the consumers it feeds. Close drains the bus
// before closing them, so events queued at shutdown still reach open sinks.
type eventPipeline struct {
	bus     *outbox.Bus
	closers []func(context.Context) error
}

func (p *eventPipeline) onClose(fn func(context.Context) error) {
	p.closers = append(p.closers, fn)
}

func (p *eventPipeline) Close(ctx context.Context) error {
	errs := []error{p.bus.Stop(ctx)}
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = append(errs, p.closers[i](ctx))
	}
	return errors.Join(errs...)
}
