package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stillwater-massage/practice/libs/config"
	"github.com/stillwater-massage/practice/libs/db"
	"github.com/stillwater-massage/practice/libs/httpx"
	"github.com/stillwater-massage/practice/libs/kafkax"
	otelx "github.com/stillwater-massage/practice/libs/otel"
	"github.com/stillwater-massage/practice/libs/runtime"
	"github.com/stillwater-massage/practice/services/practice-service/internal/booking"
	"github.com/stillwater-massage/practice/services/practice-service/internal/catalog"
	"github.com/stillwater-massage/practice/services/practice-service/internal/customers"
	"github.com/stillwater-massage/practice/services/practice-service/internal/handlers"
	"github.com/stillwater-massage/practice/services/practice-service/internal/outbox"
	"github.com/stillwater-massage/practice/services/practice-service/internal/reports"
	"github.com/stillwater-massage/practice/services/practice-service/internal/settings"
	"github.com/stillwater-massage/practice/services/practice-service/internal/storage/memory"
	"github.com/stillwater-massage/practice/services/practice-service/internal/storage/postgres"
	"github.com/stillwater-massage/practice/services/practice-service/migrations"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// store is everything the services need from a storage driver.
type store interface {
	booking.Store
	booking.IdempotencyStore
	catalog.Store
	customers.Store
	settings.Store
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "practice-service")
	port, err := config.Port("PORT", "8083")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	brokers := config.String("KAFKA_BROKERS", "")
	checks := []runtime.ReadyCheck{{Name: "kafka", Check: kafkax.ReadyCheck(brokers)}}

	var st store
	switch driver := config.String("STORAGE_DRIVER", "postgres"); driver {
	case "memory":
		logger.Warn("using in-memory storage; data is lost on restart")
		st = memory.NewSeeded()
	case "postgres":
		pool, err := openPostgres(ctx, logger)
		if err != nil {
			logger.Error("db setup failed", "err", err)
			panic(err)
		}
		defer pool.Close()
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})
		st = postgres.New(pool)

		publisher := outbox.NewPublisher(pool, outbox.NewRepository(), logger, outbox.PublisherConfig{
			Brokers:   brokers,
			PollEvery: config.Millis("OUTBOX_POLL_MS", 2*time.Second),
			BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
			Retention: time.Duration(config.Int("OUTBOX_RETENTION_HOURS", 168)) * time.Hour,
		})
		go publisher.Run(ctx)
	default:
		panic(fmt.Sprintf("STORAGE_DRIVER must be postgres or memory (got %q)", driver))
	}

	settingsSvc := settings.NewService(st)
	catalogSvc := catalog.NewService(st)
	customersSvc := customers.NewService(st)
	svc := handlers.Services{
		Booking:   booking.NewService(st, settingsSvc, catalogSvc, customersSvc, logger),
		Catalog:   catalogSvc,
		Customers: customersSvc,
		Settings:  settingsSvc,
		Reports:   reports.NewService(st, settingsSvc),
	}

	mux := runtime.NewOpsMux(checks...)
	handlers.New(svc, st, logger).Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
	)
	handler = otelhttp.NewHandler(handler, "practice")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.Serve(ctx, logger, srv)
}

func openPostgres(ctx context.Context, logger *slog.Logger) (*db.Pool, error) {
	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		return nil, err
	}
	if config.Bool("DB_MIGRATE", true) {
		if err := db.Migrate(ctx, pool, migrations.FS, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return pool, nil
}
