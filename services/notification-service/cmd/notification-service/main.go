package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/stillwater-massage/practice/libs/config"
	"github.com/stillwater-massage/practice/libs/db"
	"github.com/stillwater-massage/practice/libs/httpx"
	"github.com/stillwater-massage/practice/libs/kafkax"
	otelx "github.com/stillwater-massage/practice/libs/otel"
	"github.com/stillwater-massage/practice/libs/runtime"
	"github.com/stillwater-massage/practice/services/notification-service/internal/consumer"
	"github.com/stillwater-massage/practice/services/notification-service/internal/email"
	"github.com/stillwater-massage/practice/services/notification-service/internal/inbox"
	"github.com/stillwater-massage/practice/services/notification-service/internal/notify"
	"github.com/stillwater-massage/practice/services/notification-service/internal/sms"
	"github.com/stillwater-massage/practice/services/notification-service/internal/storage"
	"github.com/stillwater-massage/practice/services/notification-service/migrations"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
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

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()
	if config.Bool("DB_MIGRATE", true) {
		if err := db.Migrate(ctx, pool, migrations.FS, logger); err != nil {
			logger.Error("db migrate failed", "err", err)
			panic(err)
		}
	}

	emailSender := email.NewSMTPSender(
		config.String("SMTP_HOST", "mailpit"),
		config.String("SMTP_PORT", "1025"),
		config.String("SMTP_FROM", "no-reply@stillwater.local"),
	)

	var smsSender notify.SMSSender
	switch provider := strings.ToLower(config.String("SMS_PROVIDER", "noop")); provider {
	case "webhook":
		client := &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
		smsSender = sms.NewWebhookSender(
			config.String("SMS_WEBHOOK_URL", ""),
			config.String("SMS_WEBHOOK_TOKEN", ""),
			config.String("SMS_FROM", ""),
			client,
		)
	case "noop":
		smsSender = sms.NewNoopSender()
	default:
		logger.Warn("unknown SMS_PROVIDER, text messages disabled", "provider", provider)
	}

	notifier := notify.New(
		emailSender,
		smsSender,
		storage.NewRepository(pool),
		config.String("PRACTICE_NAME", "Stillwater Massage"),
		logger,
	)

	brokers := config.String("KAFKA_BROKERS", "")
	eventConsumer := consumer.New(logger, inbox.NewRepository(pool), consumer.Config{
		Brokers: brokers,
		GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
		Topics:  notify.Topics,
	}, notifier.Handle)
	go eventConsumer.Run(ctx)

	mux := runtime.NewOpsMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.Serve(ctx, logger, srv)
}
