package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"storefront/config"
	"storefront/internal/catalog"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/telemetry"
	"storefront/pkg/payment"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := telemetry.NewLogger(cfg.Server.Env, cfg.Telemetry.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	meter, shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		logger.Fatal("telemetry", zap.Error(err))
	}
	metrics, err := telemetry.NewMetrics(meter)
	if err != nil {
		logger.Fatal("metrics", zap.Error(err))
	}

	var audit service.AuditRecorder
	if cfg.Database.DSN != "" {
		db, err := database.NewDB(&cfg.Database)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		if err := database.AutoMigrate(db); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		audit = repository.NewVerificationAuditRepository(db)
		logger.Info("verification audit trail enabled")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		logger.Info("fulfillment events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	defer func() { _ = publisher.Close() }()

	verifier, err := newVerifier(cfg, logger, metrics)
	if err != nil {
		logger.Fatal("payment provider", zap.Error(err))
	}
	if !verifier.Configured() {
		logger.Error("PAYSTACK_SECRET is not set; verification requests will fail with server_not_configured")
	}

	items := cfg.Catalog.Items
	if len(items) == 0 {
		items = catalog.DefaultItems
	}
	cat := catalog.New(items)
	logger.Info("catalog loaded", zap.Int("items", cat.Len()))

	svc := service.NewVerificationService(cfg.Verification, verifier, cat, audit, publisher, metrics, logger)
	engine := router.Setup(cfg, svc, cat, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newVerifier(cfg *config.Config, logger *zap.Logger, metrics *telemetry.Metrics) (payment.Verifier, error) {
	if cfg.Paystack.Mode == "stub" {
		stub := payment.NewStubProvider()
		if cfg.Paystack.StubFixtures != "" {
			n, err := stub.LoadFixtures(cfg.Paystack.StubFixtures)
			if err != nil {
				return nil, err
			}
			logger.Info("stub fixtures loaded", zap.Int("transactions", n))
		}
		logger.Warn("using stub payment provider; references are answered without Paystack")
		return stub, nil
	}
	return payment.NewPaystackProvider(
		cfg.Paystack.BaseURL,
		cfg.Paystack.SecretKey,
		cfg.Paystack.Timeout,
		payment.WithRetry(cfg.Paystack.MaxTries, cfg.Paystack.RetryDelay),
		payment.WithLogger(logger.With(zap.String("component", "paystack"))),
		payment.WithObserver(metrics.ObserveProcessor),
	), nil
}
