package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payment-gateway/internal/bank"
	"payment-gateway/internal/config"
	"payment-gateway/internal/database/migrations"
	"payment-gateway/internal/kafka"
	"payment-gateway/internal/logger"
	"payment-gateway/internal/payment"
	"payment-gateway/internal/payment/api"
	"payment-gateway/internal/payment/cache"
	"payment-gateway/internal/payment/storage"
	"payment-gateway/internal/tracing"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// connectStore opens the configured payment store. Postgres connections are
// retried a few times while the database comes up.
func connectStore(ctx context.Context, cfg *config.Config, logger *logger.Logger) (storage.Store, error) {
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("DATABASE", "Using in-memory payment store; payments are lost on restart")
		return storage.NewMemoryStore(), nil

	case "sqlite":
		return storage.NewSQLiteStore(ctx, cfg.Database.SQLitePath, logger)

	case "postgres":
		const maxRetries = 5
		var lastErr error
		for i := 0; i < maxRetries; i++ {
			logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
			db, err := storage.OpenPostgres(ctx, cfg.Database, logger)
			if err == nil {
				if cfg.Migrations.AutoMigrate {
					runner := migrations.NewRunner(db, migrations.MigrateOptions{
						MigrationsDir: cfg.Migrations.Dir,
						AutoMigrate:   true,
					}, logger)
					err = runner.RunMigrations()
					runner.Close()
					if err != nil {
						db.Close()
						return nil, fmt.Errorf("failed to run migrations: %w", err)
					}
				}
				return storage.NewBunStore(db, logger), nil
			}
			lastErr = err
			if i < maxRetries-1 {
				time.Sleep(2 * time.Second)
			}
		}
		return nil, fmt.Errorf("failed to connect to PostgreSQL after %d attempts: %w", maxRetries, lastErr)

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Database.Driver)
	}
}

// connectCache returns the Redis cache when REDIS_ADDR is set and the
// in-process cache otherwise.
func connectCache(ctx context.Context, cfg *config.Config, logger *logger.Logger) (payment.Cache, api.HealthCheck, func()) {
	if cfg.Redis.Addr == "" {
		logger.Info("CACHE", "REDIS_ADDR not set, using in-process payment cache")
		return cache.NewMemoryCache(), nil, func() {}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("CACHE", fmt.Sprintf("Redis at %s not reachable yet: %v", cfg.Redis.Addr, err))
	} else {
		logger.Info("CACHE", fmt.Sprintf("Redis connection successful to %s (DB: %d)", cfg.Redis.Addr, cfg.Redis.DB))
	}

	redisCache := cache.NewRedisCache(redisClient, logger)
	return redisCache, redisCache.HealthCheck, func() { redisClient.Close() }
}

// tracingExporters batches spans to the OTLP collector and, when enabled,
// to stdout. Exporter errors leave tracing in-process only.
func tracingExporters(ctx context.Context, cfg config.TracingConfig, logger *logger.Logger) []sdktrace.TracerProviderOption {
	var opts []sdktrace.TracerProviderOption

	if cfg.OTLPEndpoint != "" {
		exporter, err := tracing.NewOTLPExporter(ctx, cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("TRACING", err.Error())
		} else {
			opts = append(opts, sdktrace.WithBatcher(exporter))
			logger.Info("TRACING", fmt.Sprintf("Exporting spans to %s", cfg.OTLPEndpoint))
		}
	}

	if cfg.ConsoleExporter {
		exporter, err := tracing.NewConsoleExporter(os.Stdout)
		if err != nil {
			logger.Warn("TRACING", err.Error())
		} else {
			opts = append(opts, sdktrace.WithBatcher(exporter))
		}
	}

	if len(opts) == 0 {
		logger.Warn("TRACING", "No span exporter configured; set OTEL_EXPORTER_OTLP_ENDPOINT to export spans")
	}
	return opts
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	log.SetLevel(logger.ParseLevel(cfg.LogLevel))
	log.Info("APP", "Starting payment gateway")

	ctx := context.Background()

	if cfg.Tracing.Enabled {
		tp := tracing.Init(cfg.Tracing.ServiceName, tracingExporters(ctx, cfg.Tracing, log)...)
		defer tp.Shutdown(ctx)
		log.Info("TRACING", fmt.Sprintf("Tracer provider installed for %s", cfg.Tracing.ServiceName))
	}

	store, err := connectStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer store.Close()

	resultCache, cacheHealth, closeCache := connectCache(ctx, cfg, log)
	defer closeCache()

	var events payment.EventPublisher
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(ctx, cfg.Kafka.Brokers, []string{cfg.Kafka.Topic}, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer producer.Close()
		events = producer
		log.Info("KAFKA", fmt.Sprintf("Publishing payment events to %s", cfg.Kafka.Topic))
	}

	bankHTTP := &http.Client{
		Timeout:   cfg.Bank.RequestTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	bankClient := bank.NewClient(cfg.Bank.BaseURL, bankHTTP, bank.RetryPolicy{
		MaxAttempts: cfg.Bank.MaxAttempts,
		BaseDelay:   cfg.Bank.BaseDelay,
	}, log)
	log.Info("BANK", fmt.Sprintf("Bank simulator at %s", cfg.Bank.BaseURL))

	service := payment.NewPaymentService(store, resultCache, bankClient, events, log, cfg.Cache.TTL)

	checks := map[string]api.HealthCheck{"store": store.HealthCheck}
	if cacheHealth != nil {
		checks["cache"] = cacheHealth
	}
	handler := api.NewHandler(service, log, checks)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      api.NewRouter(handler, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Payment gateway running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Payment gateway shutdown complete")
	}
}
