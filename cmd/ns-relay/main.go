package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tuanvumaihuynh/nfcstore/internal/app"
	"github.com/tuanvumaihuynh/nfcstore/internal/config"
	"github.com/tuanvumaihuynh/nfcstore/internal/log"
	"github.com/tuanvumaihuynh/nfcstore/internal/relay"
	"github.com/tuanvumaihuynh/nfcstore/internal/repository"
	"github.com/tuanvumaihuynh/nfcstore/internal/storage/db"
	"github.com/tuanvumaihuynh/nfcstore/internal/storage/mq"
	"github.com/tuanvumaihuynh/nfcstore/internal/telemetry"
	"github.com/tuanvumaihuynh/nfcstore/pkg/cmdutil"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running relay application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
		Relay    config.Relay
		Kafka    config.Kafka
		Metrics  config.Metrics
		Otel     config.Otel
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	dbClient := db.NewClient(pgxPool)
	reg := app.NewRegistry()
	reg.MustRegister(db.NewPoolCollector(pgxPool))

	kafkaProducer, err := mq.NewKafkaProducer(ctx, cfg.Kafka)
	if err != nil {
		return fmt.Errorf("error creating kafka producer: %w", err)
	}
	defer kafkaProducer.Close()

	outboxMsgRepository := repository.NewOutboxMsgRepository(dbClient)

	interruptChan := cmdutil.InterruptChan()

	cleanupMetrics, err := app.ServeMetrics(ctx, logger, fmt.Sprintf(":%d", cfg.Metrics.Port), reg)
	if err != nil {
		return fmt.Errorf("error serving metrics: %w", err)
	}

	svc := relay.NewService(cfg.Relay, logger, reg, dbClient, outboxMsgRepository, kafkaProducer)
	cleanup := svc.Run(ctx)
	logger.InfoContext(ctx, "relay service started")

	<-interruptChan

	logger.InfoContext(ctx, "relay service is shutting down")
	cleanup()
	if err := cleanupMetrics(ctx); err != nil {
		logger.ErrorContext(ctx, "error shutting down metrics server", slog.Any("error", err))
	}

	logger.InfoContext(ctx, "relay service is stopped")

	return nil
}
