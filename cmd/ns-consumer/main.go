package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tuanvumaihuynh/nfcstore/internal/app"
	"github.com/tuanvumaihuynh/nfcstore/internal/config"
	"github.com/tuanvumaihuynh/nfcstore/internal/event"
	"github.com/tuanvumaihuynh/nfcstore/internal/log"
	"github.com/tuanvumaihuynh/nfcstore/internal/storage/mq"
	"github.com/tuanvumaihuynh/nfcstore/internal/telemetry"
	"github.com/tuanvumaihuynh/nfcstore/pkg/cmdutil"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running consumer application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log     config.Log
		Kafka   config.Kafka
		Metrics config.Metrics
		Otel    config.Otel
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

	kafkaConsumer, err := mq.NewKafkaConsumer(ctx, cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("error creating kafka consumer: %w", err)
	}
	defer kafkaConsumer.Close()

	reg := app.NewRegistry()
	interruptChan := cmdutil.InterruptChan()

	cleanupMetrics, err := app.ServeMetrics(ctx, logger, fmt.Sprintf(":%d", cfg.Metrics.Port), reg)
	if err != nil {
		return fmt.Errorf("error serving metrics: %w", err)
	}

	svc := event.New(logger, reg, kafkaConsumer)
	cleanup, err := svc.Run(ctx)
	if err != nil {
		return fmt.Errorf("error running event service: %w", err)
	}
	logger.InfoContext(ctx, "event service started")

	<-interruptChan

	logger.InfoContext(ctx, "event service is shutting down")
	cleanup()
	if err := cleanupMetrics(ctx); err != nil {
		logger.ErrorContext(ctx, "error shutting down metrics server", slog.Any("error", err))
	}

	logger.InfoContext(ctx, "event service is stopped")

	return nil
}
