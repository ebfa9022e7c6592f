package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tuanvumaihuynh/nfcstore/internal/storage/mq"
)

// Service is the event service.
type Service struct {
	logger     *slog.Logger
	metrics    *metrics
	mqConsumer mq.Consumer
}

// New creates a new event service.
func New(
	logger *slog.Logger,
	reg prometheus.Registerer,
	mqConsumer mq.Consumer,
) *Service {
	return &Service{
		logger:     logger.With(slog.String("service", "event")),
		metrics:    newMetrics(reg),
		mqConsumer: mqConsumer,
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	if err := s.registerHandlers(); err != nil {
		return nil, err
	}

	mqCleanup, err := s.mqConsumer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run mq consumer: %w", err)
	}

	cleanup := func() {
		mqCleanup()
	}

	return cleanup, nil
}

func (s *Service) registerHandlers() error {
	handlers := map[string]mq.HandlerFunc{
		TopicProductCreated:      decode(s.metrics, s.handleProductCreatedEvent),
		TopicProductUpdated:      decode(s.metrics, s.handleProductUpdatedEvent),
		TopicProductDeleted:      decode(s.metrics, s.handleProductDeletedEvent),
		TopicProductStockUpdated: decode(s.metrics, s.handleProductStockUpdatedEvent),
	}

	for topic, h := range handlers {
		if err := s.mqConsumer.RegisterHandler(topic, h); err != nil {
			return fmt.Errorf("register %s handler: %w", topic, err)
		}
	}

	return nil
}

func decode[T any](m *metrics, handle func(context.Context, T) error) mq.HandlerFunc {
	return func(ctx context.Context, topic string, payload []byte) error {
		var ev T
		if err := json.Unmarshal(payload, &ev); err != nil {
			m.handled.WithLabelValues(topic, "malformed").Inc()
			return fmt.Errorf("unmarshal %s event: %w", topic, err)
		}

		if err := handle(ctx, ev); err != nil {
			m.handled.WithLabelValues(topic, "error").Inc()
			return fmt.Errorf("handle %s event: %w", topic, err)
		}

		m.handled.WithLabelValues(topic, "ok").Inc()
		return nil
	}
}
