// Package outbox holds helpers shared by the outbox writer and the catalog event consumer.
package outbox

import (
	"context"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/tuanvumaihuynh/nfcstore/pkg/correlationid"
)

// Headers captures the trace context and correlation id of ctx so a consumer
// can continue the same trace once the message is relayed.
func Headers(ctx context.Context) map[string]string {
	headers := map[string]string{}
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(headers))

	if id, ok := correlationid.FromContext(ctx); ok {
		headers[correlationid.Header] = id
	}

	return headers
}

// RecordContext restores the trace context and correlation id carried by a Kafka record.
func RecordContext(ctx context.Context, rec *kgo.Record) context.Context {
	headers := make(map[string]string, len(rec.Headers))
	for _, h := range rec.Headers {
		headers[h.Key] = string(h.Value)
	}

	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(headers))
	if id, ok := headers[correlationid.Header]; ok && id != "" {
		ctx = correlationid.NewContext(ctx, id)
	}

	return ctx
}
