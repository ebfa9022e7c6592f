package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/nfcstore/internal/http/metric"
)

const (
	MetricsPath = "/metrics"
	HealthPath  = "/health"
)

// Metrics records request count, latency and response size per route
// pattern. Latency samples carry the trace id as exemplar when sampled.
func Metrics(m *metric.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPath(r) {
				next.ServeHTTP(w, r)
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			m.InflightRequests.Inc()
			defer m.InflightRequests.Dec()

			next.ServeHTTP(ww, r)

			route := routePattern(r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			m.ResponseSize.WithLabelValues(r.Method, route).Observe(float64(ww.BytesWritten()))

			observeWithTrace(m.RequestDuration.WithLabelValues(r.Method, route), r, time.Since(start).Seconds())
		})
	}
}

func observeWithTrace(o prometheus.Observer, r *http.Request, v float64) {
	sc := trace.SpanContextFromContext(r.Context())
	if eo, ok := o.(prometheus.ExemplarObserver); ok && sc.IsSampled() {
		eo.ObserveWithExemplar(v, prometheus.Labels{"trace_id": sc.TraceID().String()})
		return
	}
	o.Observe(v)
}
