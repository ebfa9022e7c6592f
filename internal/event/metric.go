package event

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	handled *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		handled: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "nfcstore",
			Subsystem: "event",
			Name:      "handled_total",
			Help:      "Consumed events, by topic and result.",
		}, []string{"topic", "result"}),
	}
}
