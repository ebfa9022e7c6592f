package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	relayed *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		relayed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "nfcstore",
			Subsystem: "relay",
			Name:      "outbox_msgs_total",
			Help:      "Outbox messages relayed, by topic and result.",
		}, []string{"topic", "result"}),
	}
}
