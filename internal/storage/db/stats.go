package db

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolCollector exports pgxpool statistics.
type PoolCollector struct {
	stat func() *pgxpool.Stat

	acquired   *prometheus.Desc
	idle       *prometheus.Desc
	total      *prometheus.Desc
	max        *prometheus.Desc
	acquires   *prometheus.Desc
	emptyWaits *prometheus.Desc
}

var _ prometheus.Collector = (*PoolCollector)(nil)

func NewPoolCollector(pool *pgxpool.Pool) *PoolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("nfcstore", "db_pool", name), help, nil, nil)
	}

	return &PoolCollector{
		stat:       pool.Stat,
		acquired:   desc("acquired_conns", "Connections currently checked out."),
		idle:       desc("idle_conns", "Idle connections in the pool."),
		total:      desc("total_conns", "Open connections in the pool."),
		max:        desc("max_conns", "Maximum pool size."),
		acquires:   desc("acquires_total", "Successful connection acquisitions."),
		emptyWaits: desc("empty_acquire_waits_total", "Acquisitions that had to wait for a connection."),
	}
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquired
	ch <- c.idle
	ch <- c.total
	ch <- c.max
	ch <- c.acquires
	ch <- c.emptyWaits
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stat()
	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.GaugeValue, float64(s.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(s.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, float64(s.MaxConns()))
	ch <- prometheus.MustNewConstMetric(c.acquires, prometheus.CounterValue, float64(s.AcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.emptyWaits, prometheus.CounterValue, float64(s.EmptyAcquireCount()))
}
