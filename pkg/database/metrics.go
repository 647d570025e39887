package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RegisterPoolMetrics exposes pgxpool statistics as Prometheus gauges labeled
// with the service name. Call once per pool at startup.
func RegisterPoolMetrics(pool *pgxpool.Pool, serviceName string) {
	labels := prometheus.Labels{"service": serviceName}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "db_pool_total_conns",
		Help:        "Total number of connections currently in the pool",
		ConstLabels: labels,
	}, func() float64 {
		return float64(pool.Stat().TotalConns())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "db_pool_acquired_conns",
		Help:        "Number of connections currently checked out of the pool",
		ConstLabels: labels,
	}, func() float64 {
		return float64(pool.Stat().AcquiredConns())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "db_pool_idle_conns",
		Help:        "Number of idle connections in the pool",
		ConstLabels: labels,
	}, func() float64 {
		return float64(pool.Stat().IdleConns())
	})
}
