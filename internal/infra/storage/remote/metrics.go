package remote

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transfer operation labels.
const (
	opUpload   = "upload"
	opDownload = "download"
)

// Metrics holds the collectors reported by a Backend.
type Metrics struct {
	Transfers *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
	Workers   prometheus.Gauge
	Queued    prometheus.Gauge
	Abandoned prometheus.Counter
}

// NewMetrics builds the backend collectors and registers them on reg.
// A nil reg yields working but unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transfers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fishlog",
			Subsystem: "remote",
			Name:      "transfers_total",
			Help:      "Completed document transfers by operation and result.",
		}, []string{"op", "result"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fishlog",
			Subsystem: "remote",
			Name:      "transfer_duration_seconds",
			Help:      "Document transfer latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		Workers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "fishlog",
			Subsystem: "remote",
			Name:      "workers",
			Help:      "Per-resource transfer workers currently alive.",
		}),
		Queued: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "fishlog",
			Subsystem: "remote",
			Name:      "queued_transfers",
			Help:      "Transfers submitted but not yet finished.",
		}),
		Abandoned: f.NewCounter(prometheus.CounterOpts{
			Namespace: "fishlog",
			Subsystem: "remote",
			Name:      "abandoned_workers_total",
			Help:      "Workers that did not drain within the shutdown timeout.",
		}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
