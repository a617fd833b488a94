package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aretw0/slotbook/pkg/adapters/fs"
)

// StoreStats is satisfied by *fs.Store.
type StoreStats interface {
	Snapshot() fs.StoreState
}

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// newMetrics registers the HTTP and store metrics on reg. Each server gets
// its own registry so several can coexist in one process.
func newMetrics(reg *prometheus.Registry, store StoreStats) *metrics {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	m := &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slotbook",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "slotbook",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "slotbook",
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),
	}

	if store == nil {
		return m
	}
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "slotbook",
		Name:      "store_operations_total",
		Help:      "Store operations attempted",
	}, func() float64 { return float64(store.Snapshot().Operations) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "slotbook",
		Name:      "store_writes_total",
		Help:      "Store document rewrites",
	}, func() float64 { return float64(store.Snapshot().Writes) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "slotbook",
		Name:      "store_lock_timeouts_total",
		Help:      "Lock acquisitions that gave up",
	}, func() float64 { return float64(store.Snapshot().LockTimeouts) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "slotbook",
		Name:      "store_lock_held",
		Help:      "1 while this process holds the store lock",
	}, func() float64 {
		if store.Snapshot().LockHeld {
			return 1
		}
		return 0
	})
	return m
}
