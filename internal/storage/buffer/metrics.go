package buffer

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the counters exported per pool instance. They are deliberately
// plain prometheus Counters rather than a full OpenTelemetry meter: a
// buffer pool has a handful of monotonic events to report, not the
// dimensional, high-cardinality metrics OTel is built for.
type Metrics struct {
	Hits            prometheus.Counter
	Misses          prometheus.Counter
	Evictions       prometheus.Counter
	DirtyWriteBacks prometheus.Counter
}

// NewMetrics builds and registers the counters for one pool instance.
// instance labels the metric names so a sharded pool's per-shard counters
// don't collide on registration.
func NewMetrics(reg prometheus.Registerer, instance int) *Metrics {
	m := &Metrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "pagepool",
			Name:        "fetch_hits_total",
			Help:        "Number of FetchPage calls served from a resident frame.",
			ConstLabels: prometheus.Labels{"instance": strconv.Itoa(instance)},
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "pagepool",
			Name:        "fetch_misses_total",
			Help:        "Number of FetchPage calls that required a disk read.",
			ConstLabels: prometheus.Labels{"instance": strconv.Itoa(instance)},
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "pagepool",
			Name:        "evictions_total",
			Help:        "Number of frames evicted to make room for a new page.",
			ConstLabels: prometheus.Labels{"instance": strconv.Itoa(instance)},
		}),
		DirtyWriteBacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "pagepool",
			Name:        "dirty_writebacks_total",
			Help:        "Number of dirty frames written back to disk before reuse.",
			ConstLabels: prometheus.Labels{"instance": strconv.Itoa(instance)},
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses, m.Evictions, m.DirtyWriteBacks)
	}
	return m
}

