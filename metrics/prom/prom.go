// Package prom exports cache signals as Prometheus metrics.
package prom

import (
	"github.com/IvanBrykalov/sizecache/cache"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter implements cache.Metrics and exports Prometheus counters/gauges.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits     prometheus.Counter
	misses   prometheus.Counter
	rejects  prometheus.Counter
	evicts   *prometheus.CounterVec
	entries  prometheus.Gauge
	units    prometheus.Gauge
	maxUnits prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		})
	}
	a := &Adapter{
		hits:    counter("hits_total", "Cache hits"),
		misses:  counter("misses_total", "Cache misses"),
		rejects: counter("rejects_total", "Entries refused because they can never fit"),
		evicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "evictions_total",
				Help:        "Cache evictions by reason",
				ConstLabels: constLabels,
			},
			[]string{"reason"},
		),
		entries:  gauge("size_entries", "Number of resident entries"),
		units:    gauge("size_units", "Occupied size units"),
		maxUnits: gauge("max_size_units", "Capacity ceiling in size units"),
	}
	reg.MustRegister(a.hits, a.misses, a.rejects, a.evicts, a.entries, a.units, a.maxUnits)
	return a
}

// Hit increments the hit counter.
func (a *Adapter) Hit() { a.hits.Inc() }

// Miss increments the miss counter.
func (a *Adapter) Miss() { a.misses.Inc() }

// Reject increments the rejected-insert counter.
func (a *Adapter) Reject() { a.rejects.Inc() }

// Evict increments the eviction counter with a reason label
// (capacity, shrink or purge).
func (a *Adapter) Evict(r cache.EvictReason) {
	a.evicts.WithLabelValues(r.String()).Inc()
}

// Size updates the entry, occupancy and ceiling gauges.
func (a *Adapter) Size(entries int, units, maxSize int64) {
	a.entries.Set(float64(entries))
	a.units.Set(float64(units))
	a.maxUnits.Set(float64(maxSize))
}

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)
