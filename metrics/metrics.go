// Package metrics exposes prometheus collectors for cache and upstream
// activity. The Registry satisfies both the cache.Observer and the
// scan.UpstreamObserver contracts so the instrumented packages stay free of
// prometheus imports.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Registry struct {
	reg *prometheus.Registry

	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	cacheEvictions *prometheus.CounterVec

	upstreamRequests *prometheus.CounterVec
	upstreamFailures *prometheus.CounterVec

	scanDuration prometheus.Histogram
}

func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "envscan_cache_hits_total",
			Help: "Cache hits by store.",
		}, []string{"store"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "envscan_cache_misses_total",
			Help: "Cache misses by store, including lazy expiries.",
		}, []string{"store"}),
		cacheEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "envscan_cache_evictions_total",
			Help: "LRU evictions by store.",
		}, []string{"store"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "envscan_upstream_requests_total",
			Help: "Upstream fetch attempts by provider.",
		}, []string{"provider"}),
		upstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "envscan_upstream_failures_total",
			Help: "Upstream fetch failures by provider.",
		}, []string{"provider"}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "envscan_scan_duration_seconds",
			Help:    "End-to-end scan handling time.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	r.reg.MustRegister(
		r.cacheHits,
		r.cacheMisses,
		r.cacheEvictions,
		r.upstreamRequests,
		r.upstreamFailures,
		r.scanDuration,
	)
	return r
}

// Prometheus returns the underlying registry for the /metrics handler.
func (r *Registry) Prometheus() *prometheus.Registry { return r.reg }

func (r *Registry) Hit(store string)      { r.cacheHits.WithLabelValues(store).Inc() }
func (r *Registry) Miss(store string)     { r.cacheMisses.WithLabelValues(store).Inc() }
func (r *Registry) Eviction(store string) { r.cacheEvictions.WithLabelValues(store).Inc() }

func (r *Registry) UpstreamRequest(provider string) {
	r.upstreamRequests.WithLabelValues(provider).Inc()
}

func (r *Registry) UpstreamFailure(provider string) {
	r.upstreamFailures.WithLabelValues(provider).Inc()
}

func (r *Registry) ObserveScanDuration(seconds float64) {
	r.scanDuration.Observe(seconds)
}
