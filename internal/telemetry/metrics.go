// Package telemetry exposes Prometheus collectors for directory discovery and polling.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/temirov/whatgitbranch/internal/cache"
)

const (
	metricsNamespaceConstant = "what_git_branch"

	scansTotalNameConstant   = "scans_total"
	scansTotalHelpConstant   = "Directory scans performed, by invocation and outcome."
	scanDurationNameConstant = "scan_duration_seconds"
	scanDurationHelpConstant = "Duration of directory scans."
	discoveredNameConstant   = "discovered_directories"
	discoveredHelpConstant   = "Directories found by the most recent successful scan."
	cacheLookupsNameConstant = "cache_lookups_total"
	cacheLookupsHelpConstant = "Directory cache lookups, by backend and result."
	heartbeatsNameConstant   = "heartbeat_ticks_total"
	heartbeatsHelpConstant   = "Polling ticks answered."
	repositoriesNameConstant = "repositories_reported"
	repositoriesHelpConstant = "Repositories included in the most recent polling payload."

	invocationLabelConstant = "invocation"
	outcomeLabelConstant    = "outcome"
	backendLabelConstant    = "backend"
	resultLabelConstant     = "result"

	outcomeSuccessConstant = "success"
	outcomeFailureConstant = "failure"
	resultHitConstant      = "hit"
	resultMissConstant     = "miss"
)

// Metrics groups the collectors registered on one Prometheus registry.
type Metrics struct {
	registry     *prometheus.Registry
	scans        *prometheus.CounterVec
	scanDuration prometheus.Histogram
	discovered   prometheus.Gauge
	cacheLookups *prometheus.CounterVec
	heartbeats   prometheus.Counter
	repositories prometheus.Gauge
}

// NewMetrics registers the collectors, plus Go runtime and process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	metrics := &Metrics{
		registry: registry,
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespaceConstant,
			Name:      scansTotalNameConstant,
			Help:      scansTotalHelpConstant,
		}, []string{invocationLabelConstant, outcomeLabelConstant}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespaceConstant,
			Name:      scanDurationNameConstant,
			Help:      scanDurationHelpConstant,
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}),
		discovered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespaceConstant,
			Name:      discoveredNameConstant,
			Help:      discoveredHelpConstant,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespaceConstant,
			Name:      cacheLookupsNameConstant,
			Help:      cacheLookupsHelpConstant,
		}, []string{backendLabelConstant, resultLabelConstant}),
		heartbeats: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespaceConstant,
			Name:      heartbeatsNameConstant,
			Help:      heartbeatsHelpConstant,
		}),
		repositories: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespaceConstant,
			Name:      repositoriesNameConstant,
			Help:      repositoriesHelpConstant,
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.scans,
		metrics.scanDuration,
		metrics.discovered,
		metrics.cacheLookups,
		metrics.heartbeats,
		metrics.repositories,
	)
	return metrics
}

// Registry returns the registry backing the collectors.
func (metrics *Metrics) Registry() *prometheus.Registry {
	return metrics.registry
}

// ObserveScan records a completed directory scan.
func (metrics *Metrics) ObserveScan(invocation string, duration time.Duration, discovered int, scanError error) {
	outcome := outcomeSuccessConstant
	if scanError != nil {
		outcome = outcomeFailureConstant
	}
	metrics.scans.WithLabelValues(invocation, outcome).Inc()
	metrics.scanDuration.Observe(duration.Seconds())
	if scanError == nil {
		metrics.discovered.Set(float64(discovered))
	}
}

// ObserveCacheLookup records a directory cache lookup.
func (metrics *Metrics) ObserveCacheLookup(backend cache.Backend, hit bool) {
	result := resultMissConstant
	if hit {
		result = resultHitConstant
	}
	metrics.cacheLookups.WithLabelValues(backend.String(), result).Inc()
}

// ObserveHeartbeat records one answered polling tick.
func (metrics *Metrics) ObserveHeartbeat(repositories int) {
	metrics.heartbeats.Inc()
	metrics.repositories.Set(float64(repositories))
}
