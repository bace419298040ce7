package analytics

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheMetricsMu          sync.Mutex
	cacheMetricsInitialized bool

	cacheHitCounter    *prometheus.CounterVec
	cacheMissCounter   *prometheus.CounterVec
	buildDurationHisto *prometheus.HistogramVec
	cacheMetricsError  error
)

// SetupCacheMetrics registers report cache metrics once. Later calls return
// the first outcome.
func SetupCacheMetrics(reg prometheus.Registerer) error {
	cacheMetricsMu.Lock()
	defer cacheMetricsMu.Unlock()
	if cacheMetricsInitialized {
		return cacheMetricsError
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cacheHitCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "findash_report_cache_hits_total",
		Help: "Number of derived report cache hits.",
	}, []string{"section", "period"})
	cacheMissCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "findash_report_cache_miss_total",
		Help: "Number of derived report cache misses.",
	}, []string{"section", "period"})
	buildDurationHisto = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "findash_report_build_duration_seconds",
		Help:    "Time spent deriving a report section from snapshots.",
		Buckets: prometheus.DefBuckets,
	}, []string{"section", "period"})

	for _, collector := range []prometheus.Collector{cacheHitCounter, cacheMissCounter, buildDurationHisto} {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				switch c := already.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					if collector == cacheHitCounter {
						cacheHitCounter = c
					} else {
						cacheMissCounter = c
					}
				case *prometheus.HistogramVec:
					buildDurationHisto = c
				default:
					cacheMetricsError = fmt.Errorf("report cache metrics: unexpected collector type %T", c)
				}
				continue
			}
			cacheMetricsError = err
			cacheHitCounter = nil
			cacheMissCounter = nil
			buildDurationHisto = nil
			cacheMetricsInitialized = true
			return cacheMetricsError
		}
	}
	cacheMetricsInitialized = true
	return cacheMetricsError
}

func recordCacheHit(section, period string) {
	if cacheHitCounter == nil {
		return
	}
	cacheHitCounter.WithLabelValues(section, period).Inc()
}

func recordCacheMiss(section, period string) {
	if cacheMissCounter == nil {
		return
	}
	cacheMissCounter.WithLabelValues(section, period).Inc()
}

func observeBuildDuration(section, period string, d time.Duration) {
	if buildDurationHisto == nil {
		return
	}
	buildDurationHisto.WithLabelValues(section, period).Observe(d.Seconds())
}
