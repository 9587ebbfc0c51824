// Package observability exposes Prometheus metrics for the rendering pipeline.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	rendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "countdown_renders_total",
			Help: "Total number of countdown images rendered, by format and template",
		},
		[]string{"format", "template"},
	)

	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "countdown_png_cache_lookups_total",
			Help: "Total number of PNG cache lookups, by result",
		},
		[]string{"result"},
	)

	rasterizeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "countdown_rasterize_duration_seconds",
			Help:    "Time spent converting SVG to PNG",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"backend"},
	)

	rasterizeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "countdown_rasterize_errors_total",
			Help: "Total number of failed rasterizations",
		},
		[]string{"backend"},
	)
)

// Recorder receives pipeline events.
type Recorder interface {
	Rendered(format, template string)
	CacheLookup(result string)
	Rasterized(backend string, elapsed time.Duration, err error)
}

// Prometheus records pipeline events to the default Prometheus registry.
type Prometheus struct{}

// Rendered counts one rendered image.
func (Prometheus) Rendered(format, template string) {
	rendersTotal.WithLabelValues(format, template).Inc()
}

// CacheLookup counts one cache lookup.
func (Prometheus) CacheLookup(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// Rasterized observes one rasterization.
func (Prometheus) Rasterized(backend string, elapsed time.Duration, err error) {
	rasterizeDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
	if err != nil {
		rasterizeErrorsTotal.WithLabelValues(backend).Inc()
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Rendered(string, string)                 {}
func (Nop) CacheLookup(string)                      {}
func (Nop) Rasterized(string, time.Duration, error) {}
