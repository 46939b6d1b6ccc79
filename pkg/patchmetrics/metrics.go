// Package patchmetrics exports Prometheus metrics for idom patches.
//
// A Collector is an idom.Observer:
//
//	m := patchmetrics.New(patchmetrics.WithNamespace("myapp"))
//	p := idom.NewPatcher(idom.WithObserver(m))
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
package patchmetrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/idom/pkg/idom"
)

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "idom").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for patch duration.
	// Default: a range from 50µs to 250ms.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Patches are usually well under a millisecond.
var defaultBuckets = []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25}

func defaultConfig() Config {
	return Config{
		Namespace: "idom",
		Buckets:   defaultBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector records patch metrics:
//   - idom_patches_total: Counter of patches by mode and status
//   - idom_patch_duration_seconds: Histogram of patch duration by mode
//   - idom_nodes_created_total: Counter of nodes created by mode
//   - idom_nodes_deleted_total: Counter of nodes removed by mode
type Collector struct {
	patchesTotal  *prometheus.CounterVec
	patchDuration *prometheus.HistogramVec
	nodesCreated  *prometheus.CounterVec
	nodesDeleted  *prometheus.CounterVec
}

var _ idom.Observer = (*Collector)(nil)

// New creates a Collector and registers its metrics. It panics if metrics
// with the same names are already registered with the registry.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Collector{
		patchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_total",
			Help:        "Total number of patches run",
			ConstLabels: config.ConstLabels,
		}, []string{"mode", "status"}),

		patchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patch_duration_seconds",
			Help:        "Patch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"mode"}),

		nodesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_created_total",
			Help:        "Total number of nodes created by patches",
			ConstLabels: config.ConstLabels,
		}, []string{"mode"}),

		nodesDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_deleted_total",
			Help:        "Total number of nodes removed by patches",
			ConstLabels: config.ConstLabels,
		}, []string{"mode"}),
	}
}

// ObservePatch records one finished patch.
func (c *Collector) ObservePatch(_ context.Context, stats idom.PatchStats) {
	mode := string(stats.Mode)
	status := "success"
	if stats.Panicked {
		status = "panic"
	}
	c.patchesTotal.WithLabelValues(mode, status).Inc()
	c.patchDuration.WithLabelValues(mode).Observe(stats.Duration.Seconds())
	c.nodesCreated.WithLabelValues(mode).Add(float64(stats.Created))
	c.nodesDeleted.WithLabelValues(mode).Add(float64(stats.Deleted))
}
