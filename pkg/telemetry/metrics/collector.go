package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for calculation metrics.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Config contains configuration for the metrics collector.
type Config struct {
	// Enabled toggles metric recording. When disabled, all record
	// methods are no-ops.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Namespace is the Prometheus metric namespace. Default: "meridian".
	Namespace string `yaml:"namespace" json:"namespace"`

	// DurationBuckets are histogram buckets for calculation duration
	// in seconds.
	DurationBuckets []float64 `yaml:"duration_buckets" json:"duration_buckets"`
}

// DefaultConfig returns the default metrics configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:   true,
		Namespace: "meridian",
	}
}

// Collector registers and records all Prometheus metrics.
type Collector struct {
	config   *Config
	registry *prometheus.Registry

	calculationsTotal   *prometheus.CounterVec
	calculationDuration prometheus.Histogram
	noRuleMatchItems    prometheus.Counter
	sweepRunsTotal      *prometheus.CounterVec
	sweepOrdersTotal    prometheus.Counter
	sweepLastSuccess    prometheus.Gauge
	activeProfiles      prometheus.Gauge
}

// NewCollector creates a metrics collector backed by its own registry
// unless one is provided.
func NewCollector(cfg *Config, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "meridian"
	}
	if len(cfg.DurationBuckets) == 0 {
		// Calculations are in-memory, expect sub-millisecond to tens of ms.
		cfg.DurationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
		calculationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "calculations_total",
			Help:      "Total shipping cost calculations by outcome.",
		}, []string{"outcome"}),
		calculationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "calculation_duration_seconds",
			Help:      "Duration of shipping cost calculations.",
			Buckets:   cfg.DurationBuckets,
		}),
		noRuleMatchItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "no_rule_match_items_total",
			Help:      "Line items that matched no shipping profile.",
		}),
		sweepRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "sweep_runs_total",
			Help:      "Background sweep passes by status.",
		}, []string{"status"}),
		sweepOrdersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "sweep_orders_processed_total",
			Help:      "Orders processed by the background sweep.",
		}),
		sweepLastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "sweep_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful sweep pass.",
		}),
		activeProfiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "active_profiles",
			Help:      "Number of active shipping profiles.",
		}),
	}

	registry.MustRegister(
		c.calculationsTotal,
		c.calculationDuration,
		c.noRuleMatchItems,
		c.sweepRunsTotal,
		c.sweepOrdersTotal,
		c.sweepLastSuccess,
		c.activeProfiles,
	)

	return c
}

// RecordCalculation records one calculation with its outcome, duration
// and the number of items left in the no-match bucket.
func (c *Collector) RecordCalculation(outcome string, duration time.Duration, unmatchedItems int) {
	if !c.config.Enabled {
		return
	}
	c.calculationsTotal.WithLabelValues(outcome).Inc()
	c.calculationDuration.Observe(duration.Seconds())
	if unmatchedItems > 0 {
		c.noRuleMatchItems.Add(float64(unmatchedItems))
	}
}

// RecordSweep records one background sweep pass.
func (c *Collector) RecordSweep(status string, ordersProcessed int) {
	if !c.config.Enabled {
		return
	}
	c.sweepRunsTotal.WithLabelValues(status).Inc()
	c.sweepOrdersTotal.Add(float64(ordersProcessed))
	if status == OutcomeSuccess {
		c.sweepLastSuccess.SetToCurrentTime()
	}
}

// SetActiveProfiles records the current number of active profiles.
func (c *Collector) SetActiveProfiles(n int) {
	if !c.config.Enabled {
		return
	}
	c.activeProfiles.Set(float64(n))
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
