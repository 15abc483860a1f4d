// Package metrics exports output health and frame timing to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/coreman2200/arcaluminis-opc/internal/output"
)

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "arcaluminis").
	Namespace string

	// ConstLabels are added to every metric.
	ConstLabels prometheus.Labels

	// Buckets for the frame duration histogram.
	// Default: 1ms .. ~1s exponential.
	Buckets []float64
}

// Option configures the collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "arcaluminis",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 11),
	}
}

// Collector holds the render loop metrics.
type Collector struct {
	connected     prometheus.GaugeFunc
	errors        prometheus.CounterFunc
	frames        prometheus.Counter
	frameDuration prometheus.Histogram
}

// New registers metrics for o against reg. The connection gauge and error
// counter read o on every scrape.
func New(o output.Output, reg prometheus.Registerer, opts ...Option) *Collector {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(reg)

	return &Collector{
		connected: factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Name:        "output_connected",
			Help:        "1 while the output device is connected",
			ConstLabels: cfg.ConstLabels,
		}, func() float64 {
			if o.IsConnected() {
				return 1
			}
			return 0
		}),

		errors: factory.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "output_errors_total",
			Help:        "Frames the output device failed to send",
			ConstLabels: cfg.ConstLabels,
		}, func() float64 {
			return float64(o.ErrorCounter())
		}),

		frames: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "frames_total",
			Help:        "Frames rendered and handed to the output",
			ConstLabels: cfg.ConstLabels,
		}),

		frameDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Name:        "frame_duration_seconds",
			Help:        "Time spent rendering and sending one frame",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}),
	}
}

// ObserveFrame records one tick that took d.
func (c *Collector) ObserveFrame(d time.Duration) {
	c.frames.Inc()
	c.frameDuration.Observe(d.Seconds())
}
