// Package prometheus exposes ClauseLens runtime metrics on a private
// registry, keeping /metrics scoped to what this process registers.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CollectorConfig controls what the registry exposes beyond app metrics.
type CollectorConfig struct {
	Namespace            string
	EnableGoMetrics      bool
	EnableProcessMetrics bool
	ConstLabels          map[string]string
}

// Collector owns the metric registry one process serves on /metrics.
type Collector struct {
	registry  *prometheus.Registry
	namespace string
	labels    prometheus.Labels
}

// NewCollector builds a registry with the configured runtime collectors.
func NewCollector(cfg CollectorConfig) *Collector {
	if cfg.Namespace == "" {
		cfg.Namespace = "clauselens"
	}

	registry := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	if cfg.EnableGoMetrics {
		registry.MustRegister(collectors.NewGoCollector())
	}

	return &Collector{
		registry:  registry,
		namespace: cfg.Namespace,
		labels:    cfg.ConstLabels,
	}
}

// Handler serves the registry in OpenMetrics-capable text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// MustRegister adds extra collectors to the registry.
func (c *Collector) MustRegister(cs ...prometheus.Collector) {
	c.registry.MustRegister(cs...)
}

func (c *Collector) newCounter(name, help string) prometheus.Counter {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   c.namespace,
		Name:        name,
		Help:        help,
		ConstLabels: c.labels,
	})
	c.registry.MustRegister(counter)
	return counter
}

func (c *Collector) newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   c.namespace,
		Name:        name,
		Help:        help,
		ConstLabels: c.labels,
	}, labels)
	c.registry.MustRegister(vec)
	return vec
}

func (c *Collector) newGauge(name, help string) prometheus.Gauge {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   c.namespace,
		Name:        name,
		Help:        help,
		ConstLabels: c.labels,
	})
	c.registry.MustRegister(gauge)
	return gauge
}

func (c *Collector) newHistogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   c.namespace,
		Name:        name,
		Help:        help,
		ConstLabels: c.labels,
		Buckets:     buckets,
	}, labels)
	c.registry.MustRegister(vec)
	return vec
}
