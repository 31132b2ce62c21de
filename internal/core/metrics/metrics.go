// Package metrics holds the prometheus collectors for stem intake and
// bouquet assembly. Each Metrics owns its registry so runs and tests do
// not share counters.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stemkeeper"

// Metrics is the collector set. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// stems counts stem arrivals.
	// Labels: size (S, L), outcome (retained, saturated, assembled)
	stems *prometheus.CounterVec

	// bouquets counts emitted bouquets.
	// Labels: size, design
	bouquets *prometheus.CounterVec

	// designs is the number of designs registered per pool.
	designs *prometheus.GaugeVec

	// bouquetStems is the stem count distribution of emitted bouquets.
	bouquetStems prometheus.Histogram
}

// New creates collectors on a fresh registry. withRuntime adds the Go and
// process collectors, which only make sense for the long-running server.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stems_total",
			Help:      "Stem arrivals by size class and outcome",
		}, []string{"size", "outcome"}),
		bouquets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bouquets_total",
			Help:      "Bouquets emitted by size class and design",
		}, []string{"size", "design"}),
		designs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "designs",
			Help:      "Designs registered per size class",
		}, []string{"size"}),
		bouquetStems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bouquet_stems",
			Help:      "Stems per emitted bouquet",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 127},
		}),
	}
	m.registry.MustRegister(m.stems, m.bouquets, m.designs, m.bouquetStems)
	if withRuntime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveStem records one stem arrival.
func (m *Metrics) ObserveStem(size, outcome string) {
	if m == nil {
		return
	}
	m.stems.WithLabelValues(size, outcome).Inc()
}

// ObserveBouquet records one emitted bouquet of n stems.
func (m *Metrics) ObserveBouquet(size, design string, n int) {
	if m == nil {
		return
	}
	m.bouquets.WithLabelValues(size, design).Inc()
	m.bouquetStems.Observe(float64(n))
}

// SetDesigns sets the registered design count for a size class.
func (m *Metrics) SetDesigns(size string, n int) {
	if m == nil {
		return
	}
	m.designs.WithLabelValues(size).Set(float64(n))
}

// WriteTextfile writes the registry in text exposition format, suitable for
// the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Handler serves the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
