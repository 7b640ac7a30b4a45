// Package metrics exposes Prometheus collectors for analyses and corpus reloads.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "specialist_aid"

// Analysis outcomes recorded in the status label.
const (
	StatusOK       = "ok"
	StatusNotReady = "not_ready"
	StatusError    = "error"
)

// Reload outcomes recorded in the result label.
const (
	ReloadSuccess = "success"
	ReloadFailure = "failure"
	ReloadSkipped = "skipped"
)

// Metrics owns a private registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	analyses          *prometheus.CounterVec
	analysisDuration  prometheus.Histogram
	extractedTerms    prometheus.Histogram
	matchedConditions prometheus.Histogram
	confidence        prometheus.Histogram
	corpusConditions  prometheus.Gauge
	corpusFeatures    prometheus.Gauge
	ready             prometheus.Gauge
	reloads           *prometheus.CounterVec
}

// New registers the service collectors plus Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: namespace}),
		prometheus.NewGoCollector(),
	)

	m := &Metrics{
		registry: reg,
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Clinical note analyses by outcome.",
		}, []string{"status"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time to analyze one note.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		extractedTerms: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extracted_terms",
			Help:      "Terms extracted per analysis.",
			Buckets:   prometheus.LinearBuckets(0, 2, 11),
		}),
		matchedConditions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "matched_conditions",
			Help:      "Conditions matched per analysis.",
			Buckets:   prometheus.LinearBuckets(0, 1, 6),
		}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "confidence",
			Help:      "Confidence score per analysis.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		corpusConditions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_conditions",
			Help:      "Conditions in the published index.",
		}),
		corpusFeatures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_features",
			Help:      "TF-IDF features in the published index.",
		}),
		ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ready",
			Help:      "1 when a condition index is published.",
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corpus_reloads_total",
			Help:      "Corpus reloads by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.analyses, m.analysisDuration, m.extractedTerms, m.matchedConditions, m.confidence,
		m.corpusConditions, m.corpusFeatures, m.ready, m.reloads,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveAnalysis records one analysis. Sizes are recorded only for successful analyses.
func (m *Metrics) ObserveAnalysis(status string, elapsed time.Duration, terms, matches int, confidence float64) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(status).Inc()
	m.analysisDuration.Observe(elapsed.Seconds())
	if status != StatusOK {
		return
	}
	m.extractedTerms.Observe(float64(terms))
	m.matchedConditions.Observe(float64(matches))
	m.confidence.Observe(confidence)
}

// ObserveReload records a reload and the resulting corpus shape.
func (m *Metrics) ObserveReload(result string, conditions, features int) {
	if m == nil {
		return
	}
	m.reloads.WithLabelValues(result).Inc()
	switch result {
	case ReloadSuccess:
		m.ready.Set(1)
		m.corpusConditions.Set(float64(conditions))
		m.corpusFeatures.Set(float64(features))
	case ReloadFailure:
		m.ready.Set(0)
		m.corpusConditions.Set(0)
		m.corpusFeatures.Set(0)
	}
}
