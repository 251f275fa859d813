// Package metrics exposes Prometheus metrics and rolling query latency stats.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the service's Prometheus metrics. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec

	Queries       *prometheus.CounterVec
	QueryDuration prometheus.Histogram
	QueryResults  prometheus.Histogram

	Reloads      *prometheus.CounterVec
	LoadWarnings prometheus.Counter
	Documents    prometheus.Gauge
	Sections     prometheus.Gauge
	Tokens       prometheus.Gauge

	QueryStats *QueryStats
}

// NewCollector creates a collector with its own registry. window bounds the
// rolling latency samples.
func NewCollector(namespace string, window time.Duration) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Total number of queries by mode",
		}, []string{"mode"}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query latency in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),
		QueryResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_results",
			Help:      "Number of sections returned per query",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}),
		Reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Corpus loads and reloads by result",
		}, []string{"result"}),
		LoadWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_warnings_total",
			Help:      "Skipped files and malformed sections reported by loads",
		}),
		Documents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_documents",
			Help:      "Documents in the live corpus snapshot",
		}),
		Sections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_sections",
			Help:      "Sections in the live corpus snapshot",
		}),
		Tokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_tokens",
			Help:      "Distinct tokens in the live index",
		}),
		QueryStats: NewQueryStats(window),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.Queries,
		c.QueryDuration,
		c.QueryResults,
		c.Reloads,
		c.LoadWarnings,
		c.Documents,
		c.Sections,
		c.Tokens,
	)
	return c
}

// ObserveQuery records one query.
func (c *Collector) ObserveQuery(mode string, d time.Duration, results int) {
	if c == nil {
		return
	}
	c.Queries.WithLabelValues(mode).Inc()
	c.QueryDuration.Observe(d.Seconds())
	c.QueryResults.Observe(float64(results))
	c.QueryStats.Record(mode, d, results)
}

// ObserveLoad records a successful load and the size of the new snapshot.
func (c *Collector) ObserveLoad(documents, sections, tokens, warnings int) {
	if c == nil {
		return
	}
	c.Reloads.WithLabelValues("ok").Inc()
	c.LoadWarnings.Add(float64(warnings))
	c.Documents.Set(float64(documents))
	c.Sections.Set(float64(sections))
	c.Tokens.Set(float64(tokens))
}

// ObserveLoadFailure records a load that left the snapshot unchanged.
func (c *Collector) ObserveLoadFailure() {
	if c == nil {
		return
	}
	c.Reloads.WithLabelValues("error").Inc()
}

// ObserveRequest records one HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
