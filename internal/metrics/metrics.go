// Package metrics exposes the service's Prometheus collectors. All recording
// methods are safe on a nil *Metrics, which disables collection.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "thermohouse"

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	quotes          *prometheus.CounterVec
	leadsCreated    *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	geocodeFailures prometheus.Counter
	feedDrops       prometheus.Counter
	liveViews       prometheus.Gauge
}

// New creates and registers every collector.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Quotes computed by result.",
		}, []string{"result"}),
		leadsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_created_total",
			Help:      "Leads created by channel.",
		}, []string{"channel"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lead_transitions_total",
			Help:      "Pipeline status changes.",
		}, []string{"from", "to"}),
		geocodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_failures_total",
			Help:      "Reverse geocoding lookups that failed after an area was drawn.",
		}),
		feedDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_events_dropped_total",
			Help:      "Change events dropped because a live view was not keeping up.",
		}),
		liveViews: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_views",
			Help:      "Open staff lead views.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.quotes,
		m.leadsCreated,
		m.transitions,
		m.geocodeFailures,
		m.feedDrops,
		m.liveViews,
	)
	return m
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency keyed by the route pattern,
// so path parameters do not explode label cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// QuoteServed counts a successful quote.
func (m *Metrics) QuoteServed(outOfZone bool) {
	if m == nil {
		return
	}
	result := "ok"
	if outOfZone {
		result = "out_of_zone"
	}
	m.quotes.WithLabelValues(result).Inc()
}

// QuoteFailed counts a quote that could not be priced.
func (m *Metrics) QuoteFailed() {
	if m == nil {
		return
	}
	m.quotes.WithLabelValues("error").Inc()
}

func (m *Metrics) LeadCreated(channel string) {
	if m == nil {
		return
	}
	m.leadsCreated.WithLabelValues(channel).Inc()
}

func (m *Metrics) LeadTransitioned(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) GeocodeFailed() {
	if m == nil {
		return
	}
	m.geocodeFailures.Inc()
}

func (m *Metrics) FeedDropped() {
	if m == nil {
		return
	}
	m.feedDrops.Inc()
}

func (m *Metrics) SetLiveViews(n int) {
	if m == nil {
		return
	}
	m.liveViews.Set(float64(n))
}

// PoolStatsFunc reports acquired, idle and total database connections.
type PoolStatsFunc func() (acquired, idle, total int32)

// RegisterPool exposes database pool usage, sampled on every scrape.
func (m *Metrics) RegisterPool(stats PoolStatsFunc) {
	if m == nil || stats == nil {
		return
	}
	gauge := func(name, help string, pick func(a, i, t int32) int32) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 {
			return float64(pick(stats()))
		})
	}
	m.registry.MustRegister(
		gauge("acquired_connections", "Connections currently checked out.", func(a, _, _ int32) int32 { return a }),
		gauge("idle_connections", "Idle connections in the pool.", func(_, i, _ int32) int32 { return i }),
		gauge("total_connections", "Open connections in the pool.", func(_, _, t int32) int32 { return t }),
	)
}
