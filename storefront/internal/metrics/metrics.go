package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "storefront"

// Collector is a prometheus.Collector for backend calls, the query cache
// and the invalidation feed. A nil *Collector is valid and records nothing.
type Collector struct {
	apiRequests   *prometheus.CounterVec
	apiDuration   *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	cacheFetches  *prometheus.CounterVec
	invalidations prometheus.Counter
	events        *prometheus.CounterVec
}

func NewCollector() *Collector {
	return &Collector{
		apiRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Backend requests by method, route and status.",
			}, []string{"method", "route", "status"},
		),
		apiDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "Latency of backend requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			}, []string{"method", "route"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Query cache lookups by result (hit, miss).",
			}, []string{"result"},
		),
		cacheFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "cache",
				Name:      "fetches_total",
				Help:      "Query functions executed by outcome.",
			}, []string{"outcome"},
		),
		invalidations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "cache",
				Name:      "invalidated_entries_total",
				Help:      "Cache entries marked stale or removed.",
			},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "events",
				Name:      "received_total",
				Help:      "Invalidation events received by source and type.",
			}, []string{"source", "type"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.apiRequests.Describe(ch)
	c.apiDuration.Describe(ch)
	c.cacheLookups.Describe(ch)
	c.cacheFetches.Describe(ch)
	c.invalidations.Describe(ch)
	c.events.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.apiRequests.Collect(ch)
	c.apiDuration.Collect(ch)
	c.cacheLookups.Collect(ch)
	c.cacheFetches.Collect(ch)
	c.invalidations.Collect(ch)
	c.events.Collect(ch)
}

func (c *Collector) ObserveRequest(method, path string, status int, took time.Duration) {
	if c == nil {
		return
	}
	route := Route(path)
	c.apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.apiDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

func (c *Collector) CacheHit() {
	if c == nil {
		return
	}
	c.cacheLookups.WithLabelValues("hit").Inc()
}

func (c *Collector) CacheMiss() {
	if c == nil {
		return
	}
	c.cacheLookups.WithLabelValues("miss").Inc()
}

func (c *Collector) Fetch(err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.cacheFetches.WithLabelValues(outcome).Inc()
}

func (c *Collector) Invalidated(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.invalidations.Add(float64(n))
}

func (c *Collector) Event(source, typ string) {
	if c == nil {
		return
	}
	c.events.WithLabelValues(source, typ).Inc()
}

// Route collapses numeric path segments so ids do not explode label
// cardinality: /book/42 becomes /book/:id.
func Route(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
