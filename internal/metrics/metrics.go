// Package metrics exposes Prometheus counters for the site.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s13core_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "s13core_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	FeedRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s13core_feed_runs_total",
			Help: "Total number of feed retrievals and processing runs",
		},
		[]string{"feed", "operation", "outcome"},
	)
	FeedArticles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "s13core_feed_articles_total",
			Help: "Total number of articles created from feeds",
		},
		[]string{"feed"},
	)
	SiteMessages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "s13core_site_messages_total",
			Help: "Total number of contact form messages received",
		},
	)

	registry = prometheus.NewRegistry()
)

func init() {
	registry.MustRegister(
		HTTPRequests,
		HTTPDuration,
		FeedRuns,
		FeedArticles,
		SiteMessages,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}

// Middleware records request counts and latency.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		HTTPRequests.WithLabelValues(c.Method(), strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(c.Method()).Observe(time.Since(start).Seconds())
		return err
	}
}

// Outcome labels a run as "ok" or "error".
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
