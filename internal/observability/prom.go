package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bitmine"

var (
	httpBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
	dbBuckets   = []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5}
)

// Prom holds every collector the API exports on /metrics.
type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	DbQueryDuration *prometheus.HistogramVec // op, outcome
	DbErrorsTotal   *prometheus.CounterVec   // op, class

	OrdersCreated       prometheus.Counter
	NewsletterSignups   *prometheus.CounterVec // delivered|failed|circuit_open
	RateLimitedRequests *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(opts("", "http_requests_total", "HTTP requests by route and status."),
			[]string{"method", "route", "status"}),
		RequestsDuration: prometheus.NewHistogramVec(histOpts("", "http_request_duration_seconds", "HTTP request latency.", httpBuckets),
			[]string{"method", "route", "status"}),
		InFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts(opts("", "http_in_flight_requests", "HTTP requests being served.")),
			[]string{"method", "route"}),

		DbQueryDuration: prometheus.NewHistogramVec(histOpts("db", "query_duration_seconds", "Repository operation latency by logical op.", dbBuckets),
			[]string{"op", "outcome"}),
		DbErrorsTotal: prometheus.NewCounterVec(opts("db", "errors_total", "Database failures by logical op and class."),
			[]string{"op", "class"}),

		OrdersCreated: prometheus.NewCounter(opts("orders", "created_total", "Orders placed through the API.")),
		NewsletterSignups: prometheus.NewCounterVec(opts("newsletter", "signups_total", "Newsletter signups by notifier result."),
			[]string{"result"}),
		RateLimitedRequests: prometheus.NewCounterVec(opts("", "rate_limited_requests_total", "Requests rejected by the rate limiter."),
			[]string{"route"}),
	}

	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.OrdersCreated, p.NewsletterSignups, p.RateLimitedRequests,
	)
	return p
}

func opts(subsystem, name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help}
}

func histOpts(subsystem, name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets}
}

// HTTPMetrics records request counts, latency and in-flight gauges keyed by
// the route template, never the raw path, to keep label cardinality bounded.
func (p *Prom) HTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		inFlight := p.InFlight.WithLabelValues(method, route)
		inFlight.Inc()
		defer inFlight.Dec()

		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
	}
}
