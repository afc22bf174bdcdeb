// Package metrics exposes prometheus collectors for the notification layer
// and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lorrc/cloudkitchen-backend/internal/adapters/primary/websocket"
)

// Delivery outcome labels.
const (
	ResultDelivered = "delivered"
	ResultPruned    = "pruned"
	ResultFailed    = "failed"
)

// Collectors owns a private registry so tests and the process never share
// global state.
type Collectors struct {
	registry *prometheus.Registry

	published   *prometheus.CounterVec
	deliveries  *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	connections prometheus.Gauge

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ websocket.Metrics = (*Collectors)(nil)

// New registers every collector, plus the Go runtime and process collectors.
func New() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_published_total",
			Help: "Order updates accepted for fan-out, by event kind.",
		}, []string{"event"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_deliveries_total",
			Help: "Per-connection fan-out outcomes.",
		}, []string{"result"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_dropped_total",
			Help: "Order updates that reached no dashboard, by reason.",
		}, []string{"reason"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notification_registered_connections",
			Help: "Dashboards currently registered for order updates.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.published,
		c.deliveries,
		c.dropped,
		c.connections,
		c.requests,
		c.duration,
	)

	// Pre-create the label sets so dashboards see zeros instead of gaps.
	for _, result := range []string{ResultDelivered, ResultPruned, ResultFailed} {
		c.deliveries.WithLabelValues(result)
	}
	for _, reason := range []string{websocket.DropNoSubscribers, websocket.DropTransportNotReady, websocket.DropQueueFull} {
		c.dropped.WithLabelValues(reason)
	}

	return c
}

// Registry returns the underlying registry.
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collectors) Published(event string) {
	c.published.WithLabelValues(event).Inc()
}

func (c *Collectors) Delivered(delivered, pruned, failed int) {
	c.deliveries.WithLabelValues(ResultDelivered).Add(float64(delivered))
	c.deliveries.WithLabelValues(ResultPruned).Add(float64(pruned))
	c.deliveries.WithLabelValues(ResultFailed).Add(float64(failed))
}

func (c *Collectors) Dropped(reason string) {
	c.dropped.WithLabelValues(reason).Inc()
}

func (c *Collectors) SetConnections(n int) {
	c.connections.Set(float64(n))
}

// Middleware records request counts and latency. The route label is the chi
// pattern, so path parameters do not explode cardinality.
func (c *Collectors) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
