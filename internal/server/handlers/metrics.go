package handlers

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "scanapi"

// newMetricsHandler registers collectors that read live values from h on
// every scrape.
func newMetricsHandler(h *Handlers) http.Handler {
	reg := prometheus.NewRegistry()

	gauge := func(name, help string, fn func() float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		}, fn)
	}
	counter := func(name, help string, fn func() float64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		}, fn)
	}

	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "info",
			Help:        "Build information.",
			ConstLabels: prometheus.Labels{"version": h.app.Version()},
		}, func() float64 { return 1 }),
		gauge("endpoints_total", "Registered endpoints.", h.endpointCount),
		gauge("websocket_clients", "Connected WebSocket clients.", func() float64 {
			return float64(h.wsHub.ClientCount())
		}),
		gauge("sse_clients", "Connected SSE clients.", func() float64 {
			return float64(h.sseBroadcaster.ClientCount())
		}),
		gauge("cache_items", "Items in the list cache.", func() float64 {
			return float64(h.cache.GetStats().ItemCount)
		}),
		counter("cache_hits_total", "List cache hits.", func() float64 {
			return float64(h.cache.GetStats().Hits)
		}),
		counter("cache_misses_total", "List cache misses.", func() float64 {
			return float64(h.cache.GetStats().Misses)
		}),
		gauge("uptime_seconds", "Seconds since the server started.", func() float64 {
			return time.Since(h.startTime).Seconds()
		}),
	)

	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// endpointCount is NaN when the store cannot be counted.
func (h *Handlers) endpointCount() float64 {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	total, err := h.registry.Count(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("count endpoints for metrics")
		return math.NaN()
	}
	return float64(total)
}

// HandleMetrics handles GET /metrics in the Prometheus exposition format.
// @Summary Service metrics
// @Tags meta
// @Produce plain
// @Success 200 {string} string "Prometheus exposition"
// @Router /metrics [get].
func (h *Handlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
