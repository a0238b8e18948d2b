// Package monitoring exposes the Prometheus metrics of the API.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/aula/core/group"
)

// Registry holds every aula collector plus the Go and process collectors.
var Registry = prometheus.NewRegistry()

var (
	groupBatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aula_group_batch_total",
			Help: "Total number of submitted group membership batches.",
		},
		[]string{"operation", "result"},
	)

	groupBatchCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aula_group_batch_calls_total",
			Help: "Total number of membership store calls made by batches.",
		},
		[]string{"operation", "outcome"},
	)

	groupBatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aula_group_batch_duration_seconds",
			Help:    "Latency of group membership batches in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	httpRequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aula_http_request_total",
			Help: "Total number of handled HTTP requests.",
		},
		[]string{"method", "route", "code"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aula_http_request_duration_seconds",
			Help:    "Latency of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	chartRenderTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aula_chart_render_total",
			Help: "Total number of rendered attendance charts by output format.",
		},
		[]string{"format"},
	)
)

func init() {
	Registry.MustRegister(Collectors()...)
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Collectors returns all aula metric collectors.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		groupBatchTotal,
		groupBatchCalls,
		groupBatchDuration,
		httpRequestTotal,
		httpRequestDuration,
		chartRenderTotal,
	}
}

// Handler serves the metrics of Registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// BatchObserver records group batches.
type BatchObserver struct{}

var _ group.BatchObserver = BatchObserver{}

func (BatchObserver) ObserveBatch(operation string, succeeded, failed int, elapsed time.Duration) {
	result := "success"
	switch {
	case failed > 0 && succeeded > 0:
		result = "partial"
	case failed > 0:
		result = "failure"
	}
	groupBatchTotal.WithLabelValues(operation, result).Inc()
	groupBatchCalls.WithLabelValues(operation, "succeeded").Add(float64(succeeded))
	groupBatchCalls.WithLabelValues(operation, "failed").Add(float64(failed))
	groupBatchDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveRequest records a handled HTTP request. route is the registered path, not the raw URL.
func ObserveRequest(method, route string, code int, elapsed time.Duration) {
	httpRequestTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveChartRender records a rendered chart.
func ObserveChartRender(format string) {
	chartRenderTotal.WithLabelValues(format).Inc()
}
