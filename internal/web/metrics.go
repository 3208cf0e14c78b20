package web

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "calfilter"

// Fetch outcomes as recorded in calfilter_fetches_total.
const (
	fetchOK         = "ok"
	fetchError      = "error"
	fetchParseError = "parse_error"
)

type metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fetchesTotal    *prometheus.CounterVec
	eventsReturned  prometheus.Histogram
}

func newMetrics(reg *prometheus.Registry) *metrics {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "code"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		fetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fetches_total",
			Help:      "Upstream calendar fetches by outcome",
		}, []string{"result"}),

		eventsReturned: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "events_returned",
			Help:      "Number of events in successful responses",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}),
	}
}

func (m *metrics) observeRequest(method string, code int, d time.Duration) {
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *metrics) observeFetch(result string) {
	m.fetchesTotal.WithLabelValues(result).Inc()
}

func (m *metrics) observeEvents(n int) {
	m.eventsReturned.Observe(float64(n))
}
