package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPClient holds metrics for requests sent to the REST API.
// A nil *HTTPClient is valid and records nothing.
type HTTPClient struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  *prometheus.CounterVec
}

// NewHTTPClient creates the client metrics and registers them on reg.
func NewHTTPClient(reg prometheus.Registerer) (*HTTPClient, error) {
	m := &HTTPClient{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matproj",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests sent to the REST API by route and status.",
		}, []string{"route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "matproj",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "REST API request duration in seconds, retries included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"route"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matproj",
			Subsystem: "http",
			Name:      "retries_total",
			Help:      "Retried REST API requests by route and reason.",
		}, []string{"route", "reason"}),
	}
	if err := RegisterOrReuse(reg, &m.requests); err != nil {
		return nil, err
	}
	if err := RegisterOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := RegisterOrReuse(reg, &m.retries); err != nil {
		return nil, err
	}
	return m, nil
}

// ObserveRequest records one logical request. status 0 means no response was received.
func (m *HTTPClient) ObserveRequest(route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(route, label).Inc()
	m.duration.WithLabelValues(route).Observe(dur.Seconds())
}

// IncRetry records one retry.
func (m *HTTPClient) IncRetry(route, reason string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(route, reason).Inc()
}
