// Package metrics holds the Prometheus collectors shared by the resolver,
// the player and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quranradio"

var (
	SourceValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_validations_total",
		Help:      "Audio source HEAD validations by result.",
	}, []string{"result"})

	ElementRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "element_retries_total",
		Help:      "Playback retries of the same source after an error.",
	})

	TrackFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "track_failures_total",
		Help:      "Tracks skipped because they could not be played.",
	}, []string{"reason"})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Requests to the Quran APIs by upstream and outcome.",
	}, []string{"upstream", "outcome"})

	MirrorAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_mirror_attempts_total",
		Help:      "Audio stream mirror attempts by result.",
	}, []string{"result"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP API requests by method and status code.",
	}, []string{"method", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Observe records one served HTTP request.
func Observe(method string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method).Observe(d.Seconds())
}

// Outcome maps an error to the label used by the outcome counters.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
