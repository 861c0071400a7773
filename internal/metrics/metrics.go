// Package metrics exposes kimchi's Prometheus collectors, independent of the
// batched progress.Hub stream. The CLI records run outcomes (ObserveRun) and
// the diagnostics middleware records its HTTP requests; the Checker itself
// does not call the link-check helpers.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	checksTotal               *prometheus.CounterVec
	checkBytesTotal           *prometheus.CounterVec
	httpRequestsTotal         *prometheus.CounterVec
	httpRequestDurationSecs   *prometheus.HistogramVec
	tlsHandshakeTimeoutsTotal prometheus.Counter
	runsTotal                 *prometheus.CounterVec
	activeChecks              prometheus.Gauge
	courtesyDelaySeconds      *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		checksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kimchi_links_checked_total",
				Help: "Total number of links checked, labeled by host and status.",
			},
			[]string{"host", "status"},
		)

		checkBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kimchi_check_response_bytes_total",
				Help: "Total number of response bytes read while checking, labeled by host.",
			},
			[]string{"host"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kimchi_diagnostics_http_requests_total",
				Help: "Total number of HTTP requests served by the diagnostics server, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSecs = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kimchi_diagnostics_http_request_duration_seconds",
				Help:    "Histogram of diagnostics-server request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		tlsHandshakeTimeoutsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "kimchi_tls_handshake_timeouts_total",
				Help: "Total TLS handshake timeouts encountered while checking links.",
			},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kimchi_cli_runs_total",
				Help: "Total number of kimchi invocations, labeled by exit status.",
			},
			[]string{"status"},
		)

		activeChecks = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "kimchi_active_checks",
				Help: "Number of link checks currently in flight.",
			},
		)

		courtesyDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kimchi_courtesy_delay_seconds",
				Help:    "Histogram of per-host courtesy rate-limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"host"},
		)
	})
}

// SanitizeHost sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeHost(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCheck increments the link-check metrics.
func ObserveCheck(host string, status string, responseBytes int) {
	sanitizedHost := SanitizeHost(host)
	checksTotal.WithLabelValues(sanitizedHost, status).Inc()
	if responseBytes > 0 {
		checkBytesTotal.WithLabelValues(sanitizedHost).Add(float64(responseBytes))
	}
}

// ObserveHTTPRequest increments the diagnostics-server HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSecs.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveTLSHandshakeTimeout increments the TLS handshake timeout counter.
func ObserveTLSHandshakeTimeout() {
	tlsHandshakeTimeoutsTotal.Inc()
}

// ObserveRun increments the run counter for the given exit status.
func ObserveRun(status string) {
	runsTotal.WithLabelValues(status).Inc()
}

// IncActiveChecks increments the in-flight check gauge.
func IncActiveChecks() {
	activeChecks.Inc()
}

// DecActiveChecks decrements the in-flight check gauge.
func DecActiveChecks() {
	activeChecks.Dec()
}

// ObserveCourtesyDelay records the duration of a per-host courtesy wait.
func ObserveCourtesyDelay(host string, duration time.Duration) {
	courtesyDelaySeconds.WithLabelValues(host).Observe(duration.Seconds())
}
