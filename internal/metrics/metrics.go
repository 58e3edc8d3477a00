package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitarc_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbitarc_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	tleRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitarc_tle_records_total",
			Help: "TLE line pairs decoded, by result.",
		},
		[]string{"result"},
	)

	tleLinesSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbitarc_tle_lines_skipped_total",
			Help: "Input lines dropped while realigning on TLE pair boundaries.",
		},
	)

	propagationSamplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitarc_propagation_samples_total",
			Help: "Propagated grid points, by result.",
		},
		[]string{"result"},
	)

	trajectoryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orbitarc_trajectory_duration_seconds",
			Help:    "Time to sample one trajectory arc.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	objectsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitarc_objects_loaded",
			Help: "Objects currently held in the serving store.",
		},
	)

	datasetAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitarc_dataset_age_seconds",
			Help: "Seconds since the serving store last changed.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		tleRecordsTotal,
		tleLinesSkippedTotal,
		propagationSamplesTotal,
		trajectoryDurationSeconds,
		objectsLoaded,
		datasetAgeSeconds,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordTLERecords counts decoded and malformed line pairs.
func RecordTLERecords(ok, malformed int) {
	tleRecordsTotal.WithLabelValues("ok").Add(float64(ok))
	tleRecordsTotal.WithLabelValues("malformed").Add(float64(malformed))
}

// AddTLELinesSkipped counts lines dropped by the pair reader.
func AddTLELinesSkipped(n int) {
	tleLinesSkippedTotal.Add(float64(n))
}

// RecordSamples counts propagated grid points.
func RecordSamples(ok, failed int) {
	propagationSamplesTotal.WithLabelValues("ok").Add(float64(ok))
	propagationSamplesTotal.WithLabelValues("failed").Add(float64(failed))
}

// ObserveTrajectoryDuration records how long one arc took to sample.
func ObserveTrajectoryDuration(d time.Duration) {
	trajectoryDurationSeconds.Observe(d.Seconds())
}

// SetObjectsLoaded sets the number of objects in the serving store.
func SetObjectsLoaded(n int) {
	objectsLoaded.Set(float64(n))
}

// SetDatasetAge sets the serving store age.
func SetDatasetAge(seconds float64) {
	datasetAgeSeconds.Set(seconds)
}

var knownRoutes = map[string]bool{
	"/healthz":        true,
	"/readyz":         true,
	"/metrics":        true,
	"/api/v1/objects": true,
	"/api/v1/scene":   true,
}

// normalizeRoute maps a request path to a bounded set of label values so
// per-object routes do not explode metric cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/api/v1/objects/"); ok {
		parts := strings.Split(rest, "/")
		if len(parts) == 2 && parts[0] != "" && parts[1] == "elements" {
			return "/api/v1/objects/{label}/elements"
		}
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := normalizeRoute(r.URL.Path)
		httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rw.statusCode)).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
