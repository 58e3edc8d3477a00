package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		// Known exact routes.
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/api/v1/objects", "/api/v1/objects"},
		{"/api/v1/scene", "/api/v1/scene"},

		// Per-object routes collapse to one label.
		{"/api/v1/objects/norad-37869/elements", "/api/v1/objects/{label}/elements"},
		{"/api/v1/objects/iss/elements", "/api/v1/objects/{label}/elements"},

		// Unknown/bot paths collapse to "other".
		{"/wp-admin", "other"},
		{"/api/v1/objects//elements", "other"},
		{"/api/v1/objects/iss", "other"},
		{"/api/v2/scene", "other"},
		{"/favicon.ico", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizeRoute(tt.path); got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestMetricsCardinality verifies that 100 distinct labels produce exactly
// one path label value.
func TestMetricsCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		label := normalizeRoute("/api/v1/objects/sat-" + string(rune('a'+i%26)) + string(rune('a'+i/26)) + "/elements")
		seen[label] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label for parameterized paths, got %d: %v", len(seen), seen)
	}
}

func TestRecordCounters(t *testing.T) {
	okBefore := testutil.ToFloat64(tleRecordsTotal.WithLabelValues("ok"))
	badBefore := testutil.ToFloat64(tleRecordsTotal.WithLabelValues("malformed"))
	RecordTLERecords(3, 1)
	if got := testutil.ToFloat64(tleRecordsTotal.WithLabelValues("ok")) - okBefore; got != 3 {
		t.Errorf("ok records delta = %v, want 3", got)
	}
	if got := testutil.ToFloat64(tleRecordsTotal.WithLabelValues("malformed")) - badBefore; got != 1 {
		t.Errorf("malformed records delta = %v, want 1", got)
	}

	failedBefore := testutil.ToFloat64(propagationSamplesTotal.WithLabelValues("failed"))
	RecordSamples(10, 2)
	if got := testutil.ToFloat64(propagationSamplesTotal.WithLabelValues("failed")) - failedBefore; got != 2 {
		t.Errorf("failed samples delta = %v, want 2", got)
	}
}

func TestMiddlewareCountsStatus(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("other", "GET", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nope", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("other", "GET", "418"))
	if after-before != 1 {
		t.Errorf("request counter delta = %v, want 1", after-before)
	}
}

func TestStoreGauges(t *testing.T) {
	SetObjectsLoaded(4)
	SetDatasetAge(12.5)
	if got := testutil.ToFloat64(objectsLoaded); got != 4 {
		t.Errorf("objects loaded = %v, want 4", got)
	}
	if got := testutil.ToFloat64(datasetAgeSeconds); got != 12.5 {
		t.Errorf("dataset age = %v, want 12.5", got)
	}
}
