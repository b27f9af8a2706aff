package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/shiva/chauffeur/pkg/metrics"
)

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/fare/quote", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) || fields["path"] != "/api/v1/fare/quote" {
		t.Errorf("fields = %v", fields)
	}
}

func TestRecoverer(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := Recoverer(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if logs.Len() != 1 {
		t.Errorf("logged %d entries, want 1", logs.Len())
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/fare/quote", nil))

	if rec.Code != http.StatusNoContent || called {
		t.Errorf("preflight status = %d, handler called = %v", rec.Code, called)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing Access-Control-Allow-Origin")
	}
}

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	// Burst of 2 and a negligible refill rate.
	h := RateLimit(NewLimiter(0.001, 2))(ok)
	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	if NewLimiter(0, 10) != nil {
		t.Error("NewLimiter(0) should disable limiting")
	}
	rec := httptest.NewRecorder()
	RateLimit(nil)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("nil limiter status = %d", rec.Code)
	}
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Metrics)
	router.HandleFunc("/api/v1/fare/quote", func(w http.ResponseWriter, r *http.Request) {}).Methods(http.MethodPost)
	router.NotFoundHandler = Metrics(http.NotFoundHandler())
	router.MethodNotAllowedHandler = Metrics(MethodNotAllowed())

	matched := metrics.HTTPRequests.WithLabelValues(http.MethodPost, "/api/v1/fare/quote", "200")
	notFound := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "unmatched", "404")
	notAllowed := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "unmatched", "405")
	before := []float64{testutil.ToFloat64(matched), testutil.ToFloat64(notFound), testutil.ToFloat64(notAllowed)}

	tests := []struct {
		method, path string
		wantCode     int
	}{
		{http.MethodPost, "/api/v1/fare/quote", http.StatusOK},
		{http.MethodGet, "/api/v1/nope", http.StatusNotFound},
		{http.MethodGet, "/api/v1/fare/quote", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.wantCode {
			t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, rec.Code, tt.wantCode)
		}
	}

	for i, c := range []prometheus.Counter{matched, notFound, notAllowed} {
		if got := testutil.ToFloat64(c) - before[i]; got != 1 {
			t.Errorf("counter %d increased by %v, want 1", i, got)
		}
	}
}
