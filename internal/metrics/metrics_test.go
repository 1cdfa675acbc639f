package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveScoring(t *testing.T) {
	before := testutil.ToFloat64(ScoringRequestsTotal.WithLabelValues("gemini", "m-test", StatusOK))

	ObserveScoring("gemini", "m-test", StatusOK, 150*time.Millisecond)

	after := testutil.ToFloat64(ScoringRequestsTotal.WithLabelValues("gemini", "m-test", StatusOK))
	if after-before != 1 {
		t.Fatalf("expected counter to grow by 1, got %v", after-before)
	}
}

func TestObserveResume(t *testing.T) {
	before := testutil.ToFloat64(ResumesProcessedTotal.WithLabelValues(OutcomeParseError))

	ObserveResume(OutcomeParseError, 0)

	if got := testutil.ToFloat64(ResumesProcessedTotal.WithLabelValues(OutcomeParseError)) - before; got != 1 {
		t.Fatalf("expected parse_error counter to grow by 1, got %v", got)
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/items/{id}", "418"))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/items/42", http.NoBody))

	if rr.Code != http.StatusTeapot {
		t.Fatalf("unexpected status %d", rr.Code)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/items/{id}", "418"))
	if after-before != 1 {
		t.Fatalf("expected route pattern label to be recorded, delta %v", after-before)
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	Register()
	Register()
}
