package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/stats/{agent}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, agent := range []string{"alice", "bob"} {
		req := httptest.NewRequest(http.MethodGet, "/stats/"+agent, http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/stats/{agent}", "200"))
	if got < 2 {
		t.Errorf("expected both agents under one route label, got %f", got)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected duration observations")
	}
}

func TestMiddleware_RecordsStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/query", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	req := httptest.NewRequest(http.MethodPost, "/query", http.NoBody)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/query", "429")); v < 1 {
		t.Errorf("expected 429 to be counted, got %f", v)
	}
}

func TestNormalizeRoute(t *testing.T) {
	if got := normalizeRoute(""); got != "unmatched" {
		t.Errorf("normalizeRoute(\"\") = %q", got)
	}
	if got := normalizeRoute("/query"); got != "/query" {
		t.Errorf("normalizeRoute(/query) = %q", got)
	}
}

func TestRegister_Idempotent(t *testing.T) {
	RegisterProviderMetrics()
	RegisterProviderMetrics()
	RegisterPipelineMetrics()
	RegisterPipelineMetrics()
}
