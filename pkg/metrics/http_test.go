package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHTTPMetricsObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.ObserveRequest(http.MethodGet, "/api/v1/payments", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/v1/payments", http.StatusOK, 30*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	got, err := fetchCounterValue(mfs, "http_requests_total", "route", "/api/v1/payments")
	if err != nil {
		t.Fatalf("fetch counter: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
	if _, err := fetchCounterValue(mfs, "http_requests_total", "route", "unmatched"); err != nil {
		t.Fatalf("expected unmatched route label: %v", err)
	}
}

func TestHTTPMetricsNilSafe(t *testing.T) {
	var m *HTTPMetrics
	m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	NewHTTPMetrics(nil).ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
}
