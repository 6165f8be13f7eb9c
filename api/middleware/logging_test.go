package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
)

type recordedRequest struct {
	method string
	route  string
	status int
}

type fakeObserver struct {
	seen []recordedRequest
}

func (f *fakeObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	f.seen = append(f.seen, recordedRequest{method: method, route: route, status: status})
}

func TestLoggingReportsRoutePatternAndStatus(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	obs := &fakeObserver{}

	r := chi.NewRouter()
	r.Use(Logging(logg, obs))
	r.Get("/api/v1/payments/{paymentId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/payments/abc", nil))

	if len(obs.seen) != 1 {
		t.Fatalf("expected one observation, got %d", len(obs.seen))
	}
	got := obs.seen[0]
	if got.route != "/api/v1/payments/{paymentId}" || got.status != http.StatusNotFound {
		t.Fatalf("unexpected observation %+v", got)
	}
	if !strings.Contains(buf.String(), "request.complete") {
		t.Fatalf("expected completion log line, got %s", buf.String())
	}
}

func TestLoggingDefaultsStatusToOK(t *testing.T) {
	obs := &fakeObserver{}
	handler := Logging(nil, obs)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if obs.seen[0].status != http.StatusOK {
		t.Fatalf("expected 200, got %d", obs.seen[0].status)
	}
}
