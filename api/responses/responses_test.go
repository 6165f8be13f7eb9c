package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/freightdesk-backend/pkg/errors"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
	"github.com/angelmondragon/freightdesk-backend/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteSuccessStatus(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"reference_number": "PAY-01J0"})

	if got := w.Code; got != http.StatusCreated {
		t.Fatalf("expected status 201 but got %d", got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "demo"})
	WriteError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Message != "bad input" {
		t.Fatalf("expected caller message, got %q", body.Error.Message)
	}
	if body.Error.Details == nil {
		t.Fatalf("expected details in public payload")
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Message == "boom" {
		t.Fatalf("internal error text leaked to client")
	}
	if body.Error.Details != nil {
		t.Fatalf("details should be omitted for internal errors")
	}
}

func TestWriteErrorRetryableFlag(t *testing.T) {
	tests := []struct {
		err       error
		status    int
		retryable bool
	}{
		{pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("connection refused"), "insert payment"), http.StatusServiceUnavailable, true},
		{pkgerrors.New(pkgerrors.CodePartialCommit, "receiver saved, shipment not updated"), http.StatusMultiStatus, false},
		{pkgerrors.New(pkgerrors.CodeStateConflict, "quotation is not awaiting payment"), http.StatusConflict, false},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		WriteError(context.Background(), nil, w, tt.err)

		if w.Code != tt.status {
			t.Fatalf("%v: expected status %d got %d", tt.err, tt.status, w.Code)
		}
		var body types.ErrorEnvelope
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode error envelope: %v", err)
		}
		if body.Error.Retryable != tt.retryable {
			t.Fatalf("%s: expected retryable=%v", body.Error.Code, tt.retryable)
		}
	}
}

func TestWriteErrorLogsStep(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "api", Output: &buf})
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodePartialCommit, "receiver saved, shipment not updated").
		WithDetails(map[string]any{"step": "shipment_update"})

	WriteError(context.Background(), logg, w, err)

	out := buf.String()
	if !strings.Contains(out, "request.error") || !strings.Contains(out, "shipment_update") {
		t.Fatalf("expected error log with step, got %s", out)
	}
}
