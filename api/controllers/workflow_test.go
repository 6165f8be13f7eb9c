package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightdesk-backend/internal/checkout"
	"github.com/angelmondragon/freightdesk-backend/internal/payments"
	"github.com/angelmondragon/freightdesk-backend/internal/profiles"
	"github.com/angelmondragon/freightdesk-backend/internal/quotations"
	"github.com/angelmondragon/freightdesk-backend/internal/shipments"
	"github.com/angelmondragon/freightdesk-backend/pkg/config"
	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightdesk-backend/pkg/errors"
)

type stubSelections struct {
	optionID string
	err      error
}

func (s *stubSelections) Select(ctx context.Context, userID uuid.UUID, ref, optionID string) (*models.Quotation, error) {
	s.optionID = optionID
	if s.err != nil {
		return nil, s.err
	}
	slot := 2
	return &models.Quotation{ID: uuid.New(), Code: ref, UserID: userID, Status: enums.QuotationStatusPending, SelectedOption: &slot}, nil
}

func TestSelectionUpdateAcceptsNumberOrString(t *testing.T) {
	for _, body := range []string{`{"option_id":2}`, `{"option_id":"2"}`} {
		svc := &stubSelections{}
		req := authedRequest(http.MethodPut, "/", strings.NewReader(body), uuid.New())
		req = withURLParams(req, map[string]string{"ref": "QT-2026-0001"})
		rec := httptest.NewRecorder()
		SelectionUpdate(svc, quotations.Presenter{}, testLogger())(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("body %s: expected 200, got %d (%s)", body, rec.Code, rec.Body.String())
		}
		if svc.optionID != "2" {
			t.Fatalf("body %s: unexpected option %q", body, svc.optionID)
		}
	}
}

func TestSelectionUpdateSurfacesStateConflict(t *testing.T) {
	svc := &stubSelections{err: pkgerrors.New(pkgerrors.CodeStateConflict, "quotation is no longer open for selection")}
	req := authedRequest(http.MethodPut, "/", strings.NewReader(`{"option_id":"1"}`), uuid.New())
	req = withURLParams(req, map[string]string{"ref": "QT-2026-0001"})
	rec := httptest.NewRecorder()
	SelectionUpdate(svc, quotations.Presenter{}, testLogger())(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

type stubCheckout struct {
	input checkout.ConfirmInput
	err   error
}

func (s *stubCheckout) Confirm(ctx context.Context, userID uuid.UUID, input checkout.ConfirmInput) (*payments.View, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &payments.View{ID: uuid.New(), UserID: userID, Amount: "1250.00", Status: enums.PaymentStatusPending, ReferenceNumber: "PAY-01J"}, nil
}

func TestCheckoutCreatesPayment(t *testing.T) {
	svc := &stubCheckout{}
	body := `{"items":[{"quotation_ref":"QT-2026-0001","option_id":"2"}],"method":"bank_transfer"}`
	req := authedRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body), uuid.New())
	rec := httptest.NewRecorder()
	Checkout(svc, testLogger())(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if len(svc.input.Items) != 1 || svc.input.Items[0].OptionID != "2" || svc.input.Method != "bank_transfer" {
		t.Fatalf("unexpected input %+v", svc.input)
	}
	var view payments.View
	decodeData(t, rec, &view)
	if view.Amount != "1250.00" {
		t.Fatalf("unexpected amount %s", view.Amount)
	}
}

func TestCheckoutValidatesBodyBeforeService(t *testing.T) {
	svc := &stubCheckout{}
	for _, body := range []string{`{"items":[],"method":"card"}`, `{"items":[{"quotation_ref":"QT-1"}]}`, `{"items":[{"option_id":"1"}],"method":"card"}`} {
		req := authedRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body), uuid.New())
		rec := httptest.NewRecorder()
		Checkout(svc, testLogger())(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
	if svc.input.Method != "" {
		t.Fatal("service must not run for invalid bodies")
	}
}

func TestCheckoutDuplicateConflictCarriesDetails(t *testing.T) {
	svc := &stubCheckout{err: pkgerrors.New(pkgerrors.CodeConflict, "a payment already exists for this quotation").
		WithDetails(map[string]any{"payment_id": "p-1", "reference_number": "PAY-1"})}
	req := authedRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"items":[{"quotation_ref":"QT-1"}],"method":"card"}`), uuid.New())
	rec := httptest.NewRecorder()
	Checkout(svc, testLogger())(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Error.Details["reference_number"] != "PAY-1" {
		t.Fatalf("expected duplicate details, got %v", resp.Error.Details)
	}
}

type stubPayments struct {
	proof payments.ProofFile
	body  string
	err   error
}

func (s *stubPayments) Get(ctx context.Context, userID, paymentID uuid.UUID) (*payments.View, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &payments.View{ID: paymentID, UserID: userID}, nil
}

func (s *stubPayments) ListForUser(ctx context.Context, params payments.ListParams) (*payments.ListResult, error) {
	return &payments.ListResult{Items: []payments.View{}}, nil
}

func (s *stubPayments) ListForQuotation(ctx context.Context, userID uuid.UUID, ref string) ([]payments.View, error) {
	return []payments.View{{ReferenceNumber: "PAY-1"}, {ReferenceNumber: "PAY-2"}}, nil
}

func (s *stubPayments) UploadProof(ctx context.Context, userID, paymentID uuid.UUID, file payments.ProofFile) (*payments.View, error) {
	s.proof = file
	raw, _ := io.ReadAll(file.Body)
	s.body = string(raw)
	if s.err != nil {
		return nil, s.err
	}
	return &payments.View{ID: paymentID, Status: enums.PaymentStatusProcessing}, nil
}

func TestPaymentGetRejectsBadID(t *testing.T) {
	req := authedRequest(http.MethodGet, "/", nil, uuid.New())
	req = withURLParams(req, map[string]string{"paymentId": "123"})
	rec := httptest.NewRecorder()
	PaymentGet(&stubPayments{}, testLogger())(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPaymentGetHidesForeignPayment(t *testing.T) {
	req := authedRequest(http.MethodGet, "/", nil, uuid.New())
	req = withURLParams(req, map[string]string{"paymentId": uuid.NewString()})
	rec := httptest.NewRecorder()
	PaymentGet(&stubPayments{err: pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")}, testLogger())(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestQuotationPaymentsListsAttempts(t *testing.T) {
	req := authedRequest(http.MethodGet, "/", nil, uuid.New())
	req = withURLParams(req, map[string]string{"ref": "QT-2026-0001"})
	rec := httptest.NewRecorder()
	QuotationPayments(&stubPayments{}, testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out struct {
		Items []payments.View `json:"items"`
	}
	decodeData(t, rec, &out)
	if len(out.Items) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(out.Items))
	}
}

func TestPaymentUploadProofPassesFile(t *testing.T) {
	svc := &stubPayments{}
	paymentID := uuid.New()
	body, contentType := multipartBody(t, "file", "receipt.pdf", "application/pdf", []byte("%PDF-1.4 receipt"))
	req := authedRequest(http.MethodPost, "/", body, uuid.New())
	req.Header.Set("Content-Type", contentType)
	req = withURLParams(req, map[string]string{"paymentId": paymentID.String()})
	rec := httptest.NewRecorder()
	PaymentUploadProof(svc, 5<<20, testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.proof.FileName != "receipt.pdf" || svc.proof.DeclaredType != "application/pdf" || svc.proof.Size != int64(len("%PDF-1.4 receipt")) {
		t.Fatalf("unexpected proof %+v", svc.proof)
	}
	if svc.body != "%PDF-1.4 receipt" {
		t.Fatalf("unexpected body %q", svc.body)
	}
}

func TestPaymentUploadProofPartialCommit(t *testing.T) {
	svc := &stubPayments{err: pkgerrors.New(pkgerrors.CodePartialCommit, "proof stored but payment not updated").
		WithDetails(map[string]any{"committed": "proof_upload"})}
	body, contentType := multipartBody(t, "file", "receipt.pdf", "application/pdf", []byte("%PDF-1.4"))
	req := authedRequest(http.MethodPost, "/", body, uuid.New())
	req.Header.Set("Content-Type", contentType)
	req = withURLParams(req, map[string]string{"paymentId": uuid.NewString()})
	rec := httptest.NewRecorder()
	PaymentUploadProof(svc, 5<<20, testLogger())(rec, req)

	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("expected 207, got %d", rec.Code)
	}
	if decodeError(t, rec).Error.Retryable {
		t.Fatal("partial commit must not be retryable")
	}
}

type stubShipments struct {
	input shipments.ReceiverInput
	err   error
}

func (s *stubShipments) Get(ctx context.Context, userID, shipmentID uuid.UUID) (*shipments.View, error) {
	return &shipments.View{ID: shipmentID}, nil
}

func (s *stubShipments) ListForUser(ctx context.Context, params shipments.ListParams) (*shipments.ListResult, error) {
	return &shipments.ListResult{Items: []shipments.View{}}, s.err
}

func (s *stubShipments) DefaultReceiver(ctx context.Context, userID uuid.UUID) (*shipments.ReceiverView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &shipments.ReceiverView{Name: "Ana"}, nil
}

func (s *stubShipments) SubmitReceiver(ctx context.Context, userID, shipmentID uuid.UUID, input shipments.ReceiverInput) (*shipments.View, error) {
	s.input = input
	return &shipments.View{ID: shipmentID, Status: enums.ShipmentStatusProcessing}, nil
}

func TestShipmentSubmitReceiver(t *testing.T) {
	svc := &stubShipments{}
	body := `{"name":"Ana","phone":"+52 55 1234","address":"Av. Reforma 1","save_as_default":true}`
	req := authedRequest(http.MethodPost, "/", strings.NewReader(body), uuid.New())
	req = withURLParams(req, map[string]string{"shipmentId": uuid.NewString()})
	rec := httptest.NewRecorder()
	ShipmentSubmitReceiver(svc, testLogger())(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !svc.input.SaveAsDefault || svc.input.Name != "Ana" {
		t.Fatalf("unexpected input %+v", svc.input)
	}
}

func TestShipmentSubmitReceiverRequiresFields(t *testing.T) {
	svc := &stubShipments{}
	req := authedRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ana","phone":""}`), uuid.New())
	req = withURLParams(req, map[string]string{"shipmentId": uuid.NewString()})
	rec := httptest.NewRecorder()
	ShipmentSubmitReceiver(svc, testLogger())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.input.Name != "" {
		t.Fatal("service must not run for invalid input")
	}
}

func TestShipmentDefaultReceiverNotFound(t *testing.T) {
	svc := &stubShipments{err: pkgerrors.New(pkgerrors.CodeNotFound, "no default receiver")}
	rec := httptest.NewRecorder()
	ShipmentDefaultReceiver(svc, testLogger())(rec, authedRequest(http.MethodGet, "/", nil, uuid.New()))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

type stubProfiles struct {
	err error
}

func (s stubProfiles) Get(ctx context.Context, userID uuid.UUID) (*profiles.View, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &profiles.View{ID: userID, Role: enums.ProfileRoleCustomer}, nil
}

func TestProfileGet(t *testing.T) {
	userID := uuid.New()
	rec := httptest.NewRecorder()
	ProfileGet(stubProfiles{}, testLogger())(rec, authedRequest(http.MethodGet, "/", nil, userID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var view profiles.View
	decodeData(t, rec, &view)
	if view.ID != userID {
		t.Fatalf("unexpected profile %s", view.ID)
	}
}

func TestProfileGetMissingProfileIsUnauthorized(t *testing.T) {
	rec := httptest.NewRecorder()
	ProfileGet(stubProfiles{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "profile not found")}, testLogger())(rec, authedRequest(http.MethodGet, "/", nil, uuid.New()))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	HealthReady(cfg, testLogger(), map[string]Pinger{"db": ok, "redis": ok})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(envHeader) != "test" {
		t.Fatalf("expected env header")
	}

	rec = httptest.NewRecorder()
	HealthReady(cfg, testLogger(), map[string]Pinger{"db": ok, "redis": down})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	checks, _ := decodeError(t, rec).Error.Details["checks"].(map[string]any)
	if checks["redis"] != "down" || checks["db"] != "ok" {
		t.Fatalf("unexpected checks %v", checks)
	}
}
