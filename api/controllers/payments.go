package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightdesk-backend/api/responses"
	"github.com/angelmondragon/freightdesk-backend/api/validators"
	"github.com/angelmondragon/freightdesk-backend/internal/payments"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
)

type paymentService interface {
	Get(ctx context.Context, userID, paymentID uuid.UUID) (*payments.View, error)
	ListForUser(ctx context.Context, params payments.ListParams) (*payments.ListResult, error)
	ListForQuotation(ctx context.Context, userID uuid.UUID, ref string) ([]payments.View, error)
	UploadProof(ctx context.Context, userID, paymentID uuid.UUID, file payments.ProofFile) (*payments.View, error)
}

func PaymentList(svc paymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := sessionUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListForUser(r.Context(), payments.ListParams{
			UserID: userID,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func PaymentGet(svc paymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := sessionUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentID, err := validators.ParseUUIDParam(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), userID, paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// QuotationPayments lists every payment attempt that covers the quotation,
// failed ones included.
func QuotationPayments(svc paymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := sessionUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ref, err := validators.ParseRefParam(r, "ref")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views, err := svc.ListForQuotation(r.Context(), userID, ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": views})
	}
}

// PaymentUploadProof accepts one multipart "file" field holding an image or PDF.
func PaymentUploadProof(svc paymentService, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := sessionUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentID, err := validators.ParseUUIDParam(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		upload, err := validators.ParseSingleFile(w, r, "file", maxBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer upload.Close()

		view, err := svc.UploadProof(r.Context(), userID, paymentID, payments.ProofFile{
			FileName:     upload.Header.Filename,
			DeclaredType: upload.ContentType(),
			Size:         upload.Header.Size,
			Body:         upload.File,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
