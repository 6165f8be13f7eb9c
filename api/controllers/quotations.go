package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightdesk-backend/api/responses"
	"github.com/angelmondragon/freightdesk-backend/api/validators"
	"github.com/angelmondragon/freightdesk-backend/internal/media"
	"github.com/angelmondragon/freightdesk-backend/internal/quotations"
	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightdesk-backend/pkg/errors"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
)

type quotationService interface {
	Create(ctx context.Context, userID uuid.UUID, input quotations.CreateInput) (*quotations.View, error)
	UpdateImages(ctx context.Context, userID uuid.UUID, ref string, urls []string) (*quotations.View, error)
	Resolve(ctx context.Context, userID uuid.UUID, ref string) (*models.Quotation, error)
	Get(ctx context.Context, userID uuid.UUID, ref string) (*quotations.View, error)
	ListForUser(ctx context.Context, params quotations.ListParams) (*quotations.ListResult, error)
}

type imageUploader interface {
	Upload(ctx context.Context, in media.UploadInput) (*models.Media, error)
}

// QuotationCreate handles the quotation request form.
func QuotationCreate(svc quotationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := sessionUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input quotations.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Create(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func QuotationList(svc quotationService, logg *logger.Logger) http.HandlerFunc {
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
		query := r.URL.Query()
		result, err := svc.ListForUser(r.Context(), quotations.ListParams{
			UserID: userID,
			Status: validators.SanitizeString(query.Get("status"), 32),
			Limit:  limit,
			Cursor: strings.TrimSpace(query.Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func QuotationGet(svc quotationService, logg *logger.Logger) http.HandlerFunc {
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
		view, err := svc.Get(r.Context(), userID, ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// imagesPatchRequest accepts both the dashboard's camelCase key and the
// snake_case column name. The raw message lets a non-array value be reported
// as a 400 instead of a decode failure on the whole body.
type imagesPatchRequest struct {
	ID             string          `json:"id"`
	ImageURLs      json.RawMessage `json:"imageUrls"`
	ImageURLsSnake json.RawMessage `json:"image_urls"`
}

func (p imagesPatchRequest) urls() ([]string, error) {
	raw := p.ImageURLs
	if len(raw) == 0 {
		raw = p.ImageURLsSnake
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || !strings.HasPrefix(trimmed, "[") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "imageUrls must be an array").
			WithDetails(map[string]any{"field": "imageUrls"})
	}
	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "imageUrls must be an array of strings").
			WithDetails(map[string]any{"field": "imageUrls"})
	}
	return urls, nil
}

// QuotationUpdateImages replaces the quotation's image list. The ref comes
// from the path; a body id, when present, must name the same quotation.
func QuotationUpdateImages(svc quotationService, logg *logger.Logger) http.HandlerFunc {
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

		var body imagesPatchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if id := strings.TrimSpace(body.ID); id != "" && !strings.EqualFold(id, ref) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "body id does not match path").
				WithDetails(map[string]any{"field": "id"}))
			return
		}
		urls, err := body.urls()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateImages(r.Context(), userID, ref, urls)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// QuotationUploadImage stores one product image and appends its URL to the
// quotation. The stored object stays attached to the quotation even if the
// list update fails, so that case is reported as a partial commit.
func QuotationUploadImage(svc quotationService, uploader imageUploader, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
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

		q, err := svc.Resolve(r.Context(), userID, ref)
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

		ctx := logg.WithQuotationID(r.Context(), q.ID.String())
		row, err := uploader.Upload(ctx, media.UploadInput{
			UserID:       userID,
			Kind:         enums.MediaKindProduct,
			KeyPrefix:    "products/" + q.ID.String(),
			FileName:     upload.Header.Filename,
			DeclaredType: upload.ContentType(),
			Size:         upload.Header.Size,
			Body:         upload.File,
			AttachTo:     &q.ID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		url := ""
		if row.URL != nil {
			url = *row.URL
		}
		urls := append(append([]string{}, q.ImageURLs...), url)
		view, err := svc.UpdateImages(ctx, userID, q.ID.String(), urls)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodePartialCommit, err, "image stored but quotation not updated").
				WithDetails(map[string]any{"committed": "image_upload", "media_id": row.ID.String(), "url": url}))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}
