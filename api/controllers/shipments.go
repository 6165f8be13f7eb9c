package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightdesk-backend/api/responses"
	"github.com/angelmondragon/freightdesk-backend/api/validators"
	"github.com/angelmondragon/freightdesk-backend/internal/shipments"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
)

type shipmentService interface {
	Get(ctx context.Context, userID, shipmentID uuid.UUID) (*shipments.View, error)
	ListForUser(ctx context.Context, params shipments.ListParams) (*shipments.ListResult, error)
	DefaultReceiver(ctx context.Context, userID uuid.UUID) (*shipments.ReceiverView, error)
	SubmitReceiver(ctx context.Context, userID, shipmentID uuid.UUID, input shipments.ReceiverInput) (*shipments.View, error)
}

func ShipmentList(svc shipmentService, logg *logger.Logger) http.HandlerFunc {
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
		result, err := svc.ListForUser(r.Context(), shipments.ListParams{
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

func ShipmentGet(svc shipmentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := sessionUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipmentID, err := validators.ParseUUIDParam(r, "shipmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), userID, shipmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ShipmentSubmitReceiver moves a waiting shipment to processing with the
// receiver's contact details.
func ShipmentSubmitReceiver(svc shipmentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := sessionUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipmentID, err := validators.ParseUUIDParam(r, "shipmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input shipments.ReceiverInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SubmitReceiver(r.Context(), userID, shipmentID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func ShipmentDefaultReceiver(svc shipmentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := sessionUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.DefaultReceiver(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
