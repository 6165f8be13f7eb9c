package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightdesk-backend/api/responses"
	"github.com/angelmondragon/freightdesk-backend/api/validators"
	"github.com/angelmondragon/freightdesk-backend/internal/quotations"
	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
)

type selectionService interface {
	Select(ctx context.Context, userID uuid.UUID, ref, optionID string) (*models.Quotation, error)
}

// option_id arrives as "2" or 2 depending on the client.
type selectionRequest struct {
	OptionID json.Number `json:"option_id" validate:"required"`
}

// SelectionUpdate records which price option the caller picked.
func SelectionUpdate(svc selectionService, presenter quotations.Presenter, logg *logger.Logger) http.HandlerFunc {
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

		var body selectionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q, err := svc.Select(r.Context(), userID, ref, body.OptionID.String())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, presenter.View(*q))
	}
}
