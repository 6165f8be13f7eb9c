package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightdesk-backend/api/responses"
	"github.com/angelmondragon/freightdesk-backend/api/validators"
	"github.com/angelmondragon/freightdesk-backend/internal/checkout"
	"github.com/angelmondragon/freightdesk-backend/internal/payments"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
)

type checkoutService interface {
	Confirm(ctx context.Context, userID uuid.UUID, input checkout.ConfirmInput) (*payments.View, error)
}

// Checkout creates a pending payment for the submitted quotations and
// approves them.
func Checkout(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := sessionUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input checkout.ConfirmInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Confirm(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}
