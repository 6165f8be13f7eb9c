package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightdesk-backend/api/responses"
	"github.com/angelmondragon/freightdesk-backend/internal/profiles"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
)

type profileService interface {
	Get(ctx context.Context, userID uuid.UUID) (*profiles.View, error)
}

func ProfileGet(svc profileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := sessionUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
