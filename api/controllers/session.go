package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightdesk-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/freightdesk-backend/pkg/errors"
)

func sessionUser(r *http.Request) (uuid.UUID, error) {
	userID := middleware.UserUUIDFromContext(r.Context())
	if userID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return userID, nil
}
