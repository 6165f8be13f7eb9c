package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/freightdesk-backend/pkg/errors"
)

// ParseUUIDParam reads a chi URL parameter that must be a UUID.
func ParseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "path parameter required").WithDetails(map[string]any{"field": name})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "path parameter must be a uuid").WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

// ParseRefParam reads a chi URL parameter holding a quotation code or UUID.
func ParseRefParam(r *http.Request, name string) (string, error) {
	raw := SanitizeString(chi.URLParam(r, name), 64)
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "path parameter required").WithDetails(map[string]any{"field": name})
	}
	return raw, nil
}
