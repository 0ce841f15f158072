package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hauntworks/hauntworks-backend/api/middleware"
	pkgerrors "github.com/hauntworks/hauntworks-backend/pkg/errors"
)

// identity is the org/user pair every scoped handler needs.
type identity struct {
	OrgID  uuid.UUID
	UserID uuid.UUID
}

func identityFromRequest(r *http.Request) (identity, error) {
	rawOrg := middleware.OrgIDFromContext(r.Context())
	if rawOrg == "" {
		return identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "organization context missing")
	}
	rawUser := middleware.UserIDFromContext(r.Context())
	if rawUser == "" {
		return identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}

	orgID, err := uuid.Parse(rawOrg)
	if err != nil {
		return identity{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid organization id")
	}
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return identity{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return identity{OrgID: orgID, UserID: userID}, nil
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := chi.URLParam(r, key)
	value, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid path parameter").
			WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	value, err := uuid.Parse(*raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid uuid field").
			WithDetails(map[string]any{"field": field})
	}
	return &value, nil
}
