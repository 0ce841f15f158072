package controllers

import (
	"net/http"

	"github.com/hauntworks/hauntworks-backend/api/responses"
	reportsvc "github.com/hauntworks/hauntworks-backend/internal/reports"
	pkgerrors "github.com/hauntworks/hauntworks-backend/pkg/errors"
	"github.com/hauntworks/hauntworks-backend/pkg/logger"
)

// InventorySummary handles GET /summary.
func InventorySummary(svc reportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		who, err := identityFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), who.OrgID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}
