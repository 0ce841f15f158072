package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/hauntworks/hauntworks-backend/api/responses"
	"github.com/hauntworks/hauntworks-backend/pkg/config"
	"github.com/hauntworks/hauntworks-backend/pkg/db"
	pkgerrors "github.com/hauntworks/hauntworks-backend/pkg/errors"
	"github.com/hauntworks/hauntworks-backend/pkg/logger"
)

const readyCheckTimeout = 3 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Hauntworks-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the datastore dependencies before reporting ready.
// Redis is optional; the audit sink degrades gracefully without it.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Hauntworks-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		checks := map[string]string{"db": "ok"}

		if err := dbP.Ping(ctx); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
			return
		}

		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				checks["redis"] = "degraded"
				if logg != nil {
					logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "redis ping failed")
				}
			} else {
				checks["redis"] = "ok"
			}
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
