package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/freightdesk-backend/api/responses"
	"github.com/angelmondragon/freightdesk-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/freightdesk-backend/pkg/errors"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

const envHeader = "X-FreightDesk-Env"

// Pinger is any dependency the readiness probe checks.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each named dependency. Any failure answers 503 with the
// failing checks listed.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		var failed bool
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				failed = true
				checks[name] = "down"
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), "health.ready.dependency_down", err)
				}
				continue
			}
			checks[name] = "ok"
		}

		if failed {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").
				WithDetails(map[string]any{"checks": checks}))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
