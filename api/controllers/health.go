package controllers

import (
	"context"
	"net/http"

	"github.com/akozyreva/stockbot-backend/api/responses"
	"github.com/akozyreva/stockbot-backend/pkg/config"
	pkgerrors "github.com/akozyreva/stockbot-backend/pkg/errors"
	"github.com/akozyreva/stockbot-backend/pkg/logger"
)

// Pinger is the health-check surface a dependency exposes.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Stockbot-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every wired dependency answers a ping.
// Nil pingers are skipped so optional dependencies do not fail readiness.
func HealthReady(cfg *config.Config, logg *logger.Logger, store Pinger, redisP Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("X-Stockbot-Env", cfg.App.Env)

		checks := map[string]Pinger{
			"store": store,
			"redis": redisP,
		}

		status := map[string]string{}
		healthy := true
		for name, p := range checks {
			if p == nil {
				continue
			}
			if err := p.Ping(ctx); err != nil {
				healthy = false
				status[name] = "down"
				if logg != nil {
					logg.Error(ctx, "readiness check failed: "+name, err)
				}
				continue
			}
			status[name] = "up"
		}

		if !healthy {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").WithDetails(status))
			return
		}
		responses.WriteSuccess(w, status)
	}
}
