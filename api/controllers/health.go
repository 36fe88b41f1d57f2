package controllers

import (
	"context"
	"net/http"

	"github.com/seifpharma/storefront-gateway/api/middleware"
	"github.com/seifpharma/storefront-gateway/api/responses"
	"github.com/seifpharma/storefront-gateway/internal/session"
	pkgerrors "github.com/seifpharma/storefront-gateway/pkg/errors"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies both state backends answer before the gateway
// reports itself ready.
func HealthReady(state pinger, store pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := state.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "state store unavailable"))
			return
		}
		if err := store.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "local store unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

func requireSession(w http.ResponseWriter, r *http.Request, logg *logger.Logger) *session.Session {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session context missing"))
		return nil
	}
	return sess
}
