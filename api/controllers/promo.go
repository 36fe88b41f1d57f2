package controllers

import (
	"net/http"

	"github.com/seifpharma/storefront-gateway/api/responses"
	"github.com/seifpharma/storefront-gateway/api/validators"
	promosvc "github.com/seifpharma/storefront-gateway/internal/promo"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
)

type applyPromoRequest struct {
	Code string `json:"code" validate:"required"`
}

// PromoApply attempts to apply a promo code to the visitor's cart. A
// code the upstream rejects still returns the stored application so
// the client can show the rejection reason.
func PromoApply(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		var payload applyPromoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		app, err := svc.Apply(r.Context(), sess, payload.Code)
		if err != nil && app == nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, app)
	}
}

func PromoCurrent(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		app, err := svc.Current(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, app)
	}
}

func PromoCancel(svc promosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		if err := svc.Cancel(r.Context(), sess); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"cancelled": true})
	}
}
