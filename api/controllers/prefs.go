package controllers

import (
	"context"
	"net/http"

	"github.com/seifpharma/storefront-gateway/api/responses"
	"github.com/seifpharma/storefront-gateway/api/validators"
	pkgerrors "github.com/seifpharma/storefront-gateway/pkg/errors"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
)

type localeStore interface {
	Locale(ctx context.Context, visitorID string) (bool, error)
	SaveLocale(ctx context.Context, visitorID string, arabic bool) error
}

type localePreference struct {
	IsArabic bool `json:"isArabic"`
}

func GetLocale(store localeStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		arabic, err := store.Locale(r.Context(), sess.VisitorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading locale failed"))
			return
		}

		responses.WriteSuccess(w, localePreference{IsArabic: arabic})
	}
}

func SetLocale(store localeStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		var payload localePreference
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.SaveLocale(r.Context(), sess.VisitorID, payload.IsArabic); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving locale failed"))
			return
		}

		responses.WriteSuccess(w, localePreference{IsArabic: payload.IsArabic})
	}
}
