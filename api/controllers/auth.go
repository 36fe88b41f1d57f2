package controllers

import (
	"net/http"

	"github.com/seifpharma/storefront-gateway/api/responses"
	"github.com/seifpharma/storefront-gateway/api/validators"
	authsvc "github.com/seifpharma/storefront-gateway/internal/auth"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
)

type loginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// Login signs the visitor in and transfers any guest cart to their
// account. A failed transfer does not fail the login; the result flags
// tell the client which happened.
func Login(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), sess, payload.Phone, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func Logout(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		if err := svc.Logout(r.Context(), sess); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"loggedOut": true})
	}
}
