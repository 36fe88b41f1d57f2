package controllers

import (
	"net/http"

	"github.com/seifpharma/storefront-gateway/api/responses"
	placessvc "github.com/seifpharma/storefront-gateway/internal/places"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
)

// Cities lists deliverable cities with their zones and fees.
func Cities(svc placessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		cities, err := svc.Cities(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cities)
	}
}
