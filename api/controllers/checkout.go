package controllers

import (
	"net/http"

	"github.com/seifpharma/storefront-gateway/api/responses"
	"github.com/seifpharma/storefront-gateway/api/validators"
	checkoutsvc "github.com/seifpharma/storefront-gateway/internal/checkout"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
)

func CheckoutStart(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		state, err := svc.Start(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// CheckoutCurrent returns the in-progress checkout, or null data when
// none exists.
func CheckoutCurrent(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		state, err := svc.Current(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

// CheckoutBack steps backward. Backing out of the first step ends the
// checkout and returns null data.
func CheckoutBack(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		state, err := svc.Back(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

type selectCityRequest struct {
	CityID string `json:"cityId" validate:"required"`
}

func CheckoutSelectCity(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		var payload selectCityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.SelectCity(r.Context(), sess, payload.CityID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

type selectZoneRequest struct {
	CityID string `json:"cityId" validate:"required"`
	ZoneID string `json:"zoneId" validate:"required"`
}

func CheckoutSelectZone(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		var payload selectZoneRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.SelectZone(r.Context(), sess, payload.CityID, payload.ZoneID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

func CheckoutConfirmLocation(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		state, err := svc.ConfirmLocation(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

type contactInfoRequest struct {
	Name            string   `json:"name" validate:"required"`
	Phone           string   `json:"phone" validate:"required"`
	SecondaryPhones []string `json:"secondaryPhones" validate:"max=3"`
	Address         string   `json:"address" validate:"required"`
	Notes           string   `json:"notes"`
}

func CheckoutSubmitContact(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		var payload contactInfoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := svc.SubmitContact(r.Context(), sess, checkoutsvc.ContactInfo{
			Name:            payload.Name,
			Phone:           payload.Phone,
			SecondaryPhones: payload.SecondaryPhones,
			Address:         payload.Address,
			Notes:           payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, state)
	}
}

func CheckoutPaymentMethods(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		options, err := svc.PaymentMethods(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, options)
	}
}

type submitOrderRequest struct {
	PaymentMethodID string `json:"paymentMethodId" validate:"required"`
}

// CheckoutSubmit places the order. A second submit while the first is
// still in flight is rejected rather than queued.
func CheckoutSubmit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		var payload submitOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), sess, payload.PaymentMethodID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
