package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seifpharma/storefront-gateway/api/responses"
	"github.com/seifpharma/storefront-gateway/api/validators"
	cartsvc "github.com/seifpharma/storefront-gateway/internal/cart"
	pkgerrors "github.com/seifpharma/storefront-gateway/pkg/errors"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
)

// CartView returns the current cart, refreshed against the catalog.
func CartView(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		view, err := svc.View(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// CartCount returns just the line count, for the header badge.
func CartCount(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		count, err := svc.Count(r.Context(), sess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"count": count})
	}
}

type addCartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1"`
}

func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Quantity == 0 {
			payload.Quantity = 1
		}

		view, err := svc.Add(r.Context(), sess, payload.ProductID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

type changeQuantityRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Delta     int    `json:"delta" validate:"required"`
}

// CartChangeQuantity applies a signed delta to one line. Out-of-range
// targets are absorbed by the service, so the response is always the
// current view.
func CartChangeQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		var payload changeQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.ChangeQuantity(r.Context(), sess, payload.ProductID, payload.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

func CartRemove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		productID := chi.URLParam(r, "productID")
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id required"))
			return
		}

		view, err := svc.Remove(r.Context(), sess, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}
