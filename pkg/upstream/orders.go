package upstream

import (
	"context"
	"net/http"
)

// PaymentMethodPayload is one payment option offered at checkout.
type PaymentMethodPayload struct {
	ID   string        `json:"id"`
	Name LocalizedText `json:"name"`
	Type string        `json:"type"`
}

type paymentMethodsResponse struct {
	Methods []PaymentMethodPayload `json:"paymentMethods"`
}

// PaymentMethods lists the methods the upstream currently accepts.
func (c *Client) PaymentMethods(ctx context.Context, auth *Auth) ([]PaymentMethodPayload, error) {
	var resp paymentMethodsResponse
	if err := c.do(ctx, auth, http.MethodGet, "/orders/payment-methods", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Methods, nil
}

// OrderRequest is the full order submission payload.
type OrderRequest struct {
	Name            string   `json:"name"`
	Phone           string   `json:"phone"`
	SecondaryPhones []string `json:"secondaryPhones,omitempty"`
	Address         string   `json:"address"`
	CityID          string   `json:"cityId"`
	ZoneID          string   `json:"zoneId"`
	PaymentMethodID string   `json:"paymentMethodId"`
	PromoCode       string   `json:"promoCode,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// OrderResponse is the submission answer. Data.URL is present only
// when the buyer must finish paying on an external gateway page.
type OrderResponse struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Data    *struct {
		URL string `json:"url"`
	} `json:"data,omitempty"`
}

// SubmitOrder places the order built from the account's cart.
func (c *Client) SubmitOrder(ctx context.Context, auth *Auth, req OrderRequest) (*OrderResponse, error) {
	var resp OrderResponse
	if err := c.do(ctx, auth, http.MethodPost, "/orders/order", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RedirectURL returns the payment-gateway URL, empty for cash orders.
func (r *OrderResponse) RedirectURL() string {
	if r == nil || r.Data == nil {
		return ""
	}
	return r.Data.URL
}
