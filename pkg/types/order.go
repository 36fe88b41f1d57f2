package types

import "github.com/seifpharma/storefront-gateway/pkg/enums"

// PaymentOption is a payment method offered by the upstream at the
// final checkout step.
type PaymentOption struct {
	ID     string              `json:"id"`
	Name   LocalizedMessage    `json:"name"`
	Method enums.PaymentMethod `json:"method"`
}

// OrderResult is the outcome of a submitted order. RedirectURL is set
// only for online payments that require the buyer to complete payment
// on the gateway's page.
type OrderResult struct {
	OrderID     string            `json:"orderId,omitempty"`
	Status      enums.OrderStatus `json:"status"`
	RedirectURL string            `json:"redirectUrl,omitempty"`
}
