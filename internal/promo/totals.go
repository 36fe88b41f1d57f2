package promo

import (
	"github.com/seifpharma/storefront-gateway/pkg/types"
	"github.com/shopspring/decimal"
)

// Totals is the checkout money summary after any promo is applied.
type Totals struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	DeliveryFee      decimal.Decimal `json:"deliveryFee"`
	CartDiscount     decimal.Decimal `json:"cartDiscount"`
	DeliveryDiscount decimal.Decimal `json:"deliveryDiscount"`
	Total            decimal.Decimal `json:"total"`
}

// ComputeTotals folds an optional promo into the cart subtotal and
// delivery fee. Discounts never push a component below zero, and a cart
// discount covering the whole subtotal makes the order free outright,
// delivery fee included. The zero is exact, not a near-zero residue.
func ComputeTotals(subtotal, deliveryFee decimal.Decimal, details *types.PromoDetails) Totals {
	totals := Totals{
		Subtotal:         subtotal,
		DeliveryFee:      deliveryFee,
		CartDiscount:     decimal.Zero,
		DeliveryDiscount: decimal.Zero,
	}

	if details != nil {
		// Only "cart" hits the subtotal; any other target value,
		// known or not, is a delivery discount.
		switch details.Target {
		case types.PromoTargetCart:
			totals.CartDiscount = clampDiscount(details.CartDiscount, subtotal)
		default:
			totals.DeliveryDiscount = clampDiscount(details.DeliveryDiscount, deliveryFee)
		}
	}

	cartDue := subtotal.Sub(totals.CartDiscount)
	if totals.CartDiscount.GreaterThan(decimal.Zero) && cartDue.IsZero() {
		totals.Total = decimal.Zero
		return totals
	}

	deliveryDue := deliveryFee.Sub(totals.DeliveryDiscount)
	totals.Total = cartDue.Add(deliveryDue)
	if totals.Total.IsNegative() || totals.Total.IsZero() {
		totals.Total = decimal.Zero
	}
	return totals
}

func clampDiscount(discount, ceiling decimal.Decimal) decimal.Decimal {
	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(ceiling) {
		return ceiling
	}
	return discount
}
