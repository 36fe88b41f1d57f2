package types

import "github.com/shopspring/decimal"

// Promo discount targets as reported by the validation endpoint.
const (
	PromoTargetCart     = "cart"
	PromoTargetDelivery = "delivery"
)

// PromoDetails is the validated promo payload kept alongside the
// checkout session. Amounts are decimal so a discount equal to the
// subtotal produces an exact zero total.
type PromoDetails struct {
	Code                           string          `json:"code"`
	Target                         string          `json:"target"`
	CartDiscount                   decimal.Decimal `json:"cartDiscount"`
	DeliveryDiscount               decimal.Decimal `json:"deliveryDiscount"`
	TotalDiscount                  decimal.Decimal `json:"totalDiscount"`
	OriginalCartTotal              decimal.Decimal `json:"originalCartTotal"`
	DiscountedCartTotal            decimal.Decimal `json:"discountedCartTotal"`
	TotalWithDeliveryAfterDiscount decimal.Decimal `json:"totalWithDeliveryAfterDiscount"`
}
