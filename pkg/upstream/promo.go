package upstream

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

type validatePromoRequest struct {
	Code   string `json:"code"`
	ZoneID string `json:"zoneId"`
}

// PromoValidation is the upstream's verdict on a promo code for the
// caller's cart and delivery zone. A rejection can arrive as a 200
// with Valid false; callers must check Valid, not just the error.
// Amounts are decimals end to end so totals never pick up float dust.
type PromoValidation struct {
	Valid                          bool            `json:"valid"`
	Message                        string          `json:"message,omitempty"`
	Code                           string          `json:"code"`
	Target                         string          `json:"target"`
	CartDiscount                   decimal.Decimal `json:"cartDiscount"`
	DeliveryDiscount               decimal.Decimal `json:"deliveryDiscount"`
	TotalDiscount                  decimal.Decimal `json:"totalDiscount"`
	OriginalCartTotal              decimal.Decimal `json:"originalCartTotal"`
	DiscountedCartTotal            decimal.Decimal `json:"discountedCartTotal"`
	TotalWithDeliveryAfterDiscount decimal.Decimal `json:"totalWithDeliveryAfterDiscount"`
}

// ValidatePromo asks the upstream to validate code against the
// account's current cart and the selected zone. A rejected code comes
// back as an APIError with the upstream's reason.
func (c *Client) ValidatePromo(ctx context.Context, auth *Auth, code, zoneID string) (*PromoValidation, error) {
	var resp PromoValidation
	err := c.do(ctx, auth, http.MethodPost, "/promocodes/validate-promocode", validatePromoRequest{
		Code:   code,
		ZoneID: zoneID,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
