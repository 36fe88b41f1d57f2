package types

import "github.com/shopspring/decimal"

// ProductSnapshot is the catalog view of a single product after gap
// filling. Every field is safe to render: missing names fall back to
// the other language, missing images to a placeholder, missing prices
// to zero.
type ProductSnapshot struct {
	ID               string           `json:"id"`
	Name             LocalizedMessage `json:"name"`
	Image            string           `json:"image"`
	Price            decimal.Decimal  `json:"price"`
	Stock            int              `json:"stock"`
	MaxOrderQuantity int              `json:"maxOrderQuantity"`
	CategoryID       string           `json:"categoryId,omitempty"`
}

// CartLine pairs a resolved product with the quantity held in the cart.
type CartLine struct {
	Product  ProductSnapshot `json:"product"`
	Quantity int             `json:"quantity"`
	LineID   string          `json:"lineId,omitempty"`
}

// CartView is what the cart endpoints return. Notice is set when the
// view could not be refreshed and the lines shown are empty rather than
// stale. Sequence orders concurrent refreshes so an older fetch can
// never overwrite a newer one.
type CartView struct {
	Lines    []CartLine        `json:"lines"`
	Subtotal decimal.Decimal   `json:"subtotal"`
	Count    int               `json:"count"`
	Related  []ProductSnapshot `json:"related,omitempty"`
	Notice   *LocalizedMessage `json:"notice,omitempty"`
	Sequence uint64            `json:"-"`
}

// IsEmpty reports whether the view holds no purchasable lines.
func (v CartView) IsEmpty() bool {
	return len(v.Lines) == 0
}
