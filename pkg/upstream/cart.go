package upstream

import (
	"context"
	"net/http"
	"net/url"
)

// CartEntry is one line of the server-side cart for a signed-in
// account. The embedded product may be partial; the catalog service
// fills the gaps.
type CartEntry struct {
	LineID   string  `json:"id"`
	Quantity int     `json:"amount"`
	Product  Product `json:"product"`
}

type fetchCartResponse struct {
	Products []CartEntry `json:"products"`
}

// FetchCart returns the account's full cart.
func (c *Client) FetchCart(ctx context.Context, auth *Auth) ([]CartEntry, error) {
	var resp fetchCartResponse
	if err := c.do(ctx, auth, http.MethodGet, "/carts/cart/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

type mutateCartRequest struct {
	ProductID []map[string]int `json:"productId"`
}

// MutateCart applies quantity records to the account's cart. A single
// record adjusts one line; the batch form transfers a whole guest cart
// in one call.
func (c *Client) MutateCart(ctx context.Context, auth *Auth, records []map[string]int) error {
	if len(records) == 0 {
		return nil
	}
	return c.do(ctx, auth, http.MethodPost, "/carts/cart/", mutateCartRequest{ProductID: records}, nil)
}

// RemoveCartLine deletes one line from the account's cart.
func (c *Client) RemoveCartLine(ctx context.Context, auth *Auth, lineID string) error {
	endpoint := "/carts/cart/" + url.PathEscape(lineID)
	return c.do(ctx, auth, http.MethodDelete, endpoint, nil, nil)
}
