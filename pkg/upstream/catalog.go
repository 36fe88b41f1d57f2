package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Product is the raw catalog payload. Fields the upstream omits stay
// at their zero value; gap filling happens in the catalog service, not
// here.
type Product struct {
	ID               string        `json:"id"`
	Name             LocalizedText `json:"name"`
	Image            string        `json:"image"`
	Price            float64       `json:"price"`
	Stock            int           `json:"stock"`
	MaxOrderQuantity int           `json:"maxOrderQuantity"`
	CategoryID       string        `json:"categoryId"`
	IsDeleted        bool          `json:"isDeleted"`
}

// LocalizedText is the upstream's two-language string shape.
type LocalizedText struct {
	AR string `json:"ar"`
	EN string `json:"en"`
}

type productListRequest struct {
	IDs []string `json:"ids"`
}

type productListResponse struct {
	Products []Product `json:"products"`
}

// ResolveProducts fetches catalog data for the given product ids in
// one batch. Unknown ids are simply absent from the answer.
func (c *Client) ResolveProducts(ctx context.Context, auth *Auth, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var resp productListResponse
	err := c.do(ctx, auth, http.MethodPost, "/products/product-list", productListRequest{IDs: ids}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// CategoryProducts lists the products in one category, used for
// related-item suggestions.
func (c *Client) CategoryProducts(ctx context.Context, auth *Auth, categoryID string) ([]Product, error) {
	if categoryID == "" {
		return nil, fmt.Errorf("category id is required")
	}
	var resp productListResponse
	endpoint := "/categories/category/" + url.PathEscape(categoryID)
	if err := c.do(ctx, auth, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}
