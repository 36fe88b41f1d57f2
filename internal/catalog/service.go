package catalog

import (
	"context"
	"fmt"

	"github.com/seifpharma/storefront-gateway/pkg/types"
	"github.com/seifpharma/storefront-gateway/pkg/upstream"
	"github.com/shopspring/decimal"
)

// placeholderImage is served when the catalog record has no image.
const placeholderImage = "/static/placeholder-product.png"

type catalogFetcher interface {
	ResolveProducts(ctx context.Context, auth *upstream.Auth, ids []string) ([]upstream.Product, error)
	CategoryProducts(ctx context.Context, auth *upstream.Auth, categoryID string) ([]upstream.Product, error)
}

// Service resolves product ids into render-safe snapshots and builds
// related-item suggestions.
type Service interface {
	Resolve(ctx context.Context, auth *upstream.Auth, ids []string) (map[string]types.ProductSnapshot, error)
	Related(ctx context.Context, auth *upstream.Auth, categoryIDs []string, excludeIDs []string) ([]types.ProductSnapshot, error)
}

type service struct {
	fetcher       catalogFetcher
	defaultMaxQty int
	relatedLimit  int
}

// NewService builds a catalog service over the upstream client.
func NewService(fetcher catalogFetcher, defaultMaxQty, relatedLimit int) (Service, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("catalog fetcher required")
	}
	if defaultMaxQty <= 0 {
		return nil, fmt.Errorf("default max order quantity must be positive")
	}
	if relatedLimit <= 0 {
		return nil, fmt.Errorf("related limit must be positive")
	}
	return &service{
		fetcher:       fetcher,
		defaultMaxQty: defaultMaxQty,
		relatedLimit:  relatedLimit,
	}, nil
}

// Resolve batches the ids into one upstream lookup. Ids the catalog no
// longer knows are simply absent from the result; callers decide what
// a missing product means for them.
func (s *service) Resolve(ctx context.Context, auth *upstream.Auth, ids []string) (map[string]types.ProductSnapshot, error) {
	if len(ids) == 0 {
		return map[string]types.ProductSnapshot{}, nil
	}

	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	products, err := s.fetcher.ResolveProducts(ctx, auth, unique)
	if err != nil {
		return nil, err
	}

	snapshots := make(map[string]types.ProductSnapshot, len(products))
	for _, product := range products {
		if product.ID == "" || product.IsDeleted {
			continue
		}
		snapshots[product.ID] = s.snapshot(product)
	}
	return snapshots, nil
}

// Related suggests in-stock products from the given categories,
// excluding anything already in the cart. Suggestions are best effort;
// an upstream failure surfaces as an error the caller may swallow.
func (s *service) Related(ctx context.Context, auth *upstream.Auth, categoryIDs []string, excludeIDs []string) ([]types.ProductSnapshot, error) {
	exclude := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		exclude[id] = struct{}{}
	}

	var (
		suggestions []types.ProductSnapshot
		seen        = make(map[string]struct{})
		seenCats    = make(map[string]struct{})
	)
	for _, categoryID := range categoryIDs {
		if len(suggestions) >= s.relatedLimit {
			break
		}
		if categoryID == "" {
			continue
		}
		if _, dup := seenCats[categoryID]; dup {
			continue
		}
		seenCats[categoryID] = struct{}{}

		products, err := s.fetcher.CategoryProducts(ctx, auth, categoryID)
		if err != nil {
			return nil, err
		}
		for _, product := range products {
			if len(suggestions) >= s.relatedLimit {
				break
			}
			if product.ID == "" || product.IsDeleted || product.Stock <= 0 {
				continue
			}
			if _, inCart := exclude[product.ID]; inCart {
				continue
			}
			if _, dup := seen[product.ID]; dup {
				continue
			}
			seen[product.ID] = struct{}{}
			suggestions = append(suggestions, s.snapshot(product))
		}
	}
	return suggestions, nil
}

// snapshot fills the gaps an incomplete catalog record leaves so every
// field is safe to render.
func (s *service) snapshot(product upstream.Product) types.ProductSnapshot {
	name := types.LocalizedMessage{AR: product.Name.AR, EN: product.Name.EN}
	if name.IsZero() {
		name = types.LocalizedMessage{AR: "منتج", EN: "Product"}
	}

	image := product.Image
	if image == "" {
		image = placeholderImage
	}

	maxQty := product.MaxOrderQuantity
	if maxQty <= 0 {
		maxQty = s.defaultMaxQty
	}

	price := decimal.NewFromFloat(product.Price)
	if price.IsNegative() {
		price = decimal.Zero
	}

	stock := product.Stock
	if stock < 0 {
		stock = 0
	}

	return types.ProductSnapshot{
		ID:               product.ID,
		Name:             name,
		Image:            image,
		Price:            price,
		Stock:            stock,
		MaxOrderQuantity: maxQty,
		CategoryID:       product.CategoryID,
	}
}
