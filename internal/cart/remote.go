package cart

import (
	"context"
	"fmt"

	"github.com/seifpharma/storefront-gateway/internal/session"
	pkgerrors "github.com/seifpharma/storefront-gateway/pkg/errors"
	"github.com/seifpharma/storefront-gateway/pkg/upstream"
)

type remoteCartAPI interface {
	FetchCart(ctx context.Context, auth *upstream.Auth) ([]upstream.CartEntry, error)
	MutateCart(ctx context.Context, auth *upstream.Auth, records []map[string]int) error
	RemoveCartLine(ctx context.Context, auth *upstream.Auth, lineID string) error
}

// RemoteBackend serves signed-in visitors from the upstream cart API.
type RemoteBackend struct {
	api remoteCartAPI
}

// NewRemoteBackend wires the account cart onto the upstream client.
func NewRemoteBackend(api remoteCartAPI) (*RemoteBackend, error) {
	if api == nil {
		return nil, fmt.Errorf("upstream cart api required")
	}
	return &RemoteBackend{api: api}, nil
}

func (b *RemoteBackend) Entries(ctx context.Context, sess *session.Session) ([]Entry, error) {
	payload, err := b.api.FetchCart(ctx, sess.UpstreamAuth())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "fetching account cart")
	}
	entries := make([]Entry, 0, len(payload))
	for _, line := range payload {
		if line.Product.ID == "" {
			continue
		}
		entries = append(entries, Entry{
			LineID:    line.LineID,
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
		})
	}
	return entries, nil
}

func (b *RemoteBackend) Add(ctx context.Context, sess *session.Session, productID string, quantity int) error {
	err := b.api.MutateCart(ctx, sess.UpstreamAuth(), []map[string]int{{productID: quantity}})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "adding to account cart")
	}
	return nil
}

func (b *RemoteBackend) SetQuantity(ctx context.Context, sess *session.Session, entry Entry, quantity int) error {
	err := b.api.MutateCart(ctx, sess.UpstreamAuth(), []map[string]int{{entry.ProductID: quantity}})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "updating account cart")
	}
	return nil
}

func (b *RemoteBackend) Remove(ctx context.Context, sess *session.Session, entry Entry) error {
	if entry.LineID == "" {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if err := b.api.RemoveCartLine(ctx, sess.UpstreamAuth(), entry.LineID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "removing cart line")
	}
	return nil
}
