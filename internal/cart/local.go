package cart

import (
	"context"
	"fmt"

	"github.com/seifpharma/storefront-gateway/internal/session"
	pkgerrors "github.com/seifpharma/storefront-gateway/pkg/errors"
	"github.com/seifpharma/storefront-gateway/pkg/localstore"
)

type guestCartStore interface {
	GuestCart(ctx context.Context, visitorID string) ([]localstore.CartRecord, error)
	SaveGuestCart(ctx context.Context, visitorID string, records []localstore.CartRecord) error
}

// LocalBackend keeps guest carts in the device store as an ordered
// list of single-product quantity records.
type LocalBackend struct {
	store guestCartStore
}

// NewLocalBackend wires the guest cart onto the device store.
func NewLocalBackend(store guestCartStore) (*LocalBackend, error) {
	if store == nil {
		return nil, fmt.Errorf("guest cart store required")
	}
	return &LocalBackend{store: store}, nil
}

func (b *LocalBackend) Entries(ctx context.Context, sess *session.Session) ([]Entry, error) {
	records, err := b.store.GuestCart(ctx, sess.VisitorID)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(records))
	for _, record := range records {
		id := record.ProductID()
		if id == "" {
			continue
		}
		entries = append(entries, Entry{ProductID: id, Quantity: record.Quantity()})
	}
	return entries, nil
}

func (b *LocalBackend) Add(ctx context.Context, sess *session.Session, productID string, quantity int) error {
	records, err := b.store.GuestCart(ctx, sess.VisitorID)
	if err != nil {
		return err
	}
	for _, record := range records {
		if record.ProductID() == productID {
			return pkgerrors.New(pkgerrors.CodeConflict, "product is already in the cart")
		}
	}
	records = append(records, localstore.CartRecord{productID: quantity})
	return b.store.SaveGuestCart(ctx, sess.VisitorID, records)
}

func (b *LocalBackend) SetQuantity(ctx context.Context, sess *session.Session, entry Entry, quantity int) error {
	records, err := b.store.GuestCart(ctx, sess.VisitorID)
	if err != nil {
		return err
	}
	for i, record := range records {
		if record.ProductID() == entry.ProductID {
			records[i] = localstore.CartRecord{entry.ProductID: quantity}
			return b.store.SaveGuestCart(ctx, sess.VisitorID, records)
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
}

func (b *LocalBackend) Remove(ctx context.Context, sess *session.Session, entry Entry) error {
	records, err := b.store.GuestCart(ctx, sess.VisitorID)
	if err != nil {
		return err
	}
	kept := make([]localstore.CartRecord, 0, len(records))
	for _, record := range records {
		if record.ProductID() == entry.ProductID {
			continue
		}
		kept = append(kept, record)
	}
	if len(kept) == len(records) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
	}
	return b.store.SaveGuestCart(ctx, sess.VisitorID, kept)
}
