package cart

import (
	"context"

	"github.com/seifpharma/storefront-gateway/internal/session"
)

// Entry is one cart line in backend-neutral form. LineID is set only
// by the remote backend; the local backend addresses lines by product.
type Entry struct {
	LineID    string
	ProductID string
	Quantity  int
}

// Backend is one source of cart truth. Guests read and write the
// device store; signed-in visitors go through the upstream cart API.
type Backend interface {
	// Entries returns the cart lines in stored order.
	Entries(ctx context.Context, sess *session.Session) ([]Entry, error)
	// Add appends a new line. Adding a product that is already in the
	// cart is a conflict.
	Add(ctx context.Context, sess *session.Session, productID string, quantity int) error
	// SetQuantity replaces the quantity on an existing line.
	SetQuantity(ctx context.Context, sess *session.Session, entry Entry, quantity int) error
	// Remove deletes a line.
	Remove(ctx context.Context, sess *session.Session, entry Entry) error
}
