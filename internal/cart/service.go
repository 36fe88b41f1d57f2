package cart

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/seifpharma/storefront-gateway/internal/catalog"
	"github.com/seifpharma/storefront-gateway/internal/session"
	pkgerrors "github.com/seifpharma/storefront-gateway/pkg/errors"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
	"github.com/seifpharma/storefront-gateway/pkg/types"
	"github.com/shopspring/decimal"
)

// cartUnavailableNotice is shown instead of stale lines when the cart
// cannot be refreshed.
var cartUnavailableNotice = types.LocalizedMessage{
	AR: "تعذر تحميل عناصر السلة، برجاء المحاولة مرة أخرى",
	EN: "We couldn't load your cart items, please try again",
}

type sequencer interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Get(ctx context.Context, key string) (string, error)
	CartSequenceKey(visitorID string) string
}

type promoReapplier interface {
	ReapplyOnCartMutation(ctx context.Context, sess *session.Session) error
}

// Service exposes the cart operations for both guests and signed-in
// visitors. Every mutation answers with a freshly fetched view; there
// are no optimistic updates to roll back.
type Service interface {
	View(ctx context.Context, sess *session.Session) (*types.CartView, error)
	Count(ctx context.Context, sess *session.Session) (int, error)
	Add(ctx context.Context, sess *session.Session, productID string, quantity int) (*types.CartView, error)
	ChangeQuantity(ctx context.Context, sess *session.Session, productID string, delta int) (*types.CartView, error)
	Remove(ctx context.Context, sess *session.Session, productID string) (*types.CartView, error)
}

type service struct {
	local         Backend
	remote        Backend
	catalog       catalog.Service
	seq           sequencer
	promo         promoReapplier
	logg          *logger.Logger
	defaultMaxQty int
	seqTTL        time.Duration
}

// NewService builds the cart service over both backends.
func NewService(local, remote Backend, catalogSvc catalog.Service, seq sequencer, promo promoReapplier, logg *logger.Logger, defaultMaxQty int, seqTTL time.Duration) (Service, error) {
	if local == nil {
		return nil, fmt.Errorf("local backend required")
	}
	if remote == nil {
		return nil, fmt.Errorf("remote backend required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if seq == nil {
		return nil, fmt.Errorf("sequencer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if defaultMaxQty <= 0 {
		return nil, fmt.Errorf("default max order quantity must be positive")
	}
	if seqTTL <= 0 {
		seqTTL = 24 * time.Hour
	}
	return &service{
		local:         local,
		remote:        remote,
		catalog:       catalogSvc,
		seq:           seq,
		promo:         promo,
		logg:          logg,
		defaultMaxQty: defaultMaxQty,
		seqTTL:        seqTTL,
	}, nil
}

func (s *service) backendFor(sess *session.Session) Backend {
	if sess.IsAuthenticated() {
		return s.remote
	}
	return s.local
}

// View fetches and resolves the full cart. A failed refresh degrades
// to an empty view carrying a localized notice rather than an error,
// so callers never render stale lines.
func (s *service) View(ctx context.Context, sess *session.Session) (*types.CartView, error) {
	seqKey := s.seq.CartSequenceKey(sess.VisitorID)
	for attempt := 0; ; attempt++ {
		seq, err := s.seq.IncrWithTTL(ctx, seqKey, s.seqTTL)
		if err != nil {
			s.logg.Warn(ctx, "cart sequence unavailable: "+err.Error())
			seq = 0
		}

		view, err := s.buildView(ctx, sess)
		if err != nil {
			s.logg.Error(ctx, "refreshing cart failed", err)
			notice := cartUnavailableNotice
			return &types.CartView{
				Lines:    []types.CartLine{},
				Subtotal: decimal.Zero,
				Notice:   &notice,
				Sequence: uint64(seq),
			}, nil
		}

		// If a newer fetch claimed the counter while we were
		// resolving, our snapshot may already be behind; rebuild once
		// so the newest state wins.
		if seq > 0 && attempt == 0 && s.latestSequence(ctx, seqKey) > seq {
			continue
		}
		view.Sequence = uint64(seq)
		return view, nil
	}
}

func (s *service) buildView(ctx context.Context, sess *session.Session) (*types.CartView, error) {
	entries, err := s.backendFor(sess).Entries(ctx, sess)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ProductID)
	}
	snapshots, err := s.catalog.Resolve(ctx, sess.UpstreamAuth(), ids)
	if err != nil {
		return nil, err
	}

	view := &types.CartView{Lines: make([]types.CartLine, 0, len(entries)), Subtotal: decimal.Zero}
	categoryIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		snapshot, known := snapshots[entry.ProductID]
		if !known {
			// The catalog no longer sells it; the line disappears
			// rather than rendering a hole.
			continue
		}
		quantity := entry.Quantity
		if quantity < 1 {
			quantity = 1
		}
		view.Lines = append(view.Lines, types.CartLine{
			Product:  snapshot,
			Quantity: quantity,
			LineID:   entry.LineID,
		})
		view.Count += quantity
		view.Subtotal = view.Subtotal.Add(snapshot.Price.Mul(decimal.NewFromInt(int64(quantity))))
		if snapshot.CategoryID != "" {
			categoryIDs = append(categoryIDs, snapshot.CategoryID)
		}
	}

	related, err := s.catalog.Related(ctx, sess.UpstreamAuth(), categoryIDs, ids)
	if err != nil {
		// Suggestions are best effort; the cart itself is fine.
		s.logg.Warn(ctx, "related products unavailable: "+err.Error())
	} else {
		view.Related = related
	}
	return view, nil
}

func (s *service) latestSequence(ctx context.Context, key string) int64 {
	raw, err := s.seq.Get(ctx, key)
	if err != nil {
		return 0
	}
	latest, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return latest
}

// Count returns the number of cart lines for the badge.
func (s *service) Count(ctx context.Context, sess *session.Session) (int, error) {
	entries, err := s.backendFor(sess).Entries(ctx, sess)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Add puts a new product in the cart. Quantities above the product's
// order cap are silently ignored and the current view comes back
// unchanged.
func (s *service) Add(ctx context.Context, sess *session.Session, productID string, quantity int) (*types.CartView, error) {
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity < 1 {
		quantity = 1
	}

	snapshots, err := s.catalog.Resolve(ctx, sess.UpstreamAuth(), []string{productID})
	if err != nil {
		return nil, err
	}
	snapshot, known := snapshots[productID]
	if !known {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if quantity > s.maxQuantity(snapshot) {
		return s.View(ctx, sess)
	}

	if err := s.backendFor(sess).Add(ctx, sess, productID, quantity); err != nil {
		return nil, err
	}
	s.reapplyPromo(ctx, sess)
	return s.View(ctx, sess)
}

// ChangeQuantity applies a signed delta to an existing line. Targets
// above the product cap are a silent no-op. Dropping below one removes
// the line for guests and pins it at one for signed-in visitors.
func (s *service) ChangeQuantity(ctx context.Context, sess *session.Session, productID string, delta int) (*types.CartView, error) {
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	backend := s.backendFor(sess)
	entry, err := s.findEntry(ctx, sess, backend, productID)
	if err != nil {
		return nil, err
	}

	maxQty := s.defaultMaxQty
	if snapshots, resolveErr := s.catalog.Resolve(ctx, sess.UpstreamAuth(), []string{productID}); resolveErr == nil {
		if snapshot, known := snapshots[productID]; known {
			maxQty = s.maxQuantity(snapshot)
		}
	}

	target := entry.Quantity + delta
	switch {
	case target > maxQty:
		return s.View(ctx, sess)
	case target < 1:
		if sess.IsAuthenticated() {
			if entry.Quantity == 1 {
				return s.View(ctx, sess)
			}
			if err := backend.SetQuantity(ctx, sess, entry, 1); err != nil {
				return nil, err
			}
		} else {
			if err := backend.Remove(ctx, sess, entry); err != nil {
				return nil, err
			}
		}
	default:
		if err := backend.SetQuantity(ctx, sess, entry, target); err != nil {
			return nil, err
		}
	}

	s.reapplyPromo(ctx, sess)
	return s.View(ctx, sess)
}

// Remove deletes a line outright for both kinds of visitor.
func (s *service) Remove(ctx context.Context, sess *session.Session, productID string) (*types.CartView, error) {
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	backend := s.backendFor(sess)
	entry, err := s.findEntry(ctx, sess, backend, productID)
	if err != nil {
		return nil, err
	}
	if err := backend.Remove(ctx, sess, entry); err != nil {
		return nil, err
	}
	s.reapplyPromo(ctx, sess)
	return s.View(ctx, sess)
}

func (s *service) findEntry(ctx context.Context, sess *session.Session, backend Backend, productID string) (Entry, error) {
	entries, err := backend.Entries(ctx, sess)
	if err != nil {
		return Entry{}, err
	}
	for _, entry := range entries {
		if entry.ProductID == productID {
			return entry, nil
		}
	}
	return Entry{}, pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
}

func (s *service) maxQuantity(snapshot types.ProductSnapshot) int {
	if snapshot.MaxOrderQuantity > 0 {
		return snapshot.MaxOrderQuantity
	}
	return s.defaultMaxQty
}

// reapplyPromo revalidates any applied promo against the mutated cart.
// It never blocks the mutation; a promo that fails revalidation is
// dropped by the promo service itself.
func (s *service) reapplyPromo(ctx context.Context, sess *session.Session) {
	if s.promo == nil {
		return
	}
	if err := s.promo.ReapplyOnCartMutation(ctx, sess); err != nil {
		s.logg.Warn(ctx, "promo revalidation failed: "+err.Error())
	}
}
