package cart

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/seifpharma/storefront-gateway/internal/session"
	pkgerrors "github.com/seifpharma/storefront-gateway/pkg/errors"
	"github.com/seifpharma/storefront-gateway/pkg/localstore"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
	"github.com/seifpharma/storefront-gateway/pkg/types"
	"github.com/seifpharma/storefront-gateway/pkg/upstream"
	"github.com/shopspring/decimal"
)

type memGuestStore struct {
	carts map[string][]localstore.CartRecord
}

func newMemGuestStore() *memGuestStore {
	return &memGuestStore{carts: make(map[string][]localstore.CartRecord)}
}

func (m *memGuestStore) GuestCart(ctx context.Context, visitorID string) ([]localstore.CartRecord, error) {
	return m.carts[visitorID], nil
}

func (m *memGuestStore) SaveGuestCart(ctx context.Context, visitorID string, records []localstore.CartRecord) error {
	if len(records) == 0 {
		delete(m.carts, visitorID)
		return nil
	}
	m.carts[visitorID] = records
	return nil
}

type stubCatalog struct {
	snapshots  map[string]types.ProductSnapshot
	related    []types.ProductSnapshot
	resolveErr error
}

func (s *stubCatalog) Resolve(ctx context.Context, auth *upstream.Auth, ids []string) (map[string]types.ProductSnapshot, error) {
	if s.resolveErr != nil {
		return nil, s.resolveErr
	}
	out := make(map[string]types.ProductSnapshot)
	for _, id := range ids {
		if snapshot, ok := s.snapshots[id]; ok {
			out[id] = snapshot
		}
	}
	return out, nil
}

func (s *stubCatalog) Related(ctx context.Context, auth *upstream.Auth, categoryIDs, excludeIDs []string) ([]types.ProductSnapshot, error) {
	return s.related, nil
}

type stubSequencer struct {
	counter int64
}

func (s *stubSequencer) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s.counter++
	return s.counter, nil
}

func (s *stubSequencer) Get(ctx context.Context, key string) (string, error) {
	return strconv.FormatInt(s.counter, 10), nil
}

func (s *stubSequencer) CartSequenceKey(visitorID string) string {
	return "cart_seq:" + visitorID
}

type stubReapplier struct {
	calls int
}

func (s *stubReapplier) ReapplyOnCartMutation(ctx context.Context, sess *session.Session) error {
	s.calls++
	return nil
}

type remoteCartState struct {
	entries []upstream.CartEntry
}

func (r *remoteCartState) FetchCart(ctx context.Context, auth *upstream.Auth) ([]upstream.CartEntry, error) {
	return r.entries, nil
}

func (r *remoteCartState) MutateCart(ctx context.Context, auth *upstream.Auth, records []map[string]int) error {
	for _, record := range records {
		for id, qty := range record {
			found := false
			for i := range r.entries {
				if r.entries[i].Product.ID == id {
					r.entries[i].Quantity = qty
					found = true
				}
			}
			if !found {
				r.entries = append(r.entries, upstream.CartEntry{
					LineID:   "line-" + id,
					Quantity: qty,
					Product:  upstream.Product{ID: id},
				})
			}
		}
	}
	return nil
}

func (r *remoteCartState) RemoveCartLine(ctx context.Context, auth *upstream.Auth, lineID string) error {
	kept := r.entries[:0]
	for _, entry := range r.entries {
		if entry.LineID != lineID {
			kept = append(kept, entry)
		}
	}
	r.entries = kept
	return nil
}

type cartFixture struct {
	svc       Service
	guest     *memGuestStore
	remote    *remoteCartState
	catalog   *stubCatalog
	reapplier *stubReapplier
}

func snapshotFor(id string, price float64, maxQty int) types.ProductSnapshot {
	return types.ProductSnapshot{
		ID:               id,
		Name:             types.LocalizedMessage{EN: id},
		Image:            "img.png",
		Price:            decimal.NewFromFloat(price),
		Stock:            10,
		MaxOrderQuantity: maxQty,
		CategoryID:       "cat-1",
	}
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()

	guest := newMemGuestStore()
	local, err := NewLocalBackend(guest)
	if err != nil {
		t.Fatalf("local backend: %v", err)
	}
	remoteState := &remoteCartState{}
	remote, err := NewRemoteBackend(remoteState)
	if err != nil {
		t.Fatalf("remote backend: %v", err)
	}
	cat := &stubCatalog{snapshots: map[string]types.ProductSnapshot{
		"prod-a": snapshotFor("prod-a", 10, 99),
		"prod-b": snapshotFor("prod-b", 3.5, 2),
	}}
	reapplier := &stubReapplier{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	svc, err := NewService(local, remote, cat, &stubSequencer{}, reapplier, logg, 99, time.Hour)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &cartFixture{svc: svc, guest: guest, remote: remoteState, catalog: cat, reapplier: reapplier}
}

func guestSession() *session.Session {
	return &session.Session{VisitorID: "visitor-1"}
}

func authSession() *session.Session {
	return &session.Session{VisitorID: "visitor-1", Auth: &upstream.Auth{AccessToken: "token"}}
}

func TestGuestAddAndView(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)

	view, err := f.svc.Add(ctx, guestSession(), "prod-a", 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].Quantity != 2 {
		t.Fatalf("unexpected view %+v", view)
	}
	if !view.Subtotal.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected subtotal %s", view.Subtotal)
	}
	if f.reapplier.calls != 1 {
		t.Fatalf("expected promo reapply after mutation")
	}
}

func TestGuestDuplicateAddRejected(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)

	if _, err := f.svc.Add(ctx, guestSession(), "prod-a", 1); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := f.svc.Add(ctx, guestSession(), "prod-a", 1)
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAddUnknownProduct(t *testing.T) {
	f := newCartFixture(t)
	_, err := f.svc.Add(context.Background(), guestSession(), "prod-gone", 1)
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestQuantityAboveCapIsSilentNoop(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)

	if _, err := f.svc.Add(ctx, guestSession(), "prod-b", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err := f.svc.ChangeQuantity(ctx, guestSession(), "prod-b", +1)
	if err != nil {
		t.Fatalf("change quantity: %v", err)
	}
	if view.Lines[0].Quantity != 2 {
		t.Fatalf("cap breach must not change quantity, got %d", view.Lines[0].Quantity)
	}
}

func TestGuestDecrementToZeroRemovesLine(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)

	if _, err := f.svc.Add(ctx, guestSession(), "prod-a", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err := f.svc.ChangeQuantity(ctx, guestSession(), "prod-a", -1)
	if err != nil {
		t.Fatalf("change quantity: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("guest decrement to zero should delete the line")
	}
}

func TestAuthenticatedDecrementPinsAtOne(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	sess := authSession()

	if _, err := f.svc.Add(ctx, sess, "prod-a", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err := f.svc.ChangeQuantity(ctx, sess, "prod-a", -1)
	if err != nil {
		t.Fatalf("change quantity: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].Quantity != 1 {
		t.Fatalf("signed-in decrement below one must keep the line at one, got %+v", view.Lines)
	}
}

func TestChangeQuantityMissingLine(t *testing.T) {
	f := newCartFixture(t)
	_, err := f.svc.ChangeQuantity(context.Background(), guestSession(), "prod-a", 1)
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestViewDegradesToNoticeOnResolveFailure(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)

	if _, err := f.svc.Add(ctx, guestSession(), "prod-a", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	f.catalog.resolveErr = fmt.Errorf("catalog down")

	view, err := f.svc.View(ctx, guestSession())
	if err != nil {
		t.Fatalf("view must degrade, not fail: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("degraded view must not show stale lines")
	}
	if view.Notice == nil || view.Notice.EN == "" || view.Notice.AR == "" {
		t.Fatalf("degraded view must carry a localized notice")
	}
}

func TestViewDropsUnknownProductsAndDefaultsQuantity(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)

	f.guest.carts["visitor-1"] = []localstore.CartRecord{
		{"prod-a": 0},
		{"prod-gone": 3},
	}

	view, err := f.svc.View(ctx, guestSession())
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(view.Lines) != 1 {
		t.Fatalf("unknown product should be dropped, got %d lines", len(view.Lines))
	}
	if view.Lines[0].Quantity != 1 {
		t.Fatalf("missing quantity should default to one, got %d", view.Lines[0].Quantity)
	}
}

func TestRemoveAndCount(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)

	if _, err := f.svc.Add(ctx, guestSession(), "prod-a", 1); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if _, err := f.svc.Add(ctx, guestSession(), "prod-b", 1); err != nil {
		t.Fatalf("add b: %v", err)
	}

	count, err := f.svc.Count(ctx, guestSession())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 lines, got %d", count)
	}

	view, err := f.svc.Remove(ctx, guestSession(), "prod-a")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].Product.ID != "prod-b" {
		t.Fatalf("unexpected lines after remove: %+v", view.Lines)
	}
}

func TestRemoteMutationRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	sess := authSession()

	if _, err := f.svc.Add(ctx, sess, "prod-a", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err := f.svc.ChangeQuantity(ctx, sess, "prod-a", 3)
	if err != nil {
		t.Fatalf("change quantity: %v", err)
	}
	if view.Lines[0].Quantity != 5 {
		t.Fatalf("expected remote quantity 5, got %d", view.Lines[0].Quantity)
	}

	view, err = f.svc.Remove(ctx, sess, "prod-a")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("remote remove failed: %+v", view.Lines)
	}
}
