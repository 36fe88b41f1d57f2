package promo

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/seifpharma/storefront-gateway/internal/session"
	"github.com/seifpharma/storefront-gateway/pkg/enums"
	pkgerrors "github.com/seifpharma/storefront-gateway/pkg/errors"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
	"github.com/seifpharma/storefront-gateway/pkg/redis"
	"github.com/seifpharma/storefront-gateway/pkg/upstream"
	"github.com/shopspring/decimal"
)

type stubValidator struct {
	validation *upstream.PromoValidation
	err        error
	calls      int
	lastCode   string
	lastZone   string
}

func (s *stubValidator) ValidatePromo(ctx context.Context, auth *upstream.Auth, code, zoneID string) (*upstream.PromoValidation, error) {
	s.calls++
	s.lastCode, s.lastZone = code, zoneID
	if s.err != nil {
		return nil, s.err
	}
	return s.validation, nil
}

type memStateStore struct {
	data map[string]string
}

func newMemStateStore() *memStateStore {
	return &memStateStore{data: make(map[string]string)}
}

func (m *memStateStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (m *memStateStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.data[key] = value.(string)
	return nil
}

func (m *memStateStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memStateStore) PromoStateKey(visitorID string) string {
	return "promo:" + visitorID
}

type stubZones struct {
	zoneID string
}

func (s *stubZones) SelectedZoneID(ctx context.Context, visitorID string) (string, error) {
	return s.zoneID, nil
}

func validValidation(code string) *upstream.PromoValidation {
	return &upstream.PromoValidation{
		Valid:               true,
		Code:                code,
		Target:              "cart",
		CartDiscount:        decimal.NewFromInt(20),
		TotalDiscount:       decimal.NewFromInt(20),
		OriginalCartTotal:   decimal.NewFromInt(100),
		DiscountedCartTotal: decimal.NewFromInt(80),
	}
}

func newPromoFixture(t *testing.T, validator *stubValidator, zoneID string) (Service, *memStateStore) {
	t.Helper()
	store := newMemStateStore()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(validator, store, &stubZones{zoneID: zoneID}, logg, time.Hour)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func promoAuthSession() *session.Session {
	return &session.Session{VisitorID: "visitor-1", Auth: &upstream.Auth{AccessToken: "token"}}
}

func TestApplyPreconditionOrder(t *testing.T) {
	ctx := context.Background()
	validator := &stubValidator{validation: validValidation("SAVE20")}
	svc, _ := newPromoFixture(t, validator, "")

	// Empty code wins even when everything else is missing too.
	_, err := svc.Apply(ctx, &session.Session{VisitorID: "v"}, "  ")
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty code, got %v", err)
	}

	// Guest with a code: login failure comes before zone failure.
	_, err = svc.Apply(ctx, &session.Session{VisitorID: "v"}, "SAVE20")
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	// Signed in, no zone.
	_, err = svc.Apply(ctx, promoAuthSession(), "SAVE20")
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if validator.calls != 0 {
		t.Fatalf("precondition failures must not reach the upstream")
	}
}

func TestApplySuccess(t *testing.T) {
	ctx := context.Background()
	validator := &stubValidator{validation: validValidation("SAVE20")}
	svc, _ := newPromoFixture(t, validator, "zone-1")

	app, err := svc.Apply(ctx, promoAuthSession(), "SAVE20")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if app.State != enums.PromoStateApplied {
		t.Fatalf("expected applied state, got %s", app.State)
	}
	if validator.lastZone != "zone-1" {
		t.Fatalf("zone not forwarded, got %q", validator.lastZone)
	}
	if app.Details == nil || !app.Details.CartDiscount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("details missing: %+v", app.Details)
	}

	current, err := svc.Current(ctx, promoAuthSession())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.State != enums.PromoStateApplied || current.Code != "SAVE20" {
		t.Fatalf("stored application wrong: %+v", current)
	}
}

func TestApplyRejectedCodeBecomesInvalid(t *testing.T) {
	ctx := context.Background()
	validator := &stubValidator{err: &upstream.APIError{
		Status:   http.StatusBadRequest,
		Endpoint: "/promocodes/validate-promocode",
		Message:  "promo code expired",
	}}
	svc, _ := newPromoFixture(t, validator, "zone-1")

	app, err := svc.Apply(ctx, promoAuthSession(), "OLD10")
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if app == nil || app.State != enums.PromoStateInvalid {
		t.Fatalf("expected invalid application, got %+v", app)
	}
	if app.Reason != "promo code expired" {
		t.Fatalf("upstream reason lost: %q", app.Reason)
	}

	// The invalid verdict is display-only: the stored state comes back
	// unapplied on the next read.
	current, err := svc.Current(ctx, promoAuthSession())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.State != enums.PromoStateUnapplied {
		t.Fatalf("rejection must not persist, got %s", current.State)
	}
}

func TestApplyRejectedByVerdictBecomesInvalid(t *testing.T) {
	ctx := context.Background()
	validator := &stubValidator{validation: &upstream.PromoValidation{
		Valid:   false,
		Code:    "OLD10",
		Message: "promo code expired",
	}}
	svc, _ := newPromoFixture(t, validator, "zone-1")

	app, err := svc.Apply(ctx, promoAuthSession(), "OLD10")
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if app == nil || app.State != enums.PromoStateInvalid {
		t.Fatalf("expected invalid application, got %+v", app)
	}
	if app.Reason != "promo code expired" {
		t.Fatalf("rejection message lost: %q", app.Reason)
	}

	current, err := svc.Current(ctx, promoAuthSession())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.State != enums.PromoStateUnapplied {
		t.Fatalf("rejected code must not be stored as applied, got %s", current.State)
	}
}

func TestApplyUpstreamOutageIsNotInvalid(t *testing.T) {
	ctx := context.Background()
	validator := &stubValidator{err: &upstream.APIError{Status: http.StatusBadGateway, Endpoint: "/promocodes/validate-promocode"}}
	svc, _ := newPromoFixture(t, validator, "zone-1")

	_, err := svc.Apply(ctx, promoAuthSession(), "SAVE20")
	if pkgerrors.As(err).Code() != pkgerrors.CodeUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestCancelClearsState(t *testing.T) {
	ctx := context.Background()
	validator := &stubValidator{validation: validValidation("SAVE20")}
	svc, _ := newPromoFixture(t, validator, "zone-1")

	if _, err := svc.Apply(ctx, promoAuthSession(), "SAVE20"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := svc.Cancel(ctx, promoAuthSession()); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	current, err := svc.Current(ctx, promoAuthSession())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.State != enums.PromoStateUnapplied {
		t.Fatalf("expected unapplied after cancel, got %s", current.State)
	}
}

func TestReapplyRefreshesAmounts(t *testing.T) {
	ctx := context.Background()
	validator := &stubValidator{validation: validValidation("SAVE20")}
	svc, _ := newPromoFixture(t, validator, "zone-1")

	if _, err := svc.Apply(ctx, promoAuthSession(), "SAVE20"); err != nil {
		t.Fatalf("apply: %v", err)
	}

	validator.validation.CartDiscount = decimal.NewFromInt(15)
	if err := svc.ReapplyOnCartMutation(ctx, promoAuthSession()); err != nil {
		t.Fatalf("reapply: %v", err)
	}

	current, _ := svc.Current(ctx, promoAuthSession())
	if !current.Details.CartDiscount.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("amounts not refreshed: %+v", current.Details)
	}
}

func TestReapplyDropsNowInvalidCodeSilently(t *testing.T) {
	ctx := context.Background()
	validator := &stubValidator{validation: validValidation("SAVE20")}
	svc, _ := newPromoFixture(t, validator, "zone-1")

	if _, err := svc.Apply(ctx, promoAuthSession(), "SAVE20"); err != nil {
		t.Fatalf("apply: %v", err)
	}

	validator.validation = nil
	validator.err = &upstream.APIError{Status: http.StatusBadRequest, Message: "minimum cart total not met"}
	if err := svc.ReapplyOnCartMutation(ctx, promoAuthSession()); err != nil {
		t.Fatalf("reapply must be silent, got %v", err)
	}

	current, _ := svc.Current(ctx, promoAuthSession())
	if current.State != enums.PromoStateUnapplied {
		t.Fatalf("invalid code should be dropped, got %s", current.State)
	}
}

func TestReapplyDropsCodeRejectedByVerdict(t *testing.T) {
	ctx := context.Background()
	validator := &stubValidator{validation: validValidation("SAVE20")}
	svc, _ := newPromoFixture(t, validator, "zone-1")

	if _, err := svc.Apply(ctx, promoAuthSession(), "SAVE20"); err != nil {
		t.Fatalf("apply: %v", err)
	}

	validator.validation = &upstream.PromoValidation{Valid: false, Code: "SAVE20", Message: "minimum cart total not met"}
	if err := svc.ReapplyOnCartMutation(ctx, promoAuthSession()); err != nil {
		t.Fatalf("reapply must be silent, got %v", err)
	}

	current, _ := svc.Current(ctx, promoAuthSession())
	if current.State != enums.PromoStateUnapplied {
		t.Fatalf("rejected code should be dropped, got %s", current.State)
	}
}

func TestReapplyNoopWithoutApplication(t *testing.T) {
	ctx := context.Background()
	validator := &stubValidator{}
	svc, _ := newPromoFixture(t, validator, "zone-1")

	if err := svc.ReapplyOnCartMutation(ctx, promoAuthSession()); err != nil {
		t.Fatalf("reapply: %v", err)
	}
	if validator.calls != 0 {
		t.Fatalf("no application means no upstream call")
	}
}

func TestInvalidateOnLocationChange(t *testing.T) {
	ctx := context.Background()
	validator := &stubValidator{validation: validValidation("SAVE20")}
	svc, store := newPromoFixture(t, validator, "zone-1")

	if _, err := svc.Apply(ctx, promoAuthSession(), "SAVE20"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := svc.InvalidateOnLocationChange(ctx, promoAuthSession()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if len(store.data) != 0 {
		t.Fatalf("state should be gone, got %v", store.data)
	}
}
