package promo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/seifpharma/storefront-gateway/internal/session"
	"github.com/seifpharma/storefront-gateway/pkg/enums"
	pkgerrors "github.com/seifpharma/storefront-gateway/pkg/errors"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
	"github.com/seifpharma/storefront-gateway/pkg/redis"
	"github.com/seifpharma/storefront-gateway/pkg/types"
	"github.com/seifpharma/storefront-gateway/pkg/upstream"
)

type promoValidator interface {
	ValidatePromo(ctx context.Context, auth *upstream.Auth, code, zoneID string) (*upstream.PromoValidation, error)
}

type stateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	PromoStateKey(visitorID string) string
}

type zoneSelector interface {
	SelectedZoneID(ctx context.Context, visitorID string) (string, error)
}

// Application is the visitor's current promo application.
type Application struct {
	State   enums.PromoState    `json:"state"`
	Code    string              `json:"code"`
	ZoneID  string              `json:"zoneId"`
	Details *types.PromoDetails `json:"details,omitempty"`
	Reason  string              `json:"reason,omitempty"`
}

// Service runs the promo-code lifecycle. The upstream is the only
// authority on whether a code is valid; the service's job is ordering
// the local precondition checks and keeping the stored application in
// step with the cart and the selected zone.
type Service interface {
	Apply(ctx context.Context, sess *session.Session, code string) (*Application, error)
	Current(ctx context.Context, sess *session.Session) (*Application, error)
	Cancel(ctx context.Context, sess *session.Session) error
	ReapplyOnCartMutation(ctx context.Context, sess *session.Session) error
	InvalidateOnLocationChange(ctx context.Context, sess *session.Session) error
}

type service struct {
	validator promoValidator
	store     stateStore
	zones     zoneSelector
	logg      *logger.Logger
	ttl       time.Duration
}

// NewService builds the promo service.
func NewService(validator promoValidator, store stateStore, zones zoneSelector, logg *logger.Logger, ttl time.Duration) (Service, error) {
	if validator == nil {
		return nil, fmt.Errorf("promo validator required")
	}
	if store == nil {
		return nil, fmt.Errorf("state store required")
	}
	if zones == nil {
		return nil, fmt.Errorf("zone selector required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("promo ttl must be positive")
	}
	return &service{validator: validator, store: store, zones: zones, logg: logg, ttl: ttl}, nil
}

// Apply validates code for the visitor. The precondition checks run
// locally and in a fixed order, so an empty code is reported before a
// missing login, and the login before a missing zone; the upstream is
// only consulted once all three hold.
func (s *service) Apply(ctx context.Context, sess *session.Session, code string) (*Application, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code is required")
	}
	if !sess.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to use a promo code")
	}
	zoneID, err := s.zones.SelectedZoneID(ctx, sess.VisitorID)
	if err != nil {
		return nil, err
	}
	if zoneID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "select a delivery zone first")
	}

	if err := s.save(ctx, sess, &Application{State: enums.PromoStateApplying, Code: code, ZoneID: zoneID}); err != nil {
		return nil, err
	}

	validation, err := s.validator.ValidatePromo(ctx, sess.UpstreamAuth(), code, zoneID)
	if err != nil {
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			return s.reject(ctx, sess, code, zoneID, rejectionReason(err))
		}
		if clearErr := s.Cancel(ctx, sess); clearErr != nil {
			s.logg.Warn(ctx, "clearing promo after upstream failure failed: "+clearErr.Error())
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "validating promo code")
	}
	// The upstream also rejects codes with a 200 and Valid false.
	if !validation.Valid {
		reason := validation.Message
		if reason == "" {
			reason = "promo code is not valid"
		}
		return s.reject(ctx, sess, code, zoneID, reason)
	}

	app := &Application{
		State:   enums.PromoStateApplied,
		Code:    validation.Code,
		ZoneID:  zoneID,
		Details: detailsFromValidation(validation),
	}
	if app.Code == "" {
		app.Code = code
	}
	if err := s.save(ctx, sess, app); err != nil {
		return nil, err
	}
	return app, nil
}

// reject reports a refused code to the caller. Invalid is display-only
// state: the stored application is cleared so a later read comes back
// unapplied.
func (s *service) reject(ctx context.Context, sess *session.Session, code, zoneID, reason string) (*Application, error) {
	if clearErr := s.Cancel(ctx, sess); clearErr != nil {
		s.logg.Warn(ctx, "clearing rejected promo failed: "+clearErr.Error())
	}
	app := &Application{
		State:  enums.PromoStateInvalid,
		Code:   code,
		ZoneID: zoneID,
		Reason: reason,
	}
	return app, pkgerrors.New(pkgerrors.CodeValidation, reason)
}

// Current returns the stored application, unapplied when none exists.
func (s *service) Current(ctx context.Context, sess *session.Session) (*Application, error) {
	raw, err := s.store.Get(ctx, s.store.PromoStateKey(sess.VisitorID))
	if errors.Is(err, redis.Nil) {
		return &Application{State: enums.PromoStateUnapplied}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading promo state")
	}
	var app Application
	if err := json.Unmarshal([]byte(raw), &app); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding promo state")
	}
	return &app, nil
}

// Cancel drops the application outright.
func (s *service) Cancel(ctx context.Context, sess *session.Session) error {
	if err := s.store.Del(ctx, s.store.PromoStateKey(sess.VisitorID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing promo state")
	}
	return nil
}

// ReapplyOnCartMutation revalidates an applied code against the
// changed cart. It is silent: amounts are refreshed when the code
// still holds and the application is dropped when it no longer does.
func (s *service) ReapplyOnCartMutation(ctx context.Context, sess *session.Session) error {
	app, err := s.Current(ctx, sess)
	if err != nil {
		return err
	}
	if app.State != enums.PromoStateApplied {
		return nil
	}

	validation, err := s.validator.ValidatePromo(ctx, sess.UpstreamAuth(), app.Code, app.ZoneID)
	if err != nil {
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			s.logg.Warn(ctx, "promo no longer valid after cart change: "+app.Code)
			return s.Cancel(ctx, sess)
		}
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "revalidating promo code")
	}
	if !validation.Valid {
		s.logg.Warn(ctx, "promo no longer valid after cart change: "+app.Code)
		return s.Cancel(ctx, sess)
	}

	app.Details = detailsFromValidation(validation)
	return s.save(ctx, sess, app)
}

// InvalidateOnLocationChange resets the application when the visitor
// picks a different city or zone; the old validation was for the old
// delivery fee.
func (s *service) InvalidateOnLocationChange(ctx context.Context, sess *session.Session) error {
	return s.Cancel(ctx, sess)
}

func (s *service) save(ctx context.Context, sess *session.Session, app *Application) error {
	raw, err := json.Marshal(app)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding promo state")
	}
	if err := s.store.Set(ctx, s.store.PromoStateKey(sess.VisitorID), string(raw), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing promo state")
	}
	return nil
}

func detailsFromValidation(v *upstream.PromoValidation) *types.PromoDetails {
	return &types.PromoDetails{
		Code:                           v.Code,
		Target:                         v.Target,
		CartDiscount:                   v.CartDiscount,
		DeliveryDiscount:               v.DeliveryDiscount,
		TotalDiscount:                  v.TotalDiscount,
		OriginalCartTotal:              v.OriginalCartTotal,
		DiscountedCartTotal:            v.DiscountedCartTotal,
		TotalWithDeliveryAfterDiscount: v.TotalWithDeliveryAfterDiscount,
	}
}

func rejectionReason(err error) string {
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "promo code is not valid"
}
