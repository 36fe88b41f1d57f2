package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seifpharma/storefront-gateway/internal/promo"
	"github.com/seifpharma/storefront-gateway/internal/session"
	"github.com/seifpharma/storefront-gateway/pkg/enums"
	pkgerrors "github.com/seifpharma/storefront-gateway/pkg/errors"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
	"github.com/seifpharma/storefront-gateway/pkg/types"
	"github.com/seifpharma/storefront-gateway/pkg/upstream"
	"github.com/shopspring/decimal"
)

const submitGuardScope = "order_submit"

// submitGuardTTL bounds how long a crashed submission can block the
// next attempt.
const submitGuardTTL = 30 * time.Second

type cartViewer interface {
	View(ctx context.Context, sess *session.Session) (*types.CartView, error)
}

type zoneResolver interface {
	Zone(ctx context.Context, sess *session.Session, cityID, zoneID string) (*types.Zone, error)
}

type promoManager interface {
	Current(ctx context.Context, sess *session.Session) (*promo.Application, error)
	InvalidateOnLocationChange(ctx context.Context, sess *session.Session) error
	Cancel(ctx context.Context, sess *session.Session) error
}

type orderAPI interface {
	PaymentMethods(ctx context.Context, auth *upstream.Auth) ([]upstream.PaymentMethodPayload, error)
	SubmitOrder(ctx context.Context, auth *upstream.Auth, req upstream.OrderRequest) (*upstream.OrderResponse, error)
}

type submitGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	InFlightKey(scope, visitorID string) string
}

// State is the checkout as rendered to the caller: the current step,
// everything collected so far, and the money summary.
type State struct {
	Step        enums.CheckoutStep `json:"step"`
	CityID      string             `json:"cityId,omitempty"`
	ZoneID      string             `json:"zoneId,omitempty"`
	Contact     *ContactInfo       `json:"contact,omitempty"`
	Totals      promo.Totals       `json:"totals"`
	Promo       *promo.Application `json:"promo,omitempty"`
	CartIsEmpty bool               `json:"cartIsEmpty"`
}

// Service drives the three-step checkout. Steps only move one at a
// time: forward through the step-specific submit operations, backward
// through Back, which is allowed from anywhere.
type Service interface {
	Start(ctx context.Context, sess *session.Session) (*State, error)
	Current(ctx context.Context, sess *session.Session) (*State, error)
	Back(ctx context.Context, sess *session.Session) (*State, error)
	SelectCity(ctx context.Context, sess *session.Session, cityID string) (*State, error)
	SelectZone(ctx context.Context, sess *session.Session, cityID, zoneID string) (*State, error)
	ConfirmLocation(ctx context.Context, sess *session.Session) (*State, error)
	SubmitContact(ctx context.Context, sess *session.Session, info ContactInfo) (*State, error)
	PaymentMethods(ctx context.Context, sess *session.Session) ([]types.PaymentOption, error)
	Submit(ctx context.Context, sess *session.Session, paymentMethodID string) (*types.OrderResult, error)
}

type service struct {
	sessions *SessionStore
	cart     cartViewer
	places   zoneResolver
	promo    promoManager
	orders   orderAPI
	guard    submitGuard
	logg     *logger.Logger
}

// NewService builds the checkout service.
func NewService(sessions *SessionStore, cart cartViewer, places zoneResolver, promoSvc promoManager, orders orderAPI, guard submitGuard, logg *logger.Logger) (Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart viewer required")
	}
	if places == nil {
		return nil, fmt.Errorf("zone resolver required")
	}
	if promoSvc == nil {
		return nil, fmt.Errorf("promo manager required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order api required")
	}
	if guard == nil {
		return nil, fmt.Errorf("submit guard required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		sessions: sessions,
		cart:     cart,
		places:   places,
		promo:    promoSvc,
		orders:   orders,
		guard:    guard,
		logg:     logg,
	}, nil
}

// Start opens a checkout at the location step. An existing session is
// resumed rather than reset.
func (s *service) Start(ctx context.Context, sess *session.Session) (*State, error) {
	if !sess.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to check out")
	}

	view, err := s.cart.View(ctx, sess)
	if err != nil {
		return nil, err
	}
	if view.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	existing, err := s.sessions.Load(ctx, sess.VisitorID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing = &Session{Step: enums.CheckoutStepLocation, StartedAt: time.Now().UTC()}
		if err := s.sessions.Save(ctx, sess.VisitorID, existing); err != nil {
			return nil, err
		}
	}
	return s.state(ctx, sess, existing, view)
}

// Current reports the checkout as it stands. A checkout whose cart has
// emptied in the meantime is discarded on sight.
func (s *service) Current(ctx context.Context, sess *session.Session) (*State, error) {
	stored, err := s.requireSession(ctx, sess)
	if err != nil {
		return nil, err
	}

	view, err := s.cart.View(ctx, sess)
	if err != nil {
		return nil, err
	}
	if view.IsEmpty() {
		if err := s.sessions.Discard(ctx, sess.VisitorID); err != nil {
			s.logg.Warn(ctx, "discarding empty-cart checkout failed: "+err.Error())
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	return s.state(ctx, sess, stored, view)
}

// Back steps backward. From the first step it abandons the checkout
// and returns nil.
func (s *service) Back(ctx context.Context, sess *session.Session) (*State, error) {
	stored, err := s.requireSession(ctx, sess)
	if err != nil {
		return nil, err
	}

	prev, ok := stored.Step.Prev()
	if !ok {
		if err := s.sessions.Discard(ctx, sess.VisitorID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	stored.Step = prev
	if err := s.sessions.Save(ctx, sess.VisitorID, stored); err != nil {
		return nil, err
	}
	return s.state(ctx, sess, stored, nil)
}

// SelectCity records the city and clears any zone and promo chosen
// under the previous one.
func (s *service) SelectCity(ctx context.Context, sess *session.Session, cityID string) (*State, error) {
	if cityID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "city id is required")
	}
	stored, err := s.requireStep(ctx, sess, enums.CheckoutStepLocation)
	if err != nil {
		return nil, err
	}

	if stored.CityID != cityID {
		stored.CityID = cityID
		stored.ZoneID = ""
		stored.DeliveryFee = decimal.Zero
		if err := s.promo.InvalidateOnLocationChange(ctx, sess); err != nil {
			s.logg.Warn(ctx, "resetting promo on city change failed: "+err.Error())
		}
		if err := s.sessions.Save(ctx, sess.VisitorID, stored); err != nil {
			return nil, err
		}
	}
	return s.state(ctx, sess, stored, nil)
}

// SelectZone records the zone and its delivery fee, resetting any
// promo validated against the previous zone.
func (s *service) SelectZone(ctx context.Context, sess *session.Session, cityID, zoneID string) (*State, error) {
	stored, err := s.requireStep(ctx, sess, enums.CheckoutStepLocation)
	if err != nil {
		return nil, err
	}

	zone, err := s.places.Zone(ctx, sess, cityID, zoneID)
	if err != nil {
		return nil, err
	}

	if stored.ZoneID != zoneID || stored.CityID != cityID {
		stored.CityID = cityID
		stored.ZoneID = zoneID
		stored.DeliveryFee = zone.Fee
		if err := s.promo.InvalidateOnLocationChange(ctx, sess); err != nil {
			s.logg.Warn(ctx, "resetting promo on zone change failed: "+err.Error())
		}
		if err := s.sessions.Save(ctx, sess.VisitorID, stored); err != nil {
			return nil, err
		}
	}
	return s.state(ctx, sess, stored, nil)
}

// ConfirmLocation advances past the location step once a zone is set.
func (s *service) ConfirmLocation(ctx context.Context, sess *session.Session) (*State, error) {
	stored, err := s.requireStep(ctx, sess, enums.CheckoutStepLocation)
	if err != nil {
		return nil, err
	}
	if stored.ZoneID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "select a delivery zone first")
	}

	stored.Step = enums.CheckoutStepContactInfo
	if err := s.sessions.Save(ctx, sess.VisitorID, stored); err != nil {
		return nil, err
	}
	return s.state(ctx, sess, stored, nil)
}

// SubmitContact validates and stores the contact block, then advances
// to payment. Only the first failing field is reported.
func (s *service) SubmitContact(ctx context.Context, sess *session.Session, info ContactInfo) (*State, error) {
	stored, err := s.requireStep(ctx, sess, enums.CheckoutStepContactInfo)
	if err != nil {
		return nil, err
	}

	if violation := ValidateContact(info); violation != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, violation.Message.Pick(sess.Locale)).
			WithDetails(map[string]string{"field": violation.Field})
	}

	// Blank extra phones passed validation as "not provided"; they do
	// not belong on the order.
	secondary := make([]string, 0, len(info.SecondaryPhones))
	for _, phone := range info.SecondaryPhones {
		if strings.TrimSpace(phone) != "" {
			secondary = append(secondary, phone)
		}
	}
	info.SecondaryPhones = secondary

	stored.Contact = &info
	stored.Step = enums.CheckoutStepPayment
	if err := s.sessions.Save(ctx, sess.VisitorID, stored); err != nil {
		return nil, err
	}
	return s.state(ctx, sess, stored, nil)
}

// PaymentMethods lists the options for the final step.
func (s *service) PaymentMethods(ctx context.Context, sess *session.Session) ([]types.PaymentOption, error) {
	if _, err := s.requireStep(ctx, sess, enums.CheckoutStepPayment); err != nil {
		return nil, err
	}
	payload, err := s.orders.PaymentMethods(ctx, sess.UpstreamAuth())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "listing payment methods")
	}

	options := make([]types.PaymentOption, 0, len(payload))
	for _, method := range payload {
		option := types.PaymentOption{
			ID:     method.ID,
			Name:   types.LocalizedMessage{AR: method.Name.AR, EN: method.Name.EN},
			Method: enums.PaymentMethodCOD,
		}
		if parsed, err := enums.ParsePaymentMethod(method.Type); err == nil {
			option.Method = parsed
		}
		options = append(options, option)
	}
	return options, nil
}

// Submit places the order. The redis guard makes the operation
// single-shot: a second submit while one is in flight is rejected, and
// the guard is released on failure so the visitor can retry.
func (s *service) Submit(ctx context.Context, sess *session.Session, paymentMethodID string) (*types.OrderResult, error) {
	if paymentMethodID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	stored, err := s.requireStep(ctx, sess, enums.CheckoutStepPayment)
	if err != nil {
		return nil, err
	}
	if stored.Contact == nil || stored.ZoneID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is incomplete")
	}

	view, err := s.cart.View(ctx, sess)
	if err != nil {
		return nil, err
	}
	if view.IsEmpty() {
		if discardErr := s.sessions.Discard(ctx, sess.VisitorID); discardErr != nil {
			s.logg.Warn(ctx, "discarding empty-cart checkout failed: "+discardErr.Error())
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	guardKey := s.guard.InFlightKey(submitGuardScope, sess.VisitorID)
	acquired, err := s.guard.SetNX(ctx, guardKey, "1", submitGuardTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring submit guard")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeInFlight, "an order submission is already in progress")
	}

	promoCode := ""
	if app, promoErr := s.promo.Current(ctx, sess); promoErr == nil && app.State == enums.PromoStateApplied {
		promoCode = app.Code
	}

	req := upstream.OrderRequest{
		Name:            stored.Contact.Name,
		Phone:           stored.Contact.Phone,
		SecondaryPhones: stored.Contact.SecondaryPhones,
		Address:         stored.Contact.Address,
		CityID:          stored.CityID,
		ZoneID:          stored.ZoneID,
		PaymentMethodID: paymentMethodID,
		PromoCode:       promoCode,
		Notes:           stored.Contact.Notes,
	}

	resp, err := s.orders.SubmitOrder(ctx, sess.UpstreamAuth(), req)
	if err != nil {
		if delErr := s.guard.Del(ctx, guardKey); delErr != nil {
			s.logg.Warn(ctx, "releasing submit guard failed: "+delErr.Error())
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "submitting order")
	}

	if err := s.sessions.Discard(ctx, sess.VisitorID); err != nil {
		s.logg.Warn(ctx, "discarding submitted checkout failed: "+err.Error())
	}
	if err := s.promo.Cancel(ctx, sess); err != nil {
		s.logg.Warn(ctx, "clearing promo after submission failed: "+err.Error())
	}
	if err := s.guard.Del(ctx, guardKey); err != nil {
		s.logg.Warn(ctx, "releasing submit guard failed: "+err.Error())
	}

	result := &types.OrderResult{
		OrderID:     resp.OrderID,
		Status:      enums.NormalizeOrderStatus(resp.Status),
		RedirectURL: resp.RedirectURL(),
	}
	return result, nil
}

func (s *service) requireSession(ctx context.Context, sess *session.Session) (*Session, error) {
	if !sess.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to check out")
	}
	stored, err := s.sessions.Load(ctx, sess.VisitorID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no checkout in progress")
	}
	return stored, nil
}

func (s *service) requireStep(ctx context.Context, sess *session.Session, step enums.CheckoutStep) (*Session, error) {
	stored, err := s.requireSession(ctx, sess)
	if err != nil {
		return nil, err
	}
	if stored.Step != step {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("operation belongs to the %s step", step))
	}
	return stored, nil
}

// state renders the stored session, reusing view when the caller has
// already fetched the cart.
func (s *service) state(ctx context.Context, sess *session.Session, stored *Session, view *types.CartView) (*State, error) {
	if view == nil {
		fetched, err := s.cart.View(ctx, sess)
		if err != nil {
			return nil, err
		}
		view = fetched
	}

	state := &State{
		Step:        stored.Step,
		CityID:      stored.CityID,
		ZoneID:      stored.ZoneID,
		Contact:     stored.Contact,
		CartIsEmpty: view.IsEmpty(),
	}

	app, err := s.promo.Current(ctx, sess)
	if err != nil {
		s.logg.Warn(ctx, "loading promo state failed: "+err.Error())
		app = nil
	}
	var details *types.PromoDetails
	if app != nil && app.State != enums.PromoStateUnapplied {
		state.Promo = app
		if app.State == enums.PromoStateApplied {
			details = app.Details
		}
	}

	state.Totals = promo.ComputeTotals(view.Subtotal, stored.DeliveryFee, details)
	return state, nil
}
