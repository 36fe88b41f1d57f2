package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/seifpharma/storefront-gateway/pkg/enums"
	pkgerrors "github.com/seifpharma/storefront-gateway/pkg/errors"
	"github.com/seifpharma/storefront-gateway/pkg/redis"
	"github.com/shopspring/decimal"
)

// ContactInfo is the delivery contact block collected at the second
// step.
type ContactInfo struct {
	Name            string   `json:"name"`
	Phone           string   `json:"phone"`
	SecondaryPhones []string `json:"secondaryPhones,omitempty"`
	Address         string   `json:"address"`
	Notes           string   `json:"notes,omitempty"`
}

// Session is the in-progress checkout for one visitor. It lives in
// redis with a TTL; an abandoned checkout simply evaporates.
type Session struct {
	Step            enums.CheckoutStep `json:"step"`
	CityID          string             `json:"cityId,omitempty"`
	ZoneID          string             `json:"zoneId,omitempty"`
	DeliveryFee     decimal.Decimal    `json:"deliveryFee"`
	Contact         *ContactInfo       `json:"contact,omitempty"`
	PaymentMethodID string             `json:"paymentMethodId,omitempty"`
	StartedAt       time.Time          `json:"startedAt"`
}

type sessionKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CheckoutSessionKey(visitorID string) string
}

// SessionStore persists checkout sessions.
type SessionStore struct {
	kv  sessionKV
	ttl time.Duration
}

// NewSessionStore wires checkout sessions onto redis.
func NewSessionStore(kv sessionKV, ttl time.Duration) (*SessionStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("session kv required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &SessionStore{kv: kv, ttl: ttl}, nil
}

// Load returns the visitor's session, nil when none is in progress.
func (s *SessionStore) Load(ctx context.Context, visitorID string) (*Session, error) {
	raw, err := s.kv.Get(ctx, s.kv.CheckoutSessionKey(visitorID))
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading checkout session")
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding checkout session")
	}
	return &sess, nil
}

// Save writes the session back, refreshing the TTL.
func (s *SessionStore) Save(ctx context.Context, visitorID string, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding checkout session")
	}
	if err := s.kv.Set(ctx, s.kv.CheckoutSessionKey(visitorID), string(raw), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing checkout session")
	}
	return nil
}

// Discard drops the session, after submission or when the cart empties.
func (s *SessionStore) Discard(ctx context.Context, visitorID string) error {
	if err := s.kv.Del(ctx, s.kv.CheckoutSessionKey(visitorID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "discarding checkout session")
	}
	return nil
}

// SelectedZoneID reports the zone chosen in the visitor's checkout,
// empty when no checkout or no zone yet. The promo service uses this
// as its zone precondition.
func (s *SessionStore) SelectedZoneID(ctx context.Context, visitorID string) (string, error) {
	sess, err := s.Load(ctx, visitorID)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", nil
	}
	return sess.ZoneID, nil
}
