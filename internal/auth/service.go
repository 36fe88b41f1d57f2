package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/seifpharma/storefront-gateway/internal/session"
	pkgerrors "github.com/seifpharma/storefront-gateway/pkg/errors"
	"github.com/seifpharma/storefront-gateway/pkg/localstore"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
	"github.com/seifpharma/storefront-gateway/pkg/upstream"
)

type upstreamAuth interface {
	Login(ctx context.Context, phone, password string) (*upstream.TokenPair, error)
	MutateCart(ctx context.Context, auth *upstream.Auth, records []map[string]int) error
}

type credentialStore interface {
	GuestCart(ctx context.Context, visitorID string) ([]localstore.CartRecord, error)
	ClearGuestCart(ctx context.Context, visitorID string) error
	SaveCredential(ctx context.Context, visitorID string, cred localstore.Credential) error
	ClearCredential(ctx context.Context, visitorID string) error
}

type sessionCleaner interface {
	Del(ctx context.Context, keys ...string) error
	PromoStateKey(visitorID string) string
	CheckoutSessionKey(visitorID string) string
}

// LoginResult reports the login plus what happened to the guest cart.
// CartMerged and CartMergeFailed are both false when there was nothing
// to transfer.
type LoginResult struct {
	CartMerged      bool `json:"cartMerged"`
	CartMergeFailed bool `json:"cartMergeFailed"`
}

// Service handles sign-in and sign-out on this device.
type Service interface {
	Login(ctx context.Context, sess *session.Session, phone, password string) (*LoginResult, error)
	Logout(ctx context.Context, sess *session.Session) error
}

type service struct {
	api     upstreamAuth
	store   credentialStore
	cleaner sessionCleaner
	logg    *logger.Logger
}

// NewService builds the auth service.
func NewService(api upstreamAuth, store credentialStore, cleaner sessionCleaner, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("upstream auth required")
	}
	if store == nil {
		return nil, fmt.Errorf("credential store required")
	}
	if cleaner == nil {
		return nil, fmt.Errorf("session cleaner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{api: api, store: store, cleaner: cleaner, logg: logg}, nil
}

// Login signs the visitor in and transfers any guest cart to the
// account in a single batched call. The transfer is subordinate to the
// login: when it fails the guest cart stays on the device, a warning
// is logged, and the login still stands.
func (s *service) Login(ctx context.Context, sess *session.Session, phone, password string) (*LoginResult, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone and password are required")
	}

	pair, err := s.api.Login(ctx, phone, password)
	if err != nil {
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid phone or password")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "signing in")
	}

	if err := s.store.SaveCredential(ctx, sess.VisitorID, localstore.Credential{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving credentials")
	}

	result := &LoginResult{}
	records, err := s.store.GuestCart(ctx, sess.VisitorID)
	if err != nil {
		s.logg.Warn(ctx, "reading guest cart for merge failed: "+err.Error())
		result.CartMergeFailed = true
		return result, nil
	}
	if len(records) == 0 {
		return result, nil
	}

	batch := make([]map[string]int, 0, len(records))
	for _, record := range records {
		if record.ProductID() == "" {
			continue
		}
		quantity := record.Quantity()
		if quantity < 1 {
			quantity = 1
		}
		batch = append(batch, map[string]int{record.ProductID(): quantity})
	}

	auth := &upstream.Auth{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	if err := s.api.MutateCart(ctx, auth, batch); err != nil {
		// The guest cart survives so nothing is lost; the next login
		// tries again.
		s.logg.Warn(ctx, "guest cart transfer failed: "+err.Error())
		result.CartMergeFailed = true
		return result, nil
	}

	if err := s.store.ClearGuestCart(ctx, sess.VisitorID); err != nil {
		s.logg.Warn(ctx, "clearing transferred guest cart failed: "+err.Error())
	}
	result.CartMerged = true
	return result, nil
}

// Logout clears the device credentials along with any checkout or
// promo state bound to the signed-in account.
func (s *service) Logout(ctx context.Context, sess *session.Session) error {
	if err := s.store.ClearCredential(ctx, sess.VisitorID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing credentials")
	}
	err := s.cleaner.Del(ctx,
		s.cleaner.CheckoutSessionKey(sess.VisitorID),
		s.cleaner.PromoStateKey(sess.VisitorID),
	)
	if err != nil {
		s.logg.Warn(ctx, "clearing account session state failed: "+err.Error())
	}
	return nil
}
