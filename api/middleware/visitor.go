package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	appsession "github.com/seifpharma/storefront-gateway/internal/session"
	pkgauth "github.com/seifpharma/storefront-gateway/pkg/auth"
	"github.com/seifpharma/storefront-gateway/pkg/enums"
	"github.com/seifpharma/storefront-gateway/pkg/localstore"
	"github.com/seifpharma/storefront-gateway/pkg/logger"
	"github.com/seifpharma/storefront-gateway/pkg/upstream"
)

const (
	visitorHeader = "X-Visitor-Id"
	visitorCookie = "pg_visitor"

	visitorCookieMaxAge = int(365 * 24 * time.Hour / time.Second)

	// Tokens this close to expiry are treated as already gone; the
	// refresh flow handles them before the upstream rejects one.
	tokenExpirySkew = 30 * time.Second
)

type visitorStore interface {
	Credential(ctx context.Context, visitorID string) (*localstore.Credential, error)
	SaveCredential(ctx context.Context, visitorID string, cred localstore.Credential) error
	ClearCredential(ctx context.Context, visitorID string) error
	Locale(ctx context.Context, visitorID string) (bool, error)
}

// Visitor resolves the caller into a session: it issues or reads the
// device-scoped visitor id, loads any saved credentials, and resolves
// the locale. Every route below it can assume a session in context.
func Visitor(store visitorStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			visitorID := r.Header.Get(visitorHeader)
			if visitorID == "" {
				if cookie, err := r.Cookie(visitorCookie); err == nil {
					visitorID = cookie.Value
				}
			}
			if visitorID == "" {
				visitorID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     visitorCookie,
					Value:    visitorID,
					Path:     "/",
					MaxAge:   visitorCookieMaxAge,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(visitorHeader, visitorID)

			sess := &appsession.Session{VisitorID: visitorID, Locale: enums.LocaleArabic}

			if arabic, err := store.Locale(ctx, visitorID); err == nil && !arabic {
				sess.Locale = enums.LocaleEnglish
			}

			cred, err := store.Credential(ctx, visitorID)
			if err != nil && logg != nil {
				logg.Warn(ctx, "loading visitor credential failed: "+err.Error())
			}
			if cred != nil && cred.RefreshToken == "" && pkgauth.IsExpired(cred.AccessToken, time.Now(), tokenExpirySkew) {
				// Nothing left to rotate with; the visitor has to sign
				// in again.
				cred = nil
			}
			if cred != nil {
				sess.Auth = &upstream.Auth{
					AccessToken:  cred.AccessToken,
					RefreshToken: cred.RefreshToken,
					Persist: func(ctx context.Context, access, refresh string) error {
						return store.SaveCredential(ctx, visitorID, localstore.Credential{
							AccessToken:  access,
							RefreshToken: refresh,
						})
					},
					Drop: func(ctx context.Context) error {
						return store.ClearCredential(ctx, visitorID)
					},
				}
			}

			if logg != nil {
				ctx = logg.WithVisitorID(ctx, visitorID)
				ctx = logg.WithLocale(ctx, sess.Locale.String())
				if cred != nil {
					if claims, err := pkgauth.InspectToken(cred.AccessToken); err == nil {
						ctx = logg.WithUserID(ctx, claims.Subject())
					}
				}
			}

			next.ServeHTTP(w, r.WithContext(WithSession(ctx, sess)))
		})
	}
}
