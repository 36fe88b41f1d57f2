// Package session carries the per-request caller identity: the
// device-scoped visitor id, the resolved locale, and the upstream
// credentials when the visitor is signed in.
package session

import (
	"github.com/seifpharma/storefront-gateway/pkg/enums"
	"github.com/seifpharma/storefront-gateway/pkg/upstream"
)

// Session identifies one caller for the duration of a request.
type Session struct {
	VisitorID string
	Locale    enums.Locale
	Auth      *upstream.Auth
}

// IsAuthenticated reports whether the visitor holds an access token.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Auth != nil && s.Auth.AccessToken != ""
}

// UpstreamAuth returns the token pair for upstream calls, nil for guests.
func (s *Session) UpstreamAuth() *upstream.Auth {
	if s == nil || !s.IsAuthenticated() {
		return nil
	}
	return s.Auth
}
