// Package auth inspects the upstream's access tokens. The gateway
// never verifies signatures, the upstream owns the signing key; claims
// are read only to decide when a token is worth refreshing and which
// account a session belongs to.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the upstream access-token claims the gateway reads.
type TokenClaims struct {
	UserID string `json:"userId,omitempty"`
	Phone  string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

// InspectToken decodes the token without verifying its signature.
func InspectToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("parsing access token: %w", err)
	}
	return claims, nil
}

// Subject returns the account the token was issued to, preferring the
// custom userId claim over the registered subject.
func (c *TokenClaims) Subject() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.RegisteredClaims.Subject
}

// IsExpired reports whether the token has expired at now, with a small
// skew so a token about to expire is treated as already gone.
func IsExpired(tokenString string, now time.Time, skew time.Duration) bool {
	claims, err := InspectToken(tokenString)
	if err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Add(skew).Before(claims.ExpiresAt.Time)
}
