package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mintToken(t *testing.T, claims TokenClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return signed
}

func TestInspectToken(t *testing.T) {
	signed := mintToken(t, TokenClaims{
		UserID: "user-1",
		Phone:  "01012345678",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "subject-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := InspectToken(signed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject() != "user-1" {
		t.Fatalf("expected userId claim to win, got %q", claims.Subject())
	}
	if claims.Phone != "01012345678" {
		t.Fatalf("unexpected phone claim %q", claims.Phone)
	}
}

func TestSubjectFallsBackToRegistered(t *testing.T) {
	signed := mintToken(t, TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-1"},
	})

	claims, err := InspectToken(signed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject() != "subject-1" {
		t.Fatalf("expected registered subject, got %q", claims.Subject())
	}
}

func TestInspectTokenRejectsGarbage(t *testing.T) {
	if _, err := InspectToken("not-a-jwt"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Now()

	live := mintToken(t, TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	})
	if IsExpired(live, now, 30*time.Second) {
		t.Fatalf("token with an hour left should not be expired")
	}

	nearExpiry := mintToken(t, TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Second))},
	})
	if !IsExpired(nearExpiry, now, 30*time.Second) {
		t.Fatalf("token inside the skew window should count as expired")
	}

	expired := mintToken(t, TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))},
	})
	if !IsExpired(expired, now, 0) {
		t.Fatalf("past expiry should be expired")
	}

	noExpiry := mintToken(t, TokenClaims{})
	if IsExpired(noExpiry, now, 0) {
		t.Fatalf("token without exp should never expire locally")
	}

	if !IsExpired("garbage", now, 0) {
		t.Fatalf("unparseable token should be treated as expired")
	}
}
