package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/seifpharma/storefront-gateway/pkg/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := New(
		config.UpstreamConfig{BaseURL: "http://api.test"},
		WithHTTPClient(&http.Client{Transport: rt}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestFetchCartSendsAccessToken(t *testing.T) {
	var capturedURL, capturedToken string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedToken = req.Header.Get("Access-Token")
		return jsonResponse(http.StatusOK, `{"products":[{"id":"line-1","amount":2,"product":{"id":"prod-a"}}]}`), nil
	})

	entries, err := client.FetchCart(context.Background(), &Auth{AccessToken: "token-1"})
	if err != nil {
		t.Fatalf("fetch cart: %v", err)
	}
	if capturedURL != "http://api.test/carts/cart/" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedToken != "token-1" {
		t.Fatalf("access token header missing, got %q", capturedToken)
	}
	if len(entries) != 1 || entries[0].LineID != "line-1" || entries[0].Quantity != 2 {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestRefreshRetryHappensExactlyOnce(t *testing.T) {
	var cartCalls, refreshCalls int
	var persistedAccess, persistedRefresh string

	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.HasSuffix(req.URL.Path, "/auth/refresh-token"):
			refreshCalls++
			var payload map[string]string
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				t.Fatalf("decode refresh body: %v", err)
			}
			if payload["refreshToken"] != "refresh-old" {
				t.Fatalf("unexpected refresh token %q", payload["refreshToken"])
			}
			return jsonResponse(http.StatusOK, `{"token":"access-new","refreshToken":"refresh-new"}`), nil
		case strings.HasSuffix(req.URL.Path, "/carts/cart/"):
			cartCalls++
			if req.Header.Get("Access-Token") == "access-new" {
				return jsonResponse(http.StatusOK, `{"products":[]}`), nil
			}
			return jsonResponse(http.StatusUnauthorized, `{"message":"token expired"}`), nil
		default:
			t.Fatalf("unexpected request %s", req.URL.Path)
			return nil, nil
		}
	})

	auth := &Auth{
		AccessToken:  "access-old",
		RefreshToken: "refresh-old",
		Persist: func(ctx context.Context, access, refresh string) error {
			persistedAccess, persistedRefresh = access, refresh
			return nil
		},
	}
	if _, err := client.FetchCart(context.Background(), auth); err != nil {
		t.Fatalf("fetch cart after refresh: %v", err)
	}
	if cartCalls != 2 {
		t.Fatalf("expected cart called twice, got %d", cartCalls)
	}
	if refreshCalls != 1 {
		t.Fatalf("expected one refresh, got %d", refreshCalls)
	}
	if auth.AccessToken != "access-new" || auth.RefreshToken != "refresh-new" {
		t.Fatalf("auth not rotated: %+v", auth)
	}
	if persistedAccess != "access-new" || persistedRefresh != "refresh-new" {
		t.Fatalf("persist not invoked with rotated pair")
	}
}

func TestRefreshFailureReturnsOriginalUnauthorized(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/auth/refresh-token") {
			return jsonResponse(http.StatusUnauthorized, `{"message":"refresh revoked"}`), nil
		}
		return jsonResponse(http.StatusUnauthorized, `{"message":"token expired"}`), nil
	})

	dropped := false
	auth := &Auth{
		AccessToken:  "a",
		RefreshToken: "r",
		Drop: func(ctx context.Context) error {
			dropped = true
			return nil
		},
	}
	_, err := client.FetchCart(context.Background(), auth)
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "token expired" {
		t.Fatalf("expected original 401 to surface, got %v", err)
	}
	if !dropped {
		t.Fatal("expected rejected refresh token to drop the credential")
	}
}

func TestNoRetryWithoutRefreshToken(t *testing.T) {
	var calls int
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusUnauthorized, `{"message":"nope"}`), nil
	})

	_, err := client.FetchCart(context.Background(), &Auth{AccessToken: "a"})
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestAPIErrorCarriesEndpointAndMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid promo code"}`))
	}))
	defer server.Close()

	client, err := New(config.UpstreamConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.ValidatePromo(context.Background(), &Auth{AccessToken: "a"}, "SAVE10", "zone-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", apiErr.Status)
	}
	if apiErr.Endpoint != "/promocodes/validate-promocode" {
		t.Fatalf("unexpected endpoint %q", apiErr.Endpoint)
	}
	if apiErr.Message != "invalid promo code" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestValidatePromoDecodesRejectionVerdict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"valid":false,"message":"promo code expired"}`))
	}))
	defer server.Close()

	client, err := New(config.UpstreamConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	validation, err := client.ValidatePromo(context.Background(), &Auth{AccessToken: "a"}, "OLD10", "zone-1")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if validation.Valid {
		t.Fatal("expected the rejection verdict to survive decoding")
	}
	if validation.Message != "promo code expired" {
		t.Fatalf("unexpected message %q", validation.Message)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(config.UpstreamConfig{}); err == nil {
		t.Fatalf("expected error for missing base url")
	}
}
