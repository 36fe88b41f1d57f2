package upstream

import (
	"context"
	"net/http"
)

// TokenPair is the credential set issued by login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Login exchanges phone/password for a token pair.
func (c *Client) Login(ctx context.Context, phone, password string) (*TokenPair, error) {
	var resp tokenResponse
	err := c.doOnce(ctx, nil, http.MethodPost, "/auth/login", loginRequest{
		Phone:    phone,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: resp.Token, RefreshToken: resp.RefreshToken}, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken exchanges a refresh token for a new pair. The upstream
// may rotate the refresh token; callers must keep whichever comes back.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var resp tokenResponse
	err := c.doOnce(ctx, nil, http.MethodPost, "/auth/refresh-token", refreshRequest{
		RefreshToken: refreshToken,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: resp.Token, RefreshToken: resp.RefreshToken}, nil
}
