package service

import (
	"context"
	"fmt"

	"worklog/internal/model"
	"worklog/internal/provider"
)

// AuthService orchestrates the hosted-provider OAuth flow.
type AuthService struct {
	provider    *provider.Client
	frontendURL string
}

func NewAuthService(p *provider.Client, frontendURL string) *AuthService {
	return &AuthService{provider: p, frontendURL: frontendURL}
}

// LoginURL returns the Google sign-in URL. redirectURL falls back to the
// configured frontend origin.
func (s *AuthService) LoginURL(redirectURL, codeChallenge string) string {
	if redirectURL == "" {
		redirectURL = s.frontendURL
	}
	return s.provider.AuthorizeURL(redirectURL, codeChallenge)
}

// Callback exchanges the authorization code for a token pair.
func (s *AuthService) Callback(ctx context.Context, code, codeVerifier string) (*model.TokenResponse, error) {
	sess, err := s.provider.ExchangeCode(ctx, code, codeVerifier)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tokenResponse(sess), nil
}

// Refresh rotates the token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	sess, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return tokenResponse(sess), nil
}

// SignOut invalidates the session at the provider.
func (s *AuthService) SignOut(ctx context.Context, accessToken string) error {
	return s.provider.SignOut(ctx, accessToken)
}

func tokenResponse(sess *provider.Session) *model.TokenResponse {
	tokenType := sess.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}
	return &model.TokenResponse{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		ExpiresIn:    sess.ExpiresIn,
		TokenType:    tokenType,
		User:         sess.User,
	}
}
