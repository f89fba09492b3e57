// Package provider talks to the hosted auth service (GoTrue-style API) that
// owns Google sign-in, token issuance and rotation. The server never holds
// user passwords; it only proxies this provider.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"worklog/internal/model"
)

// Client is an HTTP client for the auth provider.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Session is a token pair issued by the provider.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	TokenType    string
	User         model.UserProfile
}

// rawUser is the provider's user shape; display fields live in metadata maps.
type rawUser struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	UserMetadata map[string]string `json:"user_metadata"`
	AppMetadata  struct {
		Provider string `json:"provider"`
	} `json:"app_metadata"`
}

func (u rawUser) profile() model.UserProfile {
	name := u.UserMetadata["full_name"]
	if name == "" {
		name = u.UserMetadata["name"]
	}
	avatar := u.UserMetadata["avatar_url"]
	if avatar == "" {
		avatar = u.UserMetadata["picture"]
	}
	return model.UserProfile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      name,
		AvatarURL: avatar,
		Provider:  u.AppMetadata.Provider,
	}
}

type rawSession struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	ExpiresIn    int     `json:"expires_in"`
	TokenType    string  `json:"token_type"`
	User         rawUser `json:"user"`
}

func (s rawSession) session() *Session {
	return &Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		TokenType:    s.TokenType,
		User:         s.User.profile(),
	}
}

// AuthorizeURL builds the Google sign-in URL. codeChallenge is the S256 PKCE
// challenge; redirectTo is where the provider sends the browser afterwards.
func (c *Client) AuthorizeURL(redirectTo, codeChallenge string) string {
	params := url.Values{
		"provider":    {"google"},
		"redirect_to": {redirectTo},
	}
	if codeChallenge != "" {
		params.Set("code_challenge", codeChallenge)
		params.Set("code_challenge_method", "S256")
	}
	return c.baseURL + "/auth/v1/authorize?" + params.Encode()
}

// ExchangeCode swaps an authorization code plus PKCE verifier for a session.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*Session, error) {
	body := map[string]string{"auth_code": code, "code_verifier": codeVerifier}
	var out rawSession
	if err := c.post(ctx, "/auth/v1/token?grant_type=pkce", "", body, &out); err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return out.session(), nil
}

// Refresh rotates the token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var out rawSession
	if err := c.post(ctx, "/auth/v1/token?grant_type=refresh_token", "", body, &out); err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return out.session(), nil
}

// SignOut invalidates the session server-side.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if err := c.post(ctx, "/auth/v1/logout", accessToken, nil, nil); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// GetUser resolves an access token to the user it belongs to.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*model.UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, accessToken)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var u rawUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	p := u.profile()
	return &p, nil
}

func (c *Client) post(ctx context.Context, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	c.setHeaders(req, accessToken)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
}

func apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	var e struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	if json.Unmarshal(raw, &e) == nil {
		switch {
		case e.ErrorDescription != "":
			return fmt.Errorf("provider error %d: %s", resp.StatusCode, e.ErrorDescription)
		case e.Msg != "":
			return fmt.Errorf("provider error %d: %s", resp.StatusCode, e.Msg)
		case e.Message != "":
			return fmt.Errorf("provider error %d: %s", resp.StatusCode, e.Message)
		}
	}
	return fmt.Errorf("provider error %d: %s", resp.StatusCode, string(raw))
}
