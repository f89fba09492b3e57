package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// APIError carries the upstream HTTP status and the server's error message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// parseAPIError extracts the server's message from a non-OK response: a
// `detail` or `message` JSON field when present, otherwise the raw body.
func parseAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	msg := ""
	if json.Unmarshal(raw, &body) == nil {
		if body.Detail != "" {
			msg = body.Detail
		} else if body.Message != "" {
			msg = body.Message
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

type refreshResult struct {
	token string
	err   error
}

// Guard supplies a valid bearer credential to every outgoing request,
// recovers from token expiry exactly once per request, and guarantees at
// most one refresh call is in flight.
type Guard struct {
	baseURL string
	http    *http.Client
	store   CredentialStore

	// onAuthLost fires when the session is torn down (failed refresh or
	// logout); the UI routes to its unauthenticated view.
	onAuthLost func()

	mu         sync.Mutex
	refreshing bool
	waiters    []chan refreshResult
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithHTTPClient overrides the transport, mainly for tests.
func WithHTTPClient(hc *http.Client) GuardOption {
	return func(g *Guard) { g.http = hc }
}

// WithAuthLostHandler registers the navigation-to-login side effect.
func WithAuthLostHandler(fn func()) GuardOption {
	return func(g *Guard) { g.onAuthLost = fn }
}

func NewGuard(baseURL string, store CredentialStore, opts ...GuardOption) *Guard {
	g := &Guard{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: 30 * time.Second},
		store:      store,
		onAuthLost: func() {},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BaseURL returns the server origin the guard talks to.
func (g *Guard) BaseURL() string { return g.baseURL }

// Credential returns the stored credential, or nil when signed out.
func (g *Guard) Credential() (*Credential, error) { return g.store.Get() }

// SetCredential records a freshly issued token pair (login or refresh).
func (g *Guard) SetCredential(cred *Credential) error { return g.store.Set(cred) }

// Do attaches the current access token and issues the request. On a 401 with
// a token present it refreshes once and retries exactly once; if the refresh
// cannot produce a token it clears all credentials and propagates the
// original 401. Without a stored token the request goes out unauthenticated,
// which public endpoints rely on.
func (g *Guard) Do(req *http.Request) (*http.Response, error) {
	cred, err := g.store.Get()
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	token := ""
	if cred != nil {
		token = cred.AccessToken
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || token == "" {
		return resp, nil
	}

	original := parseAPIError(resp)
	resp.Body.Close()

	newToken, err := g.Refresh(req.Context())
	if err != nil {
		// The refresh path already cleared credentials.
		return nil, original
	}
	if newToken == "" {
		// No refresh token stored; the session cannot be recovered.
		g.teardown()
		return nil, original
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("replaying request body: %w", err)
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+newToken)
	return g.http.Do(retry)
}

// Refresh exchanges the stored refresh token for a new pair. Concurrent
// callers join a waiter queue and share the single in-flight result. Returns
// "" without any network call when no refresh token is stored. A failed
// refresh is fatal for the session: credentials are cleared and the
// auth-lost handler fires.
func (g *Guard) Refresh(ctx context.Context) (string, error) {
	g.mu.Lock()
	if g.refreshing {
		ch := make(chan refreshResult, 1)
		g.waiters = append(g.waiters, ch)
		g.mu.Unlock()
		select {
		case r := <-ch:
			return r.token, r.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	g.refreshing = true
	g.mu.Unlock()

	token, err := g.doRefresh(ctx)

	g.mu.Lock()
	g.refreshing = false
	waiters := g.waiters
	g.waiters = nil
	g.mu.Unlock()
	for _, ch := range waiters {
		ch <- refreshResult{token: token, err: err}
	}
	return token, err
}

func (g *Guard) doRefresh(ctx context.Context) (string, error) {
	cred, err := g.store.Get()
	if err != nil {
		return "", fmt.Errorf("loading credentials: %w", err)
	}
	if cred == nil || cred.RefreshToken == "" {
		return "", nil
	}

	endpoint := g.baseURL + "/api/auth/refresh?" + url.Values{"refresh_token": {cred.RefreshToken}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		g.teardown()
		return "", fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		apiErr := parseAPIError(resp)
		g.teardown()
		return "", apiErr
	}

	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		User         User   `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		g.teardown()
		return "", fmt.Errorf("decode refresh response: %w", err)
	}

	if err := g.store.Set(&Credential{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         tokens.User,
	}); err != nil {
		return "", fmt.Errorf("saving refreshed credentials: %w", err)
	}
	return tokens.AccessToken, nil
}

// Logout signs out remotely best-effort, then unconditionally clears the
// stored credential and fires the auth-lost handler.
func (g *Guard) Logout(ctx context.Context) error {
	cred, _ := g.store.Get()
	if cred != nil && cred.AccessToken != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/auth/logout", nil)
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
			if resp, err := g.http.Do(req); err == nil {
				resp.Body.Close()
			}
		}
	}
	g.teardown()
	return nil
}

func (g *Guard) teardown() {
	_ = g.store.Remove()
	g.onAuthLost()
}
