package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// API issues typed calls against the worklog server through the session
// guard, translating between wire and in-memory shapes at the boundary.
type API struct{ guard *Guard }

func NewAPI(guard *Guard) *API { return &API{guard: guard} }

// TrackerConfig is the status-only projection of the user's JIRA settings.
type TrackerConfig struct {
	Configured bool   `json:"configured"`
	BaseURL    string `json:"base_url"`
	HasToken   bool   `json:"has_token"`
	HasEmail   bool   `json:"has_email"`
}

// TrackerConfigUpdate is a sparse patch; nil fields are left untouched
// server-side.
type TrackerConfigUpdate struct {
	BaseURL  *string `json:"jira_base_url,omitempty"`
	Email    *string `json:"jira_user_email,omitempty"`
	APIToken *string `json:"jira_api_token,omitempty"`
}

// LogResult is the per-entry tracker submission outcome.
type LogResult struct {
	Success       bool   `json:"success"`
	EntryID       string `json:"entry_id"`
	JiraWorklogID string `json:"jira_worklog_id"`
	Error         string `json:"error"`
}

// BulkIssueResult reports one issue key's aggregated submission.
type BulkIssueResult struct {
	IssueKey      string   `json:"issue_key"`
	Success       bool     `json:"success"`
	EntryIDs      []string `json:"entry_ids"`
	Duration      string   `json:"duration"`
	JiraWorklogID string   `json:"jira_worklog_id"`
	Error         string   `json:"error"`
}

// BulkResult is the bulk submission summary.
type BulkResult struct {
	Success      bool              `json:"success"`
	TotalIssues  int               `json:"total_issues"`
	SuccessCount int               `json:"success_count"`
	FailureCount int               `json:"failure_count"`
	Results      []BulkIssueResult `json:"results"`
}

// TokenGrant is the server's token issuance response.
type TokenGrant struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	User         User   `json:"user"`
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var req *http.Request
	var err error
	if body != nil {
		data, merr := json.Marshal(body)
		if merr != nil {
			return merr
		}
		req, err = http.NewRequestWithContext(ctx, method, a.guard.BaseURL()+path, bytes.NewReader(data))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, a.guard.BaseURL()+path, nil)
	}
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.guard.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// LoginURL fetches the provider sign-in URL for the given PKCE challenge.
func (a *API) LoginURL(ctx context.Context, redirectURL, codeChallenge string) (string, error) {
	q := url.Values{}
	if redirectURL != "" {
		q.Set("redirect_url", redirectURL)
	}
	if codeChallenge != "" {
		q.Set("code_challenge", codeChallenge)
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/auth/google?"+q.Encode(), nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// Callback exchanges the authorization code plus verifier for a token grant.
func (a *API) Callback(ctx context.Context, code, codeVerifier string) (*TokenGrant, error) {
	body := map[string]string{"code": code, "code_verifier": codeVerifier}
	var grant TokenGrant
	if err := a.do(ctx, http.MethodPost, "/api/auth/callback", body, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// Me returns the authenticated user's profile.
func (a *API) Me(ctx context.Context) (*User, error) {
	var u User
	if err := a.do(ctx, http.MethodGet, "/api/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Day fetches the full entry list for a date.
func (a *API) Day(ctx context.Context, date string) (Day, error) {
	var out remoteDay
	if err := a.do(ctx, http.MethodGet, "/api/worklog/"+date, nil, &out); err != nil {
		return Day{}, err
	}
	return dayFromRemote(out), nil
}

// SaveDay replaces the date's whole entry set with the given entries.
func (a *API) SaveDay(ctx context.Context, date string, entries []Entry) (Day, error) {
	payloads := make([]remotePayload, 0, len(entries))
	for _, e := range entries {
		payloads = append(payloads, entryToPayload(e))
	}
	body := map[string]interface{}{"entries": payloads}
	var out remoteDay
	if err := a.do(ctx, http.MethodPut, "/api/worklog/"+date, body, &out); err != nil {
		return Day{}, err
	}
	return dayFromRemote(out), nil
}

// TrackerConfig reads the JIRA configuration status.
func (a *API) TrackerConfig(ctx context.Context) (TrackerConfig, error) {
	var cfg TrackerConfig
	err := a.do(ctx, http.MethodGet, "/api/worklog/jira/config", nil, &cfg)
	return cfg, err
}

// UpdateTrackerConfig applies a sparse JIRA configuration patch.
func (a *API) UpdateTrackerConfig(ctx context.Context, update TrackerConfigUpdate) (TrackerConfig, error) {
	var cfg TrackerConfig
	err := a.do(ctx, http.MethodPut, "/api/worklog/jira/config", update, &cfg)
	return cfg, err
}

// LogEntry submits one entry to the tracker.
func (a *API) LogEntry(ctx context.Context, date, entryID string) (LogResult, error) {
	var out LogResult
	err := a.do(ctx, http.MethodPost, "/api/worklog/"+date+"/entries/"+entryID+"/log-to-jira", nil, &out)
	return out, err
}

// BulkLog submits all unlogged entries for the date.
func (a *API) BulkLog(ctx context.Context, date string) (BulkResult, error) {
	var out BulkResult
	err := a.do(ctx, http.MethodPost, "/api/worklog/"+date+"/bulk-log-to-jira", nil, &out)
	return out, err
}
