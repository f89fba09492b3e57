package model

import "worklog/internal/timeutil"

// UserProfile is the authenticated user as reported by the auth provider.
type UserProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Provider  string `json:"provider"`
}

type AuthURLResponse struct {
	URL string `json:"url"`
}

type AuthCallbackRequest struct {
	Code         string `json:"code" binding:"required"`
	CodeVerifier string `json:"code_verifier" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"`
	TokenType    string      `json:"token_type"`
	User         UserProfile `json:"user"`
}

// EntryPayload is the writable subset of an entry. The replace-day PUT body
// carries only these fields; ids and logged state stay server-owned.
type EntryPayload struct {
	IssueKey    string `json:"issue_key"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description"`
}

type SaveWorklogRequest struct {
	Entries []EntryPayload `json:"entries"`
}

// DayWorklog is the unit of remote read/write: the whole ordered entry set
// for one date.
type DayWorklog struct {
	Date         string         `json:"date"`
	Entries      []WorklogEntry `json:"entries"`
	TotalMinutes int            `json:"total_minutes"`
}

// NewDayWorklog builds a DayWorklog and totals the entry durations.
func NewDayWorklog(date string, entries []WorklogEntry) DayWorklog {
	if entries == nil {
		entries = []WorklogEntry{}
	}
	total := 0
	for _, e := range entries {
		total += e.DurationMinutes()
	}
	return DayWorklog{Date: date, Entries: entries, TotalMinutes: total}
}

// EntryUpdate is a sparse per-entry patch; nil fields are left untouched.
type EntryUpdate struct {
	IssueKey      *string `json:"issue_key"`
	StartTime     *string `json:"start_time"`
	EndTime       *string `json:"end_time"`
	Description   *string `json:"description"`
	LoggedToJira  *bool   `json:"logged_to_jira"`
	JiraWorklogID *string `json:"jira_worklog_id"`
}

// JiraConfigUpdate is a sparse tracker-credentials patch; only provided
// fields are written.
type JiraConfigUpdate struct {
	JiraBaseURL   *string `json:"jira_base_url"`
	JiraUserEmail *string `json:"jira_user_email"`
	JiraAPIToken  *string `json:"jira_api_token"`
}

// JiraConfigStatus is the status-only projection of a user's tracker
// configuration; secret values are reduced to booleans.
type JiraConfigStatus struct {
	Configured bool   `json:"configured"`
	BaseURL    string `json:"base_url"`
	HasToken   bool   `json:"has_token"`
	HasEmail   bool   `json:"has_email"`
}

type LogToJiraResponse struct {
	Success       bool    `json:"success"`
	EntryID       string  `json:"entry_id"`
	JiraWorklogID *string `json:"jira_worklog_id,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// BulkLogResult reports the outcome for one issue key, which may aggregate
// several entries.
type BulkLogResult struct {
	IssueKey      string   `json:"issue_key"`
	Success       bool     `json:"success"`
	EntryIDs      []string `json:"entry_ids"`
	Duration      string   `json:"duration"`
	JiraWorklogID *string  `json:"jira_worklog_id,omitempty"`
	Error         string   `json:"error,omitempty"`
}

type BulkLogToJiraResponse struct {
	Success      bool            `json:"success"`
	TotalIssues  int             `json:"total_issues"`
	SuccessCount int             `json:"success_count"`
	FailureCount int             `json:"failure_count"`
	Results      []BulkLogResult `json:"results"`
}

// DurationMinutes returns the entry's clamped span in minutes.
func (e WorklogEntry) DurationMinutes() int {
	return timeutil.DurationMinutes(e.StartTime, e.EndTime)
}

// DurationFormatted renders the span like "2h 30m".
func (e WorklogEntry) DurationFormatted() string {
	return timeutil.FormatDuration(e.DurationMinutes())
}
