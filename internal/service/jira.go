package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"worklog/internal/logger"
	"worklog/internal/model"
	"worklog/internal/secret"
	"worklog/internal/timeutil"
)

// JiraService stores per-user tracker credentials and pushes worklogs to the
// JIRA Cloud REST API v3.
type JiraService struct {
	db   *gorm.DB
	box  *secret.Box
	http *http.Client
}

func NewJiraService(db *gorm.DB, box *secret.Box) *JiraService {
	return &JiraService{
		db:   db,
		box:  box,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// ConfigStatus returns the status-only projection. Read failures degrade to
// "not configured" so the settings page stays usable.
func (s *JiraService) ConfigStatus(ctx context.Context, userID string) model.JiraConfigStatus {
	cfg, err := s.config(ctx, userID)
	if err != nil || cfg == nil {
		if err != nil {
			logger.Error("jira config read failed", "user", userID, "err", err)
		}
		return model.JiraConfigStatus{}
	}
	return model.JiraConfigStatus{
		Configured: cfg.BaseURL != "",
		BaseURL:    cfg.BaseURL,
		HasToken:   cfg.APITokenSealed != "",
		HasEmail:   cfg.UserEmail != "",
	}
}

// UpdateConfig applies a sparse credentials patch. The token is sealed before
// it touches the database; secrets never round-trip back to the client.
func (s *JiraService) UpdateConfig(ctx context.Context, userID string, update model.JiraConfigUpdate) (model.JiraConfigStatus, error) {
	cfg, err := s.config(ctx, userID)
	if err != nil {
		return model.JiraConfigStatus{}, err
	}
	if cfg == nil {
		cfg = &model.JiraConfig{UserID: userID}
	}
	if update.JiraBaseURL != nil {
		cfg.BaseURL = strings.TrimRight(*update.JiraBaseURL, "/")
	}
	if update.JiraUserEmail != nil {
		cfg.UserEmail = *update.JiraUserEmail
	}
	if update.JiraAPIToken != nil {
		sealed, err := s.box.Seal(*update.JiraAPIToken)
		if err != nil {
			return model.JiraConfigStatus{}, fmt.Errorf("seal api token: %w", err)
		}
		cfg.APITokenSealed = sealed
	}
	if err := s.db.WithContext(ctx).Save(cfg).Error; err != nil {
		return model.JiraConfigStatus{}, fmt.Errorf("save jira config: %w", err)
	}
	return s.ConfigStatus(ctx, userID), nil
}

func (s *JiraService) config(ctx context.Context, userID string) (*model.JiraConfig, error) {
	var cfg model.JiraConfig
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query jira config: %w", err)
	}
	return &cfg, nil
}

// credentials resolves the stored config into a base URL and Basic auth
// header. ok is false when any required piece is missing.
func (s *JiraService) credentials(ctx context.Context, userID string) (baseURL, authHeader string, ok bool) {
	cfg, err := s.config(ctx, userID)
	if err != nil || cfg == nil || cfg.BaseURL == "" || cfg.UserEmail == "" || cfg.APITokenSealed == "" {
		return "", "", false
	}
	token, err := s.box.Open(cfg.APITokenSealed)
	if err != nil {
		logger.Error("jira token unseal failed", "user", userID, "err", err)
		return "", "", false
	}
	raw := cfg.UserEmail + ":" + token
	return cfg.BaseURL, "Basic " + base64.StdEncoding.EncodeToString([]byte(raw)), true
}

const notConfiguredMsg = "JIRA not configured. Please set up JIRA credentials."

// LogEntry pushes one entry to the tracker.
func (s *JiraService) LogEntry(ctx context.Context, userID string, entry model.WorklogEntry) model.LogToJiraResponse {
	baseURL, auth, ok := s.credentials(ctx, userID)
	if !ok {
		return model.LogToJiraResponse{Success: false, EntryID: entry.ID, Error: notConfiguredMsg}
	}

	worklogID, err := s.postWorklog(ctx, baseURL, auth, entry.IssueKey, entry.DurationFormatted(), entry.Description)
	if err != nil {
		logger.Error("jira log failed", "issue", entry.IssueKey, "err", err)
		return model.LogToJiraResponse{Success: false, EntryID: entry.ID, Error: err.Error()}
	}
	return model.LogToJiraResponse{Success: true, EntryID: entry.ID, JiraWorklogID: &worklogID}
}

// BulkLog pushes all given entries, aggregating entries that share an issue
// key into one worklog with summed duration and space-joined descriptions.
func (s *JiraService) BulkLog(ctx context.Context, userID string, entries []model.WorklogEntry) model.BulkLogToJiraResponse {
	if len(entries) == 0 {
		return model.BulkLogToJiraResponse{Success: true, Results: []model.BulkLogResult{}}
	}

	groups := groupByIssue(entries)
	baseURL, auth, configured := s.credentials(ctx, userID)
	results := make([]model.BulkLogResult, 0, len(groups))
	successCount, failureCount := 0, 0

	for _, g := range groups {
		if !configured {
			results = append(results, model.BulkLogResult{
				IssueKey: g.issueKey, Success: false, EntryIDs: g.entryIDs,
				Duration: "0m", Error: "JIRA not configured",
			})
			failureCount++
			continue
		}

		worklogID, err := s.postWorklog(ctx, baseURL, auth, g.issueKey, g.duration(), g.comment())
		if err != nil {
			logger.Error("jira bulk log failed", "issue", g.issueKey, "err", err)
			results = append(results, model.BulkLogResult{
				IssueKey: g.issueKey, Success: false, EntryIDs: g.entryIDs,
				Duration: g.duration(), Error: err.Error(),
			})
			failureCount++
			continue
		}
		results = append(results, model.BulkLogResult{
			IssueKey: g.issueKey, Success: true, EntryIDs: g.entryIDs,
			Duration: g.duration(), JiraWorklogID: &worklogID,
		})
		successCount++
	}

	return model.BulkLogToJiraResponse{
		Success:      failureCount == 0,
		TotalIssues:  len(groups),
		SuccessCount: successCount,
		FailureCount: failureCount,
		Results:      results,
	}
}

// issueGroup is the aggregate of all entries sharing one issue key.
type issueGroup struct {
	issueKey     string
	entryIDs     []string
	totalMinutes int
	descriptions []string
}

func (g issueGroup) duration() string { return timeutil.FormatDuration(g.totalMinutes) }
func (g issueGroup) comment() string  { return strings.Join(g.descriptions, " ") }

// groupByIssue aggregates entries per issue key, preserving first-seen order.
func groupByIssue(entries []model.WorklogEntry) []issueGroup {
	index := map[string]int{}
	var groups []issueGroup
	for _, e := range entries {
		i, seen := index[e.IssueKey]
		if !seen {
			i = len(groups)
			index[e.IssueKey] = i
			groups = append(groups, issueGroup{issueKey: e.IssueKey})
		}
		groups[i].entryIDs = append(groups[i].entryIDs, e.ID)
		groups[i].totalMinutes += e.DurationMinutes()
		if e.Description != "" {
			groups[i].descriptions = append(groups[i].descriptions, e.Description)
		}
	}
	return groups
}

// postWorklog issues POST /rest/api/3/issue/{key}/worklog. The comment rides
// in Atlassian Document Format; no "started" field is sent, JIRA applies its
// own server time.
func (s *JiraService) postWorklog(ctx context.Context, baseURL, auth, issueKey, timeSpent, comment string) (string, error) {
	body := map[string]interface{}{"timeSpent": timeSpent}
	if comment != "" {
		body["comment"] = adfParagraph(comment)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/rest/api/3/issue/%s/worklog", baseURL, issueKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("jira request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("JIRA API error: %d - %s", resp.StatusCode, truncate(string(raw), 200))
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode jira response: %w", err)
	}
	return created.ID, nil
}

func adfParagraph(text string) map[string]interface{} {
	return map[string]interface{}{
		"type":    "doc",
		"version": 1,
		"content": []map[string]interface{}{
			{
				"type": "paragraph",
				"content": []map[string]interface{}{
					{"type": "text", "text": text},
				},
			},
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
