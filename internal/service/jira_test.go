package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklog/internal/model"
)

func TestGroupByIssue(t *testing.T) {
	entries := []model.WorklogEntry{
		{ID: "a", IssueKey: "PROJ-1", StartTime: "09:00", EndTime: "10:00", Description: "standup"},
		{ID: "b", IssueKey: "PROJ-2", StartTime: "10:00", EndTime: "10:30", Description: ""},
		{ID: "c", IssueKey: "PROJ-1", StartTime: "10:30", EndTime: "12:00", Description: "review"},
	}
	groups := groupByIssue(entries)

	require.Len(t, groups, 2)
	assert.Equal(t, "PROJ-1", groups[0].issueKey) // first-seen order
	assert.Equal(t, []string{"a", "c"}, groups[0].entryIDs)
	assert.Equal(t, 150, groups[0].totalMinutes)
	assert.Equal(t, "2h 30m", groups[0].duration())
	assert.Equal(t, "standup review", groups[0].comment())

	assert.Equal(t, "PROJ-2", groups[1].issueKey)
	assert.Equal(t, "30m", groups[1].duration())
	assert.Equal(t, "", groups[1].comment()) // empty descriptions skipped
}

func TestPostWorklog(t *testing.T) {
	var got struct {
		TimeSpent string                 `json:"timeSpent"`
		Comment   map[string]interface{} `json:"comment"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/issue/PROJ-7/worklog", r.URL.Path)
		assert.Equal(t, "Basic abc", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": "wl-42"}`))
	}))
	defer srv.Close()

	svc := &JiraService{http: srv.Client()}
	id, err := svc.postWorklog(context.Background(), srv.URL, "Basic abc", "PROJ-7", "1h 30m", "did things")
	require.NoError(t, err)
	assert.Equal(t, "wl-42", id)
	assert.Equal(t, "1h 30m", got.TimeSpent)
	assert.Equal(t, "doc", got.Comment["type"]) // ADF wrapper
}

func TestPostWorklogOmitsEmptyComment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		_, hasComment := body["comment"]
		assert.False(t, hasComment)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": "wl-1"}`))
	}))
	defer srv.Close()

	svc := &JiraService{http: srv.Client()}
	_, err := svc.postWorklog(context.Background(), srv.URL, "Basic abc", "PROJ-1", "15m", "")
	require.NoError(t, err)
}

func TestPostWorklogSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errorMessages": ["Issue does not exist"]}`))
	}))
	defer srv.Close()

	svc := &JiraService{http: srv.Client()}
	_, err := svc.postWorklog(context.Background(), srv.URL, "Basic abc", "NOPE-1", "15m", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JIRA API error: 404")
}
