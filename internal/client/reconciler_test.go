package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records calls and serves canned days.
type fakeAPI struct {
	days map[string]Day

	dayCalls  []string
	saveCalls int
	saved     []Entry
	saveErr   error

	tracker    TrackerConfig
	trackerErr error

	logResult LogResult
	logErr    error
	logCalls  int

	bulkResult BulkResult
	bulkErr    error
	bulkCalls  int
}

func (f *fakeAPI) Day(_ context.Context, date string) (Day, error) {
	f.dayCalls = append(f.dayCalls, date)
	day, ok := f.days[date]
	if !ok {
		return Day{Date: date, Entries: []Entry{}}, nil
	}
	return day, nil
}

func (f *fakeAPI) SaveDay(_ context.Context, date string, entries []Entry) (Day, error) {
	f.saveCalls++
	if f.saveErr != nil {
		return Day{}, f.saveErr
	}
	f.saved = append([]Entry(nil), entries...)
	confirmed := make([]Entry, len(entries))
	for i, e := range entries {
		// The replace-day PUT only carries the writable subset; identity and
		// logged state are reassigned server-side.
		e.ID = fmt.Sprintf("srv-%d", i)
		e.LoggedToJira = false
		e.JiraWorklogID = ""
		confirmed[i] = e
	}
	if f.days == nil {
		f.days = map[string]Day{}
	}
	f.days[date] = Day{Date: date, Entries: confirmed}
	return f.days[date], nil
}

func (f *fakeAPI) TrackerConfig(_ context.Context) (TrackerConfig, error) {
	return f.tracker, f.trackerErr
}

func (f *fakeAPI) LogEntry(_ context.Context, _, _ string) (LogResult, error) {
	f.logCalls++
	return f.logResult, f.logErr
}

func (f *fakeAPI) BulkLog(_ context.Context, _ string) (BulkResult, error) {
	f.bulkCalls++
	return f.bulkResult, f.bulkErr
}

func testReconciler(api *fakeAPI, date string) *Reconciler {
	r := NewReconciler(api, date)
	r.now = func() time.Time { return time.Date(2026, 8, 21, 14, 30, 0, 0, time.UTC) }
	seq := 0
	r.newID = func() string {
		seq++
		return fmt.Sprintf("local-%d", seq)
	}
	return r
}

func TestSaveAllDraftsStaysLocal(t *testing.T) {
	api := &fakeAPI{}
	r := testReconciler(api, "2026-08-21")
	r.entries = []Entry{
		{ID: "d1", StartTime: "9:00", EndTime: "9:30"},
		{ID: "d2", StartTime: "10:5", EndTime: "bad input"},
	}

	require.NoError(t, r.Save(context.Background()))
	assert.Zero(t, api.saveCalls)

	got := r.Entries()
	assert.Equal(t, "09:00", got[0].StartTime)
	assert.Equal(t, "10:05", got[1].StartTime)
	// Unparseable times pass through untouched.
	assert.Equal(t, "bad input", got[1].EndTime)
}

func TestSavePartitionsDraftsFromKeyed(t *testing.T) {
	api := &fakeAPI{}
	r := testReconciler(api, "2026-08-21")
	r.entries = []Entry{
		{ID: "a", IssueKey: "PROJ-1", StartTime: "9:00", EndTime: "10:00"},
		{ID: "d1", StartTime: "10:00", EndTime: "10:30"},
		{ID: "b", IssueKey: "PROJ-2", StartTime: "10:30", EndTime: "12:00"},
	}

	require.NoError(t, r.Save(context.Background()))
	require.Equal(t, 1, api.saveCalls)
	require.Len(t, api.saved, 2)
	assert.Equal(t, "PROJ-1", api.saved[0].IssueKey)
	assert.Equal(t, "PROJ-2", api.saved[1].IssueKey)

	got := r.Entries()
	require.Len(t, got, 3)
	assert.Equal(t, "srv-0", got[0].ID)
	assert.Equal(t, "d1", got[1].ID)
	assert.Equal(t, "srv-1", got[2].ID)
}

func TestSaveFailureKeepsPriorState(t *testing.T) {
	api := &fakeAPI{saveErr: errors.New("boom")}
	r := testReconciler(api, "2026-08-21")
	before := []Entry{{ID: "a", IssueKey: "PROJ-1", StartTime: "09:00", EndTime: "10:00"}}
	r.entries = append([]Entry(nil), before...)

	require.Error(t, r.Save(context.Background()))
	assert.Equal(t, before, r.Entries())
}

func TestAddDraftContinuesFromLastEnd(t *testing.T) {
	r := testReconciler(&fakeAPI{}, "2026-08-21")
	r.entries = []Entry{{ID: "a", IssueKey: "PROJ-1", StartTime: "09:00", EndTime: "11:15"}}

	draft := r.AddDraft()
	assert.Equal(t, "11:15", draft.StartTime)
	assert.Equal(t, "14:30", draft.EndTime)
	assert.True(t, draft.IsDraft())
	assert.Len(t, r.Entries(), 2)
}

func TestAddDraftDefaultsToLastHour(t *testing.T) {
	r := testReconciler(&fakeAPI{}, "2026-08-21")
	draft := r.AddDraft()
	assert.Equal(t, "13:30", draft.StartTime)
	assert.Equal(t, "14:30", draft.EndTime)
}

func TestUpdateEntryRejectsLoggedEntry(t *testing.T) {
	api := &fakeAPI{}
	r := testReconciler(api, "2026-08-21")
	r.entries = []Entry{{ID: "a", IssueKey: "PROJ-1", LoggedToJira: true}}

	desc := "changed"
	err := r.UpdateEntry(context.Background(), "a", EntryPatch{Description: &desc})
	assert.ErrorIs(t, err, ErrEntryLocked)
	assert.Zero(t, api.saveCalls)
}

func TestDeleteDraftIsLocalOnly(t *testing.T) {
	api := &fakeAPI{}
	r := testReconciler(api, "2026-08-21")
	r.entries = []Entry{
		{ID: "a", IssueKey: "PROJ-1", StartTime: "09:00", EndTime: "10:00"},
		{ID: "d1"},
	}

	require.NoError(t, r.DeleteEntry(context.Background(), "d1"))
	assert.Zero(t, api.saveCalls)
	assert.Len(t, r.Entries(), 1)
}

func TestDeleteLoggedEntryRejected(t *testing.T) {
	api := &fakeAPI{}
	r := testReconciler(api, "2026-08-21")
	r.entries = []Entry{{ID: "a", IssueKey: "PROJ-1", LoggedToJira: true}}

	err := r.DeleteEntry(context.Background(), "a")
	assert.ErrorIs(t, err, ErrEntryLocked)
	assert.Len(t, r.Entries(), 1)
	assert.Zero(t, api.saveCalls)
}

func TestDeletePersistedEntrySaves(t *testing.T) {
	api := &fakeAPI{}
	r := testReconciler(api, "2026-08-21")
	r.entries = []Entry{
		{ID: "a", IssueKey: "PROJ-1", StartTime: "09:00", EndTime: "10:00"},
		{ID: "b", IssueKey: "PROJ-2", StartTime: "10:00", EndTime: "11:00"},
	}

	require.NoError(t, r.DeleteEntry(context.Background(), "a"))
	require.Equal(t, 1, api.saveCalls)
	require.Len(t, api.saved, 1)
	assert.Equal(t, "PROJ-2", api.saved[0].IssueKey)
}

func TestPrefillStopsAtFirstWeekWithData(t *testing.T) {
	api := &fakeAPI{days: map[string]Day{
		"2026-08-07": {Date: "2026-08-07", Entries: []Entry{
			{ID: "p1", IssueKey: "PROJ-1", StartTime: "09:00", EndTime: "10:00", Description: "standup"},
		}},
		// Three weeks back also has data; it must never be fetched.
		"2026-07-31": {Date: "2026-07-31", Entries: []Entry{
			{ID: "p2", IssueKey: "PROJ-9", StartTime: "09:00", EndTime: "10:00"},
		}},
	}}
	r := testReconciler(api, "2026-08-21")

	outcome, err := r.PrefillFromPrevious(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PrefillWeekBefore, outcome.Source)
	assert.Equal(t, 2, outcome.WeeksBack)
	assert.Equal(t, "2026-08-07", outcome.SourceDate)
	assert.Equal(t, []string{"2026-08-14", "2026-08-07"}, api.dayCalls)
	assert.Equal(t, 1, api.saveCalls)
}

func TestPrefillFallsBackToYesterday(t *testing.T) {
	api := &fakeAPI{days: map[string]Day{
		"2026-08-20": {Date: "2026-08-20", Entries: []Entry{
			{ID: "p1", IssueKey: "PROJ-3", StartTime: "13:00", EndTime: "14:00"},
		}},
	}}
	r := testReconciler(api, "2026-08-21")

	outcome, err := r.PrefillFromPrevious(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PrefillYesterday, outcome.Source)
	assert.Equal(t, "2026-08-20", outcome.SourceDate)
	assert.Equal(t,
		[]string{"2026-08-14", "2026-08-07", "2026-07-31", "2026-07-24", "2026-08-20"},
		api.dayCalls)
}

func TestPrefillNoDataAnywhere(t *testing.T) {
	api := &fakeAPI{}
	r := testReconciler(api, "2026-08-21")

	outcome, err := r.PrefillFromPrevious(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PrefillNone, outcome.Source)
	assert.Zero(t, api.saveCalls)
}

func TestMergeEntriesByIssueKey(t *testing.T) {
	r := testReconciler(&fakeAPI{}, "2026-08-21")
	r.entries = []Entry{
		{ID: "cur", IssueKey: "PROJ-1", StartTime: "09:30", EndTime: "10:30", Description: "standup", LoggedToJira: true, JiraWorklogID: "w-7"},
		{ID: "d1"}, // draft
	}
	previous := []Entry{
		{ID: "p1", IssueKey: "PROJ-1", StartTime: "08:00", EndTime: "09:00", Description: "review"},
		{ID: "p2", IssueKey: "PROJ-2", StartTime: "09:00", EndTime: "11:00", Description: "feature work"},
		{ID: "p3", Description: "previous-day draft, skipped"},
	}

	merged, added, combined := r.mergeEntries(previous)
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, combined)
	require.Len(t, merged, 3)

	// Matching key: descriptions joined, today's times, id, and log state kept.
	assert.Equal(t, "cur", merged[0].ID)
	assert.Equal(t, "standup review", merged[0].Description)
	assert.Equal(t, "09:30", merged[0].StartTime)
	assert.True(t, merged[0].LoggedToJira)
	assert.Equal(t, "w-7", merged[0].JiraWorklogID)

	// Today's draft passes through untouched.
	assert.Equal(t, "d1", merged[1].ID)

	// New key: fresh local identity, never pre-marked as logged.
	assert.Equal(t, "PROJ-2", merged[2].IssueKey)
	assert.NotEqual(t, "p2", merged[2].ID)
	assert.False(t, merged[2].LoggedToJira)
	assert.Empty(t, merged[2].JiraWorklogID)
}

func TestPrefillSavesMergedDay(t *testing.T) {
	api := &fakeAPI{days: map[string]Day{
		"2026-08-14": {Date: "2026-08-14", Entries: []Entry{
			{ID: "p1", IssueKey: "PROJ-1", StartTime: "08:00", EndTime: "09:00", Description: "review"},
			{ID: "p2", IssueKey: "PROJ-2", StartTime: "09:00", EndTime: "11:00", Description: "feature work"},
		}},
	}}
	r := testReconciler(api, "2026-08-21")
	r.entries = []Entry{
		{ID: "cur", IssueKey: "PROJ-1", StartTime: "09:30", EndTime: "10:30", Description: "standup"},
	}

	outcome, err := r.PrefillFromPrevious(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Added)
	assert.Equal(t, 1, outcome.Merged)

	require.Len(t, api.saved, 2)
	assert.Equal(t, "standup review", api.saved[0].Description)
	assert.Equal(t, "09:30", api.saved[0].StartTime)
	assert.Equal(t, "PROJ-2", api.saved[1].IssueKey)
}

func TestLogSingleMarksEntry(t *testing.T) {
	api := &fakeAPI{
		tracker:   TrackerConfig{Configured: true},
		logResult: LogResult{Success: true, JiraWorklogID: "10042"},
	}
	r := testReconciler(api, "2026-08-21")
	r.entries = []Entry{{ID: "a", IssueKey: "PROJ-1", StartTime: "09:00", EndTime: "10:00"}}

	require.NoError(t, r.LogSingle(context.Background(), "a"))
	got := r.Entries()[0]
	assert.True(t, got.LoggedToJira)
	assert.Equal(t, "10042", got.JiraWorklogID)
}

func TestLogSingleStructuredFailureLeavesEntry(t *testing.T) {
	api := &fakeAPI{
		tracker:   TrackerConfig{Configured: true},
		logResult: LogResult{Success: false, Error: "JIRA API error: 404 - issue does not exist"},
	}
	r := testReconciler(api, "2026-08-21")
	r.entries = []Entry{{ID: "a", IssueKey: "PROJ-404", StartTime: "09:00", EndTime: "10:00"}}

	err := r.LogSingle(context.Background(), "a")
	require.EqualError(t, err, "JIRA API error: 404 - issue does not exist")
	assert.False(t, r.Entries()[0].LoggedToJira)
}

func TestLogSingleRequiresConfiguredTracker(t *testing.T) {
	api := &fakeAPI{tracker: TrackerConfig{Configured: false}}
	r := testReconciler(api, "2026-08-21")
	r.entries = []Entry{{ID: "a", IssueKey: "PROJ-1", StartTime: "09:00", EndTime: "10:00"}}

	err := r.LogSingle(context.Background(), "a")
	assert.ErrorIs(t, err, ErrTrackerNotConfigured)
	assert.Zero(t, api.logCalls)
}

func TestLogSingleValidatesEntry(t *testing.T) {
	api := &fakeAPI{tracker: TrackerConfig{Configured: true}}
	r := testReconciler(api, "2026-08-21")
	r.entries = []Entry{
		{ID: "nokey", StartTime: "09:00", EndTime: "10:00"},
		{ID: "badtime", IssueKey: "PROJ-1", StartTime: "soon", EndTime: "10:00"},
	}

	assert.Error(t, r.LogSingle(context.Background(), "nokey"))
	assert.Error(t, r.LogSingle(context.Background(), "badtime"))
	assert.Zero(t, api.logCalls)
}

func TestLogBulkNothingEligible(t *testing.T) {
	api := &fakeAPI{tracker: TrackerConfig{Configured: true}}
	r := testReconciler(api, "2026-08-21")
	r.entries = []Entry{
		{ID: "d1"}, // draft
		{ID: "a", IssueKey: "PROJ-1", LoggedToJira: true},
	}

	_, err := r.LogBulk(context.Background())
	assert.ErrorIs(t, err, ErrNothingToLog)
	assert.Zero(t, api.bulkCalls)
}

func TestLogBulkReloadsDay(t *testing.T) {
	api := &fakeAPI{
		tracker: TrackerConfig{Configured: true},
		bulkResult: BulkResult{
			Success: false, TotalIssues: 2, SuccessCount: 1, FailureCount: 1,
			Results: []BulkIssueResult{
				{IssueKey: "PROJ-1", Success: true, JiraWorklogID: "10001"},
				{IssueKey: "PROJ-2", Success: false, Error: "JIRA API error: 403 - forbidden"},
			},
		},
		days: map[string]Day{
			"2026-08-21": {Date: "2026-08-21", Entries: []Entry{
				{ID: "a", IssueKey: "PROJ-1", LoggedToJira: true, JiraWorklogID: "10001"},
				{ID: "b", IssueKey: "PROJ-2"},
			}},
		},
	}
	r := testReconciler(api, "2026-08-21")
	r.entries = []Entry{
		{ID: "a", IssueKey: "PROJ-1", StartTime: "09:00", EndTime: "10:00"},
		{ID: "b", IssueKey: "PROJ-2", StartTime: "10:00", EndTime: "11:00"},
	}

	result, err := r.LogBulk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, api.bulkCalls)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)

	// The grid reflects the server's partial outcome after reload.
	assert.Equal(t, []string{"2026-08-21"}, api.dayCalls)
	got := r.Entries()
	assert.True(t, got[0].LoggedToJira)
	assert.False(t, got[1].LoggedToJira)
}

func TestLoadDegradesToEmptyDay(t *testing.T) {
	g := NewGuard("http://127.0.0.1:1", &MemStore{})
	r := NewReconciler(NewAPI(g), "2026-08-21")
	r.entries = []Entry{{ID: "stale"}}

	err := r.Load(context.Background())
	require.Error(t, err)
	assert.Empty(t, r.Entries())
}
