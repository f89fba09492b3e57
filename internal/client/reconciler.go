package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"worklog/internal/timeutil"
)

// WorklogAPI is the server surface the reconciler depends on. *API satisfies
// it; tests substitute a fake.
type WorklogAPI interface {
	Day(ctx context.Context, date string) (Day, error)
	SaveDay(ctx context.Context, date string, entries []Entry) (Day, error)
	TrackerConfig(ctx context.Context) (TrackerConfig, error)
	LogEntry(ctx context.Context, date, entryID string) (LogResult, error)
	BulkLog(ctx context.Context, date string) (BulkResult, error)
}

var (
	// ErrTrackerNotConfigured is returned when a log operation runs before
	// JIRA credentials have been set up.
	ErrTrackerNotConfigured = errors.New("JIRA not configured. Please set up JIRA credentials.")
	// ErrNothingToLog is returned by LogBulk when no entry is eligible.
	ErrNothingToLog = errors.New("no unlogged entries to submit")
	// ErrEntryNotFound is returned when an entry id is not in the current day.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrEntryLocked is returned on attempts to edit an already-logged entry.
	ErrEntryLocked = errors.New("entry already logged to JIRA and cannot be changed")
)

// EntryPatch is a sparse entry update; nil fields are left untouched.
type EntryPatch struct {
	IssueKey    *string
	StartTime   *string
	EndTime     *string
	Description *string
}

// PrefillSource says where PrefillFromPrevious found its data.
type PrefillSource int

const (
	PrefillNone PrefillSource = iota
	PrefillWeekBefore
	PrefillYesterday
)

// PrefillOutcome reports the source day a prefill merged from.
type PrefillOutcome struct {
	Source     PrefillSource
	SourceDate string
	WeeksBack  int
	Added      int
	Merged     int
}

// Reconciler keeps one date's entry grid consistent with the remote store.
// Entries with an empty issue key are local drafts: they live only in memory
// and are retained across saves until they gain a key. It is not safe for
// concurrent use; the CLI drives it from a single goroutine.
type Reconciler struct {
	api     WorklogAPI
	date    string
	entries []Entry

	now   func() time.Time
	newID func() string
}

func NewReconciler(api WorklogAPI, date string) *Reconciler {
	return &Reconciler{
		api:   api,
		date:  date,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

func (r *Reconciler) Date() string { return r.date }

// Entries returns a copy of the current grid.
func (r *Reconciler) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Load replaces the grid with the server's view of the date. On any failure
// the grid degrades to an empty day and the error is returned so the caller
// can warn about connectivity.
func (r *Reconciler) Load(ctx context.Context) error {
	day, err := r.api.Day(ctx, r.date)
	if err != nil {
		r.entries = nil
		return err
	}
	r.entries = day.Entries
	return nil
}

// Save normalizes times, pushes the keyed entries to the server as the
// date's whole new entry set, and rebuilds the grid from the server's
// confirmed rows with drafts retained in place. A day of nothing but drafts
// saves locally without any network call. On a remote failure the prior grid
// is left untouched.
func (r *Reconciler) Save(ctx context.Context) error {
	normalized := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		e.StartTime = timeutil.NormalizeClock(e.StartTime)
		e.EndTime = timeutil.NormalizeClock(e.EndTime)
		normalized[i] = e
	}

	valid := make([]Entry, 0, len(normalized))
	for _, e := range normalized {
		if !e.IsDraft() {
			valid = append(valid, e)
		}
	}
	if len(valid) == 0 {
		r.entries = normalized
		return nil
	}

	day, err := r.api.SaveDay(ctx, r.date, valid)
	if err != nil {
		return err
	}

	// Zip confirmed rows back into the draft positions of the input order.
	confirmed := day.Entries
	merged := make([]Entry, 0, len(normalized))
	ci := 0
	for _, e := range normalized {
		if e.IsDraft() {
			merged = append(merged, e)
			continue
		}
		if ci < len(confirmed) {
			merged = append(merged, confirmed[ci])
			ci++
		}
	}
	for ; ci < len(confirmed); ci++ {
		merged = append(merged, confirmed[ci])
	}
	r.entries = merged
	return nil
}

// AddDraft appends a local draft whose start continues from the last entry's
// end, or defaults to one hour ago, and whose end is now. No network call.
func (r *Reconciler) AddDraft() Entry {
	nowAt := r.now()
	start := nowAt.Add(-time.Hour).Format("15:04")
	if n := len(r.entries); n > 0 {
		if last := r.entries[n-1].EndTime; last != "" {
			start = last
		}
	}
	draft := Entry{
		ID:        r.newID(),
		StartTime: start,
		EndTime:   nowAt.Format("15:04"),
	}
	r.entries = append(r.entries, draft)
	return draft
}

// UpdateEntry merges the patch into the entry and saves the day. Logged
// entries are immutable.
func (r *Reconciler) UpdateEntry(ctx context.Context, id string, patch EntryPatch) error {
	idx := r.indexOf(id)
	if idx < 0 {
		return ErrEntryNotFound
	}
	if r.entries[idx].LoggedToJira {
		return ErrEntryLocked
	}
	e := &r.entries[idx]
	if patch.IssueKey != nil {
		e.IssueKey = strings.TrimSpace(*patch.IssueKey)
	}
	if patch.StartTime != nil {
		e.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		e.EndTime = *patch.EndTime
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	return r.Save(ctx)
}

// DeleteEntry removes the entry. Deleting a draft is purely local; deleting
// a persisted entry re-saves the remaining day. Logged entries cannot be
// removed, the tracker already holds their worklog.
func (r *Reconciler) DeleteEntry(ctx context.Context, id string) error {
	idx := r.indexOf(id)
	if idx < 0 {
		return ErrEntryNotFound
	}
	if r.entries[idx].LoggedToJira {
		return ErrEntryLocked
	}
	wasDraft := r.entries[idx].IsDraft()
	r.entries = append(r.entries[:idx], r.entries[idx+1:]...)
	if wasDraft {
		return nil
	}
	return r.Save(ctx)
}

// PrefillFromPrevious copies entries from a comparable earlier day into the
// current grid. It checks the same weekday one to four weeks back, stopping
// at the first day with entries, then falls back to the previous calendar
// day. Fetch failures count as empty days. The merged grid is saved.
func (r *Reconciler) PrefillFromPrevious(ctx context.Context) (PrefillOutcome, error) {
	day, err := time.Parse("2006-01-02", r.date)
	if err != nil {
		return PrefillOutcome{}, fmt.Errorf("invalid date %q: %w", r.date, err)
	}

	var source Day
	outcome := PrefillOutcome{Source: PrefillNone}
	for weeks := 1; weeks <= 4; weeks++ {
		candidate := day.AddDate(0, 0, -7*weeks).Format("2006-01-02")
		prev, err := r.api.Day(ctx, candidate)
		if err == nil && len(prev.Entries) > 0 {
			source = prev
			outcome = PrefillOutcome{Source: PrefillWeekBefore, SourceDate: candidate, WeeksBack: weeks}
			break
		}
	}
	if outcome.Source == PrefillNone {
		candidate := day.AddDate(0, 0, -1).Format("2006-01-02")
		prev, err := r.api.Day(ctx, candidate)
		if err == nil && len(prev.Entries) > 0 {
			source = prev
			outcome = PrefillOutcome{Source: PrefillYesterday, SourceDate: candidate}
		}
	}
	if outcome.Source == PrefillNone {
		return outcome, nil
	}

	merged, added, combined := r.mergeEntries(source.Entries)
	outcome.Added = added
	outcome.Merged = combined
	r.entries = merged
	if err := r.Save(ctx); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// mergeEntries folds a previous day's entries into the current grid. Current
// rows keep their position, id, times, and logged state; a previous entry
// with a matching issue key only contributes its description, a new key is
// appended as a fresh unlogged row. Drafts on either side are left alone.
func (r *Reconciler) mergeEntries(previous []Entry) (merged []Entry, added, combined int) {
	merged = make([]Entry, len(r.entries))
	copy(merged, r.entries)

	byKey := make(map[string]int, len(merged))
	for i, e := range merged {
		if e.IssueKey == "" {
			continue
		}
		if _, seen := byKey[e.IssueKey]; !seen {
			byKey[e.IssueKey] = i
		}
	}

	for _, prev := range previous {
		if prev.IssueKey == "" {
			continue
		}
		if i, seen := byKey[prev.IssueKey]; seen {
			joined := joinDescriptions(merged[i].Description, prev.Description)
			if joined != merged[i].Description {
				merged[i].Description = joined
				combined++
			}
			continue
		}
		fresh := Entry{
			ID:          r.newID(),
			IssueKey:    prev.IssueKey,
			StartTime:   prev.StartTime,
			EndTime:     prev.EndTime,
			Description: prev.Description,
		}
		byKey[fresh.IssueKey] = len(merged)
		merged = append(merged, fresh)
		added++
	}
	return merged, added, combined
}

func joinDescriptions(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "" || a == b:
		return a
	default:
		return a + " " + b
	}
}

// LogSingle submits one entry to the tracker and marks it logged on success.
// A structured failure from the server surfaces its message without touching
// the grid; a transport failure surfaces as a connectivity error.
func (r *Reconciler) LogSingle(ctx context.Context, id string) error {
	idx := r.indexOf(id)
	if idx < 0 {
		return ErrEntryNotFound
	}
	e := r.entries[idx]
	if e.IssueKey == "" {
		return errors.New("entry has no issue key")
	}
	if _, ok := timeutil.ParseClock(e.StartTime); !ok {
		return fmt.Errorf("invalid start time %q", e.StartTime)
	}
	if _, ok := timeutil.ParseClock(e.EndTime); !ok {
		return fmt.Errorf("invalid end time %q", e.EndTime)
	}

	cfg, err := r.api.TrackerConfig(ctx)
	if err != nil {
		return fmt.Errorf("cannot reach server: %w", err)
	}
	if !cfg.Configured {
		return ErrTrackerNotConfigured
	}

	result, err := r.api.LogEntry(ctx, r.date, id)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return errors.New(apiErr.Message)
		}
		return fmt.Errorf("cannot reach server: %w", err)
	}
	if !result.Success {
		return errors.New(result.Error)
	}

	r.entries[idx].LoggedToJira = true
	r.entries[idx].JiraWorklogID = result.JiraWorklogID
	return nil
}

// LogBulk submits every unlogged keyed entry for the date, then reloads the
// day so the grid reflects whatever the server recorded, success or not.
func (r *Reconciler) LogBulk(ctx context.Context) (BulkResult, error) {
	eligible := 0
	for _, e := range r.entries {
		if e.IssueKey != "" && !e.LoggedToJira {
			eligible++
		}
	}
	if eligible == 0 {
		return BulkResult{}, ErrNothingToLog
	}

	cfg, err := r.api.TrackerConfig(ctx)
	if err != nil {
		return BulkResult{}, fmt.Errorf("cannot reach server: %w", err)
	}
	if !cfg.Configured {
		return BulkResult{}, ErrTrackerNotConfigured
	}

	result, err := r.api.BulkLog(ctx, r.date)
	if err != nil {
		return BulkResult{}, err
	}
	// The server may have logged a subset even on partial failure.
	_ = r.Load(ctx)
	return result, nil
}

func (r *Reconciler) indexOf(id string) int {
	for i, e := range r.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
