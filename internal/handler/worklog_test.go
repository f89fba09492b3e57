package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklog/internal/model"
)

// fakeWorklogStore implements WorklogStore and JiraEntrySource.
type fakeWorklogStore struct {
	day     model.DayWorklog
	dayErr  error
	savedAs []model.EntryPayload

	entry   *model.WorklogEntry
	updated *model.WorklogEntry
	deleted bool

	rangeEntries []model.WorklogEntry

	unlogged []model.WorklogEntry
	marked   map[string]string
}

func (f *fakeWorklogStore) EntriesForDate(_ context.Context, _, date string) (model.DayWorklog, error) {
	if f.dayErr != nil {
		return model.DayWorklog{}, f.dayErr
	}
	return f.day, nil
}

func (f *fakeWorklogStore) SaveDay(_ context.Context, _, date string, entries []model.EntryPayload) (model.DayWorklog, error) {
	f.savedAs = entries
	return f.day, nil
}

func (f *fakeWorklogStore) CreateEntry(_ context.Context, userID, date string, p model.EntryPayload) (model.WorklogEntry, error) {
	return model.WorklogEntry{ID: "new", UserID: userID, IssueKey: p.IssueKey}, nil
}

func (f *fakeWorklogStore) EntryByID(_ context.Context, _, _ string) (*model.WorklogEntry, error) {
	return f.entry, nil
}

func (f *fakeWorklogStore) UpdateEntry(_ context.Context, _, _ string, _ model.EntryUpdate) (*model.WorklogEntry, error) {
	return f.updated, nil
}

func (f *fakeWorklogStore) DeleteEntry(_ context.Context, _, _ string) (bool, error) {
	return f.deleted, nil
}

func (f *fakeWorklogStore) EntriesForRange(_ context.Context, _, _, _ string) ([]model.WorklogEntry, error) {
	return f.rangeEntries, nil
}

func (f *fakeWorklogStore) UnloggedForDate(_ context.Context, _, _ string) ([]model.WorklogEntry, error) {
	return f.unlogged, nil
}

func (f *fakeWorklogStore) MarkLogged(_ context.Context, _, entryID, jiraWorklogID string) (*model.WorklogEntry, error) {
	if f.marked == nil {
		f.marked = map[string]string{}
	}
	f.marked[entryID] = jiraWorklogID
	return &model.WorklogEntry{ID: entryID, LoggedToJira: true}, nil
}

func worklogRouter(store *fakeWorklogStore) *gin.Engine {
	h := NewWorklogHandler(store)
	r := gin.New()
	api := r.Group("/api/worklog", injectUser())
	api.GET("/range", h.Range)
	api.GET("/entries/:id", h.GetEntry)
	api.PATCH("/entries/:id", h.UpdateEntry)
	api.DELETE("/entries/:id", h.DeleteEntry)
	api.GET("/:date", h.GetDay)
	api.PUT("/:date", h.SaveDay)
	api.POST("/:date/entries", h.CreateEntry)
	return r
}

func TestGetDayRejectsBadDate(t *testing.T) {
	w := perform(t, worklogRouter(&fakeWorklogStore{}), http.MethodGet, "/api/worklog/21-08-2026", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid date, expected YYYY-MM-DD", detailOf(t, w))
}

func TestGetDayReturnsWorklog(t *testing.T) {
	store := &fakeWorklogStore{day: model.NewDayWorklog("2026-08-21", []model.WorklogEntry{
		{ID: "e1", IssueKey: "PROJ-1", StartTime: "09:00", EndTime: "10:30"},
	})}
	w := perform(t, worklogRouter(store), http.MethodGet, "/api/worklog/2026-08-21", nil)
	require.Equal(t, http.StatusOK, w.Code)

	day := decodeBody[model.DayWorklog](t, w)
	assert.Equal(t, "2026-08-21", day.Date)
	assert.Equal(t, 90, day.TotalMinutes)
	require.Len(t, day.Entries, 1)
}

func TestGetDayServiceFailure(t *testing.T) {
	store := &fakeWorklogStore{dayErr: errors.New("db gone")}
	w := perform(t, worklogRouter(store), http.MethodGet, "/api/worklog/2026-08-21", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "db gone", detailOf(t, w))
}

func TestSaveDayPassesEntriesThrough(t *testing.T) {
	store := &fakeWorklogStore{day: model.NewDayWorklog("2026-08-21", nil)}
	body := model.SaveWorklogRequest{Entries: []model.EntryPayload{
		{IssueKey: "PROJ-1", StartTime: "09:00", EndTime: "10:00", Description: "review"},
	}}
	w := perform(t, worklogRouter(store), http.MethodPut, "/api/worklog/2026-08-21", body)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.savedAs, 1)
	assert.Equal(t, "PROJ-1", store.savedAs[0].IssueKey)
}

func TestSaveDayRejectsMalformedBody(t *testing.T) {
	w := perform(t, worklogRouter(&fakeWorklogStore{}), http.MethodPut, "/api/worklog/2026-08-21", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateEntryReturns201(t *testing.T) {
	store := &fakeWorklogStore{}
	body := model.EntryPayload{IssueKey: "PROJ-2"}
	w := perform(t, worklogRouter(store), http.MethodPost, "/api/worklog/2026-08-21/entries", body)
	require.Equal(t, http.StatusCreated, w.Code)
	entry := decodeBody[model.WorklogEntry](t, w)
	assert.Equal(t, "PROJ-2", entry.IssueKey)
}

func TestGetEntryNotFound(t *testing.T) {
	w := perform(t, worklogRouter(&fakeWorklogStore{}), http.MethodGet, "/api/worklog/entries/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Entry not found", detailOf(t, w))
}

func TestUpdateEntryNotFound(t *testing.T) {
	body := model.EntryUpdate{Description: strPtr("x")}
	w := perform(t, worklogRouter(&fakeWorklogStore{}), http.MethodPatch, "/api/worklog/entries/nope", body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteEntry(t *testing.T) {
	w := perform(t, worklogRouter(&fakeWorklogStore{deleted: true}), http.MethodDelete, "/api/worklog/entries/e1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = perform(t, worklogRouter(&fakeWorklogStore{}), http.MethodDelete, "/api/worklog/entries/e1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRangeValidatesDates(t *testing.T) {
	w := perform(t, worklogRouter(&fakeWorklogStore{}), http.MethodGet, "/api/worklog/range?start_date=2026-08-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRangeReturnsEmptyListNotNull(t *testing.T) {
	w := perform(t, worklogRouter(&fakeWorklogStore{}), http.MethodGet,
		"/api/worklog/range?start_date=2026-08-01&end_date=2026-08-21", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}
