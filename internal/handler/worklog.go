package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"worklog/internal/logger"
	"worklog/internal/middleware"
	"worklog/internal/model"
)

// WorklogStore is the slice of the worklog service the handlers need.
type WorklogStore interface {
	EntriesForDate(ctx context.Context, userID, date string) (model.DayWorklog, error)
	SaveDay(ctx context.Context, userID, date string, entries []model.EntryPayload) (model.DayWorklog, error)
	CreateEntry(ctx context.Context, userID, date string, p model.EntryPayload) (model.WorklogEntry, error)
	EntryByID(ctx context.Context, userID, entryID string) (*model.WorklogEntry, error)
	UpdateEntry(ctx context.Context, userID, entryID string, update model.EntryUpdate) (*model.WorklogEntry, error)
	DeleteEntry(ctx context.Context, userID, entryID string) (bool, error)
	EntriesForRange(ctx context.Context, userID, start, end string) ([]model.WorklogEntry, error)
}

type WorklogHandler struct{ store WorklogStore }

func NewWorklogHandler(store WorklogStore) *WorklogHandler { return &WorklogHandler{store: store} }

func parseDate(c *gin.Context, param string) (string, bool) {
	raw := c.Param(param)
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid date, expected YYYY-MM-DD"})
		return "", false
	}
	return raw, true
}

// GET /api/worklog/:date
func (h *WorklogHandler) GetDay(c *gin.Context) {
	date, ok := parseDate(c, "date")
	if !ok {
		return
	}
	day, err := h.store.EntriesForDate(c.Request.Context(), middleware.CurrentUser(c).ID, date)
	if err != nil {
		logger.Error("get day failed", "date", date, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, day)
}

// PUT /api/worklog/:date — replaces the whole day.
func (h *WorklogHandler) SaveDay(c *gin.Context) {
	date, ok := parseDate(c, "date")
	if !ok {
		return
	}
	var req model.SaveWorklogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}
	day, err := h.store.SaveDay(c.Request.Context(), middleware.CurrentUser(c).ID, date, req.Entries)
	if err != nil {
		logger.Error("save day failed", "date", date, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, day)
}

// POST /api/worklog/:date/entries
func (h *WorklogHandler) CreateEntry(c *gin.Context) {
	date, ok := parseDate(c, "date")
	if !ok {
		return
	}
	var payload model.EntryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}
	entry, err := h.store.CreateEntry(c.Request.Context(), middleware.CurrentUser(c).ID, date, payload)
	if err != nil {
		logger.Error("create entry failed", "date", date, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// GET /api/worklog/entries/:id
func (h *WorklogHandler) GetEntry(c *gin.Context) {
	entry, err := h.store.EntryByID(c.Request.Context(), middleware.CurrentUser(c).ID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Entry not found"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// PATCH /api/worklog/entries/:id
func (h *WorklogHandler) UpdateEntry(c *gin.Context) {
	var update model.EntryUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}
	entry, err := h.store.UpdateEntry(c.Request.Context(), middleware.CurrentUser(c).ID, c.Param("id"), update)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Entry not found"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// DELETE /api/worklog/entries/:id
func (h *WorklogHandler) DeleteEntry(c *gin.Context) {
	deleted, err := h.store.DeleteEntry(c.Request.Context(), middleware.CurrentUser(c).ID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Entry not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/worklog/range?start_date=&end_date=
func (h *WorklogHandler) Range(c *gin.Context) {
	start, end := c.Query("start_date"), c.Query("end_date")
	for _, d := range []string{start, end} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "start_date and end_date must be YYYY-MM-DD"})
			return
		}
	}
	entries, err := h.store.EntriesForRange(c.Request.Context(), middleware.CurrentUser(c).ID, start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	if entries == nil {
		entries = []model.WorklogEntry{}
	}
	c.JSON(http.StatusOK, entries)
}
