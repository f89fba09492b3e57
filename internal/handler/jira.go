package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"worklog/internal/logger"
	"worklog/internal/middleware"
	"worklog/internal/model"
)

// JiraGateway is the slice of the JIRA service the handlers need.
type JiraGateway interface {
	ConfigStatus(ctx context.Context, userID string) model.JiraConfigStatus
	UpdateConfig(ctx context.Context, userID string, update model.JiraConfigUpdate) (model.JiraConfigStatus, error)
	LogEntry(ctx context.Context, userID string, entry model.WorklogEntry) model.LogToJiraResponse
	BulkLog(ctx context.Context, userID string, entries []model.WorklogEntry) model.BulkLogToJiraResponse
}

// JiraEntrySource is the slice of the worklog service the JIRA handlers need.
type JiraEntrySource interface {
	EntryByID(ctx context.Context, userID, entryID string) (*model.WorklogEntry, error)
	UnloggedForDate(ctx context.Context, userID, date string) ([]model.WorklogEntry, error)
	MarkLogged(ctx context.Context, userID, entryID, jiraWorklogID string) (*model.WorklogEntry, error)
}

type JiraHandler struct {
	jira    JiraGateway
	entries JiraEntrySource
}

func NewJiraHandler(jira JiraGateway, entries JiraEntrySource) *JiraHandler {
	return &JiraHandler{jira: jira, entries: entries}
}

// GET /api/worklog/jira/config
func (h *JiraHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.jira.ConfigStatus(c.Request.Context(), middleware.CurrentUser(c).ID))
}

// PUT /api/worklog/jira/config — sparse update; secrets never echo back.
func (h *JiraHandler) UpdateConfig(c *gin.Context) {
	var update model.JiraConfigUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}
	status, err := h.jira.UpdateConfig(c.Request.Context(), middleware.CurrentUser(c).ID, update)
	if err != nil {
		logger.Error("jira config update failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// POST /api/worklog/:date/entries/:id/log-to-jira
func (h *JiraHandler) LogEntry(c *gin.Context) {
	if _, ok := parseDate(c, "date"); !ok {
		return
	}
	user := middleware.CurrentUser(c)

	entry, err := h.entries.EntryByID(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Entry not found"})
		return
	}
	if entry.LoggedToJira {
		c.JSON(http.StatusOK, model.LogToJiraResponse{
			Success:       true,
			EntryID:       entry.ID,
			JiraWorklogID: entry.JiraWorklogID,
			Error:         "Entry already logged to JIRA",
		})
		return
	}

	result := h.jira.LogEntry(c.Request.Context(), user.ID, *entry)
	if result.Success && result.JiraWorklogID != nil {
		if _, err := h.entries.MarkLogged(c.Request.Context(), user.ID, entry.ID, *result.JiraWorklogID); err != nil {
			logger.Error("mark logged failed", "entry", entry.ID, "err", err)
		}
	}
	c.JSON(http.StatusOK, result)
}

// POST /api/worklog/:date/bulk-log-to-jira — entries sharing an issue key are
// aggregated into one tracker worklog.
func (h *JiraHandler) BulkLog(c *gin.Context) {
	date, ok := parseDate(c, "date")
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)

	unlogged, err := h.entries.UnloggedForDate(c.Request.Context(), user.ID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	if len(unlogged) == 0 {
		c.JSON(http.StatusOK, model.BulkLogToJiraResponse{Success: true, Results: []model.BulkLogResult{}})
		return
	}

	result := h.jira.BulkLog(c.Request.Context(), user.ID, unlogged)
	for _, r := range result.Results {
		if !r.Success || r.JiraWorklogID == nil {
			continue
		}
		for _, entryID := range r.EntryIDs {
			if _, err := h.entries.MarkLogged(c.Request.Context(), user.ID, entryID, *r.JiraWorklogID); err != nil {
				logger.Error("mark logged failed", "entry", entryID, "err", err)
			}
		}
	}
	c.JSON(http.StatusOK, result)
}
