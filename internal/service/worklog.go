package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"worklog/internal/model"
)

// WorklogService owns worklog entry persistence. All queries are scoped to
// the owning user.
type WorklogService struct{ db *gorm.DB }

func NewWorklogService(db *gorm.DB) *WorklogService { return &WorklogService{db: db} }

// EntriesForDate returns the full day, ordered by start time.
func (s *WorklogService) EntriesForDate(ctx context.Context, userID, date string) (model.DayWorklog, error) {
	var entries []model.WorklogEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Order("start_time").Find(&entries).Error
	if err != nil {
		return model.DayWorklog{}, fmt.Errorf("query entries for %s: %w", date, err)
	}
	return model.NewDayWorklog(date, entries), nil
}

// SaveDay replaces every entry for the date inside one transaction. The whole
// day is the unit of consistency for the plain save path.
func (s *WorklogService) SaveDay(ctx context.Context, userID, date string, payloads []model.EntryPayload) (model.DayWorklog, error) {
	entries := make([]model.WorklogEntry, 0, len(payloads))
	for _, p := range payloads {
		entries = append(entries, model.WorklogEntry{
			ID:          uuid.NewString(),
			UserID:      userID,
			Date:        date,
			IssueKey:    p.IssueKey,
			StartTime:   p.StartTime,
			EndTime:     p.EndTime,
			Description: p.Description,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND date = ?", userID, date).
			Delete(&model.WorklogEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
	if err != nil {
		return model.DayWorklog{}, fmt.Errorf("save entries for %s: %w", date, err)
	}
	return model.NewDayWorklog(date, entries), nil
}

// CreateEntry inserts a single entry for the date.
func (s *WorklogService) CreateEntry(ctx context.Context, userID, date string, p model.EntryPayload) (model.WorklogEntry, error) {
	entry := model.WorklogEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		Date:        date,
		IssueKey:    p.IssueKey,
		StartTime:   p.StartTime,
		EndTime:     p.EndTime,
		Description: p.Description,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return model.WorklogEntry{}, fmt.Errorf("insert entry: %w", err)
	}
	return entry, nil
}

// EntryByID returns the entry, or nil when it does not exist for this user.
func (s *WorklogService) EntryByID(ctx context.Context, userID, entryID string) (*model.WorklogEntry, error) {
	var entry model.WorklogEntry
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entryID, userID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query entry %s: %w", entryID, err)
	}
	return &entry, nil
}

// UpdateEntry applies a sparse patch; nil when the entry does not exist.
func (s *WorklogService) UpdateEntry(ctx context.Context, userID, entryID string, update model.EntryUpdate) (*model.WorklogEntry, error) {
	fields := map[string]interface{}{}
	if update.IssueKey != nil {
		fields["issue_key"] = *update.IssueKey
	}
	if update.StartTime != nil {
		fields["start_time"] = *update.StartTime
	}
	if update.EndTime != nil {
		fields["end_time"] = *update.EndTime
	}
	if update.Description != nil {
		fields["description"] = *update.Description
	}
	if update.LoggedToJira != nil {
		fields["logged_to_jira"] = *update.LoggedToJira
	}
	if update.JiraWorklogID != nil {
		fields["jira_worklog_id"] = *update.JiraWorklogID
	}
	if len(fields) == 0 {
		return s.EntryByID(ctx, userID, entryID)
	}

	res := s.db.WithContext(ctx).Model(&model.WorklogEntry{}).
		Where("id = ? AND user_id = ?", entryID, userID).
		Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("update entry %s: %w", entryID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return s.EntryByID(ctx, userID, entryID)
}

// DeleteEntry removes the entry; false when nothing matched.
func (s *WorklogService) DeleteEntry(ctx context.Context, userID, entryID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entryID, userID).
		Delete(&model.WorklogEntry{})
	if res.Error != nil {
		return false, fmt.Errorf("delete entry %s: %w", entryID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// EntriesForRange returns entries in [start, end], ordered by date then time.
func (s *WorklogService) EntriesForRange(ctx context.Context, userID, start, end string) ([]model.WorklogEntry, error) {
	var entries []model.WorklogEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
		Order("date").Order("start_time").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("query range %s..%s: %w", start, end, err)
	}
	return entries, nil
}

// UnloggedForDate returns the date's entries not yet pushed to the tracker.
func (s *WorklogService) UnloggedForDate(ctx context.Context, userID, date string) ([]model.WorklogEntry, error) {
	var entries []model.WorklogEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ? AND logged_to_jira = ?", userID, date, false).
		Order("start_time").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("query unlogged for %s: %w", date, err)
	}
	return entries, nil
}

// MarkLogged flags an entry as recorded in the tracker.
func (s *WorklogService) MarkLogged(ctx context.Context, userID, entryID, jiraWorklogID string) (*model.WorklogEntry, error) {
	logged := true
	return s.UpdateEntry(ctx, userID, entryID, model.EntryUpdate{
		LoggedToJira:  &logged,
		JiraWorklogID: &jiraWorklogID,
	})
}
