package model

import "time"

// WorklogEntry is one row of a day's work grid. Start and end times are
// stored as wall-clock "HH:MM" strings; unparseable values a user typed are
// kept verbatim rather than rejected.
type WorklogEntry struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	UserID        string    `gorm:"size:36;index:idx_user_date" json:"user_id"`
	Date          string    `gorm:"type:date;index:idx_user_date" json:"date"`
	IssueKey      string    `gorm:"size:50" json:"issue_key"`
	StartTime     string    `gorm:"size:16" json:"start_time"`
	EndTime       string    `gorm:"size:16" json:"end_time"`
	Description   string    `gorm:"size:2000" json:"description"`
	LoggedToJira  bool      `json:"logged_to_jira"`
	JiraWorklogID *string   `gorm:"size:64" json:"jira_worklog_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// JiraConfig holds a user's tracker credentials. The API token is sealed
// before it reaches the database and is never returned to clients.
type JiraConfig struct {
	UserID         string    `gorm:"primaryKey;size:36"`
	BaseURL        string    `gorm:"size:255"`
	UserEmail      string    `gorm:"size:255"`
	APITokenSealed string    `gorm:"size:1024"`
	UpdatedAt      time.Time
}

func (WorklogEntry) TableName() string { return "worklog_entries" }
func (JiraConfig) TableName() string   { return "user_jira_config" }
