package client

// Entry is the reconciler's in-memory worklog row. An empty IssueKey marks a
// local-only draft that is never sent to the remote store. Once LoggedToJira
// is set the row is immutable: the tracker already holds a log tied to these
// values.
type Entry struct {
	ID            string
	IssueKey      string
	StartTime     string
	EndTime       string
	Description   string
	LoggedToJira  bool
	JiraWorklogID string
}

// IsDraft reports whether the entry exists only in local memory.
func (e Entry) IsDraft() bool { return e.IssueKey == "" }

// Day is one date's ordered entry list, oldest first.
type Day struct {
	Date    string
	Entries []Entry
}

// remoteEntry is the server's snake_case representation.
type remoteEntry struct {
	ID            string  `json:"id"`
	IssueKey      string  `json:"issue_key"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	Description   string  `json:"description"`
	LoggedToJira  bool    `json:"logged_to_jira"`
	JiraWorklogID *string `json:"jira_worklog_id"`
}

type remoteDay struct {
	Date    string        `json:"date"`
	Entries []remoteEntry `json:"entries"`
}

// remotePayload is the writable subset sent on the replace-day PUT. Dropping
// id and logged state here is the documented lossy direction: those fields
// are server-owned.
type remotePayload struct {
	IssueKey    string `json:"issue_key"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description"`
}

// entryFromRemote converts a server entry to the in-memory form. Total: every
// field is mapped, absent optionals become zero values.
func entryFromRemote(r remoteEntry) Entry {
	worklogID := ""
	if r.JiraWorklogID != nil {
		worklogID = *r.JiraWorklogID
	}
	return Entry{
		ID:            r.ID,
		IssueKey:      r.IssueKey,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Description:   r.Description,
		LoggedToJira:  r.LoggedToJira,
		JiraWorklogID: worklogID,
	}
}

// entryToPayload converts an in-memory entry to the writable wire subset.
func entryToPayload(e Entry) remotePayload {
	return remotePayload{
		IssueKey:    e.IssueKey,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Description: e.Description,
	}
}

func dayFromRemote(r remoteDay) Day {
	entries := make([]Entry, 0, len(r.Entries))
	for _, e := range r.Entries {
		entries = append(entries, entryFromRemote(e))
	}
	return Day{Date: r.Date, Entries: entries}
}
