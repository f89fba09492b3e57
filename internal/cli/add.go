package cli

import (
	"github.com/spf13/cobra"

	"worklog/internal/client"
)

var (
	addIssue string
	addStart string
	addEnd   string
	addDesc  string
)

var addCmd = &cobra.Command{
	Use:   "add [DATE]",
	Short: "Add a worklog entry",
	Long: `add appends an entry to the day. Start defaults to the previous
entry's end (or one hour ago), end defaults to now. Without --issue the entry
would stay a local draft, which a one-shot command cannot keep, so an issue
key is required here.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addIssue, "issue", "", "JIRA issue key, e.g. PROJ-123")
	addCmd.Flags().StringVar(&addStart, "start", "", "Start time HH:MM")
	addCmd.Flags().StringVar(&addEnd, "end", "", "End time HH:MM")
	addCmd.Flags().StringVar(&addDesc, "desc", "", "Work description")
	_ = addCmd.MarkFlagRequired("issue")
}

func runAdd(cmd *cobra.Command, args []string) error {
	date, err := dateArg(args)
	if err != nil {
		return err
	}
	_, api, err := newSession()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	rec := client.NewReconciler(api, date)
	if err := rec.Load(ctx); err != nil {
		return err
	}

	draft := rec.AddDraft()
	patch := client.EntryPatch{IssueKey: &addIssue, Description: &addDesc}
	if addStart != "" {
		patch.StartTime = &addStart
	}
	if addEnd != "" {
		patch.EndTime = &addEnd
	}
	if err := rec.UpdateEntry(ctx, draft.ID, patch); err != nil {
		return err
	}

	printDay(date, rec.Entries())
	return nil
}
