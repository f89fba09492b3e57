package cli

import (
	"github.com/spf13/cobra"

	"worklog/internal/client"
)

var (
	editDate  string
	editIssue string
	editStart string
	editEnd   string
	editDesc  string
)

var editCmd = &cobra.Command{
	Use:   "edit ENTRY_ID",
	Short: "Edit a worklog entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editDate, "date", "", "Date of the entry (default today)")
	editCmd.Flags().StringVar(&editIssue, "issue", "", "JIRA issue key")
	editCmd.Flags().StringVar(&editStart, "start", "", "Start time HH:MM")
	editCmd.Flags().StringVar(&editEnd, "end", "", "End time HH:MM")
	editCmd.Flags().StringVar(&editDesc, "desc", "", "Work description")
}

func runEdit(cmd *cobra.Command, args []string) error {
	date, err := dateArg(flagAsArgs(editDate))
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

	patch := client.EntryPatch{}
	if cmd.Flags().Changed("issue") {
		patch.IssueKey = &editIssue
	}
	if cmd.Flags().Changed("start") {
		patch.StartTime = &editStart
	}
	if cmd.Flags().Changed("end") {
		patch.EndTime = &editEnd
	}
	if cmd.Flags().Changed("desc") {
		patch.Description = &editDesc
	}
	if err := rec.UpdateEntry(ctx, args[0], patch); err != nil {
		return err
	}

	printDay(date, rec.Entries())
	return nil
}

// flagAsArgs adapts an optional --date flag to the positional-arg helper.
func flagAsArgs(date string) []string {
	if date == "" {
		return nil
	}
	return []string{date}
}
