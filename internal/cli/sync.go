package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"worklog/internal/client"
)

var syncCmd = &cobra.Command{
	Use:   "sync [DATE]",
	Short: "Log all unlogged entries to JIRA",
	Long: `sync submits every unlogged entry with an issue key, aggregated into
one JIRA worklog per issue (summed duration, joined descriptions).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
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

	result, err := rec.LogBulk(ctx)
	if errors.Is(err, client.ErrNothingToLog) {
		fmt.Println("Nothing to log.")
		return nil
	}
	if err != nil {
		return err
	}

	for _, r := range result.Results {
		if r.Success {
			fmt.Printf("  ok    %-12s %s (worklog %s)\n", r.IssueKey, r.Duration, r.JiraWorklogID)
		} else {
			fmt.Printf("  FAIL  %-12s %s\n", r.IssueKey, r.Error)
		}
	}
	switch {
	case result.FailureCount == 0:
		fmt.Printf("Logged %d issue(s).\n", result.SuccessCount)
	case result.SuccessCount == 0:
		return fmt.Errorf("all %d issue(s) failed", result.FailureCount)
	default:
		return fmt.Errorf("%d issue(s) logged, %d failed", result.SuccessCount, result.FailureCount)
	}

	printDay(date, rec.Entries())
	return nil
}
