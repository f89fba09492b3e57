package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"worklog/internal/client"
)

var logDate string

var logCmd = &cobra.Command{
	Use:   "log ENTRY_ID",
	Short: "Log one entry to JIRA",
	Args:  cobra.ExactArgs(1),
	RunE:  runLog,
}

func init() {
	logCmd.Flags().StringVar(&logDate, "date", "", "Date of the entry (default today)")
}

func runLog(cmd *cobra.Command, args []string) error {
	date, err := dateArg(flagAsArgs(logDate))
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
	if err := rec.LogSingle(ctx, args[0]); err != nil {
		return err
	}

	fmt.Println("Logged to JIRA.")
	printDay(date, rec.Entries())
	return nil
}
