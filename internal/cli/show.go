package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"worklog/internal/client"
	"worklog/internal/timeutil"
)

var showCmd = &cobra.Command{
	Use:   "show [DATE]",
	Short: "Show a day's worklog entries",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	date, err := dateArg(args)
	if err != nil {
		return err
	}
	_, api, err := newSession()
	if err != nil {
		return err
	}

	rec := client.NewReconciler(api, date)
	if err := rec.Load(cmd.Context()); err != nil {
		return err
	}
	printDay(date, rec.Entries())
	return nil
}

func printDay(date string, entries []client.Entry) {
	fmt.Println(date)
	if len(entries) == 0 {
		fmt.Println("No entries.")
		return
	}

	total := 0
	for _, e := range entries {
		minutes := timeutil.DurationMinutes(e.StartTime, e.EndTime)
		total += minutes

		key := e.IssueKey
		if key == "" {
			key = "(draft)"
		}
		logged := " "
		if e.LoggedToJira {
			logged = "*"
		}
		fmt.Printf("%s %s–%s  %-12s %-8s %s  [%s]\n",
			logged, e.StartTime, e.EndTime, key,
			timeutil.FormatDuration(minutes), e.Description, e.ID)
	}
	fmt.Printf("total: %s  (* = logged to JIRA)\n", timeutil.FormatDuration(total))
}
