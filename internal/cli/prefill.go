package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"worklog/internal/client"
)

var prefillCmd = &cobra.Command{
	Use:   "prefill [DATE]",
	Short: "Copy entries from a comparable earlier day",
	Long: `prefill looks at the same weekday one to four weeks back and takes
the first day that has entries, falling back to yesterday. Matching issue
keys merge their descriptions; new keys become fresh unlogged entries.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPrefill,
}

func runPrefill(cmd *cobra.Command, args []string) error {
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

	outcome, err := rec.PrefillFromPrevious(ctx)
	if err != nil {
		return err
	}
	switch outcome.Source {
	case client.PrefillNone:
		fmt.Println("No previous entries found to prefill from.")
		return nil
	case client.PrefillWeekBefore:
		fmt.Printf("Prefilled from %s (%d week(s) back): %d added, %d merged.\n",
			outcome.SourceDate, outcome.WeeksBack, outcome.Added, outcome.Merged)
	case client.PrefillYesterday:
		fmt.Printf("Prefilled from %s (yesterday): %d added, %d merged.\n",
			outcome.SourceDate, outcome.Added, outcome.Merged)
	}

	printDay(date, rec.Entries())
	return nil
}
