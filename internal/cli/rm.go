package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"worklog/internal/client"
)

var rmDate string

var rmCmd = &cobra.Command{
	Use:   "rm ENTRY_ID",
	Short: "Delete a worklog entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runRm,
}

func init() {
	rmCmd.Flags().StringVar(&rmDate, "date", "", "Date of the entry (default today)")
}

func runRm(cmd *cobra.Command, args []string) error {
	date, err := dateArg(flagAsArgs(rmDate))
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
	if err := rec.DeleteEntry(ctx, args[0]); err != nil {
		return err
	}

	fmt.Println("Deleted.")
	printDay(date, rec.Entries())
	return nil
}
