// Package cli implements the worklogctl command tree. Every command builds a
// session guard over the credential file in ~/.worklog and talks to the
// server through it.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"worklog/internal/client"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "worklogctl",
	Short: "Track daily worklog entries and push them to JIRA",
	Long: `worklogctl edits one day's worklog entries on the worklog server and
submits them to JIRA as worklogs, aggregated per issue key.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	defaultServer := os.Getenv("WORKLOG_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8000"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer,
		"worklog server base URL (env WORKLOG_SERVER)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(meCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(prefillCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(configCmd)
}

// newSession wires the credential file, guard, and typed API together.
func newSession() (*client.Guard, *client.API, error) {
	store, err := client.NewFileStore("")
	if err != nil {
		return nil, nil, err
	}
	guard := client.NewGuard(serverURL, store, client.WithAuthLostHandler(func() {
		fmt.Fprintln(os.Stderr, "Session expired. Run `worklogctl login` to sign in again.")
	}))
	return guard, client.NewAPI(guard), nil
}

// dateArg resolves an optional positional DATE argument, defaulting to today.
func dateArg(args []string) (string, error) {
	if len(args) == 0 {
		return time.Now().Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", args[0]); err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", args[0])
	}
	return args[0], nil
}
