package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"worklog/internal/client"
)

var (
	cfgURL   string
	cfgEmail string
	cfgToken string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show JIRA tracker configuration status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, api, err := newSession()
		if err != nil {
			return err
		}
		cfg, err := api.TrackerConfig(cmd.Context())
		if err != nil {
			return err
		}
		printTrackerConfig(cfg)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update JIRA credentials",
	Long: `set updates only the given fields. The API token is stored encrypted
server-side and is never echoed back.`,
	Args: cobra.NoArgs,
	RunE: runConfigSet,
}

func init() {
	configSetCmd.Flags().StringVar(&cfgURL, "url", "", "JIRA base URL, e.g. https://example.atlassian.net")
	configSetCmd.Flags().StringVar(&cfgEmail, "email", "", "JIRA account email")
	configSetCmd.Flags().StringVar(&cfgToken, "token", "", "JIRA API token")
	configCmd.AddCommand(configSetCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	_, api, err := newSession()
	if err != nil {
		return err
	}

	update := client.TrackerConfigUpdate{}
	if cmd.Flags().Changed("url") {
		update.BaseURL = &cfgURL
	}
	if cmd.Flags().Changed("email") {
		update.Email = &cfgEmail
	}
	if cmd.Flags().Changed("token") {
		update.APIToken = &cfgToken
	}
	if update.BaseURL == nil && update.Email == nil && update.APIToken == nil {
		return fmt.Errorf("nothing to update, pass --url, --email, or --token")
	}

	cfg, err := api.UpdateTrackerConfig(cmd.Context(), update)
	if err != nil {
		return err
	}
	printTrackerConfig(cfg)
	return nil
}

func printTrackerConfig(cfg client.TrackerConfig) {
	if !cfg.Configured {
		fmt.Println("JIRA is not configured. Run `worklogctl config set`.")
	}
	fmt.Printf("base url: %s\n", orUnset(cfg.BaseURL))
	fmt.Printf("email:    %s\n", checkmark(cfg.HasEmail))
	fmt.Printf("token:    %s\n", checkmark(cfg.HasToken))
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}

func checkmark(set bool) string {
	if set {
		return "set"
	}
	return "not set"
}
