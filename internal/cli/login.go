package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"worklog/internal/client"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with Google via the worklog server",
	Long: `login prints the provider sign-in URL, waits for the authorization
code, and exchanges it for a session. The code verifier never leaves this
process; only its S256 challenge is sent with the authorize request.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	guard, api, err := newSession()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	verifier := oauth2.GenerateVerifier()
	challenge := oauth2.S256ChallengeFromVerifier(verifier)

	loginURL, err := api.LoginURL(ctx, "", challenge)
	if err != nil {
		return fmt.Errorf("fetching sign-in URL: %w", err)
	}

	fmt.Println("Open this URL in your browser and sign in:")
	fmt.Println()
	fmt.Println("  " + loginURL)
	fmt.Println()
	fmt.Print("Paste the authorization code here: ")

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("no authorization code given")
	}

	grant, err := api.Callback(ctx, code, verifier)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}
	if err := guard.SetCredential(&client.Credential{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		User:         grant.User,
	}); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	fmt.Printf("Signed in as %s\n", grant.User.Email)
	return nil
}
