package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adtoolkit/meta-ads-mcp/internal/meta"
)

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage locally stored Meta account tokens",
		Long: `List and remove the Meta account tokens saved by the login command.

Tokens are stored per account under the user cache directory and are used
by the stdio transport, where no OAuth flow is available.`,
	}

	cmd.AddCommand(newAccountsListCmd())
	cmd.AddCommand(newAccountsRemoveCmd())

	return cmd
}

func newAccountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts with saved tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := meta.ListAccounts()
			if err != nil {
				return fmt.Errorf("failed to list accounts: %w", err)
			}

			if len(accounts) == 0 {
				cmd.Println("No accounts have saved tokens. Run 'meta-ads-mcp login' to add one.")
				return nil
			}

			for _, account := range accounts {
				cmd.Println(account)
			}
			return nil
		},
	}
}

func newAccountsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <account>",
		Short: "Remove the saved token for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account := args[0]
			if !meta.HasTokenForAccount(account) {
				return fmt.Errorf("no saved token for account %q", account)
			}

			if err := meta.DeleteTokenForAccount(account); err != nil {
				return fmt.Errorf("failed to remove token for account %q: %w", account, err)
			}

			cmd.Printf("Removed token for account %q\n", account)
			return nil
		},
	}
}

func newLoginCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize a Meta account via Facebook Login",
		Long: `Prints the Facebook Login URL for the given account, then reads the
authorization code from stdin and saves a long-lived token.

Requires META_APP_ID and META_APP_SECRET to be set. The redirect URL of
the Meta app must match META_REDIRECT_URL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			authURL, err := meta.GetAuthURLForAccount(account)
			if err != nil {
				return fmt.Errorf("failed to build authorization URL: %w", err)
			}

			cmd.Printf("Open the following URL in your browser and authorize the app:\n\n%s\n\n", authURL)
			cmd.Print("Paste the authorization code: ")

			reader := bufio.NewReader(os.Stdin)
			code, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read authorization code: %w", err)
			}
			code = strings.TrimSpace(code)
			if code == "" {
				return fmt.Errorf("authorization code cannot be empty")
			}

			if err := meta.SaveTokenForAccount(cmd.Context(), account, code); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			cmd.Printf("Saved token for account %q\n", account)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Account name to store the token under")

	return cmd
}
