package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Show the events API access token",
	Long: `Show the access token for /api/events of the running server.

Example:
  splithub token
  curl -H "Authorization: Bearer $(splithub token -q)" http://localhost:8080/api/events`,
	RunE: runToken,
}

var tokenQuiet bool

func init() {
	tokenCmd.Flags().BoolVarP(&tokenQuiet, "quiet", "q", false, "print only the token")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(getTokenFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no server running. Start with: splithub serve")
		}
		return fmt.Errorf("failed to read token file: %w", err)
	}

	token := string(data)
	if token == "" {
		return fmt.Errorf("token file is empty. Restart the server with: splithub serve")
	}

	if tokenQuiet {
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Events API token: %s\n", token)
	fmt.Fprintln(cmd.OutOrStdout(), "Use it as ?token=... or an Authorization: Bearer header on /api/events.")
	return nil
}
