package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/splithub/splithub/internal/assigner"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured tests",
	Long:  `List the tests defined in the config file with their type, storage and page filter.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	tests, err := assigner.LoadFile(configPath, logger)
	if err != nil {
		return fmt.Errorf("failed to load tests from %s: %w", configPath, err)
	}

	out := cmd.OutOrStdout()
	if len(tests) == 0 {
		fmt.Fprintln(out, "No tests configured.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Create a starter config with: splithub init")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTYPE\tSTORAGE\tVARIANTS\tPAGES\tEVENT")

	for _, test := range tests {
		event := "-"
		if test.SendEvent {
			event = test.EventName()
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			test.ID,
			strings.ToUpper(string(test.Status)),
			test.Type,
			storageLabel(test),
			len(test.Variants),
			pageFilter(test),
			event,
		)
	}

	return w.Flush()
}

func storageLabel(test assigner.TestDefinition) string {
	if test.Storage == assigner.StorageCookie {
		days := test.CookieExpiration
		if days <= 0 {
			days = assigner.DefaultCookieExpiration
		}
		return fmt.Sprintf("cookie (%dd)", days)
	}
	return string(assigner.StorageLocal)
}

func pageFilter(test assigner.TestDefinition) string {
	if len(test.Pages) > 0 {
		return strings.Join(test.Pages, ",")
	}
	if test.Path != "" {
		return test.Path
	}
	return "*"
}
