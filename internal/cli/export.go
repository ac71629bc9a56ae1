package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/splithub/splithub/internal/store"
)

var (
	exportFormat string
	exportAction string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded analytics events",
	Long: `Export the assignment events recorded for tests with sendEvent enabled.

Examples:
  splithub export --format csv > events.csv
  splithub export --action landing_split --format json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv or json)")
	exportCmd.Flags().StringVarP(&exportAction, "action", "a", "", "only events with this action (test id or gaEventName)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("invalid format: must be 'csv' or 'json'")
	}

	return withStore(func(s *store.SQLiteStore) error {
		events, err := s.GetEvents(context.Background(), exportAction)
		if err != nil {
			return fmt.Errorf("failed to get events: %w", err)
		}

		if exportFormat == "csv" {
			return exportCSV(cmd.OutOrStdout(), events)
		}
		return exportJSON(cmd.OutOrStdout(), events)
	})
}

func exportCSV(out io.Writer, events []*store.Event) error {
	w := csv.NewWriter(out)

	if err := w.Write([]string{"id", "timestamp", "category", "action", "label", "visitor_id"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, e := range events {
		row := []string{
			e.ID,
			strconv.FormatInt(e.CreatedAt.Unix(), 10),
			e.Category,
			e.Action,
			e.Label,
			e.VisitorID,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

type jsonExport struct {
	Events []jsonEvent `json:"events"`
}

type jsonEvent struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Category  string `json:"category"`
	Action    string `json:"action"`
	Label     string `json:"label"`
	VisitorID string `json:"visitor_id"`
}

func exportJSON(out io.Writer, events []*store.Event) error {
	export := jsonExport{
		Events: make([]jsonEvent, len(events)),
	}

	for i, e := range events {
		export.Events[i] = jsonEvent{
			ID:        e.ID,
			Timestamp: e.CreatedAt.Unix(),
			Category:  e.Category,
			Action:    e.Action,
			Label:     e.Label,
			VisitorID: e.VisitorID,
		}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}
