package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath     string
	configPath string
	verbose    bool
	logger     = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "splithub",
	Short: "Splithub - self-hosted A/B test assignment for websites",
	Long: `Splithub assigns visitors to test variants and either redirects them or
signals in-page edits. Assignments persist across visits via cookies or the
embedded SQLite store.

Running without a subcommand starts the server (same as 'splithub serve').`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = newLogger(verbose)
		slog.SetDefault(logger)
	},
	RunE: runServe, // Default action is to start server
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", getEnvOrDefault("SPLITHUB_DB_PATH", "./splithub.db"), "database path")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", getEnvOrDefault("SPLITHUB_CONFIG", "./splithub.yaml"), "test definitions file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
