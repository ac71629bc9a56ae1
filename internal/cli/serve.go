package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/splithub/splithub/internal/config"
	"github.com/splithub/splithub/internal/server"
	"github.com/splithub/splithub/internal/store"
)

var (
	port     int
	upstream string
	watch    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the splithub HTTP server.

The server provides:
  - Client script at /ab.js
  - Assignment endpoint at /api/assign
  - Analytics export at /api/events (token protected)
  - Prometheus metrics at /metrics

With --upstream, every other path is proxied to your site with tests
applied in front of it.

Example:
  splithub serve --port 8080
  splithub serve --upstream http://localhost:3000 --watch`,
	RunE: runServe,
}

func init() {
	defaultPort := 8080
	if p := os.Getenv("SPLITHUB_PORT"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			defaultPort = parsed
		}
	}

	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().IntVarP(&port, "port", "p", defaultPort, "port to listen on")
		cmd.Flags().StringVar(&upstream, "upstream", "", "proxy pages to this site with tests applied (optional)")
		cmd.Flags().BoolVar(&watch, "watch", false, "reload test definitions when the config file changes")
	}
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	tests, err := config.Load(configPath, logger)
	if err != nil {
		return fmt.Errorf("failed to load tests from %s: %w", configPath, err)
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	srv := server.New(s, tests, port, getTokenFilePath(), logger)

	if upstream != "" {
		target, err := url.Parse(upstream)
		if err != nil || target.Host == "" {
			return fmt.Errorf("invalid --upstream %q", upstream)
		}
		srv.Proxy(target)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watch {
		go func() {
			if err := tests.Watch(ctx); err != nil {
				logger.Error("config watcher stopped", "error", err)
			}
		}()
	}

	fmt.Println()
	fmt.Printf("splithub running on http://localhost:%d\n", port)
	fmt.Printf("Script: <script src=\"http://localhost:%d/ab.js\" defer></script>\n", port)
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop")

	return srv.Start(ctx)
}

// getTokenFilePath returns the path to the token file
func getTokenFilePath() string {
	// Store token file alongside the database
	return filepath.Join(filepath.Dir(dbPath), ".splithub-token")
}
