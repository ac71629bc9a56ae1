package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/splithub/splithub/internal/analytics"
	"github.com/splithub/splithub/internal/assigner"
	"github.com/splithub/splithub/internal/store"
)

func init() {
	rootCmd.AddCommand(newAssignCmd())
}

func newAssignCmd() *cobra.Command {
	var (
		visitor string
		cookies []string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "assign <url>",
		Short: "Run the configured tests for one page view",
		Long: `Run every configured test against a page URL for one visitor and print
the outcome: the variant of each matching test, the redirect target (if any)
and the edits signalled to the page.

Local-storage assignments are read from and written to the database for the
given visitor. Cookie-storage tests read the --cookie values instead.

Examples:
  splithub assign https://example.com/ --visitor 5f0c...
  splithub assign https://example.com/pricing --cookie abTest_cta=green
  splithub assign https://example.com/ --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pg, err := newCLIPage(args[0])
			if err != nil {
				return err
			}

			jar, err := parseCookieFlags(cookies)
			if err != nil {
				return err
			}

			tests, err := assigner.LoadFile(configPath, logger)
			if err != nil {
				return fmt.Errorf("failed to load tests from %s: %w", configPath, err)
			}

			if visitor == "" {
				visitor = uuid.NewString()
			}

			if dryRun {
				return runAssign(cmd.OutOrStdout(), tests, pg, jar, visitor, store.NewMemoryKV(), nil)
			}
			return withStore(func(s *store.SQLiteStore) error {
				sink := analytics.NewEventSink(context.Background(), s, visitor, logger)
				return runAssign(cmd.OutOrStdout(), tests, pg, jar, visitor, store.NewVisitorKV(s, visitor), sink)
			})
		},
	}

	cmd.Flags().StringVar(&visitor, "visitor", "", "visitor id (a new one is generated if empty)")
	cmd.Flags().StringArrayVar(&cookies, "cookie", nil, "cookie the visitor already has, as name=value (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "do not read or write the database")

	return cmd
}

func runAssign(out io.Writer, tests []assigner.TestDefinition, pg *cliPage, jar *cliCookies, visitor string, local assigner.KeyValueStore, sink assigner.AnalyticsSink) error {
	bus := assigner.NewBus()
	var edits []assigner.EditsTriggered
	bus.Subscribe(assigner.EditsTriggeredEvent, func(e assigner.EditsTriggered) {
		edits = append(edits, e)
	})

	env := assigner.Env{
		Cookies:   jar,
		Local:     local,
		Page:      pg,
		Analytics: sink,
		Bus:       bus,
	}

	a := assigner.New(tests, env, assigner.WithLogger(logger))
	a.RunTestsForPage(context.Background())

	fmt.Fprintf(out, "VISITOR: %s\n", visitor)
	fmt.Fprintf(out, "PAGE: %s\n", pg.URL())
	fmt.Fprintln(out)

	if len(edits) == 0 && pg.redirect == "" {
		fmt.Fprintln(out, "No tests applied to this page.")
	}
	for _, e := range edits {
		fmt.Fprintf(out, "EDIT %s -> %s (%q)\n", e.TestID, e.Variant.Name, e.Variant.Value)
	}
	if pg.redirect != "" {
		fmt.Fprintf(out, "REDIRECT -> %s\n", pg.redirect)
	}

	names := make([]string, 0, len(jar.set))
	for name := range jar.set {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "SET-COOKIE %s=%s (%d days)\n", name, jar.set[name], jar.days[name])
	}

	return nil
}

type cliPage struct {
	u        *url.URL
	redirect string
}

func newCLIPage(raw string) (*cliPage, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q: must be an absolute http(s) url", raw)
	}
	return &cliPage{u: u}, nil
}

func (p *cliPage) Path() string {
	if p.u.Path == "" {
		return "/"
	}
	return p.u.Path
}

func (p *cliPage) Origin() string         { return p.u.Scheme + "://" + p.u.Host }
func (p *cliPage) URL() string            { return p.u.String() }
func (p *cliPage) Navigate(target string) { p.redirect = target }

type cliCookies struct {
	values map[string]string
	set    map[string]string
	days   map[string]int
}

func parseCookieFlags(flags []string) (*cliCookies, error) {
	jar := &cliCookies{
		values: make(map[string]string),
		set:    make(map[string]string),
		days:   make(map[string]int),
	}
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --cookie %q: expected name=value", f)
		}
		jar.values[name] = value
	}
	return jar, nil
}

func (c *cliCookies) Get(name string) (string, bool) {
	v, ok := c.values[name]
	return v, ok
}

func (c *cliCookies) Set(name, value string, days int) {
	c.values[name] = value
	c.set[name] = value
	c.days[name] = days
}
