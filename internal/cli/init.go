package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/splithub/splithub/internal/assigner"
	"github.com/splithub/splithub/internal/snippets"
)

var initServerURL string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter test file and show integration instructions",
	Long: `Interactively create a starter test definitions file and print the
snippet that wires your site to the assignment script.

An existing test file is never overwritten.

Example:
  splithub init
  splithub init --config ./tests.yaml --server-url https://ab.example.com`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initServerURL, "server-url", "", "public URL of the splithub server (prompted if empty)")
	rootCmd.AddCommand(initCmd)
}

var testIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type starterOptions struct {
	TestID    string
	Type      assigner.Type
	Storage   assigner.Storage
	Framework snippets.Framework
	ServerURL string
}

func runInit(cmd *cobra.Command, args []string) error {
	opts, err := promptStarterOptions()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return nil
		}
		return err
	}

	out := cmd.OutOrStdout()

	if err := writeStarterConfig(configPath, opts); err != nil {
		if !errors.Is(err, os.ErrExist) {
			return err
		}
		fmt.Fprintf(out, "%s already exists, leaving it untouched.\n", configPath)
	} else {
		fmt.Fprintf(out, "Wrote starter test %q to %s\n", opts.TestID, configPath)
	}

	return printInstructions(out, opts)
}

func promptStarterOptions() (starterOptions, error) {
	var opts starterOptions

	labels := make([]string, len(snippets.Frameworks))
	for i, fw := range snippets.Frameworks {
		labels[i] = fw.Label()
	}
	idx, _, err := (&promptui.Select{Label: "Your framework", Items: labels, Size: len(labels)}).Run()
	if err != nil {
		return opts, err
	}
	opts.Framework = frameworkFromIndex(idx)

	idx, _, err = (&promptui.Select{
		Label: "Test type",
		Items: []string{"edits (change content in place)", "redirect (send visitors to another URL)"},
	}).Run()
	if err != nil {
		return opts, err
	}
	opts.Type = assigner.TypeEdits
	if idx == 1 {
		opts.Type = assigner.TypeRedirect
	}

	idx, _, err = (&promptui.Select{
		Label: "Remember assignments in",
		Items: []string{"cookie", "local storage (server side, per visitor)"},
	}).Run()
	if err != nil {
		return opts, err
	}
	opts.Storage = assigner.StorageCookie
	if idx == 1 {
		opts.Storage = assigner.StorageLocal
	}

	opts.TestID, err = (&promptui.Prompt{
		Label:   "Test id",
		Default: "hero",
		Validate: func(s string) error {
			if !testIDPattern.MatchString(s) {
				return errors.New("use letters, digits, '-' or '_'")
			}
			return nil
		},
	}).Run()
	if err != nil {
		return opts, err
	}

	opts.ServerURL = initServerURL
	if opts.ServerURL == "" {
		opts.ServerURL, err = (&promptui.Prompt{
			Label:   "Public server URL",
			Default: "http://localhost:8080",
			Validate: func(s string) error {
				if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
					return errors.New("must start with http:// or https://")
				}
				return nil
			},
		}).Run()
		if err != nil {
			return opts, err
		}
	}

	return opts, nil
}

func frameworkFromIndex(idx int) snippets.Framework {
	if idx < 0 || idx >= len(snippets.Frameworks) {
		return snippets.FrameworkOther
	}
	return snippets.Frameworks[idx]
}

// renderStarterConfig returns a YAML test file with one two-variant test.
func renderStarterConfig(opts starterOptions) ([]byte, error) {
	test := assigner.TestDefinition{
		ID:      opts.TestID,
		Status:  assigner.StatusActive,
		Type:    opts.Type,
		Storage: opts.Storage,
		Path:    "/",
	}
	if opts.Storage == assigner.StorageCookie {
		test.CookieExpiration = assigner.DefaultCookieExpiration
	}

	switch opts.Type {
	case assigner.TypeRedirect:
		test.Variants = []assigner.Variant{
			{Name: "control", Value: "/"},
			{Name: "new", Value: "/new"},
		}
	default:
		test.Variants = []assigner.Variant{
			{Name: "control", Value: "Ship Faster"},
			{Name: "challenger", Value: "Build Better"},
		}
		test.SendEvent = true
	}

	body, err := yaml.Marshal([]assigner.TestDefinition{test})
	if err != nil {
		return nil, fmt.Errorf("failed to render starter config: %w", err)
	}
	return append([]byte("# splithub test definitions\n"), body...), nil
}

func writeStarterConfig(path string, opts starterOptions) error {
	body, err := renderStarterConfig(opts)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(body); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func printInstructions(out io.Writer, opts starterOptions) error {
	files, err := snippets.Generate(opts.Framework, snippets.Config{
		ServerURL: opts.ServerURL,
		TestID:    opts.TestID,
		Event:     assigner.EditsTriggeredEvent,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("-", 60))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "1. Start the server")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "   splithub serve --config %s\n", configPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "2. Add these snippets to your site")
	for _, f := range files {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "   // %s\n", f.Filename)
		for _, line := range strings.Split(strings.TrimRight(f.Content, "\n"), "\n") {
			fmt.Fprintf(out, "   %s\n", line)
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("-", 60))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  list             List configured tests")
	fmt.Fprintln(out, "  assign <url>     Preview assignments for a page")
	fmt.Fprintln(out, "  export           Export assignment events")
	fmt.Fprintln(out, "  token            Show the API token")
	return nil
}
