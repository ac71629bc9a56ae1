// Package assigner assigns visitors to A/B test variants and dispatches the
// variant's effect for one page view.
//
// An Assigner is not safe for concurrent use. Create one per page view; the
// results map lives as long as the Assigner and is only cleared by creating a
// new one.
package assigner

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
)

var absoluteURL = regexp.MustCompile(`(?i)^https?://`)

type Assigner struct {
	config   []TestDefinition
	results  map[string]Variant
	env      Env
	logger   *slog.Logger
	observer Observer
}

type Option func(*Assigner)

func WithLogger(l *slog.Logger) Option {
	return func(a *Assigner) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(a *Assigner) {
		if o != nil {
			a.observer = o
		}
	}
}

// New creates an Assigner. A nil config is treated as empty.
func New(config []TestDefinition, env Env, opts ...Option) *Assigner {
	if env.Rand == nil {
		env.Rand = DefaultRandom()
	}
	if config == nil {
		config = []TestDefinition{}
	}

	a := &Assigner{
		config:   config,
		results:  make(map[string]Variant),
		env:      env,
		logger:   slog.Default(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetConfig replaces the test list.
func (a *Assigner) SetConfig(config []TestDefinition) error {
	if config == nil {
		return &ConfigurationError{Reason: "configuration must be a list of tests"}
	}
	a.config = config
	return nil
}

func (a *Assigner) Config() []TestDefinition {
	return a.config
}

// Results returns a copy of the variants assigned to edits tests so far.
func (a *Assigner) Results() map[string]Variant {
	out := make(map[string]Variant, len(a.results))
	for id, v := range a.results {
		out[id] = v
	}
	return out
}

func (a *Assigner) Result(testID string) (Variant, bool) {
	v, ok := a.results[testID]
	return v, ok
}

// ResolveVariant returns the stored variant for the test, or picks one at
// random and stores it.
func (a *Assigner) ResolveVariant(ctx context.Context, test TestDefinition) (Variant, error) {
	if len(test.Variants) == 0 {
		return Variant{}, &InvalidTestError{TestID: test.ID, Reason: "no variants"}
	}

	key := test.StorageKey()
	if name, ok := a.stored(ctx, test, key); ok {
		if v, found := test.variantNamed(name); found {
			a.observer.Assigned(test.ID, v.Name, false)
			return v, nil
		}
		a.logger.Debug("discarding stale assignment", "test", test.ID, "variant", name)
	}

	v := test.Variants[a.env.Rand.UniformIndex(len(test.Variants))]
	a.persist(ctx, test, key, v.Name)
	a.observer.Assigned(test.ID, v.Name, true)
	return v, nil
}

func (a *Assigner) stored(ctx context.Context, test TestDefinition, key string) (string, bool) {
	if test.usesCookie() {
		if a.env.Cookies == nil {
			return "", false
		}
		name, ok := a.env.Cookies.Get(key)
		return name, ok && name != ""
	}

	if a.env.Local == nil {
		return "", false
	}
	name, ok, err := a.env.Local.Get(ctx, key)
	if err != nil {
		a.logger.Warn("failed to read assignment", "test", test.ID, "error", err)
		return "", false
	}
	return name, ok && name != ""
}

func (a *Assigner) persist(ctx context.Context, test TestDefinition, key, name string) {
	if test.usesCookie() {
		if a.env.Cookies != nil {
			a.env.Cookies.Set(key, name, test.cookieDays())
		}
		return
	}

	if a.env.Local == nil {
		return
	}
	if err := a.env.Local.Set(ctx, key, name); err != nil {
		a.logger.Warn("failed to store assignment", "test", test.ID, "error", err)
	}
}

// MatchesPage reports whether the test applies to path. A present Pages
// list, even an empty one, takes precedence over Path; a test with neither
// matches every page.
func MatchesPage(test TestDefinition, path string) bool {
	if test.Pages != nil {
		for _, p := range test.Pages {
			if p == path {
				return true
			}
		}
		return false
	}
	if test.Path != "" {
		return test.Path == path
	}
	return true
}

// ProcessTest runs one test against the current page.
func (a *Assigner) ProcessTest(ctx context.Context, test TestDefinition) error {
	if test.Status != StatusActive {
		return nil
	}
	if a.env.Page == nil || !MatchesPage(test, a.env.Page.Path()) {
		return nil
	}

	variant, err := a.ResolveVariant(ctx, test)
	if err != nil {
		return err
	}

	if test.SendEvent {
		a.report(test.EventName(), variant.Name)
	}

	switch test.Type {
	case TypeRedirect:
		target := variant.Value
		if !absoluteURL.MatchString(target) {
			target = a.env.Page.Origin() + target
		}
		if target != a.env.Page.URL() {
			a.env.Page.Navigate(target)
		}
	case TypeEdits:
		a.results[test.ID] = variant
		if a.env.Bus != nil {
			a.env.Bus.Broadcast(EditsTriggeredEvent, EditsTriggered{TestID: test.ID, Variant: variant})
		}
	default:
		return nil
	}

	a.observer.Dispatched(test.ID, test.Type)
	return nil
}

func (a *Assigner) report(action, label string) {
	if a.env.Analytics == nil {
		a.logger.Info("analytics event dropped", "category", EventCategory, "action", action, "label", label)
		return
	}
	a.env.Analytics.Report(EventCategory, action, label)
}

// RunTestsForPage processes every configured test in order. A failing test
// is logged and does not stop the others.
func (a *Assigner) RunTestsForPage(ctx context.Context) {
	for _, test := range a.config {
		if err := a.processIsolated(ctx, test); err != nil {
			a.logger.Error("test failed", "test", test.ID, "error", err)
			a.observer.Failed(test.ID, err)
		}
	}
}

func (a *Assigner) processIsolated(ctx context.Context, test TestDefinition) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing test: %v", r)
		}
	}()
	return a.ProcessTest(ctx, test)
}
