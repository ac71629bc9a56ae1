package assigner_test

import (
	"context"
	"errors"

	"github.com/splithub/splithub/internal/assigner"
)

type cookieSet struct {
	value string
	days  int
}

type fakeCookies struct {
	values map[string]string
	sets   map[string]cookieSet
}

func newFakeCookies() *fakeCookies {
	return &fakeCookies{values: map[string]string{}, sets: map[string]cookieSet{}}
}

func (c *fakeCookies) Get(name string) (string, bool) {
	v, ok := c.values[name]
	return v, ok
}

func (c *fakeCookies) Set(name, value string, days int) {
	c.values[name] = value
	c.sets[name] = cookieSet{value: value, days: days}
}

type fakeKV struct {
	values  map[string]string
	writes  int
	readErr error
	setErr  error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string]string{}}
}

func (s *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	if s.readErr != nil {
		return "", false, s.readErr
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *fakeKV) Set(_ context.Context, key, value string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.writes++
	s.values[key] = value
	return nil
}

type fakePage struct {
	path, origin, url string
	navigations       []string
}

func newFakePage(origin, path string) *fakePage {
	return &fakePage{path: path, origin: origin, url: origin + path}
}

func (p *fakePage) Path() string   { return p.path }
func (p *fakePage) Origin() string { return p.origin }
func (p *fakePage) URL() string    { return p.url }
func (p *fakePage) Navigate(u string) {
	p.navigations = append(p.navigations, u)
}

type reportedEvent struct {
	category, action, label string
}

type fakeSink struct {
	events []reportedEvent
}

func (s *fakeSink) Report(category, action, label string) {
	s.events = append(s.events, reportedEvent{category, action, label})
}

type fixedRand struct {
	index int
	calls int
}

func (r *fixedRand) UniformIndex(n int) int {
	r.calls++
	return r.index % n
}

type recordingObserver struct {
	assigned   []string
	dispatched []assigner.Type
	failed     []string
}

func (o *recordingObserver) Assigned(testID, variant string, fresh bool) {
	o.assigned = append(o.assigned, testID+"="+variant)
}

func (o *recordingObserver) Dispatched(testID string, kind assigner.Type) {
	o.dispatched = append(o.dispatched, kind)
}

func (o *recordingObserver) Failed(testID string, err error) {
	o.failed = append(o.failed, testID)
}

type panickingSink struct{}

func (panickingSink) Report(string, string, string) {
	panic(errors.New("sink exploded"))
}

type harness struct {
	cookies *fakeCookies
	local   *fakeKV
	page    *fakePage
	sink    *fakeSink
	bus     *assigner.Bus
	rand    *fixedRand
	signals []assigner.EditsTriggered
}

func newHarness(path string) *harness {
	h := &harness{
		cookies: newFakeCookies(),
		local:   newFakeKV(),
		page:    newFakePage("https://shop.example.com", path),
		sink:    &fakeSink{},
		bus:     assigner.NewBus(),
		rand:    &fixedRand{},
	}
	h.bus.Subscribe(assigner.EditsTriggeredEvent, func(e assigner.EditsTriggered) {
		h.signals = append(h.signals, e)
	})
	return h
}

func (h *harness) env() assigner.Env {
	return assigner.Env{
		Cookies:   h.cookies,
		Local:     h.local,
		Page:      h.page,
		Analytics: h.sink,
		Bus:       h.bus,
		Rand:      h.rand,
	}
}

func (h *harness) assigner(config []assigner.TestDefinition, opts ...assigner.Option) *assigner.Assigner {
	return assigner.New(config, h.env(), opts...)
}

func twoVariants() []assigner.Variant {
	return []assigner.Variant{
		{Name: "control", Value: "/landing"},
		{Name: "treatment", Value: "/landing-b"},
	}
}
