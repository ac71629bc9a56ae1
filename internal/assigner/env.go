package assigner

import (
	"context"
	"math/rand/v2"
)

// CookieJar is the cookie backend. Cookies set through it are site-wide.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(name, value string, days int)
}

// KeyValueStore is the default backend. Values never expire.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Page is the page view being processed.
type Page interface {
	Path() string
	Origin() string
	URL() string
	Navigate(url string)
}

// AnalyticsSink receives assignment events. Implementations must not block
// or panic.
type AnalyticsSink interface {
	Report(category, action, label string)
}

// Broadcaster delivers named signals to listeners without waiting for them.
type Broadcaster interface {
	Broadcast(name string, payload EditsTriggered)
}

// RandomSource picks an index in [0, n).
type RandomSource interface {
	UniformIndex(n int) int
}

// Observer is notified about assignment outcomes. All methods are optional
// side channels and must not block.
type Observer interface {
	Assigned(testID, variant string, fresh bool)
	Dispatched(testID string, kind Type)
	Failed(testID string, err error)
}

// Env is the set of collaborators one Assigner works against. Analytics,
// Bus and Rand may be nil. Observers are attached with WithObserver.
type Env struct {
	Cookies   CookieJar
	Local     KeyValueStore
	Page      Page
	Analytics AnalyticsSink
	Bus       Broadcaster
	Rand      RandomSource
}

type mathRand struct{}

func (mathRand) UniformIndex(n int) int {
	return rand.IntN(n)
}

// DefaultRandom returns the randomly seeded process-wide source.
func DefaultRandom() RandomSource {
	return mathRand{}
}

type nopObserver struct{}

func (nopObserver) Assigned(string, string, bool) {}
func (nopObserver) Dispatched(string, Type)       {}
func (nopObserver) Failed(string, error)          {}
