package assigner

// Status controls whether a test runs at all.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Type selects how a resolved variant is applied to the page.
type Type string

const (
	TypeRedirect Type = "redirect"
	TypeEdits    Type = "edits"
)

// Storage selects the backend an assignment is persisted to.
type Storage string

const (
	StorageCookie Storage = "cookie"
	StorageLocal  Storage = "local"
)

const (
	// DefaultCookieExpiration is used when a cookie-backed test has no
	// positive expiration.
	DefaultCookieExpiration = 7

	// EventCategory is the analytics category of every assignment event.
	EventCategory = "ABTest"

	// EditsTriggeredEvent is broadcast once per edits test per run.
	EditsTriggeredEvent = "abTestEditsTriggered"

	storageKeyPrefix = "abTest_"
)

type Variant struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

type TestDefinition struct {
	ID               string    `yaml:"id" json:"id"`
	Status           Status    `yaml:"status" json:"status"`
	Type             Type      `yaml:"type" json:"type"`
	Variants         []Variant `yaml:"variants" json:"variants"`
	Storage          Storage   `yaml:"storage,omitempty" json:"storage,omitempty"`
	CookieExpiration int       `yaml:"cookieExpiration,omitempty" json:"cookieExpiration,omitempty"`
	Path             string    `yaml:"path,omitempty" json:"path,omitempty"`
	Pages            []string  `yaml:"pages,omitempty" json:"pages,omitempty"`
	SendEvent        bool      `yaml:"sendEvent,omitempty" json:"sendEvent,omitempty"`
	GAEventName      string    `yaml:"gaEventName,omitempty" json:"gaEventName,omitempty"`
}

// StorageKey is the namespaced key the assignment is stored under.
func (t TestDefinition) StorageKey() string {
	return storageKeyPrefix + t.ID
}

// EventName is the analytics action for the test.
func (t TestDefinition) EventName() string {
	if t.GAEventName != "" {
		return t.GAEventName
	}
	return t.ID
}

func (t TestDefinition) usesCookie() bool {
	return t.Storage == StorageCookie
}

func (t TestDefinition) cookieDays() int {
	if t.CookieExpiration <= 0 {
		return DefaultCookieExpiration
	}
	return t.CookieExpiration
}

func (t TestDefinition) variantNamed(name string) (Variant, bool) {
	for _, v := range t.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// EditsTriggered is the payload of the edits-triggered signal.
type EditsTriggered struct {
	TestID  string  `json:"testId"`
	Variant Variant `json:"variant"`
}
