package assigner

import "fmt"

// ConfigurationError is returned when a configuration is not a sequence of
// test definitions.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + e.Reason
}

// InvalidTestError is returned when a test definition cannot be resolved to a
// variant.
type InvalidTestError struct {
	TestID string
	Reason string
}

func (e *InvalidTestError) Error() string {
	return fmt.Sprintf("invalid test %q: %s", e.TestID, e.Reason)
}
