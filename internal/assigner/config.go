package assigner

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseConfig decodes a YAML or JSON list of test definitions. The document
// must be a sequence; entries that fail to decode are logged and skipped.
func ParseConfig(data []byte, logger *slog.Logger) ([]TestDefinition, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigurationError{Reason: err.Error()}
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.SequenceNode {
		return nil, &ConfigurationError{Reason: "configuration must be a list of tests"}
	}

	tests := make([]TestDefinition, 0, len(root.Content))
	for i, node := range root.Content {
		var t TestDefinition
		if err := node.Decode(&t); err != nil {
			logger.Warn("skipping malformed test definition", "index", i, "line", node.Line, "error", err)
			continue
		}
		tests = append(tests, t)
	}
	return tests, nil
}

// LoadFile reads and parses a test definition file.
func LoadFile(path string, logger *slog.Logger) ([]TestDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data, logger)
}
