// Package output renders command results for terminals, pipes and tools.
//
// Output adapts to the environment: styled text on a terminal, markdown when
// piped, and JSON or YAML when asked for explicitly.
package output

import (
	"fmt"
	"strings"
)

// Mode selects how results are rendered.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
	ModeYAML     Mode = "yaml"
)

// Modes lists the accepted mode names.
var Modes = []Mode{ModeAuto, ModeText, ModeMarkdown, ModeJSON, ModeYAML}

// ParseMode converts a flag or config value to a Mode. Empty means auto;
// "md" and "yml" are accepted as short forms.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "text":
		return ModeText, nil
	case "markdown", "md":
		return ModeMarkdown, nil
	case "json":
		return ModeJSON, nil
	case "yaml", "yml":
		return ModeYAML, nil
	}
	return "", fmt.Errorf("unknown output mode %q", s)
}

// Structured reports whether the mode is a machine-readable encoding.
func (m Mode) Structured() bool {
	return m == ModeJSON || m == ModeYAML
}
