// Package config loads butter project configuration.
//
// Values are layered with koanf, highest priority last:
// defaults, the butter.yaml project file, BUTTER_* environment variables,
// and explicitly set command-line flags.
package config

import "errors"

// ErrInvalidConfig is returned by Validate for unusable settings.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all project configuration.
type Config struct {
	Generate   GenerateConfig   `koanf:"generate"`
	Introspect IntrospectConfig `koanf:"introspect"`
	Serve      ServeConfig      `koanf:"serve"`
	Output     string           `koanf:"output"`
	Verbose    bool             `koanf:"verbose"`
	Jobs       int              `koanf:"jobs"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
	// File is the project file that was loaded, if any.
	File string `koanf:"-"`
}

// GenerateConfig selects the dialect and the inputs to analyze.
type GenerateConfig struct {
	Dialect    string `koanf:"dialect"`
	QueriesDir string `koanf:"queries_dir"`
	SchemaFile string `koanf:"schema_file"`
}

// IntrospectConfig reads the schema from a live database instead of
// SchemaFile when URL is set.
type IntrospectConfig struct {
	Driver string `koanf:"driver"` // sqlite, pgx, mysql
	URL    string `koanf:"url"`
}

// Enabled reports whether a database is configured as the schema source.
func (c IntrospectConfig) Enabled() bool {
	return c.URL != ""
}

// ServeConfig configures the HTTP API.
type ServeConfig struct {
	Addr string `koanf:"addr"`
}
