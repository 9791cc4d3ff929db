package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/butter/pkg/dialect"
)

// Drivers lists the accepted introspection drivers.
var Drivers = []string{"sqlite", "pgx", "mysql"}

// Output modes accepted by the output setting.
var outputModes = []string{"auto", "text", "markdown", "json", "yaml"}

// Validate checks if the configuration is usable.
// Dialect names are checked against the dialect registry, so the caller must
// have registered the built-in dialects (pkg/dialects/all).
func (c *Config) Validate() error {
	if _, err := dialect.Lookup(c.Generate.Dialect); err != nil {
		if errors.Is(err, dialect.ErrDialectRequired) {
			return fmt.Errorf("%w: generate.dialect is required", ErrInvalidConfig)
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Generate.QueriesDir == "" {
		return fmt.Errorf("%w: generate.queries_dir is required", ErrInvalidConfig)
	}
	if c.Generate.SchemaFile == "" && !c.Introspect.Enabled() {
		return fmt.Errorf("%w: generate.schema_file or introspect.url is required", ErrInvalidConfig)
	}
	if c.Introspect.Enabled() && !contains(Drivers, c.Introspect.Driver) {
		return fmt.Errorf("%w: unknown introspect driver %q (available: %s)",
			ErrInvalidConfig, c.Introspect.Driver, strings.Join(Drivers, ", "))
	}
	if c.Output != "" && !contains(outputModes, c.Output) {
		return fmt.Errorf("%w: unknown output %q (available: %s)",
			ErrInvalidConfig, c.Output, strings.Join(outputModes, ", "))
	}
	if c.Jobs < 1 {
		return fmt.Errorf("%w: jobs must be at least 1, got %d", ErrInvalidConfig, c.Jobs)
	}
	return nil
}

// Dialect returns the configured dialect.
func (c *Config) Dialect() (*dialect.Dialect, error) {
	return dialect.Lookup(c.Generate.Dialect)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
