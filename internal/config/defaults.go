package config

// File names searched for in the project root, in order.
const (
	ConfigFileName     = "butter.yaml"
	ConfigFileNameAlt  = "butter.yml"
	ConfigFileNameTOML = "butter.toml"
)

// Default configuration values.
const (
	DefaultDialect    = "generic"
	DefaultQueriesDir = "queries"
	DefaultSchemaFile = "schema.sql"
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultJobs       = 1
	DefaultServeAddr  = ":8765"
)

// Defaults returns the lowest configuration layer as koanf keys.
func Defaults() map[string]any {
	return map[string]any{
		"generate.dialect":     DefaultDialect,
		"generate.queries_dir": DefaultQueriesDir,
		"generate.schema_file": DefaultSchemaFile,
		"output":               DefaultOutput,
		"verbose":              false,
		"jobs":                 DefaultJobs,
		"serve.addr":           DefaultServeAddr,
	}
}

// Default returns a Config holding only default values, rooted at dir.
func Default(dir string) *Config {
	return &Config{
		Generate: GenerateConfig{
			Dialect:    DefaultDialect,
			QueriesDir: resolvePath(DefaultQueriesDir, dir),
			SchemaFile: resolvePath(DefaultSchemaFile, dir),
		},
		Serve:       ServeConfig{Addr: DefaultServeAddr},
		Output:      DefaultOutput,
		Jobs:        DefaultJobs,
		ProjectRoot: dir,
	}
}

// Starter is the project file written by "butter init".
const Starter = `# butter project configuration
generate:
  dialect: generic        # generic | sqlite | postgresql | mysql
  queries_dir: queries
  schema_file: schema.sql

# Read the schema from a database instead of schema_file.
# introspect:
#   driver: pgx           # sqlite | pgx | mysql
#   url: ${DATABASE_URL}

output: auto              # auto | text | markdown | json | yaml
jobs: 1

serve:
  addr: ":8765"
`
