package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "BUTTER_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// envKeys maps environment variables (without prefix) to config keys.
// Variables not listed here are ignored.
var envKeys = map[string]string{
	"DIALECT":         "generate.dialect",
	"QUERIES_DIR":     "generate.queries_dir",
	"SCHEMA_FILE":     "generate.schema_file",
	"DATABASE_DRIVER": "introspect.driver",
	"DATABASE_URL":    "introspect.url",
	"OUTPUT":          "output",
	"VERBOSE":         "verbose",
	"JOBS":            "jobs",
	"SERVE_ADDR":      "serve.addr",
}

// flagKeys maps persistent flag names to config keys. Flags not listed here
// (--config, --project-dir) steer loading and are not config values.
var flagKeys = map[string]string{
	"dialect":     "generate.dialect",
	"queries-dir": "generate.queries_dir",
	"schema-file": "generate.schema_file",
	"output":      "output",
	"verbose":     "verbose",
	"jobs":        "jobs",
}

// pathFlags are flags whose values are paths relative to the working
// directory rather than to the project root.
var pathFlags = []string{"queries-dir", "schema-file"}

// findConfigFile returns the project file in dir, or "".
func findConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt, ConfigFileNameTOML} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// FindProjectRoot searches upward from startDir for a directory containing
// a project file. Returns "" if none is found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if findConfigFile(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root.
// Priority:
//  1. Explicit --project-dir flag
//  2. Directory of an explicit --config file
//  3. Search upward from CWD for butter.yaml
//  4. Current working directory
func inferProjectRoot(cfgFile string, flags *pflag.FlagSet) string {
	if flags != nil && flags.Lookup("project-dir") != nil && flags.Changed("project-dir") {
		if dir, _ := flags.GetString("project-dir"); dir != "" {
			return absPath(dir)
		}
	}

	if cfgFile != "" {
		return filepath.Dir(absPath(cfgFile))
	}

	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := FindProjectRoot(cwd); root != "" {
		return root
	}
	return cwd
}

// Load builds the configuration from defaults, the project file,
// environment variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	root := inferProjectRoot(cfgFile, flags)

	// 1. Defaults
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Project file
	if cfgFile == "" {
		cfgFile = findConfigFile(root)
	}
	if cfgFile != "" {
		if err := loadFile(k, cfgFile); err != nil {
			return nil, err
		}
	}

	// 3. Environment: BUTTER_QUERIES_DIR -> generate.queries_dir
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return envKeys[strings.TrimPrefix(s, EnvPrefix)]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = root
	if cfgFile != "" {
		cfg.File = absPath(cfgFile)
	}

	cfg.Generate.QueriesDir = resolvePath(cfg.Generate.QueriesDir, root)
	cfg.Generate.SchemaFile = resolvePath(cfg.Generate.SchemaFile, root)
	// Path flags are relative to where the command ran.
	for _, name := range pathFlags {
		if flags == nil || flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		v, _ := flags.GetString(name)
		if v == "" {
			continue
		}
		switch name {
		case "queries-dir":
			cfg.Generate.QueriesDir = absPath(v)
		case "schema-file":
			cfg.Generate.SchemaFile = absPath(v)
		}
	}

	cfg.Introspect.URL = expandEnvVars(cfg.Introspect.URL)
	if cfg.Introspect.Driver == "sqlite" && isPlainPath(cfg.Introspect.URL) {
		cfg.Introspect.URL = resolvePath(cfg.Introspect.URL, root)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadFile merges a project file into k. The parser follows the file
// extension; hyphenated keys such as queries-dir are read as queries_dir.
func loadFile(k *koanf.Koanf, path string) error {
	var parser koanf.Parser = yaml.Parser()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		parser = toml.Parser()
	}

	fk := koanf.New(".")
	if err := fk.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("error reading config file %s: %w", path, err)
	}

	values := make(map[string]any, len(fk.Keys()))
	for key, v := range fk.All() {
		values[strings.ReplaceAll(key, "-", "_")] = v
	}
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return nil
}

// resolvePath resolves path relative to baseDir if it's not absolute.
func resolvePath(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

func isPlainPath(s string) bool {
	return s != "" && !strings.Contains(s, ":")
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}
