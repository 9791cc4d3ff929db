package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/butter/internal/config"
	"github.com/leapstack-labs/butter/pkg/dialect"
	"github.com/spf13/cobra"
)

const starterSchema = `CREATE TABLE users (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    email VARCHAR(255)
);

CREATE TABLE orders (
    id INTEGER PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users (id),
    total DECIMAL(10,2),
    created_at TIMESTAMP
);
`

const starterQuery = `SELECT u.name, o.total, o.created_at
FROM orders o
JOIN users u ON u.id = o.user_id
WHERE u.email = ? AND o.total > ?;
`

// starterFile is one file written by init, relative to the project.
type starterFile struct {
	Path    string
	Content string
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new butter project",
		Long: `Initialize a new butter project with a starter configuration.

This creates:
  - butter.yaml configuration file
  - schema.sql with example CREATE TABLE statements
  - queries/ directory with an example query`,
		Example: `  # Initialize in current directory
  butter init

  # Initialize a PostgreSQL project in a new directory
  butter init my-project --dialect postgresql

  # Force overwrite existing files
  butter init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			dialectName := config.DefaultDialect
			if f := cmd.Flag("dialect"); f != nil && f.Changed {
				d, err := dialect.Lookup(f.Value.String())
				if err != nil {
					return err
				}
				dialectName = d.Name
			}

			r := NewCommandContextWithoutEngine(cmd).Renderer
			written, err := runInit(dir, dialectName, force)
			if err != nil {
				return err
			}

			for _, f := range written {
				r.StatusLine(f, "success", "")
			}
			r.Println("")
			r.Success("butter project initialized!")
			r.Println("")
			r.Println("Next steps:")
			r.Println("  1. Describe your tables in schema.sql")
			r.Println("  2. Add SQL files to queries/")
			r.Println("  3. Run 'butter generate' to see their fields")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

// runInit writes the starter project into dir and returns the paths it
// wrote. Existing files are kept unless force is set; an existing project
// file without force is an error.
func runInit(dir, dialectName string, force bool) ([]string, error) {
	if err := os.MkdirAll(filepath.Join(dir, config.DefaultQueriesDir), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return nil, fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileName)
	}

	starter := strings.Replace(config.Starter,
		"dialect: "+config.DefaultDialect+" ", "dialect: "+dialectName+" ", 1)

	files := []starterFile{
		{config.ConfigFileName, starter},
		{config.DefaultSchemaFile, starterSchema},
		{config.DefaultQueriesDir + "/example.sql", starterQuery},
	}

	var written []string
	for _, f := range files {
		path := filepath.Join(dir, filepath.FromSlash(f.Path))
		if _, err := os.Stat(path); err == nil && !force {
			continue
		}
		if err := os.WriteFile(path, []byte(f.Content), 0o600); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
		written = append(written, f.Path)
	}
	return written, nil
}
