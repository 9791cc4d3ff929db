package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/butter/pkg/schema"
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [table]",
		Short: "Show the tables and columns queries are resolved against",
		Long: `Load the schema from the schema file, or from the database when
introspect.url is configured, and print its tables in declaration order.

With a table name, only that table is shown. The name may be qualified
as schema.table or database.schema.table.`,
		Example: `  butter schema
  butter schema users
  butter schema public.orders -o yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			model, err := cc.Engine.LoadSchema(cmd.Context())
			if err != nil {
				return err
			}

			tables := model.Tables()
			if len(args) == 1 {
				t, ok := model.Lookup(parseTableRef(args[0]))
				if !ok {
					return fmt.Errorf("table %q not found in schema", args[0])
				}
				tables = []*schema.Table{t}
			}
			if tables == nil {
				tables = []*schema.Table{}
			}

			r := cc.Renderer
			if ok, err := r.Encode(schemaOutput{Dialect: cc.Engine.Dialect().Name, Tables: tables}); ok {
				return err
			}
			r.Header(1, fmt.Sprintf("Schema (%s, %d tables)", cc.Engine.Dialect().Name, len(tables)))
			renderTables(r, tables)
			return nil
		},
	}
}

// parseTableRef splits "db.schema.table" into a reference. Quoting is not
// supported on the command line.
func parseTableRef(name string) schema.TableRef {
	parts := strings.Split(name, ".")
	switch len(parts) {
	case 1:
		return schema.TableRef{Table: parts[0]}
	case 2:
		return schema.TableRef{Schema: parts[0], Table: parts[1]}
	default:
		n := len(parts)
		return schema.TableRef{Database: parts[n-3], Schema: parts[n-2], Table: parts[n-1]}
	}
}
