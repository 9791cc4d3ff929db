package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/butter/internal/cli/output"
	"github.com/leapstack-labs/butter/pkg/diagnostic"
	"github.com/leapstack-labs/butter/pkg/resolver"
	"github.com/leapstack-labs/butter/pkg/schema"
	"github.com/spf13/cobra"
)

const (
	replPrompt     = "butter> "
	replContPrompt = "   ...> "
	historyFile    = ".butter_history"
)

// NewReplCommand creates the repl command.
func NewReplCommand() *cobra.Command {
	var history string

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Analyze statements interactively",
		Long: `Start an interactive shell that resolves each statement you type
against the project schema and prints its output and input fields.

Statements end with a semicolon and may span several lines.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			model, err := cc.Engine.LoadSchema(cmd.Context())
			if err != nil {
				return err
			}
			if history == "" {
				history = filepath.Join(cc.Cfg.ProjectRoot, historyFile)
			}
			return runREPL(cc, model, history)
		},
	}

	cmd.Flags().StringVar(&history, "history", "", "History file (default: <project>/.butter_history)")

	return cmd
}

func runREPL(cc *CommandContext, model *schema.Model, history string) error {
	s := newREPL(cc.Renderer, model)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     history,
		AutoComplete:    newTableCompleter(model),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cc.Renderer.Writer(),
		Stderr:          cc.Renderer.ErrWriter(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s.r.Printf("butter REPL (%s, %d tables)\n", model.Dialect().Name, model.Len())
	s.r.Println("Type .help for commands, .quit to exit")
	s.r.Println()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			s.reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if s.handle(line) {
			return nil
		}
		rl.SetPrompt(s.prompt())
	}
}

// repl holds the state of one interactive session.
type repl struct {
	r        *output.Renderer
	model    *schema.Model
	resolver *resolver.Resolver
	buf      strings.Builder
}

func newREPL(r *output.Renderer, model *schema.Model) *repl {
	return &repl{r: r, model: model, resolver: resolver.New(model, nil)}
}

func (s *repl) prompt() string {
	if s.buf.Len() > 0 {
		return replContPrompt
	}
	return replPrompt
}

func (s *repl) reset() {
	s.buf.Reset()
}

// handle processes one input line and reports whether the session ends.
func (s *repl) handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if s.buf.Len() == 0 && strings.HasPrefix(line, ".") {
		return s.dotCommand(line)
	}

	// Accumulate multi-line SQL until semicolon
	s.buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		s.buf.WriteString("\n")
		return false
	}
	sql := s.buf.String()
	s.reset()

	s.analyze(sql)
	return false
}

func (s *repl) analyze(sql string) {
	analyses, err := s.resolver.ResolveSQL(sql)
	if err != nil {
		_, _ = fmt.Fprintln(s.r.ErrWriter(), diagnostic.FromError("", sql, err).Long())
		return
	}
	for i, a := range analyses {
		renderAnalysis(s.r, i+1, a)
		for _, n := range a.Notices {
			s.r.Println(s.r.Muted("note: " + n.Message))
		}
	}
}

func (s *repl) dotCommand(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.r.Writer())

	case ".tables":
		for _, t := range s.model.Tables() {
			s.r.Println(t.String())
		}

	case ".schema":
		if len(parts) < 2 {
			renderTables(s.r, s.model.Tables())
			break
		}
		t, ok := s.model.Lookup(parseTableRef(parts[1]))
		if !ok {
			_, _ = fmt.Fprintf(s.r.ErrWriter(), "Error: table %q not found in schema\n", parts[1])
			break
		}
		renderTables(s.r, []*schema.Table{t})

	case ".dialect":
		s.r.Println(s.model.Dialect().Name)

	default:
		_, _ = fmt.Fprintf(s.r.ErrWriter(), "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help            Show this help message
  .tables          List all tables
  .schema [table]  Show columns of one or all tables
  .dialect         Show the SQL dialect
  .quit / .exit    Exit the REPL

Tips:
  - Statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// newTableCompleter creates a readline completer for table names.
func newTableCompleter(model *schema.Model) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	var names []readline.PrefixCompleterInterface
	for _, t := range model.Tables() {
		items = append(items, readline.PcItem(t.Table))
		names = append(names, readline.PcItem(t.Table))
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", names...),
		readline.PcItem(".dialect"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
