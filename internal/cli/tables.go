package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/ruleset/skirmish"
	"github.com/roach88/turnstile/internal/tables"
)

// TablesOptions holds flags for the tables command.
type TablesOptions struct {
	*RootOptions
}

// CommandInfo describes one declared command type.
type CommandInfo struct {
	Type          game.CommandType     `json:"type"`
	Deterministic bool                 `json:"deterministic"`
	Animation     tables.AnimationMode `json:"animation"`
}

// WindowInfo describes one declared response-window type.
type WindowInfo struct {
	Type     string             `json:"type"`
	Allow    []game.CommandType `json:"allow"`
	ReopenOn []game.EventType   `json:"reopen_on"`
}

// TablesResult is the decoded table file.
type TablesResult struct {
	Source   string        `json:"source"`
	Commands []CommandInfo `json:"commands"`
	Windows  []WindowInfo  `json:"windows"`
	Phases   []string      `json:"phases"`
	Initial  string        `json:"initial"`
}

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TablesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tables [file.cue]",
		Short: "Check and print a determinism table file",
		Long: `Load a CUE table file, check it against the table schema and print the
declared command traits, response windows and phase graph.

Without a file the built-in skirmish tables are printed.

Exit codes:
  0 - Tables are valid
  2 - File missing or invalid

Examples:
  turnstile tables ./tables.cue
  turnstile tables --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(opts, args, cmd)
		},
	}

	return cmd
}

func runTables(opts *TablesOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(cmd, opts.RootOptions)

	source := "builtin:" + skirmish.Name
	t := skirmish.Tables()
	if len(args) == 1 {
		source = args[0]
		var err error
		t, err = tables.LoadFile(args[0])
		if err != nil {
			e := &CLIError{Code: "E_TABLES", Message: err.Error()}
			var le *tables.LoadError
			if errors.As(err, &le) {
				e.Details = map[string]string{"field": le.Field}
			}
			if ferr := f.Fail(e); ferr != nil {
				return ferr
			}
			return WrapExitError(ExitCommandError, "invalid tables", err)
		}
	}

	result := describeTables(source, t)
	if opts.Format == "json" {
		return f.Success(result)
	}
	writeTablesText(cmd.OutOrStdout(), result, t)
	return nil
}

// describeTables flattens t into sorted lists.
func describeTables(source string, t tables.Tables) TablesResult {
	r := TablesResult{
		Source:   source,
		Commands: []CommandInfo{},
		Windows:  []WindowInfo{},
		Phases:   t.Phases.Phases,
		Initial:  t.Phases.Initial,
	}
	for ct, tr := range t.Commands {
		r.Commands = append(r.Commands, CommandInfo{Type: ct, Deterministic: tr.Deterministic, Animation: tr.Animation})
	}
	slices.SortFunc(r.Commands, func(a, b CommandInfo) int { return strings.Compare(string(a.Type), string(b.Type)) })
	for name, w := range t.Windows {
		r.Windows = append(r.Windows, WindowInfo{Type: name, Allow: w.Allow, ReopenOn: w.ReopenOn})
	}
	slices.SortFunc(r.Windows, func(a, b WindowInfo) int { return strings.Compare(a.Type, b.Type) })
	return r
}

func writeTablesText(w io.Writer, r TablesResult, t tables.Tables) {
	fmt.Fprintf(w, "Tables: %s\n\n", r.Source)

	fmt.Fprintln(w, "Commands:")
	for _, c := range r.Commands {
		det := "non-deterministic"
		if c.Deterministic {
			det = "deterministic"
		}
		fmt.Fprintf(w, "  %-28s %-18s %s\n", c.Type, det, c.Animation)
	}

	fmt.Fprintln(w, "\nWindows:")
	for _, win := range r.Windows {
		fmt.Fprintf(w, "  %s\n", win.Type)
		fmt.Fprintf(w, "    allow:     %s\n", joinTypes(win.Allow))
		fmt.Fprintf(w, "    reopen_on: %s\n", joinTypes(win.ReopenOn))
	}

	fmt.Fprintf(w, "\nPhases (initial %s):\n", r.Initial)
	for _, p := range r.Phases {
		fmt.Fprintf(w, "  %s -> %s\n", p, strings.Join(t.Phases.Transitions[p], ", "))
	}
}

func joinTypes[T ~string](types []T) string {
	if len(types) == 0 {
		return "-"
	}
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}
