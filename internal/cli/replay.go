package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/ruleset/skirmish"
	"github.com/roach88/turnstile/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	MatchID  string // optional - specific match only
}

// ReplayMatchResult holds the replay result for a single match.
type ReplayMatchResult struct {
	MatchID       string    `json:"match_id"`
	RuleSet       string    `json:"ruleset"`
	Commands      int       `json:"commands"`
	StateID       int64     `json:"state_id"`
	StateDigest   string    `json:"state_digest,omitempty"`
	LogDigest     string    `json:"log_digest,omitempty"`
	Finished      bool      `json:"finished"`
	Deterministic bool      `json:"deterministic"`
	Error         *CLIError `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Matches          []ReplayMatchResult `json:"matches"`
	TotalMatches     int                 `json:"total_matches"`
	AllDeterministic bool                `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay stored matches and verify determinism",
		Long: `Rebuild stored matches from their seed and command log.

Every match is replayed twice; both runs must agree, must reach the stored
state id and, when a snapshot exists at that state id, must match its
digest.

Exit codes:
  0 - All matches replayed deterministically
  1 - A replay diverged
  2 - Command error (database not found, unknown match, etc.)

Examples:
  turnstile replay --db ./turnstile.db
  turnstile replay --db ./turnstile.db --match 0192f7c4-...
  turnstile replay --db ./turnstile.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.MatchID, "match", "", "replay specific match only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Checked up front for a clearer message than SQLite gives.
	if _, err := os.Stat(opts.Database); errors.Is(err, fs.ErrNotExist) {
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.Database))
	}
	st, err := store.Open(opts.Database, store.ReadOnly())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var matches []store.Match
	if opts.MatchID != "" {
		m, err := st.ReadMatch(ctx, opts.MatchID)
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, fmt.Sprintf("match not found: %s", opts.MatchID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read match", err)
		}
		matches = []store.Match{m}
	} else {
		matches, err = st.ListMatches(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list matches", err)
		}
	}

	f := newFormatter(cmd, opts.RootOptions)
	result := ReplayResult{
		Matches:          make([]ReplayMatchResult, 0, len(matches)),
		TotalMatches:     len(matches),
		AllDeterministic: true,
	}
	for _, m := range matches {
		f.VerboseLog("replaying %s (%d commands)", m.ID, m.StateID)
		mr := ReplayMatchResult{
			MatchID:  m.ID,
			RuleSet:  m.RuleSet,
			Finished: m.Outcome != nil,
		}
		report, err := verifyMatch(ctx, st, m)
		mr.Commands = report.Commands
		mr.StateID = report.StateID
		mr.StateDigest = report.StateDigest
		mr.LogDigest = report.LogDigest
		if err != nil {
			mr.Error = errorFrom(err, "E_REPLAY")
			result.AllDeterministic = false
		} else {
			mr.Deterministic = true
		}
		result.Matches = append(result.Matches, mr)
	}

	if opts.Format == "json" {
		var failure *CLIError
		if !result.AllDeterministic {
			failure = &CLIError{Code: string(game.CodeReplayDivergence), Message: "determinism verification failed"}
		}
		if err := f.Result(result, failure); err != nil {
			return err
		}
	} else {
		outputReplayText(cmd, result)
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// verifyMatch replays m with the rule-set it was recorded under. Matches
// are replayed with default rule-set options.
func verifyMatch(ctx context.Context, st *store.Store, m store.Match) (engine.ReplayReport, error) {
	switch m.RuleSet {
	case skirmish.Name:
		rules := skirmish.New()
		cfg, err := rules.Config()
		if err != nil {
			return engine.ReplayReport{}, err
		}
		return store.ReplayMatch(ctx, st, cfg, rules.Registry(), m.ID)
	}
	return engine.ReplayReport{}, fmt.Errorf("unknown ruleset %q", m.RuleSet)
}

func outputReplayText(cmd *cobra.Command, result ReplayResult) {
	w := cmd.OutOrStdout()

	if result.TotalMatches == 0 {
		fmt.Fprintln(w, "No matches found.")
		return
	}

	for _, m := range result.Matches {
		status := "running"
		if m.Finished {
			status = "finished"
		}
		if m.Deterministic {
			fmt.Fprintf(w, "✓ %s (%s, %s): %d commands, state %d\n", m.MatchID, m.RuleSet, status, m.Commands, m.StateID)
			fmt.Fprintf(w, "  state %s\n", m.StateDigest)
			continue
		}
		fmt.Fprintf(w, "✗ %s (%s, %s)\n", m.MatchID, m.RuleSet, status)
		if m.Error.Reason != "" {
			fmt.Fprintf(w, "  %s/%s: %s\n", m.Error.Code, m.Error.Reason, m.Error.Message)
		} else {
			fmt.Fprintf(w, "  %s: %s\n", m.Error.Code, m.Error.Message)
		}
	}

	fmt.Fprintln(w)
	if result.AllDeterministic {
		fmt.Fprintf(w, "✓ All %d match(es) replayed deterministically\n", result.TotalMatches)
	} else {
		fmt.Fprintln(w, "✗ Determinism verification failed")
	}
}
