package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/ruleset/skirmish"
	"github.com/roach88/turnstile/internal/session"
	"github.com/roach88/turnstile/internal/store"
	"github.com/roach88/turnstile/internal/testutil"
)

const t1Scenario = "../harness/testdata/scenarios/t1_repeated_response.yaml"

// execute runs cmd with args and returns its stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	testutil.QuietLogs(t)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// recordMatch plays two commands of a skirmish match seeded "t1" into the
// database at dbPath through a session manager.
func recordMatch(t *testing.T, dbPath, id string) {
	t.Helper()
	testutil.QuietLogs(t)
	ctx := context.Background()

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	cfg, err := skirmish.New().Config()
	require.NoError(t, err)
	m := session.NewManager(cfg, st, session.WithIDGenerator(testutil.NewFixedIDGenerator(id)))
	defer m.Close()

	s, err := m.Create(ctx, []game.PlayerID{"P0", "P1"}, "t1")
	require.NoError(t, err)
	_, err = s.Submit(ctx, game.NewCommand("P0", game.AdvancePhase{}, 1))
	require.NoError(t, err)

	state := s.State()
	cur := state.Sys.Interaction.Current
	require.NotNil(t, cur)
	_, err = s.Submit(ctx, game.NewCommand("P0", game.RespondInteraction{
		InteractionID: cur.ID,
		OptionID:      state.Domain.Hand("P0")[0].ID,
	}, 2))
	require.NoError(t, err)
}

// copyScenario copies the t1 scenario into dir.
func copyScenario(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(t1Scenario)
	require.NoError(t, err)
	path := filepath.Join(dir, "t1_repeated_response.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
