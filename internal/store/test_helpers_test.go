package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/turnstile/internal/game"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type mark struct {
	Cell int `json:"cell"`
}

func (mark) CommandType() game.CommandType { return "grid.mark" }

type marked struct {
	Cell int `json:"cell"`
}

func (marked) EventType() game.EventType { return "grid.marked" }

func testRegistry() *game.Registry {
	reg := game.NewRegistry()
	game.RegisterCommand[mark](reg)
	game.RegisterEvent[marked](reg)
	return reg
}

// createTestMatch inserts a two-player match.
func createTestMatch(t *testing.T, s *Store, id string, created time.Time) {
	t.Helper()
	err := s.CreateMatch(context.Background(), Match{
		ID:        id,
		RuleSet:   "grid",
		Seed:      "seed-" + id,
		Players:   []game.PlayerID{"P0", "P1"},
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("CreateMatch() failed: %v", err)
	}
}
