package engine

import (
	"fmt"

	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/rng"
)

// NewMatch creates the initial state of a match: the rule-set's domain
// setup followed by every system's Init, in order. StateID starts at 0.
func NewMatch[D any](cfg *Config[D], players []game.PlayerID, r *rng.Source) (MatchState[D], error) {
	if len(players) == 0 {
		return MatchState[D]{}, fmt.Errorf("new match: no players")
	}
	seen := make(map[game.PlayerID]bool, len(players))
	for _, p := range players {
		if p == "" || seen[p] {
			return MatchState[D]{}, fmt.Errorf("new match: invalid or duplicate player %q", p)
		}
		seen[p] = true
	}

	domain, err := cfg.RuleSet.Setup(players, r)
	if err != nil {
		return MatchState[D]{}, fmt.Errorf("new match: setup %s: %w", cfg.RuleSet.Name(), err)
	}
	state := MatchState[D]{Domain: domain}
	for _, sys := range cfg.Systems {
		if in, ok := sys.(Initializer[D]); ok {
			if err := in.Init(&state, players); err != nil {
				return MatchState[D]{}, fmt.Errorf("new match: init %s: %w", sys.Name(), err)
			}
		}
	}
	state.Sys.RandomCursor = r.Consumed()
	return state, nil
}
