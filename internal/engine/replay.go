package engine

// # Replay
//
// A match log is the seed, the player list and the ordered list of applied
// commands. Replaying is not a special mode: NewMatch followed by Execute
// for each command, through the identical code path the server used.
//
// Determinism rests on three properties:
//
//  1. Execute reads no wall clock; timestamps come from the commands.
//  2. The only randomness is the seeded rng.Source, whose position is
//     recorded in SystemState.RandomCursor after every command.
//  3. Hooks run in declared order and rule-sets must not depend on map
//     iteration order.
//
// VerifyReplay runs the log twice and compares canonical digests of the
// final state and of the event log, which catches hidden nondeterminism
// (map iteration, shared mutable domain values) that a single run cannot.

import (
	"fmt"

	"github.com/roach88/turnstile/internal/canonical"
	"github.com/roach88/turnstile/internal/eventstream"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/rng"
)

// ReplayResult is the product of replaying a command log.
type ReplayResult[D any] struct {
	State  MatchState[D]
	Events []eventstream.Entry
}

// Replay rebuilds a match from its seed, players and applied commands.
// A command that no longer applies is a ReplayDivergence.
func Replay[D any](cfg *Config[D], seed string, players []game.PlayerID, commands []game.Command) (ReplayResult[D], error) {
	r := rng.New(seed)
	state, err := NewMatch(cfg, players, r)
	if err != nil {
		return ReplayResult[D]{}, fmt.Errorf("replay: %w", err)
	}

	var events []eventstream.Entry
	for i, cmd := range commands {
		res := Execute(cfg, state, cmd, r, players)
		if !res.Success {
			return ReplayResult[D]{State: state, Events: events}, &game.Error{
				Code:    game.CodeReplayDivergence,
				Message: fmt.Sprintf("command %d no longer applies: %v", i, res.Err),
				Command: cmd.Type,
				Details: map[string]string{
					"index":    fmt.Sprintf("%d", i),
					"state_id": fmt.Sprintf("%d", state.Sys.StateID),
				},
			}
		}
		state = res.State
		events = append(events, res.Events...)
	}
	return ReplayResult[D]{State: state, Events: events}, nil
}

// ReplayReport summarizes a verified replay.
type ReplayReport struct {
	Commands    int
	StateID     int64
	StateDigest string
	LogDigest   string
}

// VerifyReplay replays the log twice and checks both runs agree.
func VerifyReplay[D any](cfg *Config[D], seed string, players []game.PlayerID, commands []game.Command) (ReplayReport, error) {
	first, err := Replay(cfg, seed, players, commands)
	if err != nil {
		return ReplayReport{}, err
	}
	second, err := Replay(cfg, seed, players, commands)
	if err != nil {
		return ReplayReport{}, err
	}

	a, err := reportFor(first, len(commands))
	if err != nil {
		return ReplayReport{}, err
	}
	b, err := reportFor(second, len(commands))
	if err != nil {
		return ReplayReport{}, err
	}
	if a != b {
		return a, &game.Error{
			Code:    game.CodeReplayDivergence,
			Message: "two replays of the same log disagree",
			Details: map[string]string{
				"state_digest_1": a.StateDigest,
				"state_digest_2": b.StateDigest,
				"log_digest_1":   a.LogDigest,
				"log_digest_2":   b.LogDigest,
			},
		}
	}
	return a, nil
}

func reportFor[D any](res ReplayResult[D], commands int) (ReplayReport, error) {
	sd, err := Fingerprint(res.State)
	if err != nil {
		return ReplayReport{}, err
	}
	ld, err := LogDigest(res.Events)
	if err != nil {
		return ReplayReport{}, err
	}
	return ReplayReport{
		Commands:    commands,
		StateID:     res.State.Sys.StateID,
		StateDigest: sd,
		LogDigest:   ld,
	}, nil
}

// Fingerprint digests a state without its retained log entries, so states
// that differ only in how much history they carry compare equal.
func Fingerprint[D any](state MatchState[D]) (string, error) {
	return canonical.Digest(canonical.DomainState, state.WithoutLog())
}

// LogDigest digests a sequence of logged events.
func LogDigest(entries []eventstream.Entry) (string, error) {
	if entries == nil {
		entries = []eventstream.Entry{}
	}
	return canonical.Digest(canonical.DomainLog, entries)
}
