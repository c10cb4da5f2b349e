package store

import (
	"context"
	"fmt"

	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/transport"
)

// MatchLog is everything needed to rebuild a match.
type MatchLog struct {
	Match    Match
	Commands []game.Command
}

// ReadMatchLog reads a match and its command list.
func (s *Store) ReadMatchLog(ctx context.Context, matchID string, reg *game.Registry) (MatchLog, error) {
	m, err := s.ReadMatch(ctx, matchID)
	if err != nil {
		return MatchLog{}, fmt.Errorf("read match log %s: %w", matchID, err)
	}
	stored, err := s.ReadCommands(ctx, matchID, reg)
	if err != nil {
		return MatchLog{}, fmt.Errorf("read match log %s: %w", matchID, err)
	}
	log := MatchLog{Match: m, Commands: make([]game.Command, len(stored))}
	for i, sc := range stored {
		log.Commands[i] = sc.Command
	}
	return log, nil
}

// ReplayMatch rebuilds a stored match twice and verifies both runs agree
// with each other, with the stored state id and, when one exists, with
// the latest snapshot at that state id.
func ReplayMatch[D any](ctx context.Context, s *Store, cfg *engine.Config[D], reg *game.Registry, matchID string) (engine.ReplayReport, error) {
	log, err := s.ReadMatchLog(ctx, matchID, reg)
	if err != nil {
		return engine.ReplayReport{}, err
	}

	report, err := engine.VerifyReplay(cfg, log.Match.Seed, log.Match.Players, log.Commands)
	if err != nil {
		return report, fmt.Errorf("replay match %s: %w", matchID, err)
	}
	if report.StateID != log.Match.StateID {
		return report, &game.Error{
			Code:    game.CodeReplayDivergence,
			Message: fmt.Sprintf("replay reached state %d, stored match is at %d", report.StateID, log.Match.StateID),
		}
	}

	snap, err := s.LatestSnapshot(ctx, matchID)
	if err != nil || snap.StateID != report.StateID {
		return report, nil
	}
	if snap.Digest != report.StateDigest {
		return report, &game.Error{
			Code:    game.CodeReplayDivergence,
			Message: fmt.Sprintf("replay digest differs from snapshot at state %d", snap.StateID),
			Details: map[string]string{"snapshot": snap.Digest, "replay": report.StateDigest},
		}
	}
	return report, nil
}

// LoadSnapshot decodes the latest snapshot of a match.
func LoadSnapshot[D any](ctx context.Context, s *Store, reg *game.Registry, matchID string) (engine.MatchState[D], error) {
	snap, err := s.LatestSnapshot(ctx, matchID)
	if err != nil {
		return engine.MatchState[D]{}, fmt.Errorf("load snapshot %s: %w", matchID, err)
	}
	return transport.DecodeState[D](reg, snap.Data)
}
