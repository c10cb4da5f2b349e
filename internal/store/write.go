package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/turnstile/internal/canonical"
	"github.com/roach88/turnstile/internal/eventstream"
	"github.com/roach88/turnstile/internal/game"
)

// ErrStateConflict is returned by AppendCommand when the state id does not
// directly follow the match's current state id.
var ErrStateConflict = errors.New("state id conflict")

// CreateMatch inserts a match record. Creating an existing id is an error.
func (s *Store) CreateMatch(ctx context.Context, m Match) error {
	players, err := marshalPlayers(m.Players)
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	created := m.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO matches (id, ruleset, seed, players, created_at, state_id)
		VALUES (?, ?, ?, ?, ?, 0)
	`,
		m.ID,
		m.RuleSet,
		m.Seed,
		players,
		created.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("create match %s: %w", m.ID, err)
	}
	return nil
}

// AppendCommand records an applied command and the stream entries it
// produced. stateID is the state id after the command and must be the
// match's current state id plus one.
//
// The command, its events and the match's state id are written in one
// transaction.
func (s *Store) AppendCommand(ctx context.Context, matchID string, stateID int64, cmd game.Command, randomCalls uint64, events []eventstream.Entry) error {
	body, err := marshalBody(cmd)
	if err != nil {
		return fmt.Errorf("append command: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append command: %w", err)
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRowContext(ctx, `SELECT state_id FROM matches WHERE id = ?`, matchID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("append command: match %s: %w", matchID, sql.ErrNoRows)
	}
	if err != nil {
		return fmt.Errorf("append command: %w", err)
	}
	if stateID != current+1 {
		return fmt.Errorf("append command: match %s at state %d, got %d: %w", matchID, current, stateID, ErrStateConflict)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO commands (match_id, state_id, type, player_id, body, random_calls)
		VALUES (?, ?, ?, ?, ?, ?)
	`, matchID, stateID, string(cmd.Type), string(cmd.PlayerID), body, randomCalls)
	if err != nil {
		return fmt.Errorf("append command: %w", err)
	}

	for _, e := range events {
		ev, err := marshalBody(e.Event)
		if err != nil {
			return fmt.Errorf("append command: event %d: %w", e.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (match_id, event_id, state_id, type, body)
			VALUES (?, ?, ?, ?, ?)
		`, matchID, e.ID, stateID, string(e.Event.Type()), ev)
		if err != nil {
			return fmt.Errorf("append command: event %d: %w", e.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE matches SET state_id = ? WHERE id = ?`, stateID, matchID); err != nil {
		return fmt.Errorf("append command: %w", err)
	}
	return tx.Commit()
}

// FinishMatch records the outcome of a match.
func (s *Store) FinishMatch(ctx context.Context, matchID string, outcome game.Outcome) error {
	data, err := marshalOutcome(&outcome)
	if err != nil {
		return fmt.Errorf("finish match: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE matches SET outcome = ? WHERE id = ?`, data, matchID)
	if err != nil {
		return fmt.Errorf("finish match: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish match %s: %w", matchID, sql.ErrNoRows)
	}
	return nil
}

// SaveSnapshot stores state at stateID. state is encoded as canonical JSON
// so the stored digest equals engine.Fingerprint of a log-free state.
// Saving the same state id twice keeps the first snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, matchID string, stateID int64, state any) error {
	blob, err := compressSnapshot(state)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	digest, err := canonical.Digest(canonical.DomainState, state)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (match_id, state_id, digest, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(match_id, state_id) DO NOTHING
	`, matchID, stateID, digest, blob)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
