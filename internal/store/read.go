package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/turnstile/internal/eventstream"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/transport"
)

// Match is a stored match record.
type Match struct {
	ID        string
	RuleSet   string
	Seed      string
	Players   []game.PlayerID
	CreatedAt time.Time
	StateID   int64
	Outcome   *game.Outcome
}

// StoredCommand is an applied command with the state id it produced.
type StoredCommand struct {
	StateID     int64
	Command     game.Command
	RandomCalls uint64
}

// Snapshot is a stored state. Data is canonical JSON.
type Snapshot struct {
	StateID int64
	Digest  string
	Data    []byte
}

// ReadMatch retrieves a match by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadMatch(ctx context.Context, id string) (Match, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, ruleset, seed, players, created_at, state_id, outcome
		FROM matches
		WHERE id = ?
	`, id)
	return scanMatch(row)
}

// ListMatches returns all matches, newest first.
func (s *Store) ListMatches(ctx context.Context) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ruleset, seed, players, created_at, state_id, outcome
		FROM matches
		ORDER BY created_at DESC, id ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	matches := []Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("list matches: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return matches, nil
}

// ReadCommands returns a match's applied commands ordered by state id.
// Payloads are decoded through reg.
func (s *Store) ReadCommands(ctx context.Context, matchID string, reg *game.Registry) ([]StoredCommand, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT state_id, body, random_calls
		FROM commands
		WHERE match_id = ?
		ORDER BY state_id ASC
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("read commands: %w", err)
	}
	defer rows.Close()

	commands := []StoredCommand{}
	for rows.Next() {
		var (
			sc   StoredCommand
			body string
		)
		if err := rows.Scan(&sc.StateID, &body, &sc.RandomCalls); err != nil {
			return nil, fmt.Errorf("read commands: %w", err)
		}
		sc.Command, err = transport.DecodeCommand(reg, []byte(body))
		if err != nil {
			return nil, fmt.Errorf("read commands: state %d: %w", sc.StateID, err)
		}
		commands = append(commands, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read commands: %w", err)
	}
	return commands, nil
}

// ReadEvents returns a match's logged events with id greater than afterID,
// in id order.
func (s *Store) ReadEvents(ctx context.Context, matchID string, afterID int64, reg *game.Registry) ([]eventstream.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, body
		FROM events
		WHERE match_id = ? AND event_id > ?
		ORDER BY event_id ASC
	`, matchID, afterID)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	entries := []eventstream.Entry{}
	for rows.Next() {
		var (
			id   int64
			body string
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("read events: %w", err)
		}
		ev, err := transport.DecodeEvent(reg, []byte(body))
		if err != nil {
			return nil, fmt.Errorf("read events: entry %d: %w", id, err)
		}
		entries = append(entries, eventstream.Entry{ID: id, Event: ev})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return entries, nil
}

// LatestSnapshot returns the snapshot with the highest state id.
// Returns sql.ErrNoRows if the match has none.
func (s *Store) LatestSnapshot(ctx context.Context, matchID string) (Snapshot, error) {
	var (
		snap Snapshot
		blob []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT state_id, digest, data
		FROM snapshots
		WHERE match_id = ?
		ORDER BY state_id DESC
		LIMIT 1
	`, matchID).Scan(&snap.StateID, &snap.Digest, &blob)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Data, err = decompressSnapshot(blob)
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(row scanner) (Match, error) {
	var (
		m       Match
		players string
		created int64
		outcome *string
	)
	if err := row.Scan(&m.ID, &m.RuleSet, &m.Seed, &players, &created, &m.StateID, &outcome); err != nil {
		return Match{}, err
	}
	var err error
	if m.Players, err = unmarshalPlayers(players); err != nil {
		return Match{}, err
	}
	if m.Outcome, err = unmarshalOutcome(outcome); err != nil {
		return Match{}, err
	}
	m.CreatedAt = time.UnixMilli(created)
	return m, nil
}

var _ scanner = (*sql.Row)(nil)
