package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/eventstream"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/rng"
	"github.com/roach88/turnstile/internal/transport"
)

// ErrClosed is returned by Submit once the session has stopped.
var ErrClosed = errors.New("session closed")

// Recorder persists applied commands. *store.Store satisfies it.
type Recorder interface {
	AppendCommand(ctx context.Context, matchID string, stateID int64, cmd game.Command, randomCalls uint64, events []eventstream.Entry) error
	FinishMatch(ctx context.Context, matchID string, outcome game.Outcome) error
	SaveSnapshot(ctx context.Context, matchID string, stateID int64, state any) error
}

// Options tune a session.
type Options struct {
	// StreamWindow is how many stream entries an Update carries.
	StreamWindow int

	// SnapshotEvery saves a snapshot each time the state id is a multiple
	// of it. Zero disables snapshots.
	SnapshotEvery int64

	// RevealSeed includes the match seed in Sync so clients can predict
	// commands that draw randomness.
	RevealSeed bool

	// SubscriberBuffer is the per-subscriber Update buffer. A subscriber
	// whose buffer is full is dropped.
	SubscriberBuffer int
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		StreamWindow:     transport.DefaultStreamWindow,
		RevealSeed:       true,
		SubscriberBuffer: 32,
	}
}

// Applied describes a command the session accepted.
type Applied struct {
	StateID     int64
	Events      []eventstream.Entry
	RandomCalls uint64
}

type request struct {
	cmd   game.Command
	reply chan reply
}

type reply struct {
	applied Applied
	err     error
}

// Session is the actor owning one match.
type Session[D any] struct {
	id      string
	seed    string
	players []game.PlayerID
	cfg     *engine.Config[D]
	rec     Recorder
	opts    Options
	inbox   *inbox[request]
	done    chan struct{}

	mu     sync.RWMutex
	state  engine.MatchState[D]
	r      *rng.Source
	subs   map[int]chan transport.Update[D]
	nextID int
}

// New builds a session around an existing state. r must be positioned at
// state.Sys.RandomCursor. A nil recorder keeps the match in memory only.
func New[D any](id, seed string, players []game.PlayerID, cfg *engine.Config[D], state engine.MatchState[D], r *rng.Source, rec Recorder, opts Options) *Session[D] {
	if opts.StreamWindow <= 0 {
		opts.StreamWindow = transport.DefaultStreamWindow
	}
	if opts.SubscriberBuffer <= 0 {
		opts.SubscriberBuffer = DefaultOptions().SubscriberBuffer
	}
	return &Session[D]{
		id:      id,
		seed:    seed,
		players: append([]game.PlayerID(nil), players...),
		cfg:     cfg,
		rec:     rec,
		opts:    opts,
		inbox:   newInbox[request](),
		done:    make(chan struct{}),
		state:   state,
		r:       r,
		subs:    make(map[int]chan transport.Update[D]),
	}
}

// ID returns the match id.
func (s *Session[D]) ID() string { return s.id }

// Players returns the seated players.
func (s *Session[D]) Players() []game.PlayerID {
	return append([]game.PlayerID(nil), s.players...)
}

// Seated reports whether p has a seat in the match.
func (s *Session[D]) Seated(p game.PlayerID) bool {
	for _, q := range s.players {
		if q == p {
			return true
		}
	}
	return false
}

// State returns the committed state.
func (s *Session[D]) State() engine.MatchState[D] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Sync returns a snapshot for a connecting client.
func (s *Session[D]) Sync() transport.Sync[D] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seed := ""
	if s.opts.RevealSeed {
		seed = s.seed
	}
	return transport.NewSync(s.state, s.players, seed, s.r.Consumed())
}

// Subscribe registers for Updates. The returned channel is closed when the
// session stops, when cancel is called, or when the subscriber falls behind.
func (s *Session[D]) Subscribe() (<-chan transport.Update[D], func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan transport.Update[D], s.opts.SubscriberBuffer)
	id := s.nextID
	s.nextID++
	select {
	case <-s.done:
		close(ch)
		return ch, func() {}
	default:
	}
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { s.unsubscribe(id) })
	}
}

func (s *Session[D]) unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

// Submit hands cmd to the run loop and waits for the outcome. Rejections
// are *game.Error values; anything else is a host failure.
func (s *Session[D]) Submit(ctx context.Context, cmd game.Command) (Applied, error) {
	req := request{cmd: cmd, reply: make(chan reply, 1)}
	if !s.inbox.Enqueue(req) {
		return Applied{}, ErrClosed
	}
	select {
	case <-ctx.Done():
		return Applied{}, ctx.Err()
	case <-s.done:
		// The run loop may have answered just before stopping.
		select {
		case rep := <-req.reply:
			return rep.applied, rep.err
		default:
			return Applied{}, ErrClosed
		}
	case rep := <-req.reply:
		return rep.applied, rep.err
	}
}

// Run applies queued commands until ctx is cancelled or Close is called.
// Commands already queued when Close is called are still applied.
func (s *Session[D]) Run(ctx context.Context) error {
	defer s.stop()

	slog.Debug("session started", "match_id", s.id, "state_id", s.State().Sys.StateID)
	for {
		for {
			req, ok := s.inbox.TryDequeue()
			if !ok {
				break
			}
			applied, err := s.apply(ctx, req.cmd)
			req.reply <- reply{applied: applied, err: err}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, open := <-s.inbox.Wait():
			if !open && s.inbox.Len() == 0 {
				return nil
			}
		}
	}
}

// Close stops accepting commands. Run returns once the inbox drains.
func (s *Session[D]) Close() {
	s.inbox.Close()
}

// Done is closed when Run has returned.
func (s *Session[D]) Done() <-chan struct{} { return s.done }

func (s *Session[D]) stop() {
	s.inbox.Close()
	for {
		req, ok := s.inbox.TryDequeue()
		if !ok {
			break
		}
		req.reply <- reply{err: ErrClosed}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	close(s.done)
	slog.Debug("session stopped", "match_id", s.id)
}

// apply executes cmd against a copy of the RNG, records it and commits.
// A failure to append the command leaves the session at its previous
// state.
func (s *Session[D]) apply(ctx context.Context, cmd game.Command) (Applied, error) {
	s.mu.RLock()
	state := s.state
	work := s.r.Clone()
	s.mu.RUnlock()

	if !s.Seated(cmd.PlayerID) {
		return Applied{}, game.Rejected("player %q is not seated in match %s", cmd.PlayerID, s.id).WithCommand(cmd.Type)
	}

	res := engine.Execute(s.cfg, state, cmd, work, s.players)
	if !res.Success {
		slog.Debug("command rejected",
			"match_id", s.id,
			"command", cmd.Type,
			"player", cmd.PlayerID,
			"code", game.CodeOf(res.Err),
			"error", res.Err,
		)
		return Applied{}, res.Err
	}

	next := res.State
	if err := s.record(ctx, state, next, cmd, res); err != nil {
		slog.Error("record command failed",
			"match_id", s.id,
			"state_id", next.Sys.StateID,
			"command", cmd.Type,
			"error", err,
		)
		return Applied{}, err
	}

	update := transport.NewUpdate(next, cmd.PlayerID, s.opts.StreamWindow)

	s.mu.Lock()
	s.state = next
	s.r.Set(work)
	for id, ch := range s.subs {
		select {
		case ch <- update:
		default:
			slog.Warn("dropping slow subscriber", "match_id", s.id, "subscriber", id)
			delete(s.subs, id)
			close(ch)
		}
	}
	s.mu.Unlock()

	slog.Debug("command applied",
		"match_id", s.id,
		"state_id", next.Sys.StateID,
		"command", cmd.Type,
		"player", cmd.PlayerID,
		"events", len(res.Events),
	)
	return Applied{StateID: next.Sys.StateID, Events: res.Events, RandomCalls: res.RandomCalls}, nil
}

func (s *Session[D]) record(ctx context.Context, prev, next engine.MatchState[D], cmd game.Command, res engine.Result[D]) error {
	if s.rec == nil {
		return nil
	}
	stateID := next.Sys.StateID
	if err := s.rec.AppendCommand(ctx, s.id, stateID, cmd, res.RandomCalls, res.Events); err != nil {
		return fmt.Errorf("record command: %w", err)
	}
	// The command is stored from here on, so the session must commit. The
	// outcome can be rebuilt from the command log.
	if next.Over() && !prev.Over() {
		if err := s.rec.FinishMatch(ctx, s.id, *next.Sys.Outcome); err != nil {
			slog.Error("record outcome failed", "match_id", s.id, "state_id", stateID, "error", err)
		}
	}
	if s.opts.SnapshotEvery > 0 && stateID%s.opts.SnapshotEvery == 0 {
		// Snapshots are an optimisation; the command log is authoritative.
		if err := s.rec.SaveSnapshot(ctx, s.id, stateID, next.WithoutLog()); err != nil {
			slog.Warn("save snapshot failed", "match_id", s.id, "state_id", stateID, "error", err)
		}
	}
	return nil
}
