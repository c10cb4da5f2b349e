package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/rng"
	"github.com/roach88/turnstile/internal/store"
)

var (
	// ErrNotFound is returned for unknown match ids.
	ErrNotFound = errors.New("match not found")

	// ErrInvalidMatch is returned when the rule-set refuses to set up a
	// match, for example for an unsupported player count.
	ErrInvalidMatch = errors.New("invalid match")
)

// MatchStore is the persistence a Manager needs. *store.Store satisfies it.
type MatchStore interface {
	Recorder
	CreateMatch(ctx context.Context, m store.Match) error
}

// Manager runs many sessions concurrently, one goroutine each.
type Manager[D any] struct {
	cfg   *engine.Config[D]
	store MatchStore
	ids   IDGenerator
	opts  Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.RWMutex
	sessions map[string]*Session[D]
	closed   bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*managerConfig)

type managerConfig struct {
	ids  IDGenerator
	opts Options
}

// WithIDGenerator replaces the UUIDv7 match id generator.
func WithIDGenerator(g IDGenerator) ManagerOption {
	return func(c *managerConfig) { c.ids = g }
}

// WithSessionOptions sets the options every session is created with.
func WithSessionOptions(o Options) ManagerOption {
	return func(c *managerConfig) { c.opts = o }
}

// NewManager returns a manager. A nil store keeps matches in memory only.
func NewManager[D any](cfg *engine.Config[D], st MatchStore, opts ...ManagerOption) *Manager[D] {
	c := managerConfig{ids: UUIDv7Generator{}, opts: DefaultOptions()}
	for _, opt := range opts {
		opt(&c)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager[D]{
		cfg:      cfg,
		store:    st,
		ids:      c.ids,
		opts:     c.opts,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session[D]),
	}
}

// Create starts a new match. An empty seed draws a random one.
func (m *Manager[D]) Create(ctx context.Context, players []game.PlayerID, seed string) (*Session[D], error) {
	if seed == "" {
		s, err := rng.NewSeed()
		if err != nil {
			return nil, fmt.Errorf("create match: %w", err)
		}
		seed = s
	}

	r := rng.New(seed)
	state, err := engine.NewMatch(m.cfg, players, r)
	if err != nil {
		return nil, fmt.Errorf("create match: %w: %w", ErrInvalidMatch, err)
	}

	id := m.ids.Generate()
	var rec Recorder
	if m.store != nil {
		err := m.store.CreateMatch(ctx, store.Match{
			ID:        id,
			RuleSet:   m.cfg.RuleSet.Name(),
			Seed:      seed,
			Players:   players,
			CreatedAt: time.Now(),
		})
		if err != nil {
			return nil, fmt.Errorf("create match: %w", err)
		}
		rec = m.store
	}

	s := New(id, seed, players, m.cfg, state, r, rec, m.opts)
	if err := m.start(s); err != nil {
		return nil, err
	}
	slog.Info("match created",
		"match_id", id,
		"ruleset", m.cfg.RuleSet.Name(),
		"players", len(players),
	)
	return s, nil
}

// Resume rebuilds a stored match by replaying its command log and starts
// a session for it.
func (m *Manager[D]) Resume(log store.MatchLog) (*Session[D], error) {
	res, err := engine.Replay(m.cfg, log.Match.Seed, log.Match.Players, log.Commands)
	if err != nil {
		return nil, fmt.Errorf("resume match %s: %w", log.Match.ID, err)
	}
	if res.State.Sys.StateID != log.Match.StateID {
		return nil, fmt.Errorf("resume match %s: replay reached state %d, stored %d",
			log.Match.ID, res.State.Sys.StateID, log.Match.StateID)
	}

	r := rng.At(log.Match.Seed, res.State.Sys.RandomCursor)
	var rec Recorder
	if m.store != nil {
		rec = m.store
	}
	s := New(log.Match.ID, log.Match.Seed, log.Match.Players, m.cfg, res.State, r, rec, m.opts)
	if err := m.start(s); err != nil {
		return nil, err
	}
	slog.Info("match resumed", "match_id", log.Match.ID, "state_id", res.State.Sys.StateID)
	return s, nil
}

func (m *Manager[D]) start(s *Session[D]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if _, ok := m.sessions[s.ID()]; ok {
		return fmt.Errorf("match %s already running", s.ID())
	}
	m.sessions[s.ID()] = s

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := s.Run(m.ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("session failed", "match_id", s.ID(), "error", err)
		}
	}()
	return nil
}

// Get returns a running session.
func (m *Manager[D]) Get(id string) (*Session[D], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// List returns the ids of running sessions, sorted.
func (m *Manager[D]) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Remove stops a session and forgets it.
func (m *Manager[D]) Remove(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.Close()
	<-s.Done()
	return nil
}

// Close stops every session and waits for them.
func (m *Manager[D]) Close() {
	m.mu.Lock()
	m.closed = true
	for _, s := range m.sessions {
		s.Close()
	}
	m.sessions = make(map[string]*Session[D])
	m.mu.Unlock()

	m.wg.Wait()
	m.cancel()
}
