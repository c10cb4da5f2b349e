package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/turnstile/internal/config"
	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/ruleset/skirmish"
	"github.com/roach88/turnstile/internal/session"
	"github.com/roach88/turnstile/internal/store"
	"github.com/roach88/turnstile/internal/tables"
	"github.com/roach88/turnstile/internal/transport"
)

const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	ConfigPath string
	Addr       string // overrides server.addr
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the match server",
		Long: `Serve skirmish matches over HTTP and websockets.

Configuration is read from the YAML file given with --config and then
from TURNSTILE_* environment variables. With store.path set, matches are
recorded to SQLite and unfinished ones are resumed on start.

Endpoints:
  POST /matches        create a match
  GET  /matches        list running matches
  GET  /matches/{id}   describe one match
  GET  /ws             websocket, ?match=<id>&player=<id>

Exit codes:
  0 - Server shut down cleanly
  2 - Command error (bad config, unreadable store, address in use)

Examples:
  turnstile serve --config ./turnstile.yaml
  TURNSTILE_STORE_PATH=./turnstile.db turnstile serve --addr :9000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	level, _ := config.ParseLevel(cfg.Log.Level)
	setupLogging(cmd.ErrOrStderr(), opts.Verbose, level)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := newServer(ctx, cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start server", err)
	}
	defer srv.Close()

	errc := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Server.Addr)
		errc <- srv.http.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitCommandError, "server failed", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.http.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown incomplete", "error", err)
		}
	}
	return nil
}

// server bundles the HTTP server with the manager and store behind it.
type server struct {
	http    *http.Server
	manager *session.Manager[skirmish.State]
	store   *store.Store
}

// newServer wires store, rule-set, manager and routes from cfg and resumes
// every stored match that has no outcome yet.
func newServer(ctx context.Context, cfg config.Config) (*server, error) {
	var ruleOpts []skirmish.Option
	if cfg.Tables.Path != "" {
		t, err := tables.LoadFile(cfg.Tables.Path)
		if err != nil {
			return nil, err
		}
		ruleOpts = append(ruleOpts, skirmish.WithTables(t))
	}
	rules := skirmish.New(ruleOpts...)
	engineCfg, err := rules.Config(
		engine.WithMaxDepth(cfg.Engine.MaxDepth),
		engine.WithMaxSteps(cfg.Engine.MaxSteps),
	)
	if err != nil {
		return nil, err
	}
	reg := rules.Registry()
	codec, err := transport.NewCodec[skirmish.State](reg)
	if err != nil {
		return nil, err
	}

	s := &server{}
	var ms session.MatchStore
	if cfg.Store.Path != "" {
		s.store, err = store.Open(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		ms = s.store
	}

	opts := session.DefaultOptions()
	opts.StreamWindow = cfg.Engine.StreamWindow
	opts.SnapshotEvery = cfg.Engine.SnapshotEvery
	opts.RevealSeed = cfg.Engine.RevealSeed
	s.manager = session.NewManager(engineCfg, ms, session.WithSessionOptions(opts))

	if s.store != nil {
		if err := s.resume(ctx, reg); err != nil {
			s.Close()
			return nil, err
		}
	}

	mux := http.NewServeMux()
	session.Routes(mux, s.manager, session.NewHandler(s.manager, codec))
	mux.HandleFunc("GET /healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})
	s.http = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s, nil
}

// resume restarts the unfinished skirmish matches in the store. A match
// that fails to replay is logged and left stopped.
func (s *server) resume(ctx context.Context, reg *game.Registry) error {
	matches, err := s.store.ListMatches(ctx)
	if err != nil {
		return err
	}
	for _, m := range matches {
		if m.Outcome != nil || m.RuleSet != skirmish.Name {
			continue
		}
		log, err := s.store.ReadMatchLog(ctx, m.ID, reg)
		if err != nil {
			return err
		}
		if _, err := s.manager.Resume(log); err != nil {
			slog.Error("resume failed", "match_id", m.ID, "error", err)
		}
	}
	return nil
}

// Close stops every session and closes the store.
func (s *server) Close() {
	s.manager.Close()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Warn("close store", "error", err)
		}
	}
}
