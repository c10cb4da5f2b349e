package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/transport"
)

const (
	writeWait  = 5 * time.Second
	readWait   = 60 * time.Second
	outboxSize = 32
)

type frame struct {
	kind int
	data []byte
}

// Handler serves matches over websockets at ?match=<id>&player=<id>.
//
// The first message on a connection is a zstd-compressed binary Sync.
// Every Update after that is a text frame, as are Rejects, which only the
// issuing connection receives.
type Handler[D any] struct {
	manager  *Manager[D]
	codec    *transport.Codec[D]
	upgrader websocket.Upgrader
}

// NewHandler returns a websocket handler for m's sessions.
func NewHandler[D any](m *Manager[D], codec *transport.Codec[D]) *Handler[D] {
	return &Handler[D]{
		manager: m,
		codec:   codec,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler[D]) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	matchID := r.URL.Query().Get("match")
	player := game.PlayerID(r.URL.Query().Get("player"))

	s, err := h.manager.Get(matchID)
	if err != nil {
		http.Error(rw, "unknown match", http.StatusNotFound)
		return
	}
	if !s.Seated(player) {
		http.Error(rw, "player not seated", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "match_id", matchID, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before the Sync so no Update can fall between them; the
	// client ignores Updates at or below the Sync's state id.
	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	first, err := h.codec.EncodeSync(s.Sync())
	if err != nil {
		slog.Error("encode sync failed", "match_id", matchID, "error", err)
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.BinaryMessage, transport.CompressSync(first)); err != nil {
		return
	}
	slog.Info("player connected", "match_id", matchID, "player", player)

	out := make(chan frame, outboxSize)
	go h.write(ctx, cancel, conn, out)
	go h.forward(ctx, cancel, matchID, updates, out)

	h.read(ctx, cancel, conn, s, player, out)
	slog.Info("player disconnected", "match_id", matchID, "player", player)
}

// write drains out onto the connection.
func (h *Handler[D]) write(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, out <-chan frame) {
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		case f := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(f.kind, f.data); err != nil {
				cancel()
				return
			}
		}
	}
}

// forward encodes session Updates. A closed subscription ends the
// connection so the client reconnects and resyncs.
func (h *Handler[D]) forward(ctx context.Context, cancel context.CancelFunc, matchID string, updates <-chan transport.Update[D], out chan<- frame) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				cancel()
				return
			}
			data, err := h.codec.EncodeUpdate(u)
			if err != nil {
				slog.Error("encode update failed", "match_id", matchID, "state_id", u.StateID, "error", err)
				cancel()
				return
			}
			if !send(ctx, out, frame{kind: websocket.TextMessage, data: data}) {
				return
			}
		}
	}
}

// read submits commands until the connection fails.
func (h *Handler[D]) read(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, s *Session[D], player game.PlayerID, out chan<- frame) {
	defer cancel()
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		cmd, err := h.codec.DecodeSubmit(msg)
		if err != nil {
			h.reject(ctx, s, out, game.Command{}, game.Rejected("malformed submit: %v", err))
			continue
		}
		if cmd.PlayerID != player {
			h.reject(ctx, s, out, cmd, game.Rejected("player mismatch: connection is %q", player).WithCommand(cmd.Type))
			continue
		}

		_, err = s.Submit(ctx, cmd)
		switch {
		case err == nil:
		case errors.Is(err, ErrClosed), errors.Is(err, context.Canceled):
			return
		default:
			h.reject(ctx, s, out, cmd, err)
		}
	}
}

func (h *Handler[D]) reject(ctx context.Context, s *Session[D], out chan<- frame, cmd game.Command, err error) {
	data, encErr := h.codec.EncodeReject(transport.NewReject(cmd, err, s.State().Sys.StateID))
	if encErr != nil {
		slog.Error("encode reject failed", "match_id", s.ID(), "error", encErr)
		return
	}
	send(ctx, out, frame{kind: websocket.TextMessage, data: data})
}

func send(ctx context.Context, out chan<- frame, f frame) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- f:
		return true
	}
}
