package systems

import (
	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/game"
	"github.com/roach88/turnstile/internal/response"
)

// ContentChecker is implemented by rule-sets that can tell whether a
// responder has anything to play in a window. Responders without content
// are skipped.
type ContentChecker[D any] interface {
	HasRespondableContent(state engine.MatchState[D], player game.PlayerID, windowType string) bool
}

// ResponseSystem owns SystemState.Response.
type ResponseSystem[D any] struct {
	content ContentChecker[D]
}

// NewResponseSystem returns a response system. A nil checker treats every
// responder as able to act.
func NewResponseSystem[D any](content ContentChecker[D]) *ResponseSystem[D] {
	return &ResponseSystem[D]{content: content}
}

func (s *ResponseSystem[D]) Name() string { return "response" }

func (s *ResponseSystem[D]) contentFunc(ctx *engine.Context[D], windowType string) response.ContentFunc {
	if s.content == nil {
		return nil
	}
	return func(p game.PlayerID) bool {
		return s.content.HasRespondableContent(ctx.State, p, windowType)
	}
}

// BeforeCommand restricts commands to the active window's allow-list and
// allow-listed commands to the priority holder.
func (s *ResponseSystem[D]) BeforeCommand(ctx *engine.Context[D], cmd game.Command) error {
	w, open := ctx.State.Sys.Response.Top()
	if !open {
		return nil
	}
	if cmd.Type == game.CommandPassResponse || cmd.Type == game.CommandRespondInteraction {
		return nil
	}
	if !ctx.Tables().Allowed(w.Type, cmd.Type) {
		return game.Blocked("%s is not allowed while window %q is open", cmd.Type, w.ID).WithCommand(cmd.Type)
	}
	if cmd.PlayerID != w.Holder() {
		return game.Blocked("%s does not hold priority in %q", cmd.PlayerID, w.ID).WithCommand(cmd.Type)
	}
	return nil
}

// HandleCommand executes PassResponse.
func (s *ResponseSystem[D]) HandleCommand(ctx *engine.Context[D], cmd game.Command) ([]game.Event, bool, error) {
	p, ok := cmd.Payload.(game.PassResponse)
	if !ok {
		return nil, false, nil
	}
	if err := ctx.State.Sys.Response.CheckPass(p.WindowID, cmd.PlayerID); err != nil {
		return nil, true, withCommand(err, cmd.Type)
	}
	return ctx.Events(response.Passed{WindowID: p.WindowID, PlayerID: cmd.PlayerID}), true, nil
}

// AfterCommand applies window events and reopening triggers. The Skipped,
// Reset and Closed events it derives are already applied when returned.
func (s *ResponseSystem[D]) AfterCommand(ctx *engine.Context[D], batch []engine.Emitted) ([]game.Event, error) {
	var derived []game.EventPayload
	for _, e := range batch {
		st := ctx.State.Sys.Response
		var more []game.EventPayload
		switch p := e.Payload.(type) {
		case response.Opened:
			st, more = st.Open(p, s.contentFunc(ctx, p.Type))
		case response.Passed:
			if w, ok := st.Top(); ok {
				st, more = st.Pass(p.WindowID, p.PlayerID, s.contentFunc(ctx, w.Type))
			}
		case response.Cleared:
			st = st.Clear()
		case game.SystemPayload:
		default:
			if w, ok := st.Top(); ok && ctx.Tables().Reopens(w.Type, e.Type()) {
				st, more = st.Reset(ctx.Command.PlayerID, s.contentFunc(ctx, w.Type))
			}
		}
		ctx.State.Sys.Response = st
		derived = append(derived, more...)
	}
	return ctx.Events(derived...), nil
}
