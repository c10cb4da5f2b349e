package client

import (
	"github.com/roach88/turnstile/internal/engine"
	"github.com/roach88/turnstile/internal/eventstream"
)

// Render returns the state to display: the predicted tip, minus stream
// entries newer than the wait-confirm watermark.
func (e *Engine[D]) Render() engine.MatchState[D] {
	if !e.hiding {
		return e.tip
	}
	out := e.tip.Clone()
	out.Sys.Stream.Entries = e.tip.Sys.Stream.EntriesThrough(e.watermark)
	return out
}

// unplayed returns the entries of st after cursor the UI has not shown,
// leaving out the replays of already shown predictions.
func (e *Engine[D]) unplayed(st engine.MatchState[D], cursor int64) []eventstream.Entry {
	var out []eventstream.Entry
	for _, en := range FilterPlayedEvents(st, cursor).Sys.Stream.Entries {
		if !e.replayed[en.ID] {
			out = append(out, en)
		}
	}
	return out
}

// FilterPlayedEvents returns state without the stream entries at or below
// watermark, which the player has already seen.
func FilterPlayedEvents[D any](state engine.MatchState[D], watermark int64) engine.MatchState[D] {
	out := state.Clone()
	out.Sys.Stream.Entries = state.Sys.Stream.EntriesSince(watermark)
	return out
}
