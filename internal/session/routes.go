package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/roach88/turnstile/internal/game"
)

// CreateRequest is the body of POST /matches.
type CreateRequest struct {
	Players []game.PlayerID `json:"players"`
	Seed    string          `json:"seed,omitempty"`
}

// MatchInfo describes a running match.
type MatchInfo struct {
	ID      string          `json:"id"`
	Players []game.PlayerID `json:"players"`
	StateID int64           `json:"state_id"`
	Phase   string          `json:"phase"`
	Over    bool            `json:"over"`
}

// Routes registers the match API and the websocket endpoint on mux:
//
//	POST /matches        create a match
//	GET  /matches        list running matches
//	GET  /matches/{id}   describe one match
//	GET  /ws             websocket, ?match=&player=
func Routes[D any](mux *http.ServeMux, m *Manager[D], h *Handler[D]) {
	mux.HandleFunc("POST /matches", func(rw http.ResponseWriter, r *http.Request) {
		var req CreateRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(rw, "invalid request: "+err.Error(), http.StatusBadRequest)
			return
		}
		s, err := m.Create(r.Context(), req.Players, req.Seed)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrClosed) {
				status = http.StatusServiceUnavailable
			} else if errors.Is(err, ErrInvalidMatch) {
				status = http.StatusBadRequest
			}
			http.Error(rw, err.Error(), status)
			return
		}
		writeJSON(rw, http.StatusCreated, info(s))
	})

	mux.HandleFunc("GET /matches", func(rw http.ResponseWriter, r *http.Request) {
		ids := m.List()
		out := make([]MatchInfo, 0, len(ids))
		for _, id := range ids {
			if s, err := m.Get(id); err == nil {
				out = append(out, info(s))
			}
		}
		writeJSON(rw, http.StatusOK, out)
	})

	mux.HandleFunc("GET /matches/{id}", func(rw http.ResponseWriter, r *http.Request) {
		s, err := m.Get(r.PathValue("id"))
		if err != nil {
			http.Error(rw, "unknown match", http.StatusNotFound)
			return
		}
		writeJSON(rw, http.StatusOK, info(s))
	})

	mux.Handle("GET /ws", h)
}

func info[D any](s *Session[D]) MatchInfo {
	st := s.State()
	return MatchInfo{
		ID:      s.ID(),
		Players: s.Players(),
		StateID: st.Sys.StateID,
		Phase:   st.Phase(),
		Over:    st.Over(),
	}
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		slog.Debug("write response failed", "error", err)
	}
}
