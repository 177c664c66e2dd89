package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/drivethru/internal/game"
)

// Game is the running session as seen by the round and mode handlers.
type Game interface {
	Snapshot(ctx context.Context) (game.Snapshot, error)
	Validate(ctx context.Context) (bool, error)
	Continue(ctx context.Context) (bool, error)
	Pause(ctx context.Context) (bool, error)
	Resume(ctx context.Context) (bool, error)
	SetMode(ctx context.Context, m game.Mode) error
}

// RoundHandler serves /api/round and its actions.
type RoundHandler struct {
	game Game
}

// NewRoundHandler creates a RoundHandler for g.
func NewRoundHandler(g Game) *RoundHandler {
	return &RoundHandler{game: g}
}

type actionResponse struct {
	Accepted bool          `json:"accepted"`
	Round    game.Snapshot `json:"round"`
}

// ServeHTTP routes GET /api/round and POST /api/round/{action}.
func (h *RoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := strings.TrimPrefix(r.URL.Path, "/api/round")
	action = strings.Trim(action, "/")

	if action == "" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.snapshot(w, r)
		return
	}

	var do func(context.Context) (bool, error)
	switch action {
	case "validate":
		do = h.game.Validate
	case "continue":
		do = h.game.Continue
	case "pause":
		do = h.game.Pause
	case "resume":
		do = h.game.Resume
	default:
		writeError(w, http.StatusNotFound, "Unknown action")
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	accepted, err := do(r.Context())
	if err != nil {
		log.Warn().Err(err).Str("action", action).Msg("round action failed")
		writeError(w, http.StatusServiceUnavailable, "Game is not running")
		return
	}

	snap, err := h.game.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Game is not running")
		return
	}

	writeJSON(w, http.StatusOK, actionResponse{Accepted: accepted, Round: snap})
}

func (h *RoundHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.game.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Game is not running")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ModeHandler serves GET and PUT /api/mode.
type ModeHandler struct {
	game Game
}

// NewModeHandler creates a ModeHandler for g.
func NewModeHandler(g Game) *ModeHandler {
	return &ModeHandler{game: g}
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type modeResponse struct {
	Mode  game.Mode   `json:"mode"`
	Modes []game.Mode `json:"modes"`
}

func (h *ModeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.put(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *ModeHandler) get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.game.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Game is not running")
		return
	}
	writeJSON(w, http.StatusOK, modeResponse{Mode: snap.Mode, Modes: game.Modes()})
}

// put switches mode. Unknown names select the default mode.
func (h *ModeHandler) put(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	mode := game.ParseMode(req.Mode)
	if err := h.game.SetMode(r.Context(), mode); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Game is not running")
		return
	}

	writeJSON(w, http.StatusOK, modeResponse{Mode: mode, Modes: game.Modes()})
}
