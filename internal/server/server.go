// Package server provides the HTTP surface of the drive-thru game.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/ayusman/drivethru/internal/server/api"
	"github.com/ayusman/drivethru/internal/store"
)

// Game is the running session behind the HTTP surface.
type Game interface {
	api.Game
	// Preview returns the latest annotated frame as JPEG, or nil.
	Preview() []byte
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Game      Game
	Store     *store.Store
	Player    string

	// Scores backs /api/scores and /api/leaderboard. When nil and Store is
	// set, the SQLite high scores are served.
	Scores api.Scoreboard

	// EventInterval is how often snapshots are pushed to WebSocket clients.
	EventInterval time.Duration

	// AllowedOrigins enables CORS for a web UI served from elsewhere.
	AllowedOrigins []string
}

// Server represents the HTTP server.
type Server struct {
	config  Config
	mux     *http.ServeMux
	handler http.Handler
	start   time.Time
	events  *EventsHandler
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()

	s.handler = s.mux
	if len(config.AllowedOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedMethods: []string{
				http.MethodHead,
				http.MethodGet,
				http.MethodPost,
				http.MethodPut,
			},
			AllowedOrigins: config.AllowedOrigins,
			AllowedHeaders: []string{"*"},
		})
		s.handler = c.Handler(s.mux)
	}
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Game != nil {
		round := api.NewRoundHandler(s.config.Game)
		s.mux.Handle("/api/round", round)
		s.mux.Handle("/api/round/", round)
		s.mux.Handle("/api/mode", api.NewModeHandler(s.config.Game))
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Game))

		s.events = NewEventsHandler(s.config.Game, s.config.EventInterval)
		s.mux.Handle("/api/events", s.events)
	}

	scores := s.config.Scores
	if s.config.Store != nil {
		if scores == nil {
			scores = store.NewScoreKeeper(s.config.Store, s.config.Player)
		}
		s.mux.Handle("/api/rounds", api.NewRoundsHandler(s.config.Store, s.config.Player))
	}
	if scores != nil {
		s.mux.Handle("/api/scores", api.NewScoresHandler(scores, s.config.Player))
		s.mux.Handle("/api/leaderboard", api.NewLeaderboardHandler(scores))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Close stops the event broadcaster and disconnects its clients.
func (s *Server) Close() {
	if s.events != nil {
		s.events.Close()
	}
}
