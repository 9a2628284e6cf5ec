// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"pickwire/internal/domain/model"
	"pickwire/internal/domain/types"
	"pickwire/internal/manifest"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Games returns every tracked score record in display order.
	Games(ctx context.Context) ([]model.ScoreRecord, error)

	// Game returns the full read shape for one game.
	Game(ctx context.Context, id string) (types.GameDetail, error)

	// Grades returns the graded picks for one game.
	Grades(ctx context.Context, id string) ([]model.GradedPick, error)

	// Manifest returns the current manifest entries.
	Manifest(ctx context.Context) ([]manifest.Entry, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	gamesHandler    *GamesHandler
	manifestHandler *ManifestHandler
	hub             *Hub

	corsOrigins []string
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, hub *Hub, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		gamesHandler:    NewGamesHandler(deps),
		manifestHandler: NewManifestHandler(deps),
		hub:             hub,
		corsOrigins:     []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the full route tree and returns the handler to serve.
func (s *Server) Router(ctx context.Context) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.healthHandler.HandleHealth)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/games", MetricsMiddleware(s.gamesHandler.HandleListGames, "games")).Methods(http.MethodGet)
	apiRouter.HandleFunc("/games/{id}", MetricsMiddleware(s.gamesHandler.HandleGetGame, "game_detail")).Methods(http.MethodGet)
	apiRouter.HandleFunc("/games/{id}/grades", MetricsMiddleware(s.gamesHandler.HandleGetGrades, "game_grades")).Methods(http.MethodGet)
	apiRouter.HandleFunc("/manifest", MetricsMiddleware(s.manifestHandler.HandleGetManifest, "manifest")).Methods(http.MethodGet)
	apiRouter.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats")).Methods(http.MethodGet)

	if s.hub != nil {
		r.HandleFunc("/ws", s.hub.HandleWS)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithCORSOrigins overrides the allowed CORS origins.
func WithCORSOrigins(origins []string) ServerOption {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound allows the API to translate upstream not-found errors to 404.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
