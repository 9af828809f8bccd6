// internal/httpserver/server.go
//
// HTTP server wiring for the bowling backend.
// Responsibilities:
//   - Router + middleware (request IDs, access logs, panic recovery, timeouts, JSON, CORS).
//   - Public endpoints: "/", "/health".
//   - Player/game endpoints under /api/players (routes_players.go).
//   - Leaderboard under /api/scores (routes_scores.go).
//   - Mapping domain errors to JSON error bodies.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so the player cookie works).
//   - Player tokens are only enforced when auth.required is set (auth.go).

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bowling/internal/alley"
	"github.com/robalobadob/bowling/internal/config"
	"github.com/robalobadob/bowling/internal/game"
)

// Server bundles the router and the alley it serves.
type Server struct {
	r     *chi.Mux
	alley *alley.Alley
	auth  config.Auth
}

// New constructs a Server, installs middleware, and registers routes.
func New(a *alley.Alley, cfg config.Config) *Server {
	s := &Server{r: chi.NewRouter(), alley: a, auth: cfg.Auth}

	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger), accessLog)
	s.r.Use(chimw.Recoverer)        // recover from panics
	s.r.Use(chimw.Timeout(timeout)) // bound handler time
	s.r.Use(jsonContentType)        // default JSON responses
	s.r.Use(cors(cfg.Server.ClientOrigin))

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "bowling-go",
			"endpoints": []string{
				"/health",
				"POST /api/players",
				"/api/players/{id}/frames",
				"GET /api/players/{id}/scores",
				"GET /api/scores",
			},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.r.Route("/api", func(r chi.Router) {
		s.mountPlayers(r)
		s.mountScores(r)
	})

	// JSON 404/405 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
	})
	s.r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" not allowed on "+r.URL.Path)
	})

	return s
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// accessLog writes one line per request through the request-scoped logger.
var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("reqId", chimw.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
})

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin != "" {
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------- responses ---------------------------------

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}

// fail maps a domain error to its status and code.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		writeError(w, status, code, "internal error")
		return
	}
	writeError(w, status, code, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrInvalidPinCount):
		return http.StatusBadRequest, "invalid_pin_count"
	case errors.Is(err, game.ErrPinCountExceedsFrameRemainder):
		return http.StatusBadRequest, "pin_count_exceeds_frame_remainder"
	case errors.Is(err, alley.ErrInvalidName):
		return http.StatusBadRequest, "invalid_name"
	case errors.Is(err, alley.ErrInvalidDate):
		return http.StatusBadRequest, "invalid_date"
	case errors.Is(err, alley.ErrUnknownPlayer):
		return http.StatusNotFound, "unknown_player"
	case errors.Is(err, alley.ErrUnknownGame):
		return http.StatusNotFound, "unknown_game"
	case errors.Is(err, game.ErrGameAlreadyOver):
		return http.StatusConflict, "game_already_over"
	case errors.Is(err, alley.ErrOutOfTurn):
		return http.StatusConflict, "out_of_turn"
	case errors.Is(err, alley.ErrNoFreeLanes):
		return http.StatusConflict, "no_free_lanes"
	case errors.Is(err, alley.ErrGameInProgress):
		return http.StatusConflict, "game_in_progress"
	}
	return http.StatusInternalServerError, "internal"
}
