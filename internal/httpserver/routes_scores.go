// internal/httpserver/routes_scores.go
//
// Leaderboard endpoint:
//   - GET /scores?date=YYYY-MM-DD&limit=N → finished games, best first
//
// Without a date the board covers all time; date=today is accepted as a shortcut.
// limit defaults to 20.

package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/bowling/internal/leaderboard"
)

// mountScores registers the leaderboard route.
func (s *Server) mountScores(r chi.Router) {
	r.Get("/scores", s.handleLeaderboard)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date := q.Get("date")
	if date == "today" {
		date = leaderboard.DateKey(time.Now())
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.alley.Leaderboard(r.Context(), date, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
