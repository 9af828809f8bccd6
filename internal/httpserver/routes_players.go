// internal/httpserver/routes_players.go
//
// Player and game endpoints under /api/players:
//   - POST /players                → register a player and start their first game
//   - POST /players/{id}/games     → start a new game once the current one is over
//   - GET  /players/{id}/frames    → next frame and roll to bowl
//   - POST /players/{id}/frames    → submit a roll
//   - GET  /players/{id}/game      → whether the current game is over
//   - GET  /players/{id}/scores    → scorecard of the current game
//
// Roll submission and new games require the player's token when auth.required is set.

package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/bowling/internal/alley"
	"github.com/robalobadob/bowling/internal/game"
)

// PendingStatus marks a roll the frame still waits for.
const PendingStatus = "PENDING"

// mountPlayers registers all /players routes.
func (s *Server) mountPlayers(r chi.Router) {
	r.Post("/players", s.handleCreatePlayer)
	r.Route("/players/{id}", func(r chi.Router) {
		r.Get("/frames", s.handleNextFrame)
		r.Get("/game", s.handleGameOver)
		r.Get("/scores", s.handleScores)

		r.Group(func(r chi.Router) {
			r.Use(s.requirePlayerToken)
			r.Post("/frames", s.handleRoll)
			r.Post("/games", s.handleNewGame)
		})
	})
}

// -----------------------------------------------------------------------------
// POST /players

type createPlayerReq struct {
	Name string `json:"name"`
}

type createPlayerRes struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	GameID string `json:"gameId"`
	Token  string `json:"token"`
}

func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req createPlayerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	p, err := s.alley.CreatePlayer(r.Context(), req.Name)
	if err != nil {
		fail(w, r, err)
		return
	}
	tok, exp, err := s.signToken(p.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	s.setAuthCookie(w, r, tok, exp)
	writeJSON(w, http.StatusCreated, createPlayerRes{ID: p.ID, Name: p.Name, GameID: p.GameID, Token: tok})
}

// -----------------------------------------------------------------------------
// POST /players/{id}/games

type newGameRes struct {
	GameID string `json:"gameId"`
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := s.alley.CreateGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newGameRes{GameID: gameID})
}

// -----------------------------------------------------------------------------
// GET /players/{id}/frames, GET /players/{id}/game

type nextFrameRes struct {
	UserID      string `json:"userId"`
	FrameNumber int    `json:"frameNumber"`
	RollNumber  int    `json:"rollNumber"`
}

type gameOverRes struct {
	IsGameOver bool `json:"isGameOver"`
}

func (s *Server) handleNextFrame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, over, err := s.alley.NextFrame(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	if over {
		writeJSON(w, http.StatusOK, gameOverRes{IsGameOver: true})
		return
	}
	writeJSON(w, http.StatusOK, nextFrameRes{UserID: id, FrameNumber: c.Frame, RollNumber: c.Roll})
}

func (s *Server) handleGameOver(w http.ResponseWriter, r *http.Request) {
	over, err := s.alley.IsGameOver(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gameOverRes{IsGameOver: over})
}

// -----------------------------------------------------------------------------
// POST /players/{id}/frames

// rollReq carries the pins and, optionally, the position the client expects.
type rollReq struct {
	Pins        *int `json:"pins"`
	FrameNumber *int `json:"frameNumber,omitempty"`
	RollNumber  *int `json:"rollNumber,omitempty"`
}

type rollRes struct {
	NextFrame int `json:"nextFrame"`
	NextRoll  int `json:"nextRoll"`
}

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	var req rollReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	if req.Pins == nil {
		writeError(w, http.StatusBadRequest, "bad_request", "pins is required")
		return
	}
	if (req.FrameNumber == nil) != (req.RollNumber == nil) {
		writeError(w, http.StatusBadRequest, "bad_request", "frameNumber and rollNumber go together")
		return
	}

	id := chi.URLParam(r, "id")
	var (
		next game.Cursor
		over bool
		err  error
	)
	if req.FrameNumber != nil {
		at := game.Cursor{Frame: *req.FrameNumber, Roll: *req.RollNumber}
		next, over, err = s.alley.SubmitRollAt(r.Context(), id, at, *req.Pins)
	} else {
		next, over, err = s.alley.SubmitRoll(r.Context(), id, *req.Pins)
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	if over {
		writeJSON(w, http.StatusOK, gameOverRes{IsGameOver: true})
		return
	}
	writeJSON(w, http.StatusOK, rollRes{NextFrame: next.Frame, NextRoll: next.Roll})
}

// -----------------------------------------------------------------------------
// GET /players/{id}/scores

type scoresRes struct {
	UserID     string     `json:"userId"`
	Name       string     `json:"name"`
	GameID     string     `json:"gameId"`
	IsGameOver bool       `json:"isGameOver"`
	TotalScore *int       `json:"totalScore,omitempty"`
	Frames     []frameRes `json:"frames"`
}

type frameRes struct {
	FrameNumber  int          `json:"frameNumber"`
	Kind         game.Kind    `json:"kind"`
	IsFinalScore bool         `json:"isFinalScore"`
	Score        *int         `json:"score,omitempty"`
	Rolls        []rollScores `json:"rolls"`
}

// rollScores is a recorded roll, or a placeholder carrying only Status.
type rollScores struct {
	Pins   *int      `json:"pins,omitempty"`
	Mark   game.Mark `json:"mark,omitempty"`
	Status string    `json:"status,omitempty"`
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	card, err := s.alley.Score(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toScoresRes(card))
}

// toScoresRes lists the frames bowled so far. A started frame that is still
// missing rolls gets one PENDING placeholder per missing roll.
func toScoresRes(card alley.Scorecard) scoresRes {
	res := scoresRes{
		UserID:     card.PlayerID,
		Name:       card.Name,
		GameID:     card.GameID,
		IsGameOver: card.Over,
		TotalScore: scorePtr(card.Snapshot.Total),
		Frames:     []frameRes{},
	}
	for _, fs := range card.Snapshot.Frames {
		if len(fs.Rolls) == 0 {
			continue
		}
		fr := frameRes{
			FrameNumber:  fs.Number,
			Kind:         fs.Kind,
			IsFinalScore: !fs.Cumulative.IsPending(),
			Score:        scorePtr(fs.Cumulative),
			Rolls:        make([]rollScores, 0, len(fs.Rolls)+fs.Remaining),
		}
		for _, roll := range fs.Rolls {
			pins := roll.Pins
			fr.Rolls = append(fr.Rolls, rollScores{Pins: &pins, Mark: roll.Mark})
		}
		for i := 0; i < fs.Remaining; i++ {
			fr.Rolls = append(fr.Rolls, rollScores{Status: PendingStatus})
		}
		res.Frames = append(res.Frames, fr)
	}
	return res
}

func scorePtr(s game.Score) *int {
	n, ok := s.Value()
	if !ok {
		return nil
	}
	return &n
}
