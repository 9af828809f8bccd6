package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robalobadob/bowling/internal/alley"
	"github.com/robalobadob/bowling/internal/config"
	"github.com/robalobadob/bowling/internal/store"
)

type testServer struct {
	t *testing.T
	h http.Handler
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	st := store.NewMemoryStore()
	t.Cleanup(func() { _ = st.Close() })
	srv := New(alley.New(st, alley.Options{Lanes: cfg.Lanes}), cfg)
	return &testServer{t: t, h: srv.Handler()}
}

func (ts *testServer) do(method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	ts.t.Helper()
	var rd *bytes.Reader
	if body == "" {
		rd = bytes.NewReader(nil)
	} else {
		rd = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func (ts *testServer) createPlayer(name string) createPlayerRes {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/players", `{"name":"`+name+`"}`, nil)
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[createPlayerRes](ts.t, rec)
}

func (ts *testServer) roll(id string, pins int) *httptest.ResponseRecorder {
	ts.t.Helper()
	body, _ := json.Marshal(map[string]int{"pins": pins})
	return ts.do(http.MethodPost, "/api/players/"+id+"/frames", string(body), nil)
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decode[errorBody](t, rec)
	require.Equal(t, code, body.Error)
	require.NotEmpty(t, body.Message)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok":true}`, rec.Body.String())
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotFoundIsJSON(t *testing.T) {
	ts := newTestServer(t, nil)
	requireError(t, ts.do(http.MethodGet, "/nope", "", nil), http.StatusNotFound, "not_found")
}

func TestCreatePlayer(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(http.MethodPost, "/api/players", `{"name":"Ada"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	res := decode[createPlayerRes](t, rec)
	require.NotEmpty(t, res.ID)
	require.NotEmpty(t, res.GameID)
	require.NotEmpty(t, res.Token)
	require.Equal(t, "Ada", res.Name)
	require.Contains(t, rec.Header().Get("Set-Cookie"), "bowling_token=")

	requireError(t, ts.do(http.MethodPost, "/api/players", `{"name":"A"}`, nil), http.StatusBadRequest, "invalid_name")
	requireError(t, ts.do(http.MethodPost, "/api/players", `{name`, nil), http.StatusBadRequest, "bad_json")
}

func TestRollFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	p := ts.createPlayer("Ada")

	rec := ts.do(http.MethodGet, "/api/players/"+p.ID+"/frames", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	next := decode[nextFrameRes](t, rec)
	require.Equal(t, 1, next.FrameNumber)
	require.Equal(t, 1, next.RollNumber)
	require.Equal(t, p.ID, next.UserID)

	rec = ts.roll(p.ID, 10)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.JSONEq(t, `{"nextFrame":2,"nextRoll":1}`, rec.Body.String())

	rec = ts.roll(p.ID, 7)
	require.JSONEq(t, `{"nextFrame":2,"nextRoll":2}`, rec.Body.String())

	requireError(t, ts.roll(p.ID, 4), http.StatusBadRequest, "pin_count_exceeds_frame_remainder")
	requireError(t, ts.roll(p.ID, 11), http.StatusBadRequest, "invalid_pin_count")
	requireError(t, ts.roll("ghost", 1), http.StatusNotFound, "unknown_player")
	requireError(t, ts.do(http.MethodPost, "/api/players/"+p.ID+"/frames", `{}`, nil), http.StatusBadRequest, "bad_request")

	rec = ts.do(http.MethodPost, "/api/players/"+p.ID+"/frames", `{"pins":3,"frameNumber":3,"rollNumber":1}`, nil)
	requireError(t, rec, http.StatusConflict, "out_of_turn")
	rec = ts.do(http.MethodPost, "/api/players/"+p.ID+"/frames", `{"pins":3,"frameNumber":2,"rollNumber":2}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.JSONEq(t, `{"nextFrame":3,"nextRoll":1}`, rec.Body.String())
}

func TestScoresWithPendingFrames(t *testing.T) {
	ts := newTestServer(t, nil)
	p := ts.createPlayer("Ada")

	rec := ts.do(http.MethodGet, "/api/players/"+p.ID+"/scores", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	empty := decode[scoresRes](t, rec)
	require.Empty(t, empty.Frames)
	require.Nil(t, empty.TotalScore)

	ts.roll(p.ID, 10)
	ts.roll(p.ID, 3)

	rec = ts.do(http.MethodGet, "/api/players/"+p.ID+"/scores", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{
		"userId": "`+p.ID+`",
		"name": "Ada",
		"gameId": "`+p.GameID+`",
		"isGameOver": false,
		"frames": [
			{"frameNumber": 1, "kind": "strike", "isFinalScore": false, "rolls": [{"pins": 10, "mark": "X"}]},
			{"frameNumber": 2, "kind": "in_progress", "isFinalScore": false, "rolls": [{"pins": 3}, {"status": "PENDING"}]}
		]
	}`, rec.Body.String())

	ts.roll(p.ID, 0)
	rec = ts.do(http.MethodGet, "/api/players/"+p.ID+"/scores", "", nil)
	res := decode[scoresRes](t, rec)
	require.NotNil(t, res.TotalScore)
	require.Equal(t, 16, *res.TotalScore)
	require.Len(t, res.Frames, 2)
	require.Equal(t, 13, *res.Frames[0].Score)
	require.Equal(t, 16, *res.Frames[1].Score)
	require.Equal(t, "-", string(res.Frames[1].Rolls[1].Mark))
}

func TestGameOverFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	p := ts.createPlayer("Ada")

	for i := 0; i < 11; i++ {
		require.Equal(t, http.StatusOK, ts.roll(p.ID, 10).Code)
	}
	rec := ts.roll(p.ID, 10)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"isGameOver":true}`, rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/players/"+p.ID+"/game", "", nil)
	require.JSONEq(t, `{"isGameOver":true}`, rec.Body.String())
	rec = ts.do(http.MethodGet, "/api/players/"+p.ID+"/frames", "", nil)
	require.JSONEq(t, `{"isGameOver":true}`, rec.Body.String())

	requireError(t, ts.roll(p.ID, 0), http.StatusConflict, "game_already_over")

	res := decode[scoresRes](t, ts.do(http.MethodGet, "/api/players/"+p.ID+"/scores", "", nil))
	require.True(t, res.IsGameOver)
	require.Equal(t, 300, *res.TotalScore)
	require.Len(t, res.Frames, 10)
	require.Len(t, res.Frames[9].Rolls, 3)

	rec = ts.do(http.MethodPost, "/api/players/"+p.ID+"/games", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ng := decode[newGameRes](t, rec)
	require.NotEqual(t, p.GameID, ng.GameID)

	requireError(t, ts.do(http.MethodPost, "/api/players/"+p.ID+"/games", "", nil), http.StatusConflict, "game_in_progress")
}

func TestLanes(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Lanes = 1 })
	ts.createPlayer("Ada")
	rec := ts.do(http.MethodPost, "/api/players", `{"name":"Grace"}`, nil)
	requireError(t, rec, http.StatusConflict, "no_free_lanes")
}

func TestLeaderboard(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/scores", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	ada := ts.createPlayer("Ada")
	grace := ts.createPlayer("Grace")
	for i := 0; i < 20; i++ {
		ts.roll(ada.ID, 1)
	}
	for i := 0; i < 21; i++ {
		ts.roll(grace.ID, 5)
	}

	rec = ts.do(http.MethodGet, "/api/scores?date=today", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var board []struct {
		Name       string `json:"name"`
		TotalScore int    `json:"totalScore"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	require.Len(t, board, 2)
	require.Equal(t, "Grace", board[0].Name)
	require.Equal(t, 150, board[0].TotalScore)
	require.Equal(t, "Ada", board[1].Name)
	require.Equal(t, 20, board[1].TotalScore)

	rec = ts.do(http.MethodGet, "/api/scores?limit=1", "", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	require.Len(t, board, 1)

	requireError(t, ts.do(http.MethodGet, "/api/scores?limit=x", "", nil), http.StatusBadRequest, "invalid_limit")
	requireError(t, ts.do(http.MethodGet, "/api/scores?date=2026-13-01", "", nil), http.StatusBadRequest, "invalid_date")
}

func TestRequiredToken(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Auth.Required = true })
	ada := ts.createPlayer("Ada")
	grace := ts.createPlayer("Grace")

	requireError(t, ts.roll(ada.ID, 3), http.StatusUnauthorized, "unauthorized")

	rec := ts.do(http.MethodPost, "/api/players/"+ada.ID+"/frames", `{"pins":3}`,
		map[string]string{"Authorization": "Bearer " + grace.Token})
	requireError(t, rec, http.StatusUnauthorized, "invalid_token")

	rec = ts.do(http.MethodPost, "/api/players/"+ada.ID+"/frames", `{"pins":3}`,
		map[string]string{"Authorization": "Bearer not-a-jwt"})
	requireError(t, rec, http.StatusUnauthorized, "invalid_token")

	rec = ts.do(http.MethodPost, "/api/players/"+ada.ID+"/frames", `{"pins":3}`,
		map[string]string{"Authorization": "Bearer " + ada.Token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, "/api/players/"+ada.ID+"/frames", `{"pins":3}`,
		map[string]string{"Cookie": "bowling_token=" + ada.Token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// reads stay open
	rec = ts.do(http.MethodGet, "/api/players/"+ada.ID+"/scores", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `"totalScore":6`), rec.Body.String())
}

func TestTokenRoundTrip(t *testing.T) {
	s := New(alley.New(store.NewMemoryStore(), alley.Options{}), config.Default())
	tok, exp, err := s.signToken("p1")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(s.auth.TTL), exp, time.Minute)

	sub, err := s.parseToken(tok)
	require.NoError(t, err)
	require.Equal(t, "p1", sub)

	other := New(alley.New(store.NewMemoryStore(), alley.Options{}), func() config.Config {
		c := config.Default()
		c.Auth.Secret = "another"
		return c
	}())
	_, err = other.parseToken(tok)
	require.Error(t, err)
}
