// internal/alley/alley.go
//
// Player-facing bowling operations on top of the store.
// Responsibilities:
//   - Register players and start their games, within the configured lane capacity.
//   - Submit rolls through the game state machine (one at a time per game).
//   - Report the cursor, game-over flag, scorecard and leaderboard.
//
// Operations come in two forms: keyed by player (their current game) and
// keyed by game id. Unknown players fail with ErrUnknownPlayer, unknown games
// with ErrUnknownGame.
//
// Every operation opens a trace span; ids are UUIDs.

package alley

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/robalobadob/bowling/internal/game"
	"github.com/robalobadob/bowling/internal/leaderboard"
	"github.com/robalobadob/bowling/internal/store"
	"github.com/robalobadob/bowling/internal/telemetry"
)

var (
	ErrUnknownPlayer  = errors.New("unknown player")
	ErrUnknownGame    = errors.New("unknown game")
	ErrInvalidName    = errors.New("invalid player name")
	ErrNoFreeLanes    = errors.New("no free lanes")
	ErrGameInProgress = errors.New("game in progress")
	ErrOutOfTurn      = errors.New("roll out of turn")
	ErrInvalidDate    = errors.New("invalid date")
)

const (
	minNameLen = 2
	maxNameLen = 25
)

// Options configures an Alley. Zero values pick defaults.
type Options struct {
	Lanes int              // Max concurrent unfinished games; 0 means unlimited.
	NewID func() string    // Id generator, uuid.NewString by default.
	Now   func() time.Time // Clock, UTC wall time by default.
}

// Alley runs games for registered players.
type Alley struct {
	store  store.Store
	lanes  int
	newID  func() string
	now    func() time.Time
	tracer trace.Tracer

	admit sync.Mutex // serializes lane admission
}

// Scorecard is the scoring view of a player's current game.
type Scorecard struct {
	PlayerID string
	Name     string
	GameID   string
	Over     bool
	Snapshot game.Snapshot
}

// New constructs an Alley over st.
func New(st store.Store, opts Options) *Alley {
	a := &Alley{
		store:  st,
		lanes:  opts.Lanes,
		newID:  opts.NewID,
		now:    opts.Now,
		tracer: telemetry.Tracer("github.com/robalobadob/bowling/internal/alley"),
	}
	if a.newID == nil {
		a.newID = uuid.NewString
	}
	if a.now == nil {
		a.now = func() time.Time { return time.Now().UTC() }
	}
	return a
}

// CreatePlayer registers a player and starts their first game.
func (a *Alley) CreatePlayer(ctx context.Context, name string) (game.Player, error) {
	ctx, span := a.tracer.Start(ctx, "alley.CreatePlayer")
	defer span.End()

	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < minNameLen || n > maxNameLen {
		return game.Player{}, fail(span, fmt.Errorf("%w: must be %d to %d characters", ErrInvalidName, minNameLen, maxNameLen))
	}

	a.admit.Lock()
	defer a.admit.Unlock()
	if err := a.checkLanes(ctx); err != nil {
		return game.Player{}, fail(span, err)
	}

	p := game.Player{ID: a.newID(), Name: name, CreatedAt: a.now()}
	if err := a.store.CreatePlayer(ctx, p); err != nil {
		return game.Player{}, fail(span, fmt.Errorf("create player: %w", err))
	}
	gameID, err := a.startGame(ctx, p.ID)
	if err != nil {
		return game.Player{}, fail(span, err)
	}
	p.GameID = gameID

	span.SetAttributes(attribute.String("player.id", p.ID), attribute.String("game.id", gameID))
	log.Info().Str("player", p.ID).Str("game", gameID).Str("name", p.Name).Msg("player created")
	return p, nil
}

// CreateGame starts a new game for an existing player whose current game is over.
func (a *Alley) CreateGame(ctx context.Context, playerID string) (string, error) {
	ctx, span := a.tracer.Start(ctx, "alley.CreateGame", trace.WithAttributes(attribute.String("player.id", playerID)))
	defer span.End()

	a.admit.Lock()
	defer a.admit.Unlock()

	p, err := a.player(ctx, playerID)
	if err != nil {
		return "", fail(span, err)
	}
	over, err := a.GameIsOver(ctx, p.GameID)
	if err != nil {
		return "", fail(span, err)
	}
	if !over {
		return "", fail(span, fmt.Errorf("%w: player %s", ErrGameInProgress, playerID))
	}
	if err := a.checkLanes(ctx); err != nil {
		return "", fail(span, err)
	}
	gameID, err := a.startGame(ctx, playerID)
	if err != nil {
		return "", fail(span, err)
	}
	log.Info().Str("player", playerID).Str("game", gameID).Msg("game started")
	return gameID, nil
}

// SubmitRoll records pins for the player's current game at the current cursor.
func (a *Alley) SubmitRoll(ctx context.Context, playerID string, pins int) (game.Cursor, bool, error) {
	p, err := a.player(ctx, playerID)
	if err != nil {
		return game.Cursor{}, false, err
	}
	return a.submit(ctx, p.GameID, nil, pins)
}

// SubmitRollAt is SubmitRoll for clients that send the frame and roll they
// believe are next; a mismatch fails with ErrOutOfTurn.
func (a *Alley) SubmitRollAt(ctx context.Context, playerID string, expect game.Cursor, pins int) (game.Cursor, bool, error) {
	p, err := a.player(ctx, playerID)
	if err != nil {
		return game.Cursor{}, false, err
	}
	return a.submit(ctx, p.GameID, &expect, pins)
}

// NextFrame returns the cursor of the player's current game and whether it is over.
func (a *Alley) NextFrame(ctx context.Context, playerID string) (game.Cursor, bool, error) {
	p, err := a.player(ctx, playerID)
	if err != nil {
		return game.Cursor{}, false, err
	}
	return a.GameFrames(ctx, p.GameID)
}

// IsGameOver reports whether the player's current game is complete.
func (a *Alley) IsGameOver(ctx context.Context, playerID string) (bool, error) {
	_, over, err := a.NextFrame(ctx, playerID)
	return over, err
}

// Score returns the scorecard of the player's current game.
func (a *Alley) Score(ctx context.Context, playerID string) (Scorecard, error) {
	p, err := a.player(ctx, playerID)
	if err != nil {
		return Scorecard{}, err
	}
	snap, over, err := a.GameScore(ctx, p.GameID)
	if err != nil {
		return Scorecard{}, err
	}
	return Scorecard{PlayerID: p.ID, Name: p.Name, GameID: p.GameID, Over: over, Snapshot: snap}, nil
}

// SubmitGameRoll records pins for a game addressed by id.
func (a *Alley) SubmitGameRoll(ctx context.Context, gameID string, pins int) (game.Cursor, bool, error) {
	return a.submit(ctx, gameID, nil, pins)
}

// GameFrames returns the cursor of a game and whether it is over.
func (a *Alley) GameFrames(ctx context.Context, gameID string) (game.Cursor, bool, error) {
	ctx, span := a.tracer.Start(ctx, "alley.GameFrames", trace.WithAttributes(attribute.String("game.id", gameID)))
	defer span.End()

	var (
		c    game.Cursor
		over bool
	)
	err := a.store.ViewGame(ctx, gameID, func(g *game.Game) error {
		c, over = g.Cursor(), g.IsOver()
		return nil
	})
	if err != nil {
		return game.Cursor{}, false, fail(span, mapStoreErr(err, ErrUnknownGame))
	}
	return c, over, nil
}

// GameScore returns the scoring snapshot of a game and whether it is over.
func (a *Alley) GameScore(ctx context.Context, gameID string) (game.Snapshot, bool, error) {
	ctx, span := a.tracer.Start(ctx, "alley.GameScore", trace.WithAttributes(attribute.String("game.id", gameID)))
	defer span.End()

	var (
		snap game.Snapshot
		over bool
	)
	err := a.store.ViewGame(ctx, gameID, func(g *game.Game) error {
		snap, over = g.Score(), g.IsOver()
		return nil
	})
	if err != nil {
		return game.Snapshot{}, false, fail(span, mapStoreErr(err, ErrUnknownGame))
	}
	return snap, over, nil
}

// GameIsOver reports whether a game is complete.
func (a *Alley) GameIsOver(ctx context.Context, gameID string) (bool, error) {
	_, over, err := a.GameFrames(ctx, gameID)
	return over, err
}

func (a *Alley) submit(ctx context.Context, gameID string, expect *game.Cursor, pins int) (game.Cursor, bool, error) {
	ctx, span := a.tracer.Start(ctx, "alley.SubmitRoll", trace.WithAttributes(
		attribute.String("game.id", gameID),
		attribute.Int("pins", pins),
	))
	defer span.End()

	var (
		next  game.Cursor
		over  bool
		total int
	)
	err := a.store.UpdateGame(ctx, gameID, func(g *game.Game) error {
		if expect != nil && !g.IsOver() && *expect != g.Cursor() {
			c := g.Cursor()
			return fmt.Errorf("%w: expected frame %d roll %d, got frame %d roll %d",
				ErrOutOfTurn, c.Frame, c.Roll, expect.Frame, expect.Roll)
		}
		var err error
		next, over, err = g.SubmitRoll(pins)
		if err != nil {
			return err
		}
		if over {
			total, _ = g.Score().Total.Value()
		}
		return nil
	})
	if err != nil {
		return game.Cursor{}, false, fail(span, mapStoreErr(err, ErrUnknownGame))
	}

	log.Debug().Str("game", gameID).Int("pins", pins).
		Int("nextFrame", next.Frame).Int("nextRoll", next.Roll).Msg("roll recorded")
	if over {
		span.SetAttributes(attribute.Int("game.total", total))
		log.Info().Str("game", gameID).Int("total", total).Msg("game over")
	}
	return next, over, nil
}

// Leaderboard ranks finished games, for one UTC day or all time (empty date).
func (a *Alley) Leaderboard(ctx context.Context, date string, limit int) ([]leaderboard.Entry, error) {
	ctx, span := a.tracer.Start(ctx, "alley.Leaderboard", trace.WithAttributes(attribute.String("date", date)))
	defer span.End()

	if !leaderboard.ValidDate(date) {
		return nil, fail(span, fmt.Errorf("%w: %q", ErrInvalidDate, date))
	}
	entries, err := a.store.Finished(ctx, date)
	if err != nil {
		return nil, fail(span, fmt.Errorf("list finished games: %w", err))
	}
	return leaderboard.Rank(entries, limit), nil
}

// ---------------------------------------------------------------------------

func (a *Alley) player(ctx context.Context, id string) (game.Player, error) {
	p, err := a.store.Player(ctx, id)
	if err != nil {
		return game.Player{}, mapStoreErr(err, ErrUnknownPlayer)
	}
	if p.GameID == "" {
		return game.Player{}, fmt.Errorf("%w: player %s has no game", ErrUnknownGame, id)
	}
	return p, nil
}

// checkLanes fails when every lane holds an unfinished game. Callers hold a.admit.
func (a *Alley) checkLanes(ctx context.Context) error {
	if a.lanes <= 0 {
		return nil
	}
	n, err := a.store.ActiveGames(ctx)
	if err != nil {
		return fmt.Errorf("count active games: %w", err)
	}
	if n >= a.lanes {
		return fmt.Errorf("%w: %d of %d in use", ErrNoFreeLanes, n, a.lanes)
	}
	return nil
}

func (a *Alley) startGame(ctx context.Context, playerID string) (string, error) {
	g := game.New(a.newID(), playerID)
	if err := a.store.CreateGame(ctx, g); err != nil {
		return "", fmt.Errorf("create game: %w", mapStoreErr(err, ErrUnknownPlayer))
	}
	if err := a.store.SetPlayerGame(ctx, playerID, g.ID); err != nil {
		return "", fmt.Errorf("assign game: %w", err)
	}
	return g.ID, nil
}

// mapStoreErr turns store.ErrNotFound into the caller's not-found kind.
func mapStoreErr(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %v", notFound, err)
	}
	return err
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
