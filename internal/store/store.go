// Package store persists players and games and serializes access per game.
//
// Implementations:
//   - memory: map-backed, state is lost on restart.
//   - sqlite: players, games and an append-only rolls table.
//
// Every implementation runs UpdateGame callbacks for the same game one at a
// time, while different games proceed in parallel. A callback that returns an
// error leaves the stored game unchanged.
package store

import (
	"context"
	"errors"

	"github.com/robalobadob/bowling/internal/game"
	"github.com/robalobadob/bowling/internal/leaderboard"
)

var (
	// ErrNotFound is returned for unknown player or game ids.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when an id is already taken.
	ErrExists = errors.New("already exists")
)

// Store defines the persistence interface for players and games.
type Store interface {
	// CreatePlayer registers a new player.
	CreatePlayer(ctx context.Context, p game.Player) error

	// Player looks up a player by id.
	Player(ctx context.Context, id string) (game.Player, error)

	// SetPlayerGame points a player at their current game.
	SetPlayerGame(ctx context.Context, playerID, gameID string) error

	// CreateGame stores a new, empty game.
	CreateGame(ctx context.Context, g *game.Game) error

	// UpdateGame runs fn with exclusive access to the game and keeps its
	// changes only if fn returns nil.
	UpdateGame(ctx context.Context, id string, fn func(*game.Game) error) error

	// ViewGame runs fn with read access to the game. fn must not modify or
	// retain the game.
	ViewGame(ctx context.Context, id string, fn func(*game.Game) error) error

	// ActiveGames counts games that are not over.
	ActiveGames(ctx context.Context) (int, error)

	// Finished lists finished games, optionally limited to one UTC day
	// (YYYY-MM-DD; empty means all time). The result is unordered.
	Finished(ctx context.Context, date string) ([]leaderboard.Entry, error)

	// Close releases resources held by the store.
	Close() error
}
