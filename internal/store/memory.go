// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Used for development, tests, or when durability is not required.
//
// Characteristics:
//   - Players and games kept in maps guarded by one RWMutex.
//   - Each game carries its own RWMutex: one writer or many readers per game.
//   - Updates run against a replayed copy and are swapped in on success.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robalobadob/bowling/internal/game"
	"github.com/robalobadob/bowling/internal/leaderboard"
)

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu      sync.RWMutex           // guards players and games maps
	players map[string]game.Player // keyed by Player.ID
	games   map[string]*entry      // keyed by Game.ID
	now     func() time.Time
}

// entry is one stored game plus its lock.
type entry struct {
	mu         sync.RWMutex
	g          *game.Game
	finishedAt time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		players: make(map[string]game.Player),
		games:   make(map[string]*entry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *memory) CreatePlayer(ctx context.Context, p game.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[p.ID]; ok {
		return fmt.Errorf("player %s: %w", p.ID, ErrExists)
	}
	m.players[p.ID] = p
	return nil
}

func (m *memory) Player(ctx context.Context, id string) (game.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.players[id]; ok {
		return p, nil
	}
	return game.Player{}, fmt.Errorf("player %s: %w", id, ErrNotFound)
}

func (m *memory) SetPlayerGame(ctx context.Context, playerID, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[playerID]
	if !ok {
		return fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	if _, ok := m.games[gameID]; !ok {
		return fmt.Errorf("game %s: %w", gameID, ErrNotFound)
	}
	p.GameID = gameID
	m.players[playerID] = p
	return nil
}

func (m *memory) CreateGame(ctx context.Context, g *game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[g.PlayerID]; !ok {
		return fmt.Errorf("player %s: %w", g.PlayerID, ErrNotFound)
	}
	if _, ok := m.games[g.ID]; ok {
		return fmt.Errorf("game %s: %w", g.ID, ErrExists)
	}
	m.games[g.ID] = &entry{g: g}
	return nil
}

// lookup returns the entry for id without holding the map lock afterwards.
func (m *memory) lookup(id string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.games[id]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	return e, nil
}

func (m *memory) UpdateGame(ctx context.Context, id string, fn func(*game.Game) error) error {
	e, err := m.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	work, err := game.Replay(e.g.ID, e.g.PlayerID, e.g.Pins())
	if err != nil {
		return err
	}
	if err := fn(work); err != nil {
		return err
	}
	if !e.g.IsOver() && work.IsOver() {
		e.finishedAt = m.now()
	}
	e.g = work
	return nil
}

func (m *memory) ViewGame(ctx context.Context, id string, fn func(*game.Game) error) error {
	e, err := m.lookup(id)
	if err != nil {
		return err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.g)
}

func (m *memory) ActiveGames(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.games {
		e.mu.RLock()
		if !e.g.IsOver() {
			n++
		}
		e.mu.RUnlock()
	}
	return n, nil
}

func (m *memory) Finished(ctx context.Context, date string) ([]leaderboard.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leaderboard.Entry
	for _, e := range m.games {
		e.mu.RLock()
		over, at, g := e.g.IsOver(), e.finishedAt, e.g
		var total int
		if over {
			total, _ = g.Score().Total.Value()
		}
		e.mu.RUnlock()

		if !over || (date != "" && leaderboard.DateKey(at) != date) {
			continue
		}
		out = append(out, leaderboard.Entry{
			PlayerID:   g.PlayerID,
			Name:       m.players[g.PlayerID].Name,
			GameID:     g.ID,
			TotalScore: total,
			FinishedAt: at,
		})
	}
	return out, nil
}

func (m *memory) Close() error { return nil }
