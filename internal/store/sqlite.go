// internal/store/sqlite.go
//
// SQLite implementation of the Store interface.
//
// Schema (assets/sql):
//   - players(id, name, game_id, created_at)
//   - games(id, player_id, started_at, finished_at, total_score)
//   - rolls(game_id, seq, pins, created_at): append-only roll history.
//
// A game is rebuilt by replaying its rolls; UpdateGame inserts only the rolls
// added by the callback, in one transaction, under a per-game mutex.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/robalobadob/bowling/internal/game"
	"github.com/robalobadob/bowling/internal/leaderboard"
)

const timeLayout = time.RFC3339Nano

type sqliteStore struct {
	db    *sql.DB
	locks sync.Map // game id -> *sync.Mutex
	now   func() time.Time
}

// NewSQLiteStore wraps an open, migrated database.
func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *sqliteStore) lockFor(id string) *sync.Mutex {
	l, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return l.(*sync.Mutex)
}

func (s *sqliteStore) CreatePlayer(ctx context.Context, p game.Player) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, name, game_id, created_at) VALUES (?,?,NULLIF(?,''),?)`,
		p.ID, p.Name, p.GameID, p.CreatedAt.UTC().Format(timeLayout))
	if isConstraint(err) {
		return fmt.Errorf("player %s: %w", p.ID, ErrExists)
	}
	return err
}

func (s *sqliteStore) Player(ctx context.Context, id string) (game.Player, error) {
	var p game.Player
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(game_id,''), created_at FROM players WHERE id=?`, id,
	).Scan(&p.ID, &p.Name, &p.GameID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Player{}, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return game.Player{}, err
	}
	p.CreatedAt = parseTime(created)
	return p, nil
}

func (s *sqliteStore) SetPlayerGame(ctx context.Context, playerID, gameID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE players SET game_id=? WHERE id=?`, gameID, playerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	return nil
}

func (s *sqliteStore) CreateGame(ctx context.Context, g *game.Game) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM players WHERE id=?`, g.PlayerID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("player %s: %w", g.PlayerID, ErrNotFound)
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO games (id, player_id, started_at) VALUES (?,?,?)`,
		g.ID, g.PlayerID, s.now().Format(timeLayout)); err != nil {
		if isConstraint(err) {
			return fmt.Errorf("game %s: %w", g.ID, ErrExists)
		}
		return err
	}
	if err := insertRolls(ctx, tx, g.ID, g.Pins(), 0, s.now()); err != nil {
		return err
	}
	return tx.Commit()
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadGame(ctx context.Context, q queryer, id string) (*game.Game, error) {
	var playerID string
	err := q.QueryRowContext(ctx, `SELECT player_id FROM games WHERE id=?`, id).Scan(&playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `SELECT pins FROM rolls WHERE game_id=? ORDER BY seq ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pins []int
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		pins = append(pins, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return game.Replay(id, playerID, pins)
}

func insertRolls(ctx context.Context, tx *sql.Tx, gameID string, pins []int, from int, at time.Time) error {
	for i := from; i < len(pins); i++ {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rolls (game_id, seq, pins, created_at) VALUES (?,?,?,?)`,
			gameID, i+1, pins[i], at.Format(timeLayout)); err != nil {
			return fmt.Errorf("insert roll %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *sqliteStore) UpdateGame(ctx context.Context, id string, fn func(*game.Game) error) error {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	g, err := loadGame(ctx, tx, id)
	if err != nil {
		return err
	}
	before, wasOver := g.RollCount(), g.IsOver()
	if err := fn(g); err != nil {
		return err
	}

	now := s.now()
	if err := insertRolls(ctx, tx, id, g.Pins(), before, now); err != nil {
		return err
	}
	if !wasOver && g.IsOver() {
		total, _ := g.Score().Total.Value()
		if _, err := tx.ExecContext(ctx,
			`UPDATE games SET finished_at=?, total_score=? WHERE id=?`,
			now.Format(timeLayout), total, id); err != nil {
			return fmt.Errorf("finish game: %w", err)
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) ViewGame(ctx context.Context, id string, fn func(*game.Game) error) error {
	g, err := loadGame(ctx, s.db, id)
	if err != nil {
		return err
	}
	return fn(g)
}

func (s *sqliteStore) ActiveGames(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM games WHERE finished_at IS NULL`).Scan(&n)
	return n, err
}

func (s *sqliteStore) Finished(ctx context.Context, date string) ([]leaderboard.Entry, error) {
	query := `SELECT g.player_id, p.name, g.id, COALESCE(g.total_score,0), g.finished_at
	          FROM games g JOIN players p ON p.id = g.player_id
	          WHERE g.finished_at IS NOT NULL`
	var args []any
	if date != "" {
		query += ` AND substr(g.finished_at, 1, 10) = ?`
		args = append(args, date)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leaderboard.Entry
	for rows.Next() {
		var e leaderboard.Entry
		var finished string
		if err := rows.Scan(&e.PlayerID, &e.Name, &e.GameID, &e.TotalScore, &finished); err != nil {
			return nil, err
		}
		e.FinishedAt = parseTime(finished)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Close() error { return s.db.Close() }

// parseTime parses stored timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func isConstraint(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "constraint failed")
}
