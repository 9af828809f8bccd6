// internal/leaderboard/leaderboard.go
//
// Rating of finished games.
// Entries come from the store (one per finished game); this package only
// keys them by day and orders them.
//
// Ordering: highest total first, then the earlier finish, then player name.

package leaderboard

import (
	"sort"
	"time"
)

// DefaultLimit is used when a caller asks for a non-positive limit.
const DefaultLimit = 20

// Entry is one finished game on the board.
type Entry struct {
	PlayerID   string    `json:"playerId"`
	Name       string    `json:"name"`
	GameID     string    `json:"gameId"`
	TotalScore int       `json:"totalScore"`
	FinishedAt time.Time `json:"finishedAt"`
}

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ValidDate reports whether s is empty (all time) or a YYYY-MM-DD date.
func ValidDate(s string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// Rank sorts a copy of entries and truncates it to limit.
func Rank(entries []Entry, limit int) []Entry {
	if limit <= 0 {
		limit = DefaultLimit
	}
	out := append([]Entry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if !a.FinishedAt.Equal(b.FinishedAt) {
			return a.FinishedAt.Before(b.FinishedAt)
		}
		return a.Name < b.Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
