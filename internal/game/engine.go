// internal/game/engine.go
//
// Roll-by-roll state machine for a single bowling game.
// Responsibilities:
//   - Create games with ten empty frames (nine standard frames + the final frame).
//   - Validate each submitted roll (pin range, pins left in the rack, game over).
//   - Append accepted rolls and advance the cursor, including the 10th-frame fill ball.
//
// Notes:
//   - A Game is not safe for concurrent use; the store serializes access per game.
//   - A rejected roll leaves the game exactly as it was.
package game

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPinCount reports pins outside 0..10.
	ErrInvalidPinCount = errors.New("invalid pin count")
	// ErrPinCountExceedsFrameRemainder reports more pins than are left standing.
	ErrPinCountExceedsFrameRemainder = errors.New("pin count exceeds frame remainder")
	// ErrGameAlreadyOver reports a roll submitted after frame 10 completed.
	ErrGameAlreadyOver = errors.New("game already over")
)

// Game holds the frames and cursor of one player's game.
type Game struct {
	ID       string // Unique game identifier.
	PlayerID string // Owning player.

	frames [Frames]Frame
	cursor Cursor
	over   bool
	rolls  int
}

// New constructs an empty game waiting for frame 1, roll 1.
func New(id, playerID string) *Game {
	g := &Game{
		ID:       id,
		PlayerID: playerID,
		cursor:   Cursor{Frame: 1, Roll: 1},
	}
	for i := 0; i < Frames-1; i++ {
		g.frames[i] = &StandardFrame{number: i + 1}
	}
	g.frames[Frames-1] = &FinalFrame{}
	return g
}

// Replay rebuilds a game from its roll history in play order.
func Replay(id, playerID string, pins []int) (*Game, error) {
	g := New(id, playerID)
	for i, p := range pins {
		if _, _, err := g.SubmitRoll(p); err != nil {
			return nil, fmt.Errorf("replay roll %d: %w", i+1, err)
		}
	}
	return g, nil
}

// SubmitRoll records one delivery.
// Returns the cursor for the next expected roll and whether the game is over;
// once over, the returned cursor is the zero Cursor.
//
// Validation order:
//   - The game must not be over (ErrGameAlreadyOver, whatever the pins).
//   - pins must be in 0..10 (ErrInvalidPinCount).
//   - pins must not exceed the pins left in the current rack
//     (ErrPinCountExceedsFrameRemainder).
func (g *Game) SubmitRoll(pins int) (Cursor, bool, error) {
	if g.over {
		return Cursor{}, true, ErrGameAlreadyOver
	}
	if pins < 0 || pins > MaxPins {
		return g.cursor, false, fmt.Errorf("%w: %d", ErrInvalidPinCount, pins)
	}

	f := g.frames[g.cursor.Frame-1]
	roll, err := checkBall(f, pins)
	if err != nil {
		return g.cursor, false, fmt.Errorf("frame %d roll %d: %w", g.cursor.Frame, g.cursor.Roll, err)
	}
	f.push(roll)
	g.rolls++

	switch {
	case !f.Complete():
		g.cursor.Roll++
	case f.Number() == Frames:
		g.over = true
		g.cursor = Cursor{}
	default:
		g.cursor = Cursor{Frame: f.Number() + 1, Roll: 1}
	}
	return g.cursor, g.over, nil
}

// Cursor returns the next expected position (zero once the game is over).
func (g *Game) Cursor() Cursor { return g.cursor }

// IsOver reports whether frame 10 is complete.
func (g *Game) IsOver() bool { return g.over }

// RollCount is the number of rolls recorded so far.
func (g *Game) RollCount() int { return g.rolls }

// PinsStanding reports the pins available to the next ball (0 once over).
func (g *Game) PinsStanding() int {
	if g.over {
		return 0
	}
	standing, _ := g.frames[g.cursor.Frame-1].rack()
	return standing
}

// Frames returns the ten frames in order.
func (g *Game) Frames() []Frame {
	out := make([]Frame, Frames)
	copy(out, g.frames[:])
	return out
}

// Pins returns the pin counts of every roll in play order.
func (g *Game) Pins() []int {
	out := make([]int, 0, g.rolls)
	for _, f := range g.frames {
		for _, r := range f.Rolls() {
			out = append(out, r.Pins)
		}
	}
	return out
}
