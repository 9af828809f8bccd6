// internal/game/types.go
//
// Core type definitions for the bowling game engine.
// Defines:
//   - Mark: scorecard symbol recorded with each roll (strike/spare/gutter).
//   - Kind: classification of a frame (open/spare/strike/in progress).
//   - Roll, Cursor: a single delivery and the next expected position.
//   - Player: the owner of a game.

package game

import "time"

const (
	// Frames is the number of frames in a game.
	Frames = 10
	// MaxPins is the number of pins in a full rack.
	MaxPins = 10
)

// Mark is the scorecard symbol recorded for a roll.
// Possible values:
//   - "X": all ten pins on the first ball of a rack.
//   - "/": the ball that clears the rest of a rack.
//   - "-": no pins knocked down.
//   - "":  any other count; the pins are shown as a number.
type Mark string

const (
	MarkStrike Mark = "X"
	MarkSpare  Mark = "/"
	MarkGutter Mark = "-"
	MarkNone   Mark = ""
)

// Kind classifies a frame by the rolls recorded in it so far.
type Kind string

const (
	KindInProgress Kind = "in_progress"
	KindOpen       Kind = "open"
	KindSpare      Kind = "spare"
	KindStrike     Kind = "strike"
)

// Roll is a single recorded delivery. Rolls are never changed after they are recorded.
type Roll struct {
	Pins int  // Pins knocked down, 0..10.
	Mark Mark // Scorecard symbol, fixed when the roll is recorded.
}

// Cursor points at the next expected roll. Both fields are 1-based.
// The zero Cursor means no roll is expected (the game is over).
type Cursor struct {
	Frame int
	Roll  int
}

// Player owns exactly one current game.
type Player struct {
	ID        string    // Opaque identifier.
	Name      string    // Display name.
	GameID    string    // Current game.
	CreatedAt time.Time // Registration time (UTC).
}
