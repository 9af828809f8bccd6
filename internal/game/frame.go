package game

import "fmt"

// Frame is one of the ten scoring units of a game.
//
// There are exactly two implementations: *StandardFrame for frames 1–9 and
// *FinalFrame for frame 10. The unexported methods keep the set closed.
type Frame interface {
	// Number is the 1-based position of the frame in the game.
	Number() int
	// Rolls returns a copy of the rolls recorded so far.
	Rolls() []Roll
	// Kind classifies the frame from its rolls.
	Kind() Kind
	// Complete reports whether the frame accepts no more rolls.
	Complete() bool
	// RollsNeeded is the minimum number of rolls the frame still accepts.
	RollsNeeded() int

	// rack reports the pins standing for the next ball and whether that
	// ball starts a fresh rack.
	rack() (standing int, fresh bool)
	push(r Roll)
}

// StandardFrame is a frame from 1 to 9: one ball on a strike, otherwise two.
type StandardFrame struct {
	number int
	rolls  []Roll
}

func (f *StandardFrame) Number() int   { return f.number }
func (f *StandardFrame) Rolls() []Roll { return append([]Roll(nil), f.rolls...) }
func (f *StandardFrame) push(r Roll)   { f.rolls = append(f.rolls, r) }

func (f *StandardFrame) Kind() Kind {
	switch {
	case len(f.rolls) >= 1 && f.rolls[0].Pins == MaxPins:
		return KindStrike
	case len(f.rolls) < 2:
		return KindInProgress
	case f.rolls[0].Pins+f.rolls[1].Pins == MaxPins:
		return KindSpare
	default:
		return KindOpen
	}
}

func (f *StandardFrame) Complete() bool { return f.Kind() != KindInProgress }

func (f *StandardFrame) RollsNeeded() int {
	if f.Complete() {
		return 0
	}
	return 2 - len(f.rolls)
}

// Bonus is the number of following rolls added to this frame's score.
func (f *StandardFrame) Bonus() int {
	switch f.Kind() {
	case KindStrike:
		return 2
	case KindSpare:
		return 1
	}
	return 0
}

func (f *StandardFrame) rack() (int, bool) {
	if len(f.rolls) == 0 {
		return MaxPins, true
	}
	return MaxPins - f.rolls[0].Pins, false
}

// FinalFrame is frame 10. A strike or spare in its first two balls earns a
// third ball; the rack is reset after every strike and after a spare.
type FinalFrame struct {
	rolls []Roll
}

func (f *FinalFrame) Number() int   { return Frames }
func (f *FinalFrame) Rolls() []Roll { return append([]Roll(nil), f.rolls...) }
func (f *FinalFrame) push(r Roll)   { f.rolls = append(f.rolls, r) }

func (f *FinalFrame) Kind() Kind {
	switch {
	case len(f.rolls) >= 1 && f.rolls[0].Pins == MaxPins:
		return KindStrike
	case len(f.rolls) < 2:
		return KindInProgress
	case f.rolls[0].Pins+f.rolls[1].Pins == MaxPins:
		return KindSpare
	default:
		return KindOpen
	}
}

// earnedFill reports whether the first two balls earned a third.
func (f *FinalFrame) earnedFill() bool {
	k := f.Kind()
	return k == KindStrike || k == KindSpare
}

func (f *FinalFrame) Complete() bool {
	switch len(f.rolls) {
	case 0, 1:
		return false
	case 2:
		return !f.earnedFill()
	}
	return true
}

func (f *FinalFrame) RollsNeeded() int {
	switch {
	case f.Complete():
		return 0
	case len(f.rolls) == 0:
		return 2
	case len(f.rolls) == 1 && f.rolls[0].Pins == MaxPins:
		return 2
	}
	return 1
}

func (f *FinalFrame) rack() (int, bool) {
	r := f.rolls
	switch len(r) {
	case 0:
		return MaxPins, true
	case 1:
		if r[0].Pins == MaxPins {
			return MaxPins, true
		}
		return MaxPins - r[0].Pins, false
	}
	// Third ball: after X then a non-strike, finish that rack.
	if r[0].Pins == MaxPins && r[1].Pins < MaxPins {
		return MaxPins - r[1].Pins, false
	}
	return MaxPins, true
}

// markFor derives the scorecard symbol for a legal ball.
func markFor(pins, standing int, fresh bool) Mark {
	switch {
	case fresh && pins == MaxPins:
		return MarkStrike
	case !fresh && pins == standing:
		return MarkSpare
	case pins == 0:
		return MarkGutter
	}
	return MarkNone
}

// checkBall validates pins against the rack of f and returns the roll to record.
func checkBall(f Frame, pins int) (Roll, error) {
	standing, fresh := f.rack()
	if pins > standing {
		return Roll{}, fmt.Errorf("%w: %d pins standing, got %d", ErrPinCountExceedsFrameRemainder, standing, pins)
	}
	return Roll{Pins: pins, Mark: markFor(pins, standing, fresh)}, nil
}
