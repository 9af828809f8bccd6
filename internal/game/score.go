// internal/game/score.go
//
// Scoring projection over a game's frames.
//
// Each frame is either resolved (all bonus rolls it depends on are recorded)
// or pending. Cumulative totals only run through the leading resolved frames:
// the first pending frame stops the running total for itself and every frame after it.

package game

import "strconv"

// Score is either a resolved number of points or pending.
// The zero value is pending.
type Score struct {
	points   int
	resolved bool
}

// Pending is the unresolved score.
var Pending = Score{}

// Resolved returns a resolved score of n points.
func Resolved(n int) Score { return Score{points: n, resolved: true} }

// Value returns the points and whether the score is resolved.
func (s Score) Value() (int, bool) { return s.points, s.resolved }

// IsPending reports whether the score is still unknown.
func (s Score) IsPending() bool { return !s.resolved }

func (s Score) String() string {
	if !s.resolved {
		return "pending"
	}
	return strconv.Itoa(s.points)
}

// FrameScore is the scoring view of one frame.
type FrameScore struct {
	Number     int
	Kind       Kind
	Rolls      []Roll
	Points     Score // This frame's points including bonus.
	Cumulative Score // Running total through this frame.
	Awaiting   int   // Rolls still needed before Points resolves.
	Remaining  int   // Rolls of this frame not yet bowled.
}

// Snapshot is the scoring view of a whole game.
type Snapshot struct {
	Frames [Frames]FrameScore
	// Total is the last resolved cumulative score, pending if no frame resolved yet.
	Total Score
	// Final is true once frame 10 is resolved; Total is then the final score.
	Final bool
}

// Score computes the current snapshot. It does not modify the game.
func (g *Game) Score() Snapshot {
	return scoreFrames(g.frames)
}

func scoreFrames(frames [Frames]Frame) Snapshot {
	var snap Snapshot

	// Flat roll sequence in play order, for look-ahead.
	var flat []int
	rolls := make([][]Roll, Frames)
	for i, f := range frames {
		rolls[i] = f.Rolls()
		for _, r := range rolls[i] {
			flat = append(flat, r.Pins)
		}
	}

	next, running, contiguous := 0, 0, true
	for i, f := range frames {
		next += len(rolls[i])
		fs := FrameScore{
			Number:    f.Number(),
			Kind:      f.Kind(),
			Rolls:     rolls[i],
			Remaining: f.RollsNeeded(),
		}
		fs.Points, fs.Awaiting = framePoints(f, rolls[i], flat[next:])

		if contiguous {
			if p, ok := fs.Points.Value(); ok {
				running += p
				fs.Cumulative = Resolved(running)
				snap.Total = fs.Cumulative
			} else {
				contiguous = false
			}
		}
		snap.Frames[i] = fs
	}
	snap.Final = !snap.Frames[Frames-1].Cumulative.IsPending()
	return snap
}

// framePoints scores one frame given the rolls recorded after it.
func framePoints(f Frame, rolls []Roll, ahead []int) (Score, int) {
	switch fr := f.(type) {
	case *FinalFrame:
		if !fr.Complete() {
			return Pending, fr.RollsNeeded()
		}
		return Resolved(sumPins(rolls)), 0
	case *StandardFrame:
		if !fr.Complete() {
			return Pending, fr.RollsNeeded()
		}
		bonus := fr.Bonus()
		if len(ahead) < bonus {
			return Pending, bonus - len(ahead)
		}
		points := sumPins(rolls)
		for _, p := range ahead[:bonus] {
			points += p
		}
		return Resolved(points), 0
	}
	return Pending, 0
}

func sumPins(rolls []Roll) int {
	n := 0
	for _, r := range rolls {
		n += r.Pins
	}
	return n
}
