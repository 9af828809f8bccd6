package game

import (
	"math/rand"
	"reflect"
	"testing"
)

func mustTotal(t *testing.T, s Snapshot) int {
	t.Helper()
	n, ok := s.Total.Value()
	if !ok {
		t.Fatal("expected resolved total")
	}
	return n
}

func cumulative(t *testing.T, s Snapshot, frame int) int {
	t.Helper()
	n, ok := s.Frames[frame-1].Cumulative.Value()
	if !ok {
		t.Fatalf("frame %d: expected resolved cumulative score", frame)
	}
	return n
}

func TestScoreEmptyGame(t *testing.T) {
	snap := New("g1", "p1").Score()
	if !snap.Total.IsPending() {
		t.Fatalf("expected pending total, got %s", snap.Total)
	}
	if snap.Final {
		t.Fatal("expected non-final snapshot")
	}
	for _, f := range snap.Frames {
		if !f.Points.IsPending() || !f.Cumulative.IsPending() {
			t.Fatalf("frame %d: expected pending", f.Number)
		}
		if len(f.Rolls) != 0 {
			t.Fatalf("frame %d: expected no rolls", f.Number)
		}
	}
}

func TestScoreGutterGame(t *testing.T) {
	g := New("g1", "p1")
	rollMany(t, g, 0, 20)
	snap := g.Score()
	if !snap.Final {
		t.Fatal("expected final snapshot")
	}
	if got := mustTotal(t, snap); got != 0 {
		t.Fatalf("expected total 0, got %d", got)
	}
	for _, f := range snap.Frames {
		if f.Points.IsPending() || f.Cumulative.IsPending() {
			t.Fatalf("frame %d: expected resolved", f.Number)
		}
	}
}

func TestScoreAllOnes(t *testing.T) {
	g := New("g1", "p1")
	rollMany(t, g, 1, 20)
	if got := mustTotal(t, g.Score()); got != 20 {
		t.Fatalf("expected total 20, got %d", got)
	}
}

func TestScorePerfectGame(t *testing.T) {
	g := New("g1", "p1")
	rollMany(t, g, 10, 12)
	if !g.IsOver() {
		t.Fatal("expected game over after 12 strikes")
	}
	snap := g.Score()
	if got := mustTotal(t, snap); got != 300 {
		t.Fatalf("expected 300, got %d", got)
	}
	for i := 1; i <= Frames; i++ {
		if got := cumulative(t, snap, i); got != 30*i {
			t.Fatalf("frame %d: expected %d, got %d", i, 30*i, got)
		}
	}
}

// TestScoreSpareResolvesOnNextRoll checks the spare stays pending until the next ball.
func TestScoreSpareResolvesOnNextRoll(t *testing.T) {
	g := New("g1", "p1")
	rollAll(t, g, 5, 5)

	snap := g.Score()
	if !snap.Frames[0].Points.IsPending() {
		t.Fatalf("expected frame 1 pending before bonus, got %s", snap.Frames[0].Points)
	}
	if snap.Frames[0].Awaiting != 1 {
		t.Fatalf("expected 1 awaited roll, got %d", snap.Frames[0].Awaiting)
	}

	rollAll(t, g, 5)
	snap = g.Score()
	if got := cumulative(t, snap, 1); got != 15 {
		t.Fatalf("expected frame 1 = 15, got %d", got)
	}
	if !snap.Frames[1].Points.IsPending() {
		t.Fatal("expected frame 2 pending mid-frame")
	}

	rollMany(t, g, 0, 17)
	if got := mustTotal(t, g.Score()); got != 20 {
		t.Fatalf("expected total 20, got %d", got)
	}
}

func TestScoreStrikeNeedsTwoRolls(t *testing.T) {
	g := New("g1", "p1")
	rollAll(t, g, 10, 10)
	snap := g.Score()
	if snap.Frames[0].Awaiting != 1 {
		t.Fatalf("expected frame 1 awaiting 1 roll, got %d", snap.Frames[0].Awaiting)
	}
	if snap.Frames[1].Awaiting != 2 {
		t.Fatalf("expected frame 2 awaiting 2 rolls, got %d", snap.Frames[1].Awaiting)
	}
	if !snap.Total.IsPending() {
		t.Fatalf("expected pending total, got %s", snap.Total)
	}

	rollAll(t, g, 4)
	snap = g.Score()
	if got := cumulative(t, snap, 1); got != 24 {
		t.Fatalf("expected frame 1 = 24, got %d", got)
	}
	if !snap.Frames[1].Cumulative.IsPending() {
		t.Fatal("expected frame 2 still pending")
	}
	if got := mustTotal(t, snap); got != 24 {
		t.Fatalf("expected running total 24, got %d", got)
	}
}

// TestScoreStrikeInNinthLooksIntoTenth covers double look-ahead across frames.
func TestScoreStrikeInNinthLooksIntoTenth(t *testing.T) {
	g := New("g1", "p1")
	rollMany(t, g, 0, 16)
	rollAll(t, g, 10, 10, 10, 10)
	snap := g.Score()

	p9, _ := snap.Frames[8].Points.Value()
	if p9 != 30 {
		t.Fatalf("expected frame 9 = 30, got %d", p9)
	}
	p10, _ := snap.Frames[9].Points.Value()
	if p10 != 30 {
		t.Fatalf("expected frame 10 = 30, got %d", p10)
	}
	if got := mustTotal(t, snap); got != 60 {
		t.Fatalf("expected total 60, got %d", got)
	}
}

func TestScorePendingStopsCumulative(t *testing.T) {
	g := New("g1", "p1")
	rollAll(t, g, 3, 4, 10, 2)
	snap := g.Score()
	if got := cumulative(t, snap, 1); got != 7 {
		t.Fatalf("expected frame 1 = 7, got %d", got)
	}
	if !snap.Frames[1].Cumulative.IsPending() || !snap.Frames[2].Cumulative.IsPending() {
		t.Fatal("expected frames 2 and 3 pending")
	}
	if got := mustTotal(t, snap); got != 7 {
		t.Fatalf("expected running total 7, got %d", got)
	}
}

// TestScoreMixedGame is a full game with strikes, spares and open frames.
func TestScoreMixedGame(t *testing.T) {
	g := New("g1", "p1")
	rollAll(t, g, 10, 7, 3, 9, 0, 10, 0, 8, 0, 10, 0, 6, 10, 10, 10, 8, 1)
	snap := g.Score()
	want := []int{20, 39, 48, 66, 74, 84, 90, 120, 148, 167}
	for i, w := range want {
		if got := cumulative(t, snap, i+1); got != w {
			t.Fatalf("frame %d: expected %d, got %d", i+1, w, got)
		}
	}
	if !snap.Final || mustTotal(t, snap) != 167 {
		t.Fatalf("expected final 167, got %s final=%v", snap.Total, snap.Final)
	}
}

func TestScoreIsIdempotent(t *testing.T) {
	g := New("g1", "p1")
	rollAll(t, g, 10, 7, 3, 9)
	a := g.Score()
	b := g.Score()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical snapshots:\n%+v\n%+v", a, b)
	}
	if g.RollCount() != 4 {
		t.Fatalf("scoring changed the game: %d rolls", g.RollCount())
	}
}

// TestScoreRandomGamesStayInRange plays seeded random legal games to completion.
func TestScoreRandomGamesStayInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		g := New("g", "p")
		for !g.IsOver() {
			pins := rng.Intn(g.PinsStanding() + 1)
			if _, _, err := g.SubmitRoll(pins); err != nil {
				t.Fatalf("game %d: %v (history %v)", i, err, g.Pins())
			}
		}
		snap := g.Score()
		total := mustTotal(t, snap)
		if total < 0 || total > 300 {
			t.Fatalf("game %d: total %d out of range (history %v)", i, total, g.Pins())
		}
		if !snap.Final {
			t.Fatalf("game %d: expected final snapshot", i)
		}
		if n := g.RollCount(); n < 11 || n > 21 {
			t.Fatalf("game %d: unexpected roll count %d", i, n)
		}
	}
}
