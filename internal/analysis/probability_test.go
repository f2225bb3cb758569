package analysis

import (
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestWeekWeights(t *testing.T) {
	// Thursday noon is the midpoint of the week starting Monday 2024-03-04.
	now := at(2024, 3, 7, 12, 0)
	weeks := []civil.Date{
		{Year: 2024, Month: 3, Day: 4},
		{Year: 2024, Month: 2, Day: 26},
		{Year: 2023, Month: 12, Day: 11},
		{Year: 2024, Month: 3, Day: 11},
	}

	got := WeekWeights(weeks, time.UTC, now, 21, 12)
	approx(t, "current week", got[0], 1, 1e-12)
	approx(t, "one week old", got[1], math.Exp(-7.0/21)*11/12, 1e-12)
	approx(t, "at cutoff", got[2], 0, 0)
	approx(t, "future week", got[3], 1, 1e-12)

	flat := WeekWeights(weeks, time.UTC, now, 0, 0)
	for i, w := range flat {
		approx(t, "flat weight "+weeks[i].String(), w, 1, 0)
	}
}

func TestProbabilityGridShape(t *testing.T) {
	now := at(2024, 3, 21, 19, 0)
	sessions := append(
		dailySessions(at(2024, 1, 1, 0, 0), 40, 20, 2*time.Hour),
		dailySessions(at(2024, 2, 15, 0, 0), 30, 7, 45*time.Minute)...,
	)
	cal := DayCalendar{
		Holidays:        map[civil.Date]struct{}{{Year: 2024, Month: 2, Day: 28}: {}},
		SpecialWorkdays: map[civil.Date]struct{}{{Year: 2024, Month: 3, Day: 2}: {}},
	}

	for _, bin := range []int{5, 10, 15, 30, 60, 120, 1440} {
		for _, separate := range []bool{false, true} {
			g, err := BuildProbabilityMatrixFromSessions(sessions, time.UTC, now, MatrixOptions{
				BinMinutes:             bin,
				HalfLifeDays:           21,
				RecentWeeks:            12,
				SeparateWeekdayWeekend: separate,
				Calendar:               cal,
			})
			if err != nil {
				t.Fatalf("bin %d separate %v: %v", bin, separate, err)
			}
			if g.Bins() != 1440/bin {
				t.Errorf("bin %d: Bins() = %d, want %d", bin, g.Bins(), 1440/bin)
			}
			for d, row := range g.Rows() {
				for b, v := range row {
					if v < 0 || v > 1 || math.IsNaN(v) {
						t.Fatalf("bin %d separate %v: cell (%d,%d) = %v out of [0,1]", bin, separate, d, b, v)
					}
				}
			}
		}
	}
}

func TestBuildProbabilityMatrixWeighting(t *testing.T) {
	now := at(2024, 3, 7, 12, 0)
	// One session in the current week only, Tuesday 10:00-11:00.
	sessions := []Session{{Start: at(2024, 3, 5, 10, 0), End: at(2024, 3, 5, 11, 0), DurationHours: 1}}

	ws, err := BuildByWeek(sessions, 60, time.UTC)
	if err != nil {
		t.Fatalf("BuildByWeek error: %v", err)
	}
	g := BuildProbabilityMatrix(ws, time.UTC, now, 21, 12, 0, 0)
	approx(t, "Tue 10:00", g.At(1, 10), 1, 1e-12)
	if g.At(1, 11) != 0 || g.At(2, 10) != 0 {
		t.Error("unsmoothed grid should only mark the occupied cell")
	}
}

func TestWeekdayWeekendVariant(t *testing.T) {
	now := at(2024, 3, 18, 0, 0)
	sessions := []Session{
		{Start: at(2024, 3, 12, 10, 0), End: at(2024, 3, 12, 11, 0), DurationHours: 1}, // Tuesday
		{Start: at(2024, 3, 13, 20, 0), End: at(2024, 3, 13, 21, 0), DurationHours: 1}, // Wednesday, holiday
		{Start: at(2024, 3, 16, 20, 0), End: at(2024, 3, 16, 21, 0), DurationHours: 1}, // Saturday
		{Start: at(2024, 3, 17, 10, 0), End: at(2024, 3, 17, 11, 0), DurationHours: 1}, // Sunday, special workday
	}
	cal := DayCalendar{
		Holidays:        map[civil.Date]struct{}{{Year: 2024, Month: 3, Day: 13}: {}},
		SpecialWorkdays: map[civil.Date]struct{}{{Year: 2024, Month: 3, Day: 17}: {}},
	}

	g, err := BuildProbabilityMatrixFromSessions(sessions, time.UTC, now, MatrixOptions{
		BinMinutes:             60,
		HalfLifeDays:           21,
		RecentWeeks:            12,
		SeparateWeekdayWeekend: true,
		Calendar:               cal,
	})
	if err != nil {
		t.Fatalf("BuildProbabilityMatrixFromSessions error: %v", err)
	}

	for d := 0; d < 5; d++ {
		if g.At(d, 10) <= 0 {
			t.Errorf("workday row %d at 10:00 = %v, want > 0", d, g.At(d, 10))
		}
		if g.At(d, 20) != 0 {
			t.Errorf("workday row %d at 20:00 = %v, want 0", d, g.At(d, 20))
		}
		approx(t, "workday rows identical", g.At(d, 10), g.At(0, 10), 0)
	}
	for d := 5; d < 7; d++ {
		if g.At(d, 20) <= 0 {
			t.Errorf("rest-day row %d at 20:00 = %v, want > 0", d, g.At(d, 20))
		}
		if g.At(d, 10) != 0 {
			t.Errorf("rest-day row %d at 10:00 = %v, want 0", d, g.At(d, 10))
		}
	}
}

func TestProbNextHours(t *testing.T) {
	now := at(2024, 3, 4, 10, 7)

	zero := newGrid(96)
	if got := ProbNextHours(zero, now, 2, 15, time.UTC); got != 0 {
		t.Errorf("all-zero grid: got %v, want 0", got)
	}

	flat := newGrid(96)
	for i := range flat.cells {
		flat.cells[i] = 0.3
	}
	prev := 0.0
	for _, hours := range []float64{0.25, 1, 2, 6} {
		got := ProbNextHours(flat, now, hours, 15, time.UTC)
		steps := math.Round(hours * 4)
		approx(t, "flat grid", got, 1-math.Pow(0.7, steps), 1e-12)
		if got <= prev {
			t.Errorf("probability should grow with the horizon: %v after %v", got, prev)
		}
		prev = got
	}

	single := newGrid(96)
	single.set(0, 42, 1) // Monday 10:30, inside the next two hours
	approx(t, "single certain bin", ProbNextHours(single, now, 2, 15, time.UTC), 1, 0)

	if got := ProbNextHours(flat, now, 0, 15, time.UTC); got != 0 {
		t.Errorf("zero horizon: got %v, want 0", got)
	}
}

func TestProbNextHoursFallBack(t *testing.T) {
	ny := newYork(t)
	now := at(2024, 11, 3, 6, 40) // 01:40 EST, the second 01:40 that night

	g := newGrid(96)
	g.set(6, 10, 1) // Sunday 02:30, within the next hour
	approx(t, "bin 50 minutes ahead", ProbNextHours(g, now, 1, 15, ny), 1, 0)

	w := BestWindowNext24h(g, now, 15, ny)
	if want := at(2024, 11, 3, 7, 30); !w.Start.Add(15 * time.Minute).Equal(want) {
		t.Errorf("peak at %v, want %v", w.Start.Add(15*time.Minute).In(ny), want.In(ny))
	}
}

func TestBestWindowNext24h(t *testing.T) {
	now := at(2024, 3, 4, 10, 7) // Monday
	g := newGrid(96)
	g.set(0, 50, 0.8) // Monday 12:30
	g.set(1, 10, 0.8) // Tuesday 02:30, same value later
	g.set(1, 48, 0.9) // Tuesday 12:00, beyond the horizon
	g.set(0, 20, 1.0) // Monday 05:00, already past

	w := BestWindowNext24h(g, now, 15, time.UTC)
	if w.Peak != 0.8 {
		t.Errorf("Peak = %v, want 0.8", w.Peak)
	}
	if !w.Start.Equal(at(2024, 3, 4, 12, 15)) || !w.End.Equal(at(2024, 3, 4, 12, 45)) {
		t.Errorf("window = %v - %v, want 12:15 - 12:45", w.Start, w.End)
	}
	if w.End.Sub(w.Start) != 30*time.Minute {
		t.Errorf("window width = %v, want two bins", w.End.Sub(w.Start))
	}
}
