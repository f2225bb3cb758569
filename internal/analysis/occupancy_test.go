package analysis

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestBinsPerDay(t *testing.T) {
	for _, bin := range []int{1, 5, 15, 30, 60, 120, 1440} {
		got, err := BinsPerDay(bin)
		if err != nil {
			t.Errorf("BinsPerDay(%d) error: %v", bin, err)
			continue
		}
		if got != 1440/bin {
			t.Errorf("BinsPerDay(%d) = %d, want %d", bin, got, 1440/bin)
		}
	}
	for _, bin := range []int{0, -15, 7, 1441} {
		if _, err := BinsPerDay(bin); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("BinsPerDay(%d) err = %v, want ErrInvalidConfig", bin, err)
		}
	}
}

func TestFloorToBin(t *testing.T) {
	tests := []struct {
		bin  int
		in   time.Time
		want time.Time
	}{
		{15, at(2024, 3, 4, 10, 7), at(2024, 3, 4, 10, 0)},
		{15, at(2024, 3, 4, 10, 15), at(2024, 3, 4, 10, 15)},
		{120, at(2024, 3, 4, 13, 30), at(2024, 3, 4, 12, 0)},
		{1440, at(2024, 3, 4, 23, 59), at(2024, 3, 4, 0, 0)},
	}
	for _, tt := range tests {
		if got := floorToBin(tt.in, time.UTC, tt.bin); !got.Equal(tt.want) {
			t.Errorf("floorToBin(%v, %d) = %v, want %v", tt.in, tt.bin, got, tt.want)
		}
	}
}

func TestFloorToBinFallBack(t *testing.T) {
	ny := newYork(t)
	// 01:40 occurs at 05:40 UTC (EDT) and again at 06:40 UTC (EST).
	tests := []struct {
		name string
		bin  int
		in   time.Time
		want time.Time
	}{
		{"first occurrence", 15, at(2024, 11, 3, 5, 40), at(2024, 11, 3, 5, 30)},
		{"second occurrence", 15, at(2024, 11, 3, 6, 40), at(2024, 11, 3, 6, 30)},
		{"second occurrence hourly", 60, at(2024, 11, 3, 6, 40), at(2024, 11, 3, 6, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := floorToBin(tt.in, ny, tt.bin)
			if !got.Equal(tt.want) {
				t.Errorf("floorToBin(%v, %d) = %v, want %v", tt.in.In(ny), tt.bin, got, tt.want.In(ny))
			}
			if d := tt.in.Sub(got); d < 0 || d >= time.Duration(tt.bin)*time.Minute {
				t.Errorf("floored by %v, want less than one bin", d)
			}
		})
	}
}

func TestBuildByWeekFallBackHour(t *testing.T) {
	ny := newYork(t)
	// 01:40 EST to 02:10 EST, after the clocks have fallen back.
	s := Session{Start: at(2024, 11, 3, 6, 40).In(ny), End: at(2024, 11, 3, 7, 10).In(ny), DurationHours: 0.5}

	ws, err := BuildByWeek([]Session{s}, 15, ny)
	if err != nil {
		t.Fatalf("BuildByWeek error: %v", err)
	}
	g := ws.Grid(civil.Date{Year: 2024, Month: 10, Day: 28})
	if g == nil {
		t.Fatalf("expected week of 2024-10-28, got %v", ws.Weeks())
	}
	for _, b := range []int{6, 7, 8} {
		if !g.At(6, b) {
			t.Errorf("expected Sunday bin %d marked", b)
		}
	}
	for _, b := range []int{4, 5, 9} {
		if g.At(6, b) {
			t.Errorf("Sunday bin %d marked but the session never covered it", b)
		}
	}
}

func TestBuildOnlineCountsHistoryInCalendarDays(t *testing.T) {
	ny := newYork(t)
	// One calendar day before Sunday 12:00 EST is Saturday 12:00 EDT, 16:00 UTC.
	now := at(2024, 11, 3, 17, 0)
	events := []time.Time{
		at(2024, 11, 2, 16, 30),
		at(2024, 11, 2, 15, 30), // before the window
	}

	g, err := BuildOnlineCounts(events, 60, ny, now, 1)
	if err != nil {
		t.Fatalf("BuildOnlineCounts error: %v", err)
	}
	approx(t, "Sat 12:00", g.At(5, 12), 1, 1e-12)
	approx(t, "Sat 11:00", g.At(5, 11), 0, 1e-12)
}

func TestBuildByWeekSplitsAcrossWeeks(t *testing.T) {
	// 2024-03-10 is a Sunday.
	s := Session{Start: at(2024, 3, 10, 23, 30), End: at(2024, 3, 11, 0, 30), DurationHours: 1}

	ws, err := BuildByWeek([]Session{s}, 15, time.UTC)
	if err != nil {
		t.Fatalf("BuildByWeek error: %v", err)
	}

	weeks := ws.Weeks()
	want := []civil.Date{{Year: 2024, Month: 3, Day: 4}, {Year: 2024, Month: 3, Day: 11}}
	if len(weeks) != 2 || weeks[0] != want[0] || weeks[1] != want[1] {
		t.Fatalf("Weeks() = %v, want %v", weeks, want)
	}

	first, second := ws.Grid(weeks[0]), ws.Grid(weeks[1])
	if !first.At(6, 94) || !first.At(6, 95) {
		t.Error("expected Sunday 23:30 and 23:45 marked in the first week")
	}
	if !second.At(0, 0) || !second.At(0, 1) {
		t.Error("expected Monday 00:00 and 00:15 marked in the second week")
	}
	if second.At(0, 2) {
		t.Error("Monday 00:30 should not be marked: the session ends there")
	}
}

func TestBuildByWeekFloorsStart(t *testing.T) {
	s := Session{Start: at(2024, 3, 5, 10, 7), End: at(2024, 3, 5, 10, 20), DurationHours: 13.0 / 60}

	ws, err := BuildByWeek([]Session{s}, 15, time.UTC)
	if err != nil {
		t.Fatalf("BuildByWeek error: %v", err)
	}
	g := ws.Grid(civil.Date{Year: 2024, Month: 3, Day: 4})
	if g == nil {
		t.Fatal("missing week grid")
	}
	if !g.At(1, 40) || !g.At(1, 41) {
		t.Error("expected Tuesday bins 40 and 41 marked")
	}
	if g.At(1, 39) || g.At(1, 42) {
		t.Error("unexpected neighbouring bins marked")
	}
}

func TestBuildByWeekUsesLocalCalendar(t *testing.T) {
	plus8 := time.FixedZone("UTC+8", 8*3600)
	// Sunday 20:00 UTC is Monday 04:00 at UTC+8.
	start := at(2024, 3, 10, 20, 0)
	s := Session{Start: start.In(plus8), End: start.Add(time.Hour).In(plus8), DurationHours: 1}

	ws, err := BuildByWeek([]Session{s}, 60, plus8)
	if err != nil {
		t.Fatalf("BuildByWeek error: %v", err)
	}
	g := ws.Grid(civil.Date{Year: 2024, Month: 3, Day: 11})
	if g == nil {
		t.Fatalf("expected week of 2024-03-11, got %v", ws.Weeks())
	}
	if !g.At(0, 4) {
		t.Error("expected Monday 04:00 marked")
	}
}

func TestBuildOnlineCounts(t *testing.T) {
	now := at(2024, 3, 10, 12, 0)
	events := []time.Time{
		at(2024, 3, 4, 10, 0),
		at(2024, 3, 4, 10, 10),
		at(2024, 3, 5, 22, 0),
		at(2023, 1, 2, 10, 0), // outside the history window
	}

	g, err := BuildOnlineCounts(events, 60, time.UTC, now, 30)
	if err != nil {
		t.Fatalf("BuildOnlineCounts error: %v", err)
	}
	approx(t, "Mon 10:00", g.At(0, 10), 1.0, 1e-12)
	approx(t, "Tue 22:00", g.At(1, 22), 0.5, 1e-12)
	if g.Max() != 1 {
		t.Errorf("Max() = %v, want 1", g.Max())
	}
	approx(t, "ValueAt Mon 10:59", g.ValueAt(at(2024, 3, 11, 10, 59), time.UTC), 1.0, 1e-12)
	// Tuesday 06:00 UTC is 14:00 in UTC+8, an empty cell.
	approx(t, "ValueAt shifted zone", g.ValueAt(at(2024, 3, 5, 6, 0), time.FixedZone("UTC+8", 8*3600)), 0, 1e-12)

	empty, err := BuildOnlineCounts(nil, 60, time.UTC, now, 30)
	if err != nil {
		t.Fatalf("BuildOnlineCounts error: %v", err)
	}
	if empty.Max() != 0 || empty.Bins() != 24 {
		t.Errorf("empty grid: max=%v bins=%d", empty.Max(), empty.Bins())
	}
}

func TestGridAtPanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range cell")
		}
	}()
	newGrid(96).At(7, 0)
}
