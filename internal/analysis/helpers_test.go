package analysis

import (
	"testing"
	"time"
)

// at returns a UTC instant on the given day and clock time.
func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func raw(typ string, t time.Time) RawEvent {
	return RawEvent{Type: typ, CreatedAt: t.UTC().Format("2006-01-02 15:04:05")}
}

func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if d := got - want; d > tol || d < -tol {
		t.Errorf("%s = %v, want %v (±%v)", name, got, want, tol)
	}
}

// dailySessions returns n sessions starting at hour:00 on consecutive days
// from first, each lasting dur.
func dailySessions(first time.Time, n, hour int, dur time.Duration) []Session {
	sessions := make([]Session, n)
	for i := range sessions {
		d := first.AddDate(0, 0, i)
		start := time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, d.Location())
		sessions[i] = Session{Start: start, End: start.Add(dur), DurationHours: dur.Hours()}
	}
	return sessions
}

// newYork returns America/New_York, whose clocks fall back from 02:00 EDT to
// 01:00 EST on 2024-11-03.
func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("zone America/New_York not available: %v", err)
	}
	return loc
}
