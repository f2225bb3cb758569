package analysis

import (
	"slices"
	"time"

	"cloud.google.com/go/civil"
)

// WeekSet holds one occupancy grid per calendar week, keyed by the local
// date of that week's Monday.
type WeekSet struct {
	bins  int
	grids map[civil.Date]*OccupancyGrid
}

// Bins returns the column count shared by every grid in the set.
func (w *WeekSet) Bins() int { return w.bins }

// Len returns the number of weeks with any occupancy.
func (w *WeekSet) Len() int { return len(w.grids) }

// Weeks returns the week keys in chronological order.
func (w *WeekSet) Weeks() []civil.Date {
	return sortedWeeks(w.grids)
}

// Grid returns the grid for a week, or nil.
func (w *WeekSet) Grid(week civil.Date) *OccupancyGrid {
	return w.grids[week]
}

func sortedWeeks[V any](m map[civil.Date]V) []civil.Date {
	keys := make([]civil.Date, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b civil.Date) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
	return keys
}

// weekdayIndex maps time.Weekday onto Monday=0..Sunday=6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func binOf(t time.Time, binMinutes int) int {
	return (t.Hour()*60 + t.Minute()) / binMinutes
}

// floorToBin truncates t, in loc, to the start of its time-of-day bin. The
// result keeps t's UTC offset, so a time in a repeated fall-back hour floors
// within that same occurrence.
func floorToBin(t time.Time, loc *time.Location, binMinutes int) time.Time {
	lt := t.In(loc)
	over := time.Duration((lt.Hour()*60+lt.Minute())%binMinutes)*time.Minute +
		time.Duration(lt.Second())*time.Second +
		time.Duration(lt.Nanosecond())
	return lt.Add(-over)
}

// weekStart returns the local date of the Monday starting t's week.
func weekStart(t time.Time, loc *time.Location) civil.Date {
	lt := t.In(loc)
	return civil.DateOf(lt).AddDays(-weekdayIndex(lt))
}

// walkBins calls fn for every bin instant from the floored start of s up to its end.
func walkBins(s Session, loc *time.Location, binMinutes int, fn func(t time.Time)) {
	step := time.Duration(binMinutes) * time.Minute
	for cur := floorToBin(s.Start, loc, binMinutes); cur.Before(s.End); cur = cur.Add(step) {
		fn(cur)
	}
}

// BuildByWeek marks every bin each session touches in that bin's week grid.
// Sessions crossing a week boundary mark both weeks.
func BuildByWeek(sessions []Session, binMinutes int, loc *time.Location) (*WeekSet, error) {
	bins, err := BinsPerDay(binMinutes)
	if err != nil {
		return nil, err
	}

	ws := &WeekSet{bins: bins, grids: make(map[civil.Date]*OccupancyGrid)}
	for _, s := range sessions {
		walkBins(s, loc, binMinutes, func(t time.Time) {
			key := weekStart(t, loc)
			g, ok := ws.grids[key]
			if !ok {
				g = newOccupancyGrid(bins)
				ws.grids[key] = g
			}
			g.mark(weekdayIndex(t), binOf(t, binMinutes))
		})
	}
	return ws, nil
}

// dayTypeGrid collapses a week into one workday row and one rest-day row.
type dayTypeGrid struct {
	workday []bool
	restDay []bool
}

func buildDayTypeByWeek(sessions []Session, binMinutes, bins int, loc *time.Location, cal DayCalendar) map[civil.Date]*dayTypeGrid {
	byWeek := make(map[civil.Date]*dayTypeGrid)
	for _, s := range sessions {
		walkBins(s, loc, binMinutes, func(t time.Time) {
			key := weekStart(t, loc)
			g, ok := byWeek[key]
			if !ok {
				g = &dayTypeGrid{workday: make([]bool, bins), restDay: make([]bool, bins)}
				byWeek[key] = g
			}
			b := binOf(t, binMinutes)
			if cal.IsRestDay(t) {
				g.restDay[b] = true
			} else {
				g.workday[b] = true
			}
		})
	}
	return byWeek
}

// BuildOnlineCounts buckets a global stream of Online instants into a
// weekday × bin histogram normalized by its peak cell. Instants older than
// historyDays before now are ignored when historyDays > 0.
func BuildOnlineCounts(events []time.Time, binMinutes int, loc *time.Location, now time.Time, historyDays int) (*Grid, error) {
	bins, err := BinsPerDay(binMinutes)
	if err != nil {
		return nil, err
	}

	g := newGrid(bins)
	var cutoff time.Time
	if historyDays > 0 {
		cutoff = now.In(loc).AddDate(0, 0, -historyDays)
	}

	for _, e := range events {
		if historyDays > 0 && e.Before(cutoff) {
			continue
		}
		lt := e.In(loc)
		g.add(weekdayIndex(lt), binOf(lt, binMinutes), 1)
	}

	peak := g.Max()
	if peak <= 0 {
		return g, nil
	}
	for i := range g.cells {
		g.cells[i] /= peak
	}
	return g, nil
}
