package analysis

import (
	"fmt"
	"time"
)

const (
	// DaysPerWeek is the row count of every grid. Row 0 is Monday.
	DaysPerWeek   = 7
	minutesPerDay = 24 * 60
)

// BinsPerDay returns the column count for a bin width, or an error when the
// width does not evenly divide a day.
func BinsPerDay(binMinutes int) (int, error) {
	if binMinutes <= 0 || binMinutes > minutesPerDay || minutesPerDay%binMinutes != 0 {
		return 0, fmt.Errorf("%w: bin width %d minutes must divide 1440", ErrInvalidConfig, binMinutes)
	}
	return minutesPerDay / binMinutes, nil
}

// Grid is a fixed 7×B matrix of values in [0,1], weekday rows by time-of-day bins.
// Grids handed out in a Result are never modified.
type Grid struct {
	bins  int
	cells []float64
}

func newGrid(bins int) *Grid {
	return &Grid{bins: bins, cells: make([]float64, DaysPerWeek*bins)}
}

// Bins returns the number of time-of-day columns.
func (g *Grid) Bins() int { return g.bins }

// At returns the value for weekday day (Monday=0) and bin.
func (g *Grid) At(day, bin int) float64 {
	return g.cells[g.index(day, bin)]
}

// Row returns a copy of one weekday row.
func (g *Grid) Row(day int) []float64 {
	start := g.index(day, 0)
	row := make([]float64, g.bins)
	copy(row, g.cells[start:start+g.bins])
	return row
}

// Rows returns a copy of the grid as a 7×B slice.
func (g *Grid) Rows() [][]float64 {
	rows := make([][]float64, DaysPerWeek)
	for d := range rows {
		rows[d] = g.Row(d)
	}
	return rows
}

// ValueAt returns the cell covering the local time of t in loc.
func (g *Grid) ValueAt(t time.Time, loc *time.Location) float64 {
	lt := t.In(loc)
	bin := (lt.Hour()*60 + lt.Minute()) * g.bins / minutesPerDay
	return g.At(weekdayIndex(lt), bin)
}

// Max returns the largest cell value.
func (g *Grid) Max() float64 {
	peak := 0.0
	for _, v := range g.cells {
		if v > peak {
			peak = v
		}
	}
	return peak
}

func (g *Grid) set(day, bin int, v float64) {
	g.cells[g.index(day, bin)] = v
}

func (g *Grid) add(day, bin int, v float64) {
	g.cells[g.index(day, bin)] += v
}

func (g *Grid) clone() *Grid {
	c := newGrid(g.bins)
	copy(c.cells, g.cells)
	return c
}

func (g *Grid) clamp() {
	for i, v := range g.cells {
		g.cells[i] = clamp01(v)
	}
}

func (g *Grid) index(day, bin int) int {
	if day < 0 || day >= DaysPerWeek || bin < 0 || bin >= g.bins {
		panic(fmt.Sprintf("analysis: grid cell (%d, %d) out of range 7x%d", day, bin, g.bins))
	}
	return day*g.bins + bin
}

// OccupancyGrid marks which (weekday, bin) cells saw presence during one week.
type OccupancyGrid struct {
	bins  int
	cells []bool
}

func newOccupancyGrid(bins int) *OccupancyGrid {
	return &OccupancyGrid{bins: bins, cells: make([]bool, DaysPerWeek*bins)}
}

// Bins returns the number of time-of-day columns.
func (o *OccupancyGrid) Bins() int { return o.bins }

// At reports whether the cell was occupied.
func (o *OccupancyGrid) At(day, bin int) bool {
	return o.cells[o.index(day, bin)]
}

func (o *OccupancyGrid) mark(day, bin int) {
	o.cells[o.index(day, bin)] = true
}

func (o *OccupancyGrid) index(day, bin int) int {
	if day < 0 || day >= DaysPerWeek || bin < 0 || bin >= o.bins {
		panic(fmt.Sprintf("analysis: occupancy cell (%d, %d) out of range 7x%d", day, bin, o.bins))
	}
	return day*o.bins + bin
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
