package analysis

import (
	"math"
	"time"

	"cloud.google.com/go/civil"
)

const (
	DefaultSigmaTime = 1.2
	DefaultSigmaDay  = 0.6

	// weekMidpoint is the offset from Monday 00:00 to the temporal centre of a week.
	weekMidpoint = 84 * time.Hour
)

// MatrixOptions configures BuildProbabilityMatrixFromSessions.
type MatrixOptions struct {
	BinMinutes             int
	HalfLifeDays           int
	RecentWeeks            int
	SeparateWeekdayWeekend bool
	Calendar               DayCalendar
	// Zero selects DefaultSigmaTime / DefaultSigmaDay; negative disables the axis.
	SigmaTime float64
	SigmaDay  float64
}

// WeekWeights returns a recency weight per week: exponential decay with the
// given half-life, multiplied by a linear taper that reaches zero recentWeeks
// after the week's midpoint. Zero or negative parameters disable each part.
func WeekWeights(weeks []civil.Date, loc *time.Location, now time.Time, halfLifeDays, recentWeeks int) []float64 {
	weights := make([]float64, len(weeks))
	for i, wk := range weeks {
		mid := wk.In(loc).Add(weekMidpoint)
		ageDays := math.Max(0, now.Sub(mid).Hours()/24)

		w := 1.0
		if halfLifeDays > 0 {
			w = math.Exp(-ageDays / float64(halfLifeDays))
		}
		if recentWeeks > 0 {
			ageWeeks := ageDays / 7
			if ageWeeks >= float64(recentWeeks) {
				w = 0
			} else {
				w *= (float64(recentWeeks) - ageWeeks) / float64(recentWeeks)
			}
		}
		weights[i] = w
	}
	return weights
}

func weightDenominator(weights []float64) float64 {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return 1
	}
	return sum
}

// BuildProbabilityMatrix merges weekly occupancy into one probability grid:
// a recency-weighted mean of the boolean cells, clamped, smoothed and
// clamped again.
func BuildProbabilityMatrix(weeks *WeekSet, loc *time.Location, now time.Time, halfLifeDays, recentWeeks int, sigmaTime, sigmaDay float64) *Grid {
	keys := weeks.Weeks()
	weights := WeekWeights(keys, loc, now, halfLifeDays, recentWeeks)
	denom := weightDenominator(weights)

	p := newGrid(weeks.bins)
	for i, key := range keys {
		occ := weeks.grids[key]
		w := weights[i]
		for d := 0; d < DaysPerWeek; d++ {
			for b := 0; b < weeks.bins; b++ {
				if occ.At(d, b) {
					p.add(d, b, w)
				}
			}
		}
	}
	for i := range p.cells {
		p.cells[i] = clamp01(p.cells[i] / denom)
	}

	p = Smooth(p, sigmaTime, sigmaDay)
	p.clamp()
	return p
}

// BuildProbabilityMatrixFromSessions buckets sessions by week and builds the
// probability grid. With SeparateWeekdayWeekend every workday shares one
// profile and every rest day (weekends, holidays, minus special workdays)
// shares another; those rows are smoothed along time only.
func BuildProbabilityMatrixFromSessions(sessions []Session, loc *time.Location, now time.Time, opts MatrixOptions) (*Grid, error) {
	if opts.SigmaTime == 0 {
		opts.SigmaTime = DefaultSigmaTime
	}
	if opts.SigmaDay == 0 {
		opts.SigmaDay = DefaultSigmaDay
	}

	weeks, err := BuildByWeek(sessions, opts.BinMinutes, loc)
	if err != nil {
		return nil, err
	}
	if !opts.SeparateWeekdayWeekend {
		return BuildProbabilityMatrix(weeks, loc, now, opts.HalfLifeDays, opts.RecentWeeks, opts.SigmaTime, opts.SigmaDay), nil
	}

	bins := weeks.bins
	keys := weeks.Weeks()
	weights := WeekWeights(keys, loc, now, opts.HalfLifeDays, opts.RecentWeeks)
	denom := weightDenominator(weights)

	byWeek := buildDayTypeByWeek(sessions, opts.BinMinutes, bins, loc, opts.Calendar)
	workday := make([]float64, bins)
	restDay := make([]float64, bins)
	for i, key := range keys {
		w := weights[i]
		g, ok := byWeek[key]
		if w <= 0 || !ok {
			continue
		}
		for b := 0; b < bins; b++ {
			if g.workday[b] {
				workday[b] += w
			}
			if g.restDay[b] {
				restDay[b] += w
			}
		}
	}

	p := newGrid(bins)
	for d := 0; d < DaysPerWeek; d++ {
		src := workday
		if d >= 5 {
			src = restDay
		}
		for b := 0; b < bins; b++ {
			p.set(d, b, clamp01(src[b]/denom))
		}
	}

	p = Smooth(p, opts.SigmaTime, 0)
	p.clamp()
	return p, nil
}

// ProbNextHours estimates the chance of at least one online bin in the next
// hours, treating successive bins as independent trials.
func ProbNextHours(g *Grid, now time.Time, hours float64, binMinutes int, loc *time.Location) float64 {
	steps := int(math.Round(hours * 60 / float64(binMinutes)))
	if steps <= 0 {
		return 0
	}

	step := time.Duration(binMinutes) * time.Minute
	cur := floorToBin(now, loc, binMinutes)
	q := 1.0
	for i := 0; i < steps; i++ {
		cur = cur.Add(step)
		q *= 1 - g.At(weekdayIndex(cur), binOf(cur, binMinutes)%g.bins)
	}
	return clamp01(1 - q)
}

// Window is the best time to catch the user within the next day.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Peak  float64   `json:"peak"`
}

// BestWindowNext24h scans one day of bins after now and returns a window one
// bin either side of the highest cell. The earliest bin wins ties.
func BestWindowNext24h(g *Grid, now time.Time, binMinutes int, loc *time.Location) Window {
	horizon := minutesPerDay / binMinutes
	step := time.Duration(binMinutes) * time.Minute

	cur := floorToBin(now, loc, binMinutes)
	best, bestP := cur, -1.0
	for i := 0; i < horizon; i++ {
		cur = cur.Add(step)
		if p := g.At(weekdayIndex(cur), binOf(cur, binMinutes)%g.bins); p > bestP {
			best, bestP = cur, p
		}
	}
	return Window{Start: best.Add(-step), End: best.Add(step), Peak: clamp01(bestP)}
}
