package analysis

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

const (
	StabilityInsufficient = "insufficient data"
	StabilityVeryHigh     = "very high regularity"
	StabilityRegular      = "regular"
	StabilityRandom       = "random"

	ConfidenceVeryLow = "very low"
	ConfidenceLow     = "low"
	ConfidenceMedium  = "medium"
	ConfidenceHigh    = "high"

	NoActiveHours = "none"

	minStabilitySessions = 8
)

// Stability describes how regular session start times are.
type Stability struct {
	Label    string   `json:"label"`
	StdHours *float64 `json:"std_hours,omitempty"`
}

// StabilityOf classifies the population standard deviation of session start
// times of day. Fewer than 8 sessions is insufficient data.
func StabilityOf(sessions []Session, loc *time.Location) Stability {
	if len(sessions) < minStabilitySessions {
		return Stability{Label: StabilityInsufficient}
	}

	xs := make([]float64, len(sessions))
	mean := 0.0
	for i, s := range sessions {
		t := s.Start.In(loc)
		xs[i] = float64(t.Hour()) + float64(t.Minute())/60
		mean += xs[i]
	}
	mean /= float64(len(xs))

	variance := 0.0
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	std := math.Sqrt(variance / float64(len(xs)))

	label := StabilityRandom
	switch {
	case std < 1.5:
		label = StabilityVeryHigh
	case std < 3.0:
		label = StabilityRegular
	}
	return Stability{Label: label, StdHours: &std}
}

// AverageStartIntervalHours averages the positive gaps between consecutive
// session starts over the last recent gaps. It returns nil when no gap qualifies.
func AverageStartIntervalHours(sessions []Session, recent int) *float64 {
	if len(sessions) < 2 {
		return nil
	}
	take := min(recent, len(sessions)-1)
	if take <= 0 {
		return nil
	}

	ordered := slices.Clone(sessions)
	slices.SortStableFunc(ordered, func(a, b Session) int { return a.Start.Compare(b.Start) })

	total, n := 0.0, 0
	for i := len(ordered) - take; i < len(ordered); i++ {
		if h := ordered[i].Start.Sub(ordered[i-1].Start).Hours(); h > 0 {
			total += h
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := total / float64(n)
	return &avg
}

// RecentActiveHoursText spreads the last days of session time over the hours
// of the day and lists the four busiest hours, merging adjacent ones into
// ranges such as "20:00-23:00, 01:00".
func RecentActiveHoursText(sessions []Session, loc *time.Location, now time.Time, days int) string {
	now = now.In(loc)
	since := now.AddDate(0, 0, -days)
	var minutes [24]float64

	for _, s := range sessions {
		start, end := s.Start.In(loc), s.End.In(loc)
		if end.Before(since) || start.After(now) {
			continue
		}
		cur, stop := start, end
		if cur.Before(since) {
			cur = since
		}
		if stop.After(now) {
			stop = now
		}
		for cur.Before(stop) {
			next := cur.Add(time.Hour - time.Duration(cur.Minute())*time.Minute -
				time.Duration(cur.Second())*time.Second - time.Duration(cur.Nanosecond()))
			if stop.Before(next) {
				next = stop
			}
			minutes[cur.Hour()] += next.Sub(cur).Minutes()
			cur = next
		}
	}

	type hourTotal struct {
		hour    int
		minutes float64
	}
	var ranked []hourTotal
	for h, m := range minutes {
		if m > 0 {
			ranked = append(ranked, hourTotal{h, m})
		}
	}
	if len(ranked) == 0 {
		return NoActiveHours
	}
	slices.SortStableFunc(ranked, func(a, b hourTotal) int { return cmp.Compare(b.minutes, a.minutes) })

	top := make([]int, 0, 4)
	for _, r := range ranked[:min(4, len(ranked))] {
		top = append(top, r.hour)
	}
	slices.Sort(top)

	var ranges []string
	first, prev := top[0], top[0]
	flush := func() {
		if first == prev {
			ranges = append(ranges, fmt.Sprintf("%02d:00", first))
		} else {
			ranges = append(ranges, fmt.Sprintf("%02d:00-%02d:00", first, prev+1))
		}
	}
	for _, h := range top[1:] {
		if h == prev+1 {
			prev = h
			continue
		}
		flush()
		first, prev = h, h
	}
	flush()
	return strings.Join(ranges, ", ")
}

// ConfidenceLabel grades the sample size, and for large samples how many
// distinct days in the trailing window had a session start.
func ConfidenceLabel(sessions []Session, now time.Time, days int) string {
	switch n := len(sessions); {
	case n < 5:
		return ConfidenceVeryLow
	case n < 15:
		return ConfidenceLow
	case n < 30:
		return ConfidenceMedium
	}

	since := now.AddDate(0, 0, -days)
	active := make(map[civil.Date]struct{})
	for _, s := range sessions {
		if !s.Start.Before(since) {
			active[civil.DateOf(s.Start)] = struct{}{}
		}
	}
	if len(active) < 10 {
		return ConfidenceLow
	}
	return ConfidenceHigh
}
