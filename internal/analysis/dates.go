package analysis

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// DayCalendar classifies calendar dates as workdays or rest days. A special
// workday overrides both weekends and holidays.
type DayCalendar struct {
	Holidays        map[civil.Date]struct{}
	SpecialWorkdays map[civil.Date]struct{}
}

// IsRestDay reports whether the local date of t counts as a weekend day.
func (c DayCalendar) IsRestDay(t time.Time) bool {
	d := civil.DateOf(t)
	if _, ok := c.SpecialWorkdays[d]; ok {
		return false
	}
	if _, ok := c.Holidays[d]; ok {
		return true
	}
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// ParseDateSet parses ISO dates into a set. Unparsable entries are skipped and
// counted.
func ParseDateSet(dates []string) (map[civil.Date]struct{}, int) {
	set := make(map[civil.Date]struct{}, len(dates))
	skipped := 0
	for _, s := range dates {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		d, err := civil.ParseDate(s)
		if err != nil {
			skipped++
			continue
		}
		set[d] = struct{}{}
	}
	return set, skipped
}
