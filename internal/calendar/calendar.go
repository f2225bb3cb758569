package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	ical "github.com/emersion/go-ical"
)

// maxEventDays caps how many dates a single event may expand to.
const maxEventDays = 31

// workdayMarkers identify make-up workday events in public holiday calendars.
var workdayMarkers = []string{"workday", "补班", "調整", "补休上班", "補班"}

// Dates holds ISO dates imported from a holiday calendar.
type Dates struct {
	Holidays []string
	Workdays []string
}

// Load retrieves an iCalendar feed from a URL or file path and classifies the
// dates its events cover. Events whose summary marks a make-up workday go to
// Workdays, everything else to Holidays. Malformed events are skipped.
func Load(ctx context.Context, source string, loc *time.Location) (Dates, error) {
	var r io.ReadCloser

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return Dates{}, fmt.Errorf("creating request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return Dates{}, fmt.Errorf("fetching calendar: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return Dates{}, fmt.Errorf("calendar fetch returned status %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return Dates{}, fmt.Errorf("opening calendar file: %w", err)
		}
		r = f
	}
	defer r.Close()

	return Parse(r, loc)
}

// Parse decodes every calendar in r.
func Parse(r io.Reader, loc *time.Location) (Dates, error) {
	if loc == nil {
		loc = time.Local
	}
	dec := ical.NewDecoder(r)
	var out Dates
	seen := make(map[civil.Date]bool)

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Dates{}, fmt.Errorf("parsing calendar: %w", err)
		}

		for _, component := range cal.Children {
			if component.Name != ical.CompEvent {
				continue
			}
			event := ical.Event{Component: component}

			start, err := event.DateTimeStart(loc)
			if err != nil {
				continue // skip malformed events
			}
			first := civil.DateOf(start.In(loc))
			last := first
			if end, err := event.DateTimeEnd(loc); err == nil && end.After(start) {
				// DTEND is exclusive.
				last = civil.DateOf(end.In(loc).Add(-time.Nanosecond))
			}
			if last.DaysSince(first) > maxEventDays {
				last = first.AddDays(maxEventDays)
			}

			summary, _ := event.Props.Text(ical.PropSummary)
			workday := isWorkdaySummary(summary)

			for d := first; !last.Before(d); d = d.AddDays(1) {
				// A workday marker wins when a date appears in both kinds of event.
				prev, dup := seen[d]
				if dup && (prev || !workday) {
					continue
				}
				seen[d] = workday
			}
		}
	}

	for d, workday := range seen {
		if workday {
			out.Workdays = append(out.Workdays, d.String())
		} else {
			out.Holidays = append(out.Holidays, d.String())
		}
	}
	slices.Sort(out.Holidays)
	slices.Sort(out.Workdays)
	return out, nil
}

func isWorkdaySummary(summary string) bool {
	s := strings.ToLower(summary)
	for _, m := range workdayMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
