package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode selects how an offset-less created_at string is interpreted.
type Mode string

const (
	// ModeUTC treats the string as an absolute instant, UTC unless it carries an offset.
	ModeUTC Mode = "utc"
	// ModeLocal treats the string as wall-clock time in the analysis timezone.
	ModeLocal Mode = "local"
)

// ParseMode normalizes a configured mode. Anything but "local" is ModeUTC.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeLocal)) {
		return ModeLocal
	}
	return ModeUTC
}

var ErrMalformedTimestamp = errors.New("malformed timestamp")

// Fractional seconds are accepted after the seconds field even though the
// layouts don't spell them out.
var offsetLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04Z07:00",
}

var civilLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/1/2 15:04:05",
	"2006/01/02 15:04",
	"2006/1/2 15:04",
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
}

// Parse converts a created_at string into an instant located in loc.
func Parse(s string, loc *time.Location, mode Mode) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrMalformedTimestamp)
	}
	if loc == nil {
		loc = time.UTC
	}

	if mode == ModeLocal {
		wall, ok := parseCivil(s, time.UTC)
		if !ok {
			wall, ok = parseOffset(s)
		}
		if !ok {
			return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
		}
		return time.Date(wall.Year(), wall.Month(), wall.Day(),
			wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), loc), nil
	}

	if t, ok := parseOffset(s); ok {
		return t.In(loc), nil
	}
	if t, ok := parseCivil(s, time.UTC); ok {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
}

func parseOffset(s string) (time.Time, bool) {
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseCivil(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range civilLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
