package analysis

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/christopherklint97/vrcxpredict/internal/timeutil"
)

// futureSkew is how far past "now" an event may be stamped before it is
// treated as clock skew and dropped.
const futureSkew = 5 * time.Minute

// EventType is the canonical presence toggle.
type EventType string

const (
	Online  EventType = "Online"
	Offline EventType = "Offline"
)

// RawEvent is one untrusted row from the event source.
type RawEvent struct {
	Type      string
	CreatedAt string
}

// CleanEvent is a canonical, parsed presence toggle.
type CleanEvent struct {
	Type EventType
	Time time.Time
}

// CleanStats counts the records dropped while cleaning.
type CleanStats struct {
	Input       int `json:"input"`
	UnknownType int `json:"unknown_type"`
	Malformed   int `json:"malformed"`
	Future      int `json:"future"`
	Collapsed   int `json:"collapsed"`
}

// Dropped returns the total number of input records that did not survive.
func (s CleanStats) Dropped() int {
	return s.UnknownType + s.Malformed + s.Future + s.Collapsed
}

func canonicalType(s string) (EventType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "online":
		return Online, true
	case "offline":
		return Offline, true
	}
	return "", false
}

type indexedEvent struct {
	CleanEvent
	index int
}

// CleanEvents canonicalizes, parses, time-filters, stably sorts and
// de-duplicates raw events. Consecutive events of the same type collapse into
// one carrying the last time of the run.
func CleanEvents(raw []RawEvent, loc *time.Location, mode timeutil.Mode, now time.Time) ([]CleanEvent, CleanStats) {
	stats := CleanStats{Input: len(raw)}
	limit := now.Add(futureSkew)

	parsed := make([]indexedEvent, 0, len(raw))
	for i, r := range raw {
		typ, ok := canonicalType(r.Type)
		if !ok {
			stats.UnknownType++
			continue
		}
		t, err := timeutil.Parse(r.CreatedAt, loc, mode)
		if err != nil {
			stats.Malformed++
			continue
		}
		if t.After(limit) {
			stats.Future++
			continue
		}
		parsed = append(parsed, indexedEvent{CleanEvent{Type: typ, Time: t}, i})
	}

	slices.SortFunc(parsed, func(a, b indexedEvent) int {
		if c := a.Time.Compare(b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})

	cleaned := make([]CleanEvent, 0, len(parsed))
	for _, e := range parsed {
		if n := len(cleaned); n > 0 && cleaned[n-1].Type == e.Type {
			cleaned[n-1] = e.CleanEvent
			stats.Collapsed++
			continue
		}
		cleaned = append(cleaned, e.CleanEvent)
	}
	return cleaned, stats
}

// CleanOnlineInstants parses the global Online timestamps, drops future and
// duplicate instants and returns them in time order. Type counts are not
// tracked since every row is an Online event.
func CleanOnlineInstants(raw []string, loc *time.Location, mode timeutil.Mode, now time.Time) ([]time.Time, CleanStats) {
	stats := CleanStats{Input: len(raw)}
	limit := now.Add(futureSkew)

	out := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		t, err := timeutil.Parse(s, loc, mode)
		if err != nil {
			stats.Malformed++
			continue
		}
		if t.After(limit) {
			stats.Future++
			continue
		}
		out = append(out, t)
	}

	slices.SortFunc(out, time.Time.Compare)
	deduped := slices.CompactFunc(out, time.Time.Equal)
	stats.Collapsed = len(out) - len(deduped)
	return deduped, stats
}
