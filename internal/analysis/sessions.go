package analysis

import "time"

const (
	minSessionHours = 0.02
	maxSessionHours = 24.0
)

// Session is one Online→Offline interval. An open session has no Offline yet
// and ends at the analysis time.
type Session struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DurationHours float64   `json:"duration_hours"`
	IsOpen        bool      `json:"is_open"`
}

func sessionHoursValid(h float64) bool {
	return h > minSessionHours && h < maxSessionHours
}

// BuildSessions pairs each Online with the next Offline. Pairs outside
// (0.02h, 24h) are discarded; a trailing Online becomes an open session
// ending at now when it satisfies the same bound.
func BuildSessions(events []CleanEvent, now time.Time) []Session {
	var sessions []Session
	var pending *time.Time

	for _, e := range events {
		switch e.Type {
		case Online:
			t := e.Time
			pending = &t
		case Offline:
			if pending == nil {
				continue
			}
			d := e.Time.Sub(*pending)
			if h := d.Hours(); d >= 0 && sessionHoursValid(h) {
				sessions = append(sessions, Session{Start: *pending, End: e.Time, DurationHours: h})
			}
			pending = nil
		}
	}

	if pending != nil {
		if h := now.Sub(*pending).Hours(); sessionHoursValid(h) {
			sessions = append(sessions, Session{Start: *pending, End: now, DurationHours: h, IsOpen: true})
		}
	}
	return sessions
}
