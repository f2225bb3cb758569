// Package timeutil resolves timezones and turns VRCX created_at strings into
// timezone-aware instants.
package timeutil

import (
	"strings"
	"time"
)

// zoneAliases maps Windows zone names, which older configs carry, to IANA ids.
var zoneAliases = map[string]string{
	"taipei standard time":    "Asia/Taipei",
	"china standard time":     "Asia/Shanghai",
	"tokyo standard time":     "Asia/Tokyo",
	"korea standard time":     "Asia/Seoul",
	"utc":                     "UTC",
	"etc/utc":                 "UTC",
	"pacific standard time":   "America/Los_Angeles",
	"eastern standard time":   "America/New_York",
	"central standard time":   "America/Chicago",
	"gmt standard time":       "Europe/London",
	"w. europe standard time": "Europe/Berlin",
}

// ResolveZone returns the location named by id. Unknown ids are looked up in
// the alias table; if that fails too the host's local zone is returned.
func ResolveZone(id string) *time.Location {
	loc, ok := LookupZone(id)
	if !ok {
		return time.Local
	}
	return loc
}

// LookupZone is ResolveZone without the local fallback.
func LookupZone(id string) (*time.Location, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false
	}
	if loc, err := time.LoadLocation(id); err == nil {
		return loc, true
	}
	if alias, ok := zoneAliases[strings.ToLower(id)]; ok {
		if loc, err := time.LoadLocation(alias); err == nil {
			return loc, true
		}
	}
	return nil, false
}
