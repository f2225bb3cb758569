// Package report defines the machine-readable output of an analysis run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/christopherklint97/vrcxpredict/internal/analysis"
)

// DayNames labels grid rows, Monday first.
var DayNames = [analysis.DaysPerWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

type LastEvent struct {
	Type string    `json:"type" jsonschema:"enum=Online,enum=Offline"`
	Time time.Time `json:"time"`
}

// Report is the JSON document written by `analyze --json`.
type Report struct {
	User        string    `json:"user" jsonschema:"description=Display name the events were read for"`
	Table       string    `json:"table,omitempty"`
	GeneratedAt time.Time `json:"generated_at" jsonschema:"description=Analysis time in the configured zone"`
	TimeZone    string    `json:"time_zone"`
	BinMinutes  int       `json:"bin_minutes" jsonschema:"minimum=1,maximum=1440"`

	LastEvent LastEvent `json:"last_event"`
	OnlineNow bool      `json:"online_now"`
	Reduced   bool      `json:"reduced" jsonschema:"description=Too few sessions for a probability grid"`

	SessionCount          int                `json:"session_count"`
	AvgDurationHours      float64            `json:"avg_duration_hours"`
	AvgStartIntervalHours *float64           `json:"avg_start_interval_hours,omitempty"`
	RecentActiveHours     string             `json:"recent_active_hours"`
	Confidence            string             `json:"confidence" jsonschema:"enum=very low,enum=low,enum=medium,enum=high"`
	ProbNext2Hours        float64            `json:"prob_next_2h" jsonschema:"minimum=0,maximum=1"`
	Stability             analysis.Stability `json:"stability"`
	BestWindow            analysis.Window    `json:"best_window"`

	// Probability rows are Monday..Sunday, columns are bins from 00:00.
	Probability  [][]float64 `json:"probability"`
	GlobalOnline [][]float64 `json:"global_online,omitempty"`

	Sessions []analysis.Session  `json:"sessions" jsonschema:"description=Sessions newest first"`
	Quality  analysis.DataQuality `json:"quality"`
}

// New builds a report from an analysis result.
func New(user, table string, r *analysis.Result) Report {
	rep := Report{
		User:                  user,
		Table:                 table,
		GeneratedAt:           r.Now,
		TimeZone:              r.Location.String(),
		BinMinutes:            r.BinMinutes,
		LastEvent:             LastEvent{Type: string(r.LastEventType), Time: r.LastEventTime},
		OnlineNow:             r.IsOnlineNow,
		Reduced:               r.Reduced,
		SessionCount:          r.SessionCount,
		AvgDurationHours:      r.AvgDurationHours,
		AvgStartIntervalHours: r.AvgStartIntervalHours,
		RecentActiveHours:     r.RecentActiveHours,
		Confidence:            r.Confidence,
		ProbNext2Hours:        r.ProbNext2Hours,
		Stability:             r.Stability,
		BestWindow:            r.BestWindow,
		Quality:               r.Quality,
	}
	if r.Probability != nil {
		rep.Probability = r.Probability.Rows()
	}
	if r.GlobalOnline != nil {
		rep.GlobalOnline = r.GlobalOnline.Rows()
	}
	rep.Sessions = slices.Clone(r.Sessions)
	slices.Reverse(rep.Sessions)
	if rep.Sessions == nil {
		rep.Sessions = []analysis.Session{}
	}
	return rep
}

// Write encodes rep as indented JSON.
func Write(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// Schema returns the JSON Schema of Report.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{ExpandedStruct: true}
	s := r.Reflect(&Report{})
	s.Title = "vrcxpredict report"
	return s
}
