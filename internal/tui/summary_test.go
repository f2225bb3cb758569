package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/christopherklint97/vrcxpredict/internal/analysis"
	"github.com/christopherklint97/vrcxpredict/internal/report"
)

func sampleReport() report.Report {
	now := time.Date(2024, 3, 21, 19, 0, 0, 0, time.UTC)
	interval := 24.0
	std := 0.25
	return report.Report{
		User:                  "Alice",
		GeneratedAt:           now,
		TimeZone:              "UTC",
		BinMinutes:            15,
		LastEvent:             report.LastEvent{Type: "Offline", Time: now.Add(-21 * time.Hour)},
		SessionCount:          2,
		AvgDurationHours:      2,
		AvgStartIntervalHours: &interval,
		RecentActiveHours:     "20:00-22:00",
		Confidence:            analysis.ConfidenceVeryLow,
		ProbNext2Hours:        0.62,
		Stability:             analysis.Stability{Label: analysis.StabilityVeryHigh, StdHours: &std},
		BestWindow: analysis.Window{
			Start: time.Date(2024, 3, 21, 20, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 3, 21, 21, 45, 0, 0, time.UTC),
			Peak:  0.93,
		},
		Sessions: []analysis.Session{
			{Start: time.Date(2024, 3, 20, 20, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 20, 22, 0, 0, 0, time.UTC), DurationHours: 2},
			{Start: time.Date(2024, 3, 19, 23, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 20, 1, 0, 0, 0, time.UTC), DurationHours: 2},
		},
	}
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(sampleReport(), SummaryOptions{})
	for _, want := range []string{
		"Alice",
		"Offline at 2024-03-20 Wed 22:00",
		"24.0h",
		"samples 2 | confidence very low",
		"62%",
		"very high regularity (σ 0.25h)",
		"20:00-21:45  peak 93%",
		"Recent sessions (2 of 2)",
		"2024-03-19 Tue  23:00 -> 03-20 01:00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q\n%s", want, out)
		}
	}
	if strings.Index(out, "2024-03-20 Wed  20:00") > strings.Index(out, "2024-03-19 Tue") {
		t.Error("sessions should keep report order, newest first")
	}
}

func TestRenderSummaryMissingValues(t *testing.T) {
	rep := sampleReport()
	rep.AvgStartIntervalHours = nil
	rep.Reduced = true
	rep.Stability = analysis.Stability{Label: analysis.StabilityInsufficient}

	out := RenderSummary(rep, SummaryOptions{Sessions: -1})
	if !strings.Contains(out, "Avg start interval") || !strings.Contains(out, noValue) {
		t.Errorf("missing interval should render as %q\n%s", noValue, out)
	}
	if !strings.Contains(out, "Too few sessions") {
		t.Error("reduced report should carry a warning")
	}
	if strings.Contains(out, "Recent sessions") {
		t.Error("negative session limit should hide the list")
	}
}

func TestLimitSessions(t *testing.T) {
	tests := []struct{ want, have, exp int }{
		{0, 30, defaultSessionsN},
		{0, 3, 3},
		{-1, 3, 0},
		{5, 30, 5},
	}
	for _, tt := range tests {
		if got := limitSessions(tt.want, tt.have); got != tt.exp {
			t.Errorf("limitSessions(%d, %d) = %d, want %d", tt.want, tt.have, got, tt.exp)
		}
	}
}
