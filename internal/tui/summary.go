package tui

import (
	"fmt"
	"strings"

	"github.com/christopherklint97/vrcxpredict/internal/analysis"
	"github.com/christopherklint97/vrcxpredict/internal/report"
)

const (
	noValue          = "—"
	defaultSessionsN = 10
	clockFormat      = "15:04"
	dateFormat       = "2006-01-02 Mon"
)

// SummaryOptions controls RenderSummary.
type SummaryOptions struct {
	// Sessions is how many recent sessions to list. Zero lists ten,
	// negative lists none.
	Sessions int
}

// RenderSummary formats the headline metrics and recent sessions of rep.
func RenderSummary(rep report.Report, opts SummaryOptions) string {
	var b strings.Builder

	title := rep.User
	if title == "" {
		title = "Presence summary"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("as of %s (%s)",
		rep.GeneratedAt.Format(dateFormat+" "+clockFormat), rep.TimeZone)))
	b.WriteString("\n")

	var lines []string
	add := func(key, value string) {
		lines = append(lines, keyStyle.Render(key)+value)
	}

	add("Last event", fmt.Sprintf("%s at %s", rep.LastEvent.Type,
		rep.LastEvent.Time.Format(dateFormat+" "+clockFormat)))
	if rep.OnlineNow {
		add("Online now", onlineStyle.Render("yes"))
	} else {
		add("Online now", offlineStyle.Render("no"))
	}
	add("Sessions", fmt.Sprintf("%d", rep.SessionCount))
	add("Avg duration", formatHours(rep.AvgDurationHours))
	if rep.AvgStartIntervalHours != nil {
		add("Avg start interval", formatHours(*rep.AvgStartIntervalHours))
	} else {
		add("Avg start interval", noValue)
	}
	add("Recent active hours", rep.RecentActiveHours)
	add("Confidence", fmt.Sprintf("samples %d | confidence %s", rep.SessionCount, rep.Confidence))

	if rep.Reduced {
		add("Next 2h", noValue)
		add("Stability", rep.Stability.Label)
		add("Best window (24h)", noValue)
	} else {
		add("Next 2h", highlightStyle.Render(formatPercent(rep.ProbNext2Hours)))
		add("Stability", formatStability(rep.Stability))
		add("Best window (24h)", formatWindow(rep.BestWindow))
	}

	b.WriteString(boxStyle.Render(strings.Join(lines, "\n")))
	b.WriteString("\n")

	if rep.Reduced {
		b.WriteString(warningStyle.Render("Too few sessions for a probability grid."))
		b.WriteString("\n")
	}

	if n := limitSessions(opts.Sessions, len(rep.Sessions)); n > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render(fmt.Sprintf("Recent sessions (%d of %d)", n, len(rep.Sessions))))
		b.WriteString("\n")
		for _, s := range rep.Sessions[:n] {
			b.WriteString(formatSession(s))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func limitSessions(want, have int) int {
	switch {
	case want < 0:
		return 0
	case want == 0:
		want = defaultSessionsN
	}
	return min(want, have)
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.1fh", h)
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.0f%%", p*100)
}

func formatStability(s analysis.Stability) string {
	if s.StdHours == nil {
		return s.Label
	}
	return fmt.Sprintf("%s (σ %.2fh)", s.Label, *s.StdHours)
}

func formatWindow(w analysis.Window) string {
	return fmt.Sprintf("%s-%s  peak %s",
		w.Start.Format(clockFormat), w.End.Format(clockFormat), formatPercent(w.Peak))
}

func formatSession(s analysis.Session) string {
	end := s.End.Format(clockFormat)
	if s.End.YearDay() != s.Start.YearDay() || s.End.Year() != s.Start.Year() {
		end = s.End.Format("01-02 " + clockFormat)
	}
	line := fmt.Sprintf("  %s  %s -> %s  %s",
		s.Start.Format(dateFormat), s.Start.Format(clockFormat), end,
		formatHours(s.DurationHours))
	if s.IsOpen {
		return line + " " + onlineStyle.Render("(online)")
	}
	return line
}
