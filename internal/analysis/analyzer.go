// Package analysis turns a user's Online/Offline history into sessions, a
// weekly presence probability grid and summary metrics.
package analysis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/christopherklint97/vrcxpredict/internal/timeutil"
)

const (
	minGridSessions   = 5
	shortHorizonHours = 2.0
	recentIntervals   = 10
	activeHoursDays   = 7
	confidenceDays    = 90
)

// Config is the read-only analysis configuration.
type Config struct {
	TimeZone               string
	CreatedAtMode          timeutil.Mode
	HalfLifeDays           int
	HistoryDays            int
	BinMinutes             int
	SeparateWeekdayWeekend bool
	RecentWeeks            int
	HolidayDates           []string
	SpecialWorkdayDates    []string
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if _, err := BinsPerDay(c.BinMinutes); err != nil {
		return err
	}
	if c.HistoryDays < 0 || c.HalfLifeDays < 0 || c.RecentWeeks < 0 {
		return fmt.Errorf("%w: day and week counts must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Input is everything one analysis run reads.
type Input struct {
	Events []RawEvent
	// GlobalOnline holds created_at strings of every Online event in the
	// source. Nil means no global grid is computed.
	GlobalOnline []string
	// Now is the analysis time; zero means time.Now().
	Now time.Time
}

// DataQuality reports how much of the input was discarded.
type DataQuality struct {
	Events          CleanStats `json:"events"`
	BeforeHistory   int        `json:"before_history"`
	Global          CleanStats `json:"global"`
	BadHolidayDates int        `json:"bad_holiday_dates"`
}

// Result is the snapshot produced by one analysis run.
type Result struct {
	Now        time.Time
	Location   *time.Location
	BinMinutes int

	Sessions      []Session
	IsOnlineNow   bool
	LastEventType EventType
	LastEventTime time.Time

	SessionCount          int
	AvgDurationHours      float64
	AvgStartIntervalHours *float64
	RecentActiveHours     string
	Confidence            string

	ProbNext2Hours float64
	Stability      Stability
	BestWindow     Window

	Probability *Grid
	// GlobalOnline is nil when no global events were supplied.
	GlobalOnline *Grid

	// Reduced is set when there were too few sessions to build a grid.
	Reduced bool
	Quality DataQuality
}

// Analyzer runs the analysis pipeline for a fixed configuration.
type Analyzer struct {
	cfg    Config
	logger *slog.Logger
}

// New validates cfg and returns an Analyzer. A nil logger discards output.
func New(cfg Config, logger *slog.Logger) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Analyzer{cfg: cfg, logger: logger}, nil
}

func checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}

// Analyze runs the whole pipeline. Cancellation is checked before the global
// events are parsed and before the probability grid is built.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (*Result, error) {
	if len(in.Events) == 0 {
		return nil, ErrNoUserRecords
	}

	cfg := a.cfg
	loc := timeutil.ResolveZone(cfg.TimeZone)
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(loc)
	bins, _ := BinsPerDay(cfg.BinMinutes)

	events, stats := CleanEvents(in.Events, loc, cfg.CreatedAtMode, now)
	res := &Result{Now: now, Location: loc, BinMinutes: cfg.BinMinutes}
	res.Quality.Events = stats

	if cfg.HistoryDays > 0 {
		cutoff := now.AddDate(0, 0, -cfg.HistoryDays)
		kept := events[:0]
		for _, e := range events {
			if e.Time.Before(cutoff) {
				res.Quality.BeforeHistory++
				continue
			}
			kept = append(kept, e)
		}
		events = kept
	}
	if len(events) == 0 {
		return nil, ErrEmptyAfterFilter
	}

	sessions := BuildSessions(events, now)
	last := events[len(events)-1]
	res.Sessions = sessions
	res.SessionCount = len(sessions)
	res.LastEventType = last.Type
	res.LastEventTime = last.Time
	res.IsOnlineNow = last.Type == Online
	if len(sessions) > 0 {
		total := 0.0
		for _, s := range sessions {
			total += s.DurationHours
		}
		res.AvgDurationHours = total / float64(len(sessions))
	}
	res.AvgStartIntervalHours = AverageStartIntervalHours(sessions, recentIntervals)
	res.RecentActiveHours = RecentActiveHoursText(sessions, loc, now, activeHoursDays)
	res.Confidence = ConfidenceLabel(sessions, now, confidenceDays)

	a.logger.Debug("events cleaned",
		"input", stats.Input,
		"kept", len(events),
		"malformed", stats.Malformed,
		"future", stats.Future,
		"before_history", res.Quality.BeforeHistory,
		"sessions", len(sessions),
	)

	if in.GlobalOnline != nil {
		if err := checkpoint(ctx); err != nil {
			return nil, err
		}
		instants, gstats := CleanOnlineInstants(in.GlobalOnline, loc, cfg.CreatedAtMode, now)
		res.Quality.Global = gstats
		global, err := BuildOnlineCounts(instants, cfg.BinMinutes, loc, now, cfg.HistoryDays)
		if err != nil {
			return nil, err
		}
		res.GlobalOnline = global
	}

	if len(sessions) < minGridSessions {
		a.logger.Debug("too few sessions for a probability grid", "sessions", len(sessions))
		res.Reduced = true
		res.Probability = newGrid(bins)
		res.Stability = Stability{Label: StabilityInsufficient}
		res.BestWindow = Window{Start: now, End: now}
		return res, nil
	}

	holidays, badHolidays := ParseDateSet(cfg.HolidayDates)
	workdays, badWorkdays := ParseDateSet(cfg.SpecialWorkdayDates)
	res.Quality.BadHolidayDates = badHolidays + badWorkdays

	if err := checkpoint(ctx); err != nil {
		return nil, err
	}

	p, err := BuildProbabilityMatrixFromSessions(sessions, loc, now, MatrixOptions{
		BinMinutes:             cfg.BinMinutes,
		HalfLifeDays:           cfg.HalfLifeDays,
		RecentWeeks:            cfg.RecentWeeks,
		SeparateWeekdayWeekend: cfg.SeparateWeekdayWeekend,
		Calendar:               DayCalendar{Holidays: holidays, SpecialWorkdays: workdays},
	})
	if err != nil {
		return nil, fmt.Errorf("building probability matrix: %w", err)
	}

	res.Probability = p
	res.ProbNext2Hours = ProbNextHours(p, now, shortHorizonHours, cfg.BinMinutes, loc)
	res.Stability = StabilityOf(sessions, loc)
	res.BestWindow = BestWindowNext24h(p, now, cfg.BinMinutes, loc)

	a.logger.Debug("probability grid built",
		"separate_weekday_weekend", cfg.SeparateWeekdayWeekend,
		"prob_next_2h", res.ProbNext2Hours,
		"peak", res.BestWindow.Peak,
	)
	return res, nil
}
