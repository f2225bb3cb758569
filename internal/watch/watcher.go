// Package watch re-runs the presence analysis on a fixed schedule and raises
// alerts when a user comes online or is likely to soon.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/christopherklint97/vrcxpredict/internal/analysis"
)

const defaultGlobalTTL = time.Hour

// Source is the subset of the event store the watcher reads.
type Source interface {
	ReadUserEvents(ctx context.Context, table, displayName string) ([]analysis.RawEvent, error)
	ReadOnlineCreatedAt(ctx context.Context, table string) ([]string, error)
}

type Options struct {
	Table        string
	User         string
	Interval     time.Duration
	Threshold    float64
	HorizonHours float64
	// Global adds the all-users online level to every status.
	Global bool
	// GlobalTTL is how long the all-users event list is reused between
	// ticks. Zero means one hour.
	GlobalTTL time.Duration
}

// Status is the outcome of a single check.
type Status struct {
	At          time.Time
	Online      bool
	Probability float64
	Reduced     bool
	// GlobalLevel is the normalized all-users online count for the current
	// bin, nil when not computed.
	GlobalLevel *float64
	Alerts      []string
}

type Watcher struct {
	src      Source
	analyzer *analysis.Analyzer
	notifier Notifier
	opts     Options
	logger   *slog.Logger
	out      io.Writer
	global   *otter.Cache[string, []string]

	checked   bool
	wasOnline bool
	wasLikely bool
}

// New returns a Watcher. A nil notifier drops alerts and a nil logger
// discards output.
func New(src Source, analyzer *analysis.Analyzer, notifier Notifier, opts Options, logger *slog.Logger) *Watcher {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.GlobalTTL <= 0 {
		opts.GlobalTTL = defaultGlobalTTL
	}
	return &Watcher{
		src:      src,
		analyzer: analyzer,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
		out:      io.Discard,
		global: otter.Must(&otter.Options[string, []string]{
			MaximumSize:      16,
			ExpiryCalculator: otter.ExpiryWriting[string, []string](opts.GlobalTTL),
		}),
	}
}

// SetOutput directs the per-tick status lines to w.
func (w *Watcher) SetOutput(out io.Writer) {
	w.out = out
}

// Run checks once immediately and then on every interval boundary until ctx
// is done. It records its PID so a separate process can stop it.
func (w *Watcher) Run(ctx context.Context) error {
	if err := writePID(); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePID()

	interval := w.opts.Interval
	fmt.Fprintf(w.out, "Watching %s (interval: %s, threshold: %.0f%% within %gh)\n",
		w.opts.User, interval, w.opts.Threshold*100, w.opts.HorizonHours)

	w.tick(ctx, time.Now())
	for {
		nextTick := nextAlignedTick(time.Now(), interval)
		w.logger.Debug("next check", "at", nextTick.Format("15:04"))

		select {
		case <-ctx.Done():
			fmt.Fprintln(w.out, "\nWatcher stopped.")
			return nil
		case <-time.After(time.Until(nextTick)):
		}

		w.tick(ctx, time.Now())
	}
}

func (w *Watcher) tick(ctx context.Context, now time.Time) {
	st, err := w.Check(ctx, now)
	if err != nil {
		if ctx.Err() == nil {
			fmt.Fprintf(w.out, "%s  error: %v\n", now.Format("15:04"), err)
		}
		return
	}
	fmt.Fprintln(w.out, st.Line())
}

// Check runs one analysis at now and delivers any alerts it triggers. The
// first check only records a baseline.
func (w *Watcher) Check(ctx context.Context, now time.Time) (Status, error) {
	events, err := w.src.ReadUserEvents(ctx, w.opts.Table, w.opts.User)
	if err != nil {
		return Status{}, err
	}
	if len(events) == 0 {
		return Status{}, fmt.Errorf("%w: %s", analysis.ErrNoUserRecords, w.opts.User)
	}

	in := analysis.Input{Events: events, Now: now}
	if w.opts.Global {
		global, err := w.globalEvents(ctx)
		if err != nil {
			return Status{}, err
		}
		in.GlobalOnline = global
	}

	res, err := w.analyzer.Analyze(ctx, in)
	if err != nil {
		return Status{}, fmt.Errorf("analyzing: %w", err)
	}

	st := Status{
		At:      res.Now,
		Online:  res.IsOnlineNow,
		Reduced: res.Reduced,
	}
	if !res.Reduced {
		st.Probability = analysis.ProbNextHours(res.Probability, res.Now, w.opts.HorizonHours, res.BinMinutes, res.Location)
	}
	if res.GlobalOnline != nil {
		level := res.GlobalOnline.ValueAt(res.Now, res.Location)
		st.GlobalLevel = &level
	}

	likely := !st.Reduced && st.Probability >= w.opts.Threshold
	if w.checked {
		if st.Online && !w.wasOnline {
			st.Alerts = append(st.Alerts, fmt.Sprintf("%s is online", w.opts.User))
		}
		if likely && !w.wasLikely && !st.Online {
			st.Alerts = append(st.Alerts, fmt.Sprintf("%s is likely online within %gh (%.0f%%)",
				w.opts.User, w.opts.HorizonHours, st.Probability*100))
		}
	}
	w.checked = true
	w.wasOnline = st.Online
	w.wasLikely = likely

	for _, msg := range st.Alerts {
		if err := w.notifier.Notify("vrcxpredict", msg); err != nil {
			w.logger.Warn("notification failed", "error", err)
		}
	}
	return st, nil
}

func (w *Watcher) globalEvents(ctx context.Context) ([]string, error) {
	if cached, ok := w.global.GetIfPresent(w.opts.Table); ok {
		return cached, nil
	}
	events, err := w.src.ReadOnlineCreatedAt(ctx, w.opts.Table)
	if err != nil {
		return nil, err
	}
	w.global.Set(w.opts.Table, events)
	w.logger.Debug("global events refreshed", "count", len(events))
	return events, nil
}

// Line renders st as a one-line status.
func (st Status) Line() string {
	state := "offline"
	if st.Online {
		state = "online"
	}
	line := fmt.Sprintf("%s  %s", st.At.Format("15:04"), state)
	if st.Reduced {
		line += "  (too few sessions)"
	} else {
		line += fmt.Sprintf("  next: %.0f%%", st.Probability*100)
	}
	if st.GlobalLevel != nil {
		line += fmt.Sprintf("  global: %.0f%%", *st.GlobalLevel*100)
	}
	for _, a := range st.Alerts {
		line += "  [" + a + "]"
	}
	return line
}

// nextAlignedTick returns the first interval boundary after now, counted
// from the start of the hour for sub-hour intervals and from midnight
// otherwise.
func nextAlignedTick(now time.Time, interval time.Duration) time.Time {
	mins := int(interval.Minutes())
	if mins <= 0 {
		mins = 60
	}

	if mins < 60 {
		currentMinute := now.Minute()
		nextMinute := ((currentMinute / mins) + 1) * mins

		next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
		return next.Add(time.Duration(nextMinute) * time.Minute)
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	elapsed := now.Hour()*60 + now.Minute()
	next := ((elapsed / mins) + 1) * mins
	return midnight.Add(time.Duration(next) * time.Minute)
}
