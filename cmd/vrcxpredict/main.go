package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tj/go-naturaldate"

	"github.com/christopherklint97/vrcxpredict/internal/analysis"
	"github.com/christopherklint97/vrcxpredict/internal/calendar"
	"github.com/christopherklint97/vrcxpredict/internal/config"
	"github.com/christopherklint97/vrcxpredict/internal/store"
	"github.com/christopherklint97/vrcxpredict/internal/timeutil"
)

var rootCmd = &cobra.Command{
	Use:           "vrcxpredict",
	Short:         "Predict when a VRChat friend will be online",
	Long:          "vrcxpredict reads the Online/Offline feed VRCX records and estimates, from past sessions, when a friend is likely to be online.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagVerbose bool
	flagDB      string
	flagTable   string
	flagUser    string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Path to VRCX.sqlite3 (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagTable, "table", "", "Feed table, e.g. usrXXXX_feed_online_offline (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "Display name to analyze (overrides config)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(pickCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(schemaCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	if !flagVerbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagDB != "" {
		cfg.Source.DBPath = flagDB
	}
	if flagTable != "" {
		cfg.Source.Table = flagTable
	}
	if flagUser != "" {
		cfg.Source.User = flagUser
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func openSource(cfg *config.Config, logger *slog.Logger) (*store.DB, error) {
	db, err := store.Open(cfg.Source.DBPath, logger)
	if errors.Is(err, store.ErrNoDatabase) {
		return nil, fmt.Errorf("%w — pass --db or run 'vrcxpredict config'", err)
	}
	return db, err
}

// resolveTable returns the configured feed table, or the only one in the
// database when none is configured.
func resolveTable(ctx context.Context, cfg *config.Config, db *store.DB) (string, error) {
	if cfg.Source.Table != "" {
		return cfg.Source.Table, store.ValidateTable(cfg.Source.Table)
	}
	tables, err := db.ListTables(ctx)
	if err != nil {
		return "", err
	}
	switch len(tables) {
	case 0:
		return "", fmt.Errorf("no *_feed_online_offline tables in %s", db.Path())
	case 1:
		return tables[0], nil
	}
	return "", fmt.Errorf("%d feed tables found, choose one with --table (see 'vrcxpredict tables')", len(tables))
}

func requireUser(cfg *config.Config) (string, error) {
	if cfg.Source.User == "" {
		return "", fmt.Errorf("no user selected — pass --user or run 'vrcxpredict pick'")
	}
	return cfg.Source.User, nil
}

// newAnalyzer builds an analyzer with the configured holiday dates plus any
// imported from the holiday calendar. A calendar that cannot be read is
// logged and skipped.
func newAnalyzer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*analysis.Analyzer, error) {
	var extra []config.HolidaySet
	if src := cfg.Analysis.HolidayCalendar; src != "" {
		loc := timeutil.ResolveZone(cfg.Analysis.TimeZone)
		dates, err := calendar.Load(ctx, src, loc)
		if err != nil {
			logger.Warn("holiday calendar skipped", "source", src, "error", err)
		} else {
			logger.Debug("holiday calendar loaded", "holidays", len(dates.Holidays), "workdays", len(dates.Workdays))
			extra = append(extra, config.HolidaySet{Holidays: dates.Holidays, Workdays: dates.Workdays})
		}
	}
	return analysis.New(cfg.AnalysisConfig(extra...), logger)
}

// parseAt interprets an --at value. RFC 3339 and the database timestamp
// layouts (as wall clock in loc) are tried first, then natural language
// relative to ref.
func parseAt(s string, ref time.Time, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	if t, err := timeutil.Parse(s, loc, timeutil.ModeLocal); err == nil {
		return t, nil
	}
	t, err := naturaldate.Parse(s, ref.In(loc), naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing --at %q: %w", s, err)
	}
	return t, nil
}

// withSignals returns a context cancelled on SIGINT or SIGTERM.
func withSignals(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
