package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/vrcxpredict/internal/analysis"
	"github.com/christopherklint97/vrcxpredict/internal/report"
	"github.com/christopherklint97/vrcxpredict/internal/store"
	"github.com/christopherklint97/vrcxpredict/internal/timeutil"
	"github.com/christopherklint97/vrcxpredict/internal/tui"
)

const maxSuggestions = 10

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a user's presence history",
	Long: `Reads the user's Online/Offline events, rebuilds their sessions and prints
a summary, the chance they come online within two hours, the best window in
the next day and a weekly heatmap.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "Print the report as JSON")
	analyzeCmd.Flags().String("at", "", `Analyze as of this time, e.g. "2024-03-20 21:00" or "yesterday 9pm"`)
	analyzeCmd.Flags().Bool("global", false, "Also build the all-users online heatmap")
	analyzeCmd.Flags().Bool("bins", false, "Draw heatmaps at bin resolution instead of hourly")
	analyzeCmd.Flags().Bool("no-heatmap", false, "Skip the heatmap")
	analyzeCmd.Flags().Int("sessions", 0, "Recent sessions to list (0 = 10, -1 = none)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	at, _ := cmd.Flags().GetString("at")
	global, _ := cmd.Flags().GetBool("global")
	perBin, _ := cmd.Flags().GetBool("bins")
	noHeatmap, _ := cmd.Flags().GetBool("no-heatmap")
	sessions, _ := cmd.Flags().GetInt("sessions")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	user, err := requireUser(cfg)
	if err != nil {
		return err
	}
	logger := newLogger()

	ctx, cancel := withSignals(context.Background())
	defer cancel()

	loc := timeutil.ResolveZone(cfg.Analysis.TimeZone)
	now, err := parseAt(at, time.Now(), loc)
	if err != nil {
		return err
	}

	db, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	table, err := resolveTable(ctx, cfg, db)
	if err != nil {
		return err
	}

	events, err := db.ReadUserEvents(ctx, table, user)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		printSuggestions(ctx, db, table, user)
		return fmt.Errorf("%w: %q in %s", analysis.ErrNoUserRecords, user, table)
	}

	in := analysis.Input{Events: events, Now: now}
	if global {
		in.GlobalOnline, err = db.ReadOnlineCreatedAt(ctx, table)
		if err != nil {
			return err
		}
	}

	analyzer, err := newAnalyzer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	res, err := analyzer.Analyze(ctx, in)
	if errors.Is(err, analysis.ErrCancelled) {
		fmt.Fprintln(os.Stderr, "Analysis cancelled.")
		return err
	}
	if err != nil {
		return fmt.Errorf("analyzing %q: %w", user, err)
	}

	rep := report.New(user, table, res)
	if asJSON {
		return report.Write(os.Stdout, rep)
	}

	fmt.Println(tui.RenderSummary(rep, tui.SummaryOptions{Sessions: sessions}))
	if q := res.Quality; q.Events.Dropped() > 0 || q.BeforeHistory > 0 || q.BadHolidayDates > 0 {
		fmt.Printf("Skipped %d unusable events, %d outside the %d-day history, %d bad holiday dates.\n\n",
			q.Events.Dropped(), q.BeforeHistory, cfg.Analysis.HistoryDays, q.BadHolidayDates)
	}
	if noHeatmap {
		return nil
	}

	opts := tui.HeatmapOptions{Hourly: !perBin, BinMinutes: res.BinMinutes}
	if !res.Reduced {
		opts.Title = "Online probability"
		fmt.Println(tui.RenderHeatmap(res.Probability, opts))
	}
	if res.GlobalOnline != nil {
		opts.Title = "All users coming online"
		fmt.Println(tui.RenderHeatmap(res.GlobalOnline, opts))
	}
	return nil
}

// printSuggestions lists display names similar to user. A full-name search
// that finds nothing is retried with the first few characters.
func printSuggestions(ctx context.Context, db *store.DB, table, user string) {
	names, err := db.SearchDisplayNames(ctx, table, user, maxSuggestions)
	if err == nil && len(names) == 0 {
		if r := []rune(user); len(r) > 3 {
			names, err = db.SearchDisplayNames(ctx, table, string(r[:3]), maxSuggestions)
		}
	}
	if err != nil || len(names) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "No events for that name. Did you mean:")
	for _, n := range names {
		fmt.Fprintf(os.Stderr, "  %s\n", n)
	}
}
