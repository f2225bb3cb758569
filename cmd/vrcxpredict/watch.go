package main

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/vrcxpredict/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the analysis periodically and notify on changes",
	Long: `Checks the user on every interval boundary. A desktop notification is sent
when they come online, and when the chance of them coming online within the
horizon rises above the threshold.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running watcher",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func init() {
	watchCmd.Flags().Int("interval", 0, "Minutes between checks (overrides config)")
	watchCmd.Flags().Float64("threshold", -1, "Probability that triggers an alert (overrides config)")
	watchCmd.Flags().Bool("global", false, "Show the all-users online level in each status line")
}

func runWatch(cmd *cobra.Command, args []string) error {
	interval, _ := cmd.Flags().GetInt("interval")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	global, _ := cmd.Flags().GetBool("global")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if interval > 0 {
		cfg.Watch.IntervalMinutes = interval
	}
	if threshold >= 0 {
		cfg.Watch.Threshold = threshold
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	user, err := requireUser(cfg)
	if err != nil {
		return err
	}
	logger := newLogger()

	ctx, cancel := withSignals(context.Background())
	defer cancel()

	db, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	table, err := resolveTable(ctx, cfg, db)
	if err != nil {
		return err
	}
	analyzer, err := newAnalyzer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var notifier watch.Notifier = watch.NopNotifier{}
	if cfg.Notifications.Enabled {
		notifier = watch.DesktopNotifier{}
	}

	w := watch.New(db, analyzer, notifier, watch.Options{
		Table:        table,
		User:         user,
		Interval:     time.Duration(cfg.Watch.IntervalMinutes) * time.Minute,
		Threshold:    cfg.Watch.Threshold,
		HorizonHours: cfg.Watch.HorizonHours,
		Global:       global,
	}, logger)
	w.SetOutput(os.Stdout)

	return w.Run(ctx)
}

func runStop(cmd *cobra.Command, args []string) error {
	pid, err := watch.ReadPID()
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("sending stop signal: %w", err)
	}

	fmt.Printf("Sent stop signal to vrcxpredict (PID %d)\n", pid)
	return nil
}
