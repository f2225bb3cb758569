package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/vrcxpredict/internal/config"
	"github.com/christopherklint97/vrcxpredict/internal/timeutil"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open config file in your editor",
	RunE:  runConfig,
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save the database, table, user or time zone to the config",
	Long:  "Persists the global --db, --table and --user flags, and --time-zone, to the config file.",
	Args:  cobra.NoArgs,
	RunE:  runConfigSet,
}

var configHolidaysCmd = &cobra.Command{
	Use:   "holidays",
	Short: "Replace the holiday and special workday lists",
	Long: `Dates may be written as YYYY-MM-DD or YYYY/M/D. Holidays count as rest days;
special workdays count as workdays even on a weekend or holiday.`,
	Args: cobra.NoArgs,
	RunE: runConfigHolidays,
}

func init() {
	configSetCmd.Flags().String("time-zone", "", "IANA or Windows time zone id, e.g. Asia/Taipei")
	configHolidaysCmd.Flags().StringSlice("holiday", nil, "Holiday dates (repeatable or comma separated)")
	configHolidaysCmd.Flags().StringSlice("workday", nil, "Special workday dates (repeatable or comma separated)")

	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configHolidaysCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Create default config file
		cfg := config.DefaultConfig()
		data := fmt.Sprintf(`[source]
db_path = %q
table = ""
user = ""

[analysis]
time_zone = %q
created_at_mode = %q
half_life_days = %d
history_days = %d
bin_minutes = %d
separate_weekday_weekend = %t
recent_weeks = %d
holiday_dates = []
special_workday_dates = []
holiday_calendar = ""

[watch]
interval_minutes = %d
threshold = %g
horizon_hours = %g

[notifications]
enabled = %t
`,
			cfg.Source.DBPath,
			cfg.Analysis.TimeZone,
			cfg.Analysis.CreatedAtMode,
			cfg.Analysis.HalfLifeDays,
			cfg.Analysis.HistoryDays,
			cfg.Analysis.BinMinutes,
			cfg.Analysis.SeparateWeekdayWeekend,
			cfg.Analysis.RecentWeeks,
			cfg.Watch.IntervalMinutes,
			cfg.Watch.Threshold,
			cfg.Watch.HorizonHours,
			cfg.Notifications.Enabled,
		)
		if err := os.WriteFile(configPath, []byte(data), 0644); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	proc := os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}
	process, err := os.StartProcess(editor, []string{editor, configPath}, &proc)
	if err != nil {
		// If editor fails, just print the path
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	_, err = process.Wait()
	return err
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	tz, _ := cmd.Flags().GetString("time-zone")
	if flagDB == "" && flagTable == "" && flagUser == "" && tz == "" {
		return fmt.Errorf("nothing to set — pass --db, --table, --user or --time-zone")
	}

	if flagDB != "" || flagTable != "" || flagUser != "" {
		if err := config.SaveSource(config.SourceConfig{
			DBPath: flagDB,
			Table:  flagTable,
			User:   flagUser,
		}); err != nil {
			return fmt.Errorf("saving source: %w", err)
		}
	}
	if tz != "" {
		if _, ok := timeutil.LookupZone(tz); !ok {
			return fmt.Errorf("unknown time zone %q", tz)
		}
		if err := config.SaveAnalysisValue("time_zone", tz); err != nil {
			return fmt.Errorf("saving time zone: %w", err)
		}
	}

	fmt.Println("Config updated.")
	return nil
}

func runConfigHolidays(cmd *cobra.Command, args []string) error {
	holidays, _ := cmd.Flags().GetStringSlice("holiday")
	workdays, _ := cmd.Flags().GetStringSlice("workday")

	rejected, err := config.SaveHolidays(holidays, workdays)
	if err != nil {
		return fmt.Errorf("saving holidays: %w", err)
	}
	if len(rejected) > 0 {
		fmt.Printf("Ignored unparsable dates: %s\n", strings.Join(rejected, ", "))
	}
	fmt.Println("Holiday lists updated.")
	return nil
}
