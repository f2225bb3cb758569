package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/pelletier/go-toml/v2"

	"github.com/christopherklint97/vrcxpredict/internal/analysis"
	"github.com/christopherklint97/vrcxpredict/internal/timeutil"
)

type Config struct {
	Source        SourceConfig   `toml:"source"`
	Analysis      AnalysisConfig `toml:"analysis"`
	Watch         WatchConfig    `toml:"watch"`
	Notifications NotifyConfig   `toml:"notifications"`
}

type SourceConfig struct {
	DBPath string `toml:"db_path"`
	Table  string `toml:"table"`
	User   string `toml:"user"`
}

type AnalysisConfig struct {
	TimeZone               string   `toml:"time_zone"`
	CreatedAtMode          string   `toml:"created_at_mode"` // "utc" or "local"
	HalfLifeDays           int      `toml:"half_life_days"`
	HistoryDays            int      `toml:"history_days"`
	BinMinutes             int      `toml:"bin_minutes"`
	SeparateWeekdayWeekend bool     `toml:"separate_weekday_weekend"`
	RecentWeeks            int      `toml:"recent_weeks"`
	HolidayDates           []string `toml:"holiday_dates"`
	SpecialWorkdayDates    []string `toml:"special_workday_dates"`
	HolidayCalendar        string   `toml:"holiday_calendar"` // ICS URL or file path
}

type WatchConfig struct {
	IntervalMinutes int     `toml:"interval_minutes"`
	Threshold       float64 `toml:"threshold"`
	HorizonHours    float64 `toml:"horizon_hours"`
}

type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			DBPath: defaultDBPath(),
		},
		Analysis: AnalysisConfig{
			TimeZone:               "Asia/Taipei",
			CreatedAtMode:          string(timeutil.ModeUTC),
			HalfLifeDays:           21,
			HistoryDays:            180,
			BinMinutes:             15,
			SeparateWeekdayWeekend: true,
			RecentWeeks:            12,
		},
		Watch: WatchConfig{
			IntervalMinutes: 15,
			Threshold:       0.6,
			HorizonHours:    2,
		},
		Notifications: NotifyConfig{
			Enabled: true,
		},
	}
}

// defaultDBPath returns the usual VRCX database location when it exists.
func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, "VRCX", "VRCX.sqlite3")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func ConfigDir() (string, error) {
	if v := os.Getenv("VRCXPREDICT_CONFIG_DIR"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "vrcxpredict"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VRCXPREDICT_DB_PATH"); v != "" {
		cfg.Source.DBPath = v
	}
	if v := os.Getenv("VRCXPREDICT_TABLE"); v != "" {
		cfg.Source.Table = v
	}
	if v := os.Getenv("VRCXPREDICT_USER"); v != "" {
		cfg.Source.User = v
	}
	if v := os.Getenv("VRCXPREDICT_TIME_ZONE"); v != "" {
		cfg.Analysis.TimeZone = v
	}
}

// Validate checks the values the analysis and watch loop depend on.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Analysis.CreatedAtMode)) {
	case "", string(timeutil.ModeUTC), string(timeutil.ModeLocal):
	default:
		return fmt.Errorf("analysis.created_at_mode must be %q or %q, got %q",
			timeutil.ModeUTC, timeutil.ModeLocal, c.Analysis.CreatedAtMode)
	}
	if err := c.AnalysisConfig().Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if c.Watch.IntervalMinutes <= 0 {
		return fmt.Errorf("watch.interval_minutes must be positive, got %d", c.Watch.IntervalMinutes)
	}
	if c.Watch.Threshold < 0 || c.Watch.Threshold > 1 {
		return fmt.Errorf("watch.threshold must be within [0,1], got %g", c.Watch.Threshold)
	}
	if c.Watch.HorizonHours <= 0 || c.Watch.HorizonHours > 24 {
		return fmt.Errorf("watch.horizon_hours must be within (0,24], got %g", c.Watch.HorizonHours)
	}
	return nil
}

// AnalysisConfig converts the [analysis] section into the analyzer's
// configuration. Holiday dates from extra are merged in before the lists
// are normalized.
func (c *Config) AnalysisConfig(extra ...HolidaySet) analysis.Config {
	a := c.Analysis
	holidays := slices.Clone(a.HolidayDates)
	workdays := slices.Clone(a.SpecialWorkdayDates)
	for _, h := range extra {
		holidays = append(holidays, h.Holidays...)
		workdays = append(workdays, h.Workdays...)
	}
	holidays, _ = NormalizeDateList(holidays)
	workdays, _ = NormalizeDateList(workdays)
	return analysis.Config{
		TimeZone:               a.TimeZone,
		CreatedAtMode:          timeutil.ParseMode(a.CreatedAtMode),
		HalfLifeDays:           a.HalfLifeDays,
		HistoryDays:            a.HistoryDays,
		BinMinutes:             a.BinMinutes,
		SeparateWeekdayWeekend: a.SeparateWeekdayWeekend,
		RecentWeeks:            a.RecentWeeks,
		HolidayDates:           holidays,
		SpecialWorkdayDates:    workdays,
	}
}

// HolidaySet is a pair of ISO date lists imported from outside the config
// file, such as a holiday calendar.
type HolidaySet struct {
	Holidays []string
	Workdays []string
}

var dateLayouts = []string{"2006-1-2", "2006/1/2", "2006.1.2"}

// NormalizeDateList parses each entry as YYYY-MM-DD or YYYY/M/D and returns
// the sorted, deduplicated ISO dates along with the entries it rejected.
func NormalizeDateList(dates []string) (valid []string, invalid []string) {
	seen := make(map[civil.Date]struct{}, len(dates))
	var parsed []civil.Date
	for _, raw := range dates {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		d, ok := parseDate(s)
		if !ok {
			invalid = append(invalid, raw)
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		parsed = append(parsed, d)
	}
	slices.SortFunc(parsed, func(a, b civil.Date) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
	valid = make([]string, len(parsed))
	for i, d := range parsed {
		valid[i] = d.String()
	}
	return valid, invalid
}

func parseDate(s string) (civil.Date, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// SaveSource persists the [source] section using a read-modify-write approach
// to preserve other settings. Empty fields are left untouched.
func SaveSource(src SourceConfig) error {
	return updateSection("source", func(sec map[string]any) {
		if src.DBPath != "" {
			sec["db_path"] = src.DBPath
		}
		if src.Table != "" {
			sec["table"] = src.Table
		}
		if src.User != "" {
			sec["user"] = src.User
		}
	})
}

// SaveHolidays persists normalized holiday and special workday lists to the
// [analysis] section. Rejected entries are returned and not written.
func SaveHolidays(holidays, workdays []string) ([]string, error) {
	h, badH := NormalizeDateList(holidays)
	w, badW := NormalizeDateList(workdays)
	err := updateSection("analysis", func(sec map[string]any) {
		sec["holiday_dates"] = h
		sec["special_workday_dates"] = w
	})
	return append(badH, badW...), err
}

// SaveAnalysisValue sets a single key in the [analysis] section.
func SaveAnalysisValue(key string, value any) error {
	return updateSection("analysis", func(sec map[string]any) {
		sec[key] = value
	})
}

func updateSection(name string, edit func(map[string]any)) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	cfg := make(map[string]any)

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	sec, ok := cfg[name].(map[string]any)
	if !ok {
		sec = make(map[string]any)
	}
	edit(sec)
	cfg[name] = sec

	if err := EnsureConfigDir(); err != nil {
		return err
	}

	out, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, out, 0644)
}
