// Package config handles TOML configuration loading with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"

	"github.com/setevik/crashtriage/internal/analysis"
	"github.com/setevik/crashtriage/internal/event"
)

// Config is the top-level configuration for crashtriage.
type Config struct {
	Instance InstanceConfig `toml:"instance"`
	Analysis AnalysisConfig `toml:"analysis"`
	Store    StoreConfig    `toml:"store"`
	Report   ReportConfig   `toml:"report"`
	Ntfy     NtfyConfig     `toml:"ntfy"`
	Log      LogConfig      `toml:"log"`
}

// InstanceConfig identifies the machine that recorded a run.
type InstanceConfig struct {
	ID string `toml:"id"`
}

// AnalysisConfig controls the rule engine.
type AnalysisConfig struct {
	Parallelism int              `toml:"parallelism"`
	Disabled    []string         `toml:"disabled"`
	Thresholds  ThresholdsConfig `toml:"thresholds"`
}

// ThresholdsConfig mirrors analysis.Thresholds.
type ThresholdsConfig struct {
	MinMaxMapCount int64 `toml:"min_max_map_count"`
	MinPidMax      int64 `toml:"min_pid_max"`
	MinThreadsMax  int64 `toml:"min_threads_max"`
	MaxSwappiness  int64 `toml:"max_swappiness"`
	LargeHeap      Size  `toml:"large_heap"`
	MinOpenFiles   int64 `toml:"min_open_files"`
	MinProcesses   int64 `toml:"min_processes"`
}

// StoreConfig controls the run history database.
type StoreConfig struct {
	Enabled          bool     `toml:"enabled"`
	Path             string   `toml:"path"`
	Retention        Duration `toml:"retention"`
	RecurrenceWindow Duration `toml:"recurrence_window"`
}

// ReportConfig controls report rendering.
type ReportConfig struct {
	Format  string `toml:"format"`
	Verbose bool   `toml:"verbose"`
}

// NtfyConfig controls the ntfy notification target.
type NtfyConfig struct {
	URL         string            `toml:"url"`
	PriorityMap map[string]string `toml:"priority_map"`
	MinSeverity string            `toml:"min_severity"`
	OnlyNew     bool              `toml:"only_new"` // skip signatures already in history
	Timeout     Duration          `toml:"timeout"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

// Duration wraps time.Duration for TOML string parsing (e.g. "5m", "90d").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ParseDuration extends time.ParseDuration with support for a "d" (days) suffix.
func ParseDuration(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid days format: %s", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// Size is a byte count written as "8g", "512m" or a plain number.
type Size int64

func (s *Size) UnmarshalText(text []byte) error {
	n, ok := event.ParseSize(string(text)).Value()
	if !ok {
		return fmt.Errorf("invalid size %q", text)
	}
	*s = Size(n)
	return nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	th := analysis.DefaultThresholds()
	return &Config{
		Instance: InstanceConfig{ID: hostname},
		Analysis: AnalysisConfig{
			Parallelism: 1,
			Thresholds: ThresholdsConfig{
				MinMaxMapCount: th.MinMaxMapCount,
				MinPidMax:      th.MinPidMax,
				MinThreadsMax:  th.MinThreadsMax,
				MaxSwappiness:  th.MaxSwappiness,
				LargeHeap:      Size(th.LargeHeapBytes),
				MinOpenFiles:   th.MinOpenFiles,
				MinProcesses:   th.MinProcesses,
			},
		},
		Store: StoreConfig{
			Enabled:          false,
			Path:             DefaultDBPath(),
			Retention:        Duration{90 * 24 * time.Hour},
			RecurrenceWindow: Duration{30 * 24 * time.Hour},
		},
		Report: ReportConfig{Format: "text"},
		Ntfy: NtfyConfig{
			PriorityMap: map[string]string{
				"critical": "urgent",
				"warning":  "high",
				"info":     "default",
			},
			MinSeverity: "warning",
			OnlyNew:     true,
			Timeout:     Duration{15 * time.Second},
		},
		Log: LogConfig{Level: "info"},
	}
}

func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "crashtriage")
	}
	home, err := homedir.Dir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".local", "share", "crashtriage")
}

// DefaultDBPath returns the default history database path.
func DefaultDBPath() string {
	return filepath.Join(dataDir(), "history.db")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "crashtriage", "config.toml")
}

// Load reads configuration from the given path, falling back to defaults
// for any unset fields. If the file does not exist, returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Store.Path, err = homedir.Expand(cfg.Store.Path); err != nil {
		return nil, fmt.Errorf("config %s: store.path: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

var formats = map[string]bool{"text": true, "json": true, "yaml": true}

// Validate checks values that TOML decoding cannot.
func (c *Config) Validate() error {
	if !formats[c.Report.Format] {
		return fmt.Errorf("report.format %q: want text, json or yaml", c.Report.Format)
	}
	if c.Analysis.Parallelism < 0 {
		return fmt.Errorf("analysis.parallelism must not be negative, got %d", c.Analysis.Parallelism)
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store.path is required when the store is enabled")
	}
	if _, err := analysis.ParseSeverity(c.Ntfy.MinSeverity); err != nil {
		return fmt.Errorf("ntfy.min_severity: %w", err)
	}
	known := make(map[string]bool)
	for _, r := range analysis.Rules() {
		known[r.Code] = true
	}
	for _, code := range c.Analysis.Disabled {
		if !known[code] {
			return fmt.Errorf("analysis.disabled: unknown rule %q", code)
		}
	}
	return nil
}

// ShouldAlert reports whether a run whose most severe finding is sev
// warrants a notification.
func (c *Config) ShouldAlert(sev analysis.Severity) bool {
	if sev == "" {
		return false
	}
	floor, err := analysis.ParseSeverity(c.Ntfy.MinSeverity)
	if err != nil {
		return false
	}
	return sev.Rank() >= floor.Rank()
}

// NtfyPriority maps a severity to an ntfy priority string.
func (c *Config) NtfyPriority(sev analysis.Severity) string {
	if p, ok := c.Ntfy.PriorityMap[string(sev)]; ok {
		return p
	}
	return "default"
}

// Thresholds converts the configured limits.
func (c *Config) Thresholds() analysis.Thresholds {
	t := c.Analysis.Thresholds
	return analysis.Thresholds{
		MinMaxMapCount: t.MinMaxMapCount,
		MinPidMax:      t.MinPidMax,
		MinThreadsMax:  t.MinThreadsMax,
		MaxSwappiness:  t.MaxSwappiness,
		LargeHeapBytes: int64(t.LargeHeap),
		MinOpenFiles:   t.MinOpenFiles,
		MinProcesses:   t.MinProcesses,
	}
}

// Engine builds the rule engine described by the analysis section.
func (c *Config) Engine() *analysis.Engine {
	return analysis.New(
		analysis.WithThresholds(c.Thresholds()),
		analysis.WithParallelism(c.Analysis.Parallelism),
		analysis.WithDisabled(c.Analysis.Disabled...),
	)
}
