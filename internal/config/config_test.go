package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"

	"github.com/setevik/crashtriage/internal/analysis"
	"github.com/setevik/crashtriage/internal/fatallog"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Instance.ID == "" {
		t.Error("default instance ID should not be empty")
	}
	if cfg.Analysis.Parallelism != 1 {
		t.Errorf("default parallelism = %d, want 1", cfg.Analysis.Parallelism)
	}
	if cfg.Store.Enabled {
		t.Error("store should be disabled by default")
	}
	if cfg.Store.Retention.Duration != 90*24*time.Hour {
		t.Errorf("default retention = %v, want 2160h", cfg.Store.Retention.Duration)
	}
	if cfg.Report.Format != "text" {
		t.Errorf("default report format = %q, want %q", cfg.Report.Format, "text")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("default log level = %q, want %q", cfg.Log.Level, "info")
	}
	if got, want := cfg.Thresholds(), analysis.DefaultThresholds(); got != want {
		t.Errorf("default thresholds = %+v, want %+v", got, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("loading nonexistent config should return defaults, got error: %v", err)
	}
	if cfg.Report.Format != "text" {
		t.Errorf("format = %q, want default %q", cfg.Report.Format, "text")
	}
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
[instance]
id = "build-07"

[analysis]
parallelism = 4
disabled = ["JDK_NOT_LTS", "LIB_JNA"]

[analysis.thresholds]
min_max_map_count = 65530
large_heap = "4g"

[store]
enabled = true
path = "/var/lib/crashtriage/history.db"
retention = "30d"
recurrence_window = "168h"

[report]
format = "json"
verbose = true

[log]
level = "debug"
json = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	if cfg.Instance.ID != "build-07" {
		t.Errorf("instance.id = %q, want %q", cfg.Instance.ID, "build-07")
	}
	if cfg.Analysis.Parallelism != 4 {
		t.Errorf("analysis.parallelism = %d, want 4", cfg.Analysis.Parallelism)
	}
	if len(cfg.Analysis.Disabled) != 2 {
		t.Errorf("analysis.disabled = %v", cfg.Analysis.Disabled)
	}
	th := cfg.Thresholds()
	if th.MinMaxMapCount != 65530 {
		t.Errorf("min_max_map_count = %d, want 65530", th.MinMaxMapCount)
	}
	if th.LargeHeapBytes != 4<<30 {
		t.Errorf("large_heap = %d, want %d", th.LargeHeapBytes, int64(4<<30))
	}
	if th.MinPidMax != analysis.DefaultThresholds().MinPidMax {
		t.Errorf("unset min_pid_max = %d, want default", th.MinPidMax)
	}
	if !cfg.Store.Enabled || cfg.Store.Path != "/var/lib/crashtriage/history.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Store.Retention.Duration != 720*time.Hour {
		t.Errorf("store.retention = %v, want 720h", cfg.Store.Retention.Duration)
	}
	if cfg.Store.RecurrenceWindow.Duration != 168*time.Hour {
		t.Errorf("store.recurrence_window = %v, want 168h", cfg.Store.RecurrenceWindow.Duration)
	}
	if cfg.Report.Format != "json" || !cfg.Report.Verbose {
		t.Errorf("report = %+v", cfg.Report)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.JSON {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"syntax", "not valid [[[ toml", "parsing config"},
		{"format", "[report]\nformat = \"html\"", "report.format"},
		{"parallelism", "[analysis]\nparallelism = -1", "parallelism"},
		{"unknown rule", "[analysis]\ndisabled = [\"NO_SUCH_RULE\"]", "NO_SUCH_RULE"},
		{"size", "[analysis.thresholds]\nlarge_heap = \"lots\"", "invalid size"},
		{"duration", "[store]\nretention = \"forever\"", "parsing config"},
		{"store path", "[store]\nenabled = true\npath = \"\"", "store.path"},
		{"ntfy severity", "[ntfy]\nmin_severity = \"high\"", "ntfy.min_severity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("error = %q, want it to mention %q", err, tt.errText)
			}
		})
	}
}

func TestEngineHonorsDisabled(t *testing.T) {
	cfg := Default()
	cfg.Analysis.Disabled = []string{"LOG_TRUNCATED"}
	// A log that never reaches END. is truncated.
	l := fatallog.Process([]string{"# A fatal error has been detected by the Java Runtime Environment:"})
	for _, f := range cfg.Engine().Analyze(l) {
		if f.Code == "LOG_TRUNCATED" {
			t.Error("disabled rule LOG_TRUNCATED fired")
		}
	}
	if len(Default().Engine().Analyze(l)) == 0 {
		t.Error("default engine found nothing in a truncated log")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"24h", 24 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"0d", 0, false},
		{"xd", 0, true},
		{"-1d", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestShouldAlert(t *testing.T) {
	cfg := Default()
	tests := []struct {
		min  string
		sev  analysis.Severity
		want bool
	}{
		{"warning", analysis.SeverityCritical, true},
		{"warning", analysis.SeverityWarning, true},
		{"warning", analysis.SeverityInfo, false},
		{"warning", "", false},
		{"critical", analysis.SeverityWarning, false},
		{"info", analysis.SeverityInfo, true},
	}
	for _, tt := range tests {
		cfg.Ntfy.MinSeverity = tt.min
		if got := cfg.ShouldAlert(tt.sev); got != tt.want {
			t.Errorf("ShouldAlert(%q) with min %q = %v, want %v", tt.sev, tt.min, got, tt.want)
		}
	}
}

func TestNtfyPriority(t *testing.T) {
	cfg := Default()
	if p := cfg.NtfyPriority(analysis.SeverityCritical); p != "urgent" {
		t.Errorf("critical priority = %q, want urgent", p)
	}
	if p := cfg.NtfyPriority("bogus"); p != "default" {
		t.Errorf("unknown priority = %q, want default", p)
	}
}

func TestLoadExpandsHomeInStorePath(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	cfg, err := Load(writeConfig(t, "[store]\npath = \"~/crashes/history.db\"\n"))
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	want := filepath.Join(home, "crashes", "history.db")
	if cfg.Store.Path != want {
		t.Errorf("store.path = %q, want %q", cfg.Store.Path, want)
	}
}
