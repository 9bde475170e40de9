package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/setevik/crashtriage/internal/fatallog"
	"github.com/setevik/crashtriage/internal/notify"
	"github.com/setevik/crashtriage/internal/report"
	"github.com/setevik/crashtriage/internal/source"
	"github.com/setevik/crashtriage/internal/store"
)

func (a *app) analyzeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Analyze a fatal error log",
		Long: `Analyze an hs_err_pid fatal error log and report findings.

The log is read from the named file, which may be gzip-compressed, or from
standard input when the argument is "-" or omitted. When the history store
is enabled the run is recorded and earlier runs with the same crash
signature are reported. When an ntfy URL is configured, new crashes with
findings at or above the configured severity are pushed there.

Exit codes:
  0 - No warning or critical findings
  1 - At least one warning or critical finding
  2 - Configuration or runtime error`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := source.Stdin
			if len(args) == 1 {
				path = args[0]
			}
			return a.runAnalyze(cmd, path)
		},
	}
}

func (a *app) runAnalyze(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()

	var lines []string
	var err error
	name := path
	if path == source.Stdin {
		name = "stdin"
		lines, err = source.ReadLines(cmd.InOrStdin())
	} else {
		lines, err = source.ReadFile(path)
	}
	if err != nil {
		return err
	}

	formatter, err := report.NewFormatter(a.cfg.Report.Format, report.FormatOptions{Verbose: a.cfg.Report.Verbose})
	if err != nil {
		return err
	}

	now := a.now()
	l := fatallog.Process(lines)
	findings := a.cfg.Engine().Analyze(l)
	rep := report.Build(name, l, findings, now, report.FormatOptions{Verbose: a.cfg.Report.Verbose})

	if a.cfg.Store.Enabled {
		rep.Recurrence = a.record(store.NewRun(a.cfg.Instance.ID, name, l, findings, now))
	}

	if err := formatter.Format(ctx, rep, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if a.cfg.Ntfy.URL != "" {
		if err := notify.NewNtfy(a.cfg).Notify(ctx, rep); err != nil {
			slog.Warn("failed to send notification", "error", err)
		}
	}

	slog.Info("analysis complete",
		"source", name,
		"signature", l.CrashSignature(),
		"findings", len(findings),
	)

	if rep.HasProblems() {
		a.exitCode = ExitProblems
	}
	return nil
}

// record stores the run and returns how often its signature was seen
// before. Store failures are logged and never fail the analysis.
func (a *app) record(run *store.Run) *report.Recurrence {
	sc := a.cfg.Store
	db, err := store.Open(sc.Path)
	if err != nil {
		slog.Warn("history store unavailable", "path", sc.Path, "error", err)
		return nil
	}
	defer db.Close()

	if sc.Retention.Duration > 0 {
		purged, err := db.Purge(sc.Retention.Duration)
		if err != nil {
			slog.Warn("failed to purge old runs", "error", err)
		} else if purged > 0 {
			slog.Info("purged old runs", "count", purged, "retention", sc.Retention.Duration)
		}
	}

	var rec *report.Recurrence
	if run.Signature != "" {
		seen, err := db.CheckRecurrence(run.Signature, sc.RecurrenceWindow.Duration, run.Timestamp)
		if err != nil {
			slog.Warn("recurrence check failed", "error", err)
		} else {
			rec = &report.Recurrence{
				Count:     seen.Count,
				FirstSeen: seen.FirstSeen,
				Window:    windowText(sc.RecurrenceWindow.Duration),
			}
		}
	}

	if err := db.Insert(run); err != nil {
		slog.Warn("failed to record run", "error", err)
	}
	return rec
}

// windowText renders whole days as "30d" and anything else as a Go duration.
func windowText(d time.Duration) string {
	const day = 24 * time.Hour
	if d > 0 && d%day == 0 {
		return fmt.Sprintf("%dd", d/day)
	}
	return d.String()
}
