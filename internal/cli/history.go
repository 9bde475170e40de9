package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/setevik/crashtriage/internal/config"
	"github.com/setevik/crashtriage/internal/report"
	"github.com/setevik/crashtriage/internal/store"
)

// HistoryOptions holds command-line options for the history command.
type HistoryOptions struct {
	Last      string
	Code      string
	Signature string
	Instance  string
	Limit     int
	Digest    bool
}

func (a *app) historyCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded analysis runs",
		Long: `List analysis runs recorded in the history database, newest first.

With --digest, print a summary of the period instead: runs by highest
severity, the most frequent crash signatures and JDK versions, and how
many runs produced each finding code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Last, "last", "30d", "Time window (e.g. 24h, 7d, 30d)")
	cmd.Flags().StringVar(&opts.Code, "code", "", "Only runs that produced this finding code")
	cmd.Flags().StringVar(&opts.Signature, "signature", "", "Only runs with this crash signature")
	cmd.Flags().StringVar(&opts.Instance, "instance", "", "Only runs recorded by this instance")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "Maximum runs to list")
	cmd.Flags().BoolVar(&opts.Digest, "digest", false, "Print a digest instead of individual runs")

	return cmd
}

func (a *app) runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	window, err := config.ParseDuration(opts.Last)
	if err != nil {
		return fmt.Errorf("invalid --last value %q: %w", opts.Last, err)
	}
	if opts.Limit < 0 {
		return fmt.Errorf("invalid --limit value %d", opts.Limit)
	}

	db, err := store.Open(a.cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	until := a.now()
	filter := store.QueryFilter{
		Since:      until.Add(-window),
		Code:       strings.ToUpper(opts.Code),
		Signature:  opts.Signature,
		InstanceID: opts.Instance,
		Limit:      opts.Limit,
	}

	out := cmd.OutOrStdout()
	if opts.Digest {
		filter.Limit = 0
		runs, err := db.Query(filter)
		if err != nil {
			return err
		}
		codes, err := db.CodeCounts(filter)
		if err != nil {
			return err
		}
		report.FormatDigest(out, report.BuildDigest(runs, codes, filter.Since, until))
		return nil
	}

	runs, err := db.Query(filter)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found.")
		return nil
	}
	printRuns(out, runs)
	return nil
}

func printRuns(w io.Writer, runs []*store.Run) {
	for _, r := range runs {
		ts := r.Timestamp.Local().Format("2006-01-02 15:04:05")
		sig := r.Signature
		if sig == "" {
			sig = "(no crash signature)"
		}
		version := r.Version
		if version == "" {
			version = "?"
		}
		fmt.Fprintf(w, "%s  %-10s %s\n", ts, version, sig)
		fmt.Fprintf(w, "             Source: %s\n", r.Source)
		if len(r.Findings) > 0 {
			codes := make([]string, len(r.Findings))
			for i, f := range r.Findings {
				codes[i] = f.Code
			}
			fmt.Fprintf(w, "             %s: %s\n", strings.ToUpper(string(r.Highest())), strings.Join(codes, ", "))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Total: %d run(s)\n", len(runs))
}
