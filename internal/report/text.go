package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	fmt.Fprintf(w, "=== crashtriage: %s ===\n\n", report.Source)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	c := report.Crash
	row(tw, "Crash", c.Summary())
	row(tw, "Frame", c.Frame)
	row(tw, "JDK", jdkLine(c))
	row(tw, "VM", c.VM)
	if !c.Time.IsZero() {
		row(tw, "Crash time", c.Time.Format("2006-01-02 15:04:05 MST"))
	}
	row(tw, "Uptime", c.Uptime)
	row(tw, "Thread", c.CurrentThread)

	s := report.System
	row(tw, "OS", s.OS)
	row(tw, "CPUs", s.CPUs)
	row(tw, "Memory", s.Memory)
	row(tw, "Max heap", s.MaxHeap)
	row(tw, "Container", s.Container)
	if f.opts.Verbose {
		row(tw, "max_map_count", s.MaxMapCount)
		row(tw, "pid_max", s.PidMax)
		row(tw, "threads-max", s.ThreadsMax)
		row(tw, "swappiness", s.Swappiness)
		row(tw, "THP", s.THPEnabled)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)

	if len(report.Findings) == 0 {
		fmt.Fprintln(w, "No findings")
	} else {
		fmt.Fprintf(w, "Findings (%d):\n", len(report.Findings))
		for _, fd := range report.Findings {
			fmt.Fprintf(w, "  [%s] %s\n", strings.ToUpper(string(fd.Severity)), fd.Code)
			fmt.Fprintf(w, "      %s\n", fd.Message)
		}
	}
	fmt.Fprintln(w)

	if r := report.Recurrence; r != nil {
		if r.Count == 0 {
			fmt.Fprintf(w, "First occurrence of this crash in the last %s\n", r.Window)
		} else {
			fmt.Fprintf(w, "Seen %d time(s) before in the last %s, first on %s\n",
				r.Count, r.Window, r.FirstSeen.Local().Format("2006-01-02 15:04"))
		}
		fmt.Fprintln(w)
	}

	if f.opts.Verbose && len(report.Unrecognized) > 0 {
		fmt.Fprintf(w, "Unrecognized lines (%d):\n", len(report.Unrecognized))
		for _, line := range report.Unrecognized {
			fmt.Fprintf(w, "  %s\n", line)
		}
		fmt.Fprintln(w)
	}

	sum := report.Summary
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d critical, %d warning, %d info\n", sum.Critical, sum.Warnings, sum.Info)
	if f.opts.Verbose || sum.Truncated {
		fmt.Fprintf(w, "Lines: %d processed, %d unrecognized", sum.Lines, sum.Unrecognized)
		if sum.Truncated {
			fmt.Fprint(w, ", log truncated")
		}
		fmt.Fprintln(w)
	}
	return nil
}

func row(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "%s:\t%s\n", label, value)
}

// Summary describes the crash in one line, e.g. "SIGSEGV in C libfoo.so bar".
func (c Crash) Summary() string {
	switch {
	case c.InternalError != "":
		return "Internal Error (" + c.InternalError + ")"
	case c.Signal == "":
		return c.Signature
	case c.Signature == "" || c.Signature == c.Signal:
		return c.Signal
	}
	return c.Signal + " in " + c.Signature
}

func jdkLine(c Crash) string {
	if c.Version == "" {
		return ""
	}
	s := c.Version
	if c.Runtime != "" {
		s += " (" + c.Runtime + ")"
	}
	if c.BuildDate != "" {
		if c.BuildDateEstimated {
			s += ", built around " + c.BuildDate
		} else {
			s += ", built " + c.BuildDate
		}
	}
	return s
}
