// Package report renders an analyzed fatal error log for people and tools.
package report

import (
	"time"

	"github.com/setevik/crashtriage/internal/analysis"
	"github.com/setevik/crashtriage/internal/event"
	"github.com/setevik/crashtriage/internal/fatallog"
	"github.com/setevik/crashtriage/internal/format"
)

// Report is the complete output of one analysis.
type Report struct {
	Source     string             `json:"source" yaml:"source"`
	AnalyzedAt time.Time          `json:"analyzed_at" yaml:"analyzed_at"`
	Crash      Crash              `json:"crash" yaml:"crash"`
	System     System             `json:"system" yaml:"system"`
	Findings   []analysis.Finding `json:"findings" yaml:"findings"`
	Summary    Summary            `json:"summary" yaml:"summary"`
	Recurrence *Recurrence        `json:"recurrence,omitempty" yaml:"recurrence,omitempty"`

	// Unrecognized lines are only included in verbose output.
	Unrecognized []string `json:"unrecognized,omitempty" yaml:"unrecognized,omitempty"`
}

// Crash identifies what failed and where.
type Crash struct {
	Signature          string    `json:"signature,omitempty" yaml:"signature,omitempty"`
	Signal             string    `json:"signal,omitempty" yaml:"signal,omitempty"`
	InternalError      string    `json:"internal_error,omitempty" yaml:"internal_error,omitempty"`
	Frame              string    `json:"frame,omitempty" yaml:"frame,omitempty"`
	Version            string    `json:"version,omitempty" yaml:"version,omitempty"`
	Release            string    `json:"release,omitempty" yaml:"release,omitempty"`
	Runtime            string    `json:"runtime,omitempty" yaml:"runtime,omitempty"`
	VM                 string    `json:"vm,omitempty" yaml:"vm,omitempty"`
	BuildDate          string    `json:"build_date,omitempty" yaml:"build_date,omitempty"`
	BuildDateEstimated bool      `json:"build_date_estimated,omitempty" yaml:"build_date_estimated,omitempty"`
	Time               time.Time `json:"time,omitzero" yaml:"time,omitempty"`
	Uptime             string    `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	CurrentThread      string    `json:"current_thread,omitempty" yaml:"current_thread,omitempty"`
}

// System describes the host and the limits the JVM ran under. Numbers are
// rendered as text so "unavailable" and "infinity" survive.
type System struct {
	OS          string `json:"os,omitempty" yaml:"os,omitempty"`
	CPUs        string `json:"cpus,omitempty" yaml:"cpus,omitempty"`
	Memory      string `json:"memory,omitempty" yaml:"memory,omitempty"`
	MaxHeap     string `json:"max_heap,omitempty" yaml:"max_heap,omitempty"`
	MaxMapCount string `json:"max_map_count,omitempty" yaml:"max_map_count,omitempty"`
	PidMax      string `json:"pid_max,omitempty" yaml:"pid_max,omitempty"`
	ThreadsMax  string `json:"threads_max,omitempty" yaml:"threads_max,omitempty"`
	Swappiness  string `json:"swappiness,omitempty" yaml:"swappiness,omitempty"`
	THPEnabled  string `json:"thp_enabled,omitempty" yaml:"thp_enabled,omitempty"`
	Container   string `json:"container,omitempty" yaml:"container,omitempty"`
}

// Summary provides aggregate statistics.
type Summary struct {
	Lines        int  `json:"lines" yaml:"lines"`
	Unrecognized int  `json:"unrecognized" yaml:"unrecognized"`
	Truncated    bool `json:"truncated" yaml:"truncated"`
	Critical     int  `json:"critical" yaml:"critical"`
	Warnings     int  `json:"warnings" yaml:"warnings"`
	Info         int  `json:"info" yaml:"info"`
}

// Recurrence reports earlier runs with the same crash signature.
type Recurrence struct {
	Count     int       `json:"count" yaml:"count"`
	FirstSeen time.Time `json:"first_seen,omitzero" yaml:"first_seen,omitempty"`
	Window    string    `json:"window" yaml:"window"`
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose adds the unrecognized lines and load statistics.
	Verbose bool
}

// Build builds a Report from a finished log and its findings.
func Build(source string, l *fatallog.Log, findings []analysis.Finding, now time.Time, opts FormatOptions) *Report {
	r := &Report{
		Source:     source,
		AnalyzedAt: now,
		Findings:   findings,
		Summary: Summary{
			Lines:        l.Lines,
			Unrecognized: len(l.Unrecognized),
			Truncated:    l.Truncated,
		},
	}
	if r.Findings == nil {
		r.Findings = []analysis.Finding{}
	}
	for _, f := range findings {
		switch f.Severity {
		case analysis.SeverityCritical:
			r.Summary.Critical++
		case analysis.SeverityWarning:
			r.Summary.Warnings++
		default:
			r.Summary.Info++
		}
	}

	c := &r.Crash
	c.Signature = l.CrashSignature()
	if l.Signal != nil {
		c.Signal = l.Signal.Name
	}
	if l.InternalError != nil {
		c.InternalError = l.InternalError.Location
	}
	if f := l.ProblematicFrame; f != nil {
		c.Frame = f.Kind + "  [" + f.Library + "]  " + f.Symbol
	}
	if !l.Version.IsZero() {
		c.Version = l.Version.String()
	}
	c.Release = l.Release
	c.Runtime = l.Runtime
	if l.JavaVM != nil {
		c.VM = l.JavaVM.Name
	}
	if !l.BuildDate.IsZero() {
		c.BuildDate = l.BuildDate.Format("2006-01-02")
		c.BuildDateEstimated = l.BuildDateEstimated
	}
	c.Time = l.CrashTime
	if l.Uptime.Valid {
		c.Uptime = format.Duration(l.Uptime.Duration())
	}
	c.CurrentThread = l.CurrentThread

	s := &r.System
	s.OS = l.OSDescription()
	switch {
	case l.CPU != nil:
		s.CPUs = numText(l.CPU.Total)
	case l.Host != nil:
		s.CPUs = numText(l.Host.Cores)
	}
	switch {
	case l.Memory != nil:
		s.Memory = sizeOf(l.Memory.Physical)
	case l.Host != nil:
		s.Memory = sizeOf(l.Host.MemoryBytes)
	}
	s.MaxHeap = sizeOf(l.MaxHeapBytes())
	s.MaxMapCount = numText(l.MaxMapCount)
	s.PidMax = numText(l.PidMax)
	s.ThreadsMax = numText(l.ThreadsMax)
	s.Swappiness = numText(l.Swappiness)
	if l.THPEnabled != nil {
		if l.THPEnabled.Unavailable {
			s.THPEnabled = event.Unavailable.String()
		} else {
			s.THPEnabled = l.THPEnabled.Selected
		}
	}
	if ct, ok := l.ContainerValue("container_type"); ok {
		s.Container = ct
	}

	if opts.Verbose {
		for _, u := range l.Unrecognized {
			r.Unrecognized = append(r.Unrecognized, u.Text)
		}
	}
	return r
}

// HasProblems reports whether any warning or critical finding was produced.
func (r *Report) HasProblems() bool {
	return r.Summary.Critical+r.Summary.Warnings > 0
}

func numText(n event.Number) string {
	return n.String()
}

func sizeOf(n event.Number) string {
	if v, ok := n.Value(); ok {
		return format.Bytes(v)
	}
	return n.String()
}
