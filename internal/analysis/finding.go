// Package analysis evaluates diagnostic rules against a finished fatal error
// log.
package analysis

import "fmt"

// Severity of a finding.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank orders severities; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	}
	return 0
}

// ParseSeverity converts a string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown severity %q (want info, warning or critical)", s)
}

// Finding is one diagnostic conclusion.
type Finding struct {
	Code     string   `json:"code" yaml:"code"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
}

// Thresholds are the limits used by the resource rules.
type Thresholds struct {
	MinMaxMapCount int64
	MinPidMax      int64
	MinThreadsMax  int64
	MaxSwappiness  int64
	LargeHeapBytes int64
	MinOpenFiles   int64
	MinProcesses   int64
}

// DefaultThresholds returns the recommended limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinMaxMapCount: 262144,
		MinPidMax:      65536,
		MinThreadsMax:  4096,
		MaxSwappiness:  1,
		LargeHeapBytes: 8 << 30,
		MinOpenFiles:   4096,
		MinProcesses:   4096,
	}
}
