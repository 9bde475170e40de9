package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/setevik/crashtriage/internal/analysis"
	"github.com/setevik/crashtriage/internal/store"
)

// Digest holds aggregated run history for a period.
type Digest struct {
	Since time.Time
	Until time.Time

	Runs       int
	Critical   int
	Warning    int
	Clean      int
	Signatures map[string]int // crash signature -> runs
	Versions   map[string]int // JDK version -> runs
	Codes      []store.CodeCount
}

// BuildDigest aggregates runs and their finding counts into a Digest.
func BuildDigest(runs []*store.Run, codes []store.CodeCount, since, until time.Time) *Digest {
	d := &Digest{
		Since:      since,
		Until:      until,
		Runs:       len(runs),
		Signatures: make(map[string]int),
		Versions:   make(map[string]int),
		Codes:      codes,
	}

	for _, r := range runs {
		switch r.Highest() {
		case analysis.SeverityCritical:
			d.Critical++
		case analysis.SeverityWarning:
			d.Warning++
		default:
			d.Clean++
		}
		sig := r.Signature
		if sig == "" {
			sig = "unknown"
		}
		d.Signatures[sig]++
		v := r.Version
		if v == "" {
			v = "unknown"
		}
		d.Versions[v]++
	}

	return d
}

// FormatDigest writes a Digest as human-readable text.
func FormatDigest(w io.Writer, d *Digest) {
	fmt.Fprintf(w, "=== crashtriage digest ===\n")
	if !d.Since.IsZero() {
		fmt.Fprintf(w, "Period: %s - %s\n",
			d.Since.Local().Format("Jan 02"),
			d.Until.Local().Format("Jan 02"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Runs:        %d (%d critical, %d warning, %d info only)\n",
		d.Runs, d.Critical, d.Warning, d.Clean)
	if d.Runs > 0 {
		fmt.Fprintf(w, "JDK:         %s\n", formatBreakdown(d.Versions))
		fmt.Fprintf(w, "Signatures:  %s\n", formatBreakdown(d.Signatures))
	}

	if len(d.Codes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Findings:")
		for _, c := range d.Codes {
			fmt.Fprintf(w, "  %-26s %-8s %d\n", c.Code, c.Severity, c.Count)
		}
	}
}

// formatBreakdown turns a map[string]int into "foo ×2, bar ×1" sorted by
// count desc, then name.
func formatBreakdown(m map[string]int) string {
	type entry struct {
		name  string
		count int
	}

	entries := make([]entry, 0, len(m))
	for name, count := range m {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s ×%d", e.name, e.count)
	}
	return strings.Join(parts, ", ")
}
