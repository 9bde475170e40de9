package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/setevik/crashtriage/internal/analysis"
	"github.com/setevik/crashtriage/internal/store"
)

func TestBuildDigestEmpty(t *testing.T) {
	since := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 2, 17, 0, 0, 0, 0, time.UTC)

	d := BuildDigest(nil, nil, since, until)
	if d.Runs != 0 || d.Critical != 0 || d.Warning != 0 || d.Clean != 0 {
		t.Errorf("expected all counts to be zero, got %+v", d)
	}
	if len(d.Signatures) != 0 || len(d.Versions) != 0 {
		t.Error("expected empty breakdowns")
	}
}

func TestBuildDigestCounts(t *testing.T) {
	crit := analysis.Finding{Code: "NATIVE_OOM", Severity: analysis.SeverityCritical}
	warn := analysis.Finding{Code: "SIGBUS", Severity: analysis.SeverityWarning}
	info := analysis.Finding{Code: "JDK_NOT_LTS", Severity: analysis.SeverityInfo}

	runs := []*store.Run{
		{Signature: "C libyjpagent.so yjp_sample", Version: "8u252", Findings: []analysis.Finding{warn, info}},
		{Signature: "C libyjpagent.so yjp_sample", Version: "8u252", Findings: []analysis.Finding{warn}},
		{Signature: "native out of memory", Version: "11.0.7", Findings: []analysis.Finding{info, crit}},
		{Signature: "", Version: "", Findings: []analysis.Finding{info}},
		{Signature: "SIGSEGV", Version: "17.0.2"},
	}

	d := BuildDigest(runs, nil, time.Now(), time.Now())

	if d.Runs != 5 {
		t.Errorf("Runs = %d, want 5", d.Runs)
	}
	if d.Critical != 1 {
		t.Errorf("Critical = %d, want 1", d.Critical)
	}
	if d.Warning != 2 {
		t.Errorf("Warning = %d, want 2", d.Warning)
	}
	if d.Clean != 2 {
		t.Errorf("Clean = %d, want 2", d.Clean)
	}
	if d.Signatures["C libyjpagent.so yjp_sample"] != 2 {
		t.Errorf("signature yjp = %d, want 2", d.Signatures["C libyjpagent.so yjp_sample"])
	}
	if d.Signatures["unknown"] != 1 {
		t.Errorf("signature unknown = %d, want 1", d.Signatures["unknown"])
	}
	if d.Versions["8u252"] != 2 || d.Versions["unknown"] != 1 {
		t.Errorf("Versions = %v", d.Versions)
	}
}

func TestFormatDigest(t *testing.T) {
	d := &Digest{
		Since:      time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC),
		Until:      time.Date(2024, 2, 17, 12, 0, 0, 0, time.UTC),
		Runs:       3,
		Critical:   1,
		Warning:    1,
		Clean:      1,
		Signatures: map[string]int{"C libyjpagent.so yjp_sample": 2, "SIGBUS": 1},
		Versions:   map[string]int{"8u252": 3},
		Codes: []store.CodeCount{
			{Code: "AGENT_YOURKIT", Severity: analysis.SeverityWarning, Count: 2},
			{Code: "NATIVE_OOM", Severity: analysis.SeverityCritical, Count: 1},
		},
	}

	var buf bytes.Buffer
	FormatDigest(&buf, d)
	out := buf.String()

	checks := []string{
		"=== crashtriage digest ===",
		"Period: Feb 10 - Feb 17",
		"Runs:        3 (1 critical, 1 warning, 1 info only)",
		"8u252 ×3",
		"C libyjpagent.so yjp_sample ×2, SIGBUS ×1",
		"AGENT_YOURKIT",
		"NATIVE_OOM",
	}
	for _, check := range checks {
		if !strings.Contains(out, check) {
			t.Errorf("output missing %q\nfull output:\n%s", check, out)
		}
	}
}

func TestFormatDigestNoRuns(t *testing.T) {
	var buf bytes.Buffer
	FormatDigest(&buf, BuildDigest(nil, nil, time.Time{}, time.Now()))
	out := buf.String()

	if strings.Contains(out, "Period:") {
		t.Errorf("period shown without a start: %q", out)
	}
	if strings.Contains(out, "Signatures:") || strings.Contains(out, "Findings:") {
		t.Errorf("breakdowns shown without runs: %q", out)
	}
}

func TestFormatBreakdown(t *testing.T) {
	m := map[string]int{"11.0.7": 3, "8u252": 1, "17.0.2": 2, "17.0.1": 2}
	out := formatBreakdown(m)

	want := "11.0.7 ×3, 17.0.1 ×2, 17.0.2 ×2, 8u252 ×1"
	if out != want {
		t.Errorf("formatBreakdown() = %q, want %q", out, want)
	}
}
