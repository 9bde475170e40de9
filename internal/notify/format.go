package notify

import (
	"fmt"
	"strings"

	"github.com/setevik/crashtriage/internal/analysis"
	"github.com/setevik/crashtriage/internal/report"
)

// maxBodyFindings bounds the findings listed in a notification body.
const maxBodyFindings = 5

var severityEmoji = map[analysis.Severity]string{
	analysis.SeverityCritical: "\U0001f534", // red circle
	analysis.SeverityWarning:  "\U0001f4a5", // collision
}

var severityTags = map[analysis.Severity]string{
	analysis.SeverityCritical: "skull,coffee",
	analysis.SeverityWarning:  "warning,coffee",
}

// Highest returns the severity of the first finding; findings are ordered
// most severe first.
func Highest(rep *report.Report) analysis.Severity {
	if len(rep.Findings) == 0 {
		return ""
	}
	return rep.Findings[0].Severity
}

// FormatTitle builds the notification title.
func FormatTitle(instance string, rep *report.Report) string {
	emoji := severityEmoji[Highest(rep)]
	if emoji == "" {
		emoji = "\u2757" // exclamation mark
	}
	what := rep.Crash.Summary()
	if what == "" {
		what = "JVM fatal error"
	}
	return fmt.Sprintf("%s [%s] %s", emoji, instance, what)
}

// FormatBody builds the notification body.
func FormatBody(instance string, rep *report.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Host: %s\n", instance)
	if t := rep.Crash.Time; !t.IsZero() {
		fmt.Fprintf(&b, "Time: %s\n", t.Format("2006-01-02 15:04:05 MST"))
	}
	if rep.Crash.Version != "" {
		fmt.Fprintf(&b, "JDK: %s\n", rep.Crash.Version)
	}
	fmt.Fprintf(&b, "Log: %s\n", rep.Source)

	if len(rep.Findings) > 0 {
		b.WriteString("\n")
		for i, f := range rep.Findings {
			if i == maxBodyFindings {
				fmt.Fprintf(&b, "... and %d more\n", len(rep.Findings)-i)
				break
			}
			fmt.Fprintf(&b, "[%s] %s: %s\n", strings.ToUpper(string(f.Severity)), f.Code, f.Message)
		}
	}
	return b.String()
}

// TagsForSeverity returns the ntfy tags string for a severity.
func TagsForSeverity(sev analysis.Severity) string {
	if tags, ok := severityTags[sev]; ok {
		return tags
	}
	return "coffee"
}
