package analysis

import (
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/setevik/crashtriage/internal/fatallog"
)

// Engine evaluates an ordered rule catalog.
type Engine struct {
	rules       []Rule
	thresholds  Thresholds
	parallelism int
	disabled    map[string]bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithThresholds replaces the default thresholds.
func WithThresholds(th Thresholds) Option {
	return func(e *Engine) { e.thresholds = th }
}

// WithParallelism evaluates up to n rules concurrently. Values below 2 mean
// sequential evaluation. The output order does not depend on n.
func WithParallelism(n int) Option {
	return func(e *Engine) { e.parallelism = n }
}

// WithDisabled skips the rules with the given codes.
func WithDisabled(codes ...string) Option {
	return func(e *Engine) {
		for _, c := range codes {
			e.disabled[c] = true
		}
	}
}

// WithRules replaces the rule catalog.
func WithRules(rules ...Rule) Option {
	return func(e *Engine) { e.rules = slices.Clone(rules) }
}

// New creates an Engine with the built-in catalog and default thresholds.
func New(opts ...Option) *Engine {
	e := &Engine{
		rules:       Rules(),
		thresholds:  DefaultThresholds(),
		parallelism: 1,
		disabled:    make(map[string]bool),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

var defaultEngine = New()

// Analyze runs the built-in catalog with default settings.
func Analyze(l *fatallog.Log) []Finding {
	return defaultEngine.Analyze(l)
}

// Analyze evaluates every enabled rule against l and returns the findings,
// most severe first. Findings of equal severity keep catalog order, and a
// code appears at most once. It panics if l has not been finished.
func (e *Engine) Analyze(l *fatallog.Log) []Finding {
	if l == nil || !l.Frozen() {
		panic("analysis: Analyze called before the log was finished")
	}

	results := make([]*Finding, len(e.rules))
	eval := func(i int) {
		r := e.rules[i]
		if e.disabled[r.Code] {
			return
		}
		if msg, ok := r.Check(l, e.thresholds); ok {
			results[i] = &Finding{Code: r.Code, Severity: r.Severity, Message: msg}
		}
	}

	if e.parallelism > 1 {
		var g errgroup.Group
		g.SetLimit(e.parallelism)
		for i := range e.rules {
			g.Go(func() error {
				eval(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range e.rules {
			eval(i)
		}
	}

	seen := make(map[string]bool)
	var findings []Finding
	for _, f := range results {
		if f == nil || seen[f.Code] {
			continue
		}
		seen[f.Code] = true
		findings = append(findings, *f)
	}
	slices.SortStableFunc(findings, func(a, b Finding) int {
		return b.Severity.Rank() - a.Severity.Rank()
	})

	slog.Debug("analysis complete", "rules", len(e.rules), "findings", len(findings))
	return findings
}
