package analysis

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/setevik/crashtriage/internal/event"
	"github.com/setevik/crashtriage/internal/fatallog"
	"github.com/setevik/crashtriage/internal/format"
	"github.com/setevik/crashtriage/internal/jdk"
)

// Rule is one diagnostic predicate. Check returns the rendered message and
// true when the rule's condition holds. Checks only read the log.
type Rule struct {
	Code     string
	Severity Severity
	Summary  string
	Check    func(l *fatallog.Log, th Thresholds) (string, bool)
}

// Rules returns the built-in catalog in declaration order.
func Rules() []Rule {
	rules := []Rule{
		{
			Code:     "NATIVE_OOM",
			Severity: SeverityCritical,
			Summary:  "the JVM ran out of native memory",
			Check:    nativeOOM,
		},
		{
			Code:     "INTERNAL_ERROR",
			Severity: SeverityCritical,
			Summary:  "HotSpot hit an internal assertion or guarantee",
			Check:    internalError,
		},
		{
			Code:     "JAVA_HEAP_OOM",
			Severity: SeverityWarning,
			Summary:  "Java heap OutOfMemoryErrors were thrown before the crash",
			Check:    exceptionCount("java_heap_errors", "%d OutOfMemoryError (Java heap space) thrown before the crash; the heap may be undersized or leaking"),
		},
		{
			Code:     "STACK_OVERFLOW",
			Severity: SeverityWarning,
			Summary:  "StackOverflowErrors were thrown before the crash",
			Check:    exceptionCount("StackOverflowErrors", "%d StackOverflowError thrown before the crash; deep recursion can exhaust the guard pages"),
		},
		{
			Code:     "SIGBUS",
			Severity: SeverityWarning,
			Summary:  "the crash was a SIGBUS",
			Check:    sigbus,
		},
		{
			Code:     "CRASH_IN_NATIVE_LIBRARY",
			Severity: SeverityWarning,
			Summary:  "the problematic frame is in a native library outside the JVM",
			Check:    crashInNativeLibrary,
		},
		{
			Code:     "MAX_MAP_COUNT_LOW",
			Severity: SeverityWarning,
			Summary:  "vm.max_map_count is below the recommended minimum",
			Check: tunableBelow(func(l *fatallog.Log) event.Number { return l.MaxMapCount },
				func(th Thresholds) int64 { return th.MinMaxMapCount }, "vm.max_map_count"),
		},
		{
			Code:     "PID_MAX_LOW",
			Severity: SeverityInfo,
			Summary:  "kernel.pid_max is below the recommended minimum",
			Check: tunableBelow(func(l *fatallog.Log) event.Number { return l.PidMax },
				func(th Thresholds) int64 { return th.MinPidMax }, "kernel.pid_max"),
		},
		{
			Code:     "THREADS_MAX_LOW",
			Severity: SeverityWarning,
			Summary:  "kernel.threads-max is below the recommended minimum",
			Check: tunableBelow(func(l *fatallog.Log) event.Number { return l.ThreadsMax },
				func(th Thresholds) int64 { return th.MinThreadsMax }, "kernel.threads-max"),
		},
		{
			Code:     "SWAPPINESS_HIGH",
			Severity: SeverityWarning,
			Summary:  "vm.swappiness is high for a large heap",
			Check:    swappinessHigh,
		},
		{
			Code:     "THP_ALWAYS",
			Severity: SeverityInfo,
			Summary:  "transparent huge pages are set to always",
			Check:    thpAlways,
		},
		{
			Code:     "RLIMIT_NOFILE_LOW",
			Severity: SeverityWarning,
			Summary:  "the open file limit is low",
			Check: rlimitBelow("NOFILE", func(th Thresholds) int64 { return th.MinOpenFiles },
				"open file limit (NOFILE) is %s, below %d; file descriptor exhaustion can crash native code"),
		},
		{
			Code:     "RLIMIT_NPROC_LOW",
			Severity: SeverityWarning,
			Summary:  "the process limit is low",
			Check: rlimitBelow("NPROC", func(th Thresholds) int64 { return th.MinProcesses },
				"process limit (NPROC) is %s, below %d; thread creation may fail"),
		},
		{
			Code:     "CONTAINER_AWARENESS",
			Severity: SeverityWarning,
			Summary:  "JDK 8 older than 8u191 runs in a container without container support",
			Check:    containerAwareness,
		},
		{
			Code:     "CGROUP_V2_UNSUPPORTED",
			Severity: SeverityWarning,
			Summary:  "the JDK predates cgroup v2 support",
			Check:    cgroupV2Unsupported,
		},
		{
			Code:     "JDK_NOT_LTS",
			Severity: SeverityInfo,
			Summary:  "the JDK is not a long-term support release",
			Check:    notLTS,
		},
		{
			Code:     "JDK_RELEASE_STALE",
			Severity: SeverityInfo,
			Summary:  "a newer update of the JDK feature line is available",
			Check:    staleRelease,
		},
		{
			Code:     "CLASS_REDEFINITION",
			Severity: SeverityInfo,
			Summary:  "classes were redefined at runtime",
			Check:    classRedefinition,
		},
		{
			Code:     "CORE_DUMPS_DISABLED",
			Severity: SeverityInfo,
			Summary:  "no core dump was written",
			Check:    coreDumpsDisabled,
		},
		{
			Code:     "LOG_TRUNCATED",
			Severity: SeverityInfo,
			Summary:  "the log ends before END.",
			Check:    truncated,
		},
	}
	for _, s := range signatures {
		rules = append(rules, Rule{
			Code:     s.code,
			Severity: s.severity,
			Summary:  s.summary,
			Check:    s.check,
		})
	}
	return rules
}

func nativeOOM(l *fatallog.Log, _ Thresholds) (string, bool) {
	if len(l.NativeOOM) == 0 {
		return "", false
	}
	// The size sits on the allocation line, which follows the generic
	// "insufficient memory" line.
	for _, oom := range l.NativeOOM {
		if n, ok := oom.Bytes.Value(); ok {
			return fmt.Sprintf("native memory allocation of %s failed: %s", format.Bytes(n), oom.Detail), true
		}
	}
	return "native memory allocation failed: " + l.NativeOOM[0].Detail, true
}

func internalError(l *fatallog.Log, _ Thresholds) (string, bool) {
	if l.InternalError == nil {
		return "", false
	}
	return "HotSpot internal error at " + l.InternalError.Location, true
}

func exceptionCount(name, msg string) func(*fatallog.Log, Thresholds) (string, bool) {
	return func(l *fatallog.Log, _ Thresholds) (string, bool) {
		for _, ec := range l.ExceptionCounts {
			if !strings.Contains(ec.Name, name) {
				continue
			}
			if n, ok := ec.Count.Value(); ok && n > 0 {
				return fmt.Sprintf(msg, n), true
			}
		}
		return "", false
	}
}

func sigbus(l *fatallog.Log, _ Thresholds) (string, bool) {
	if l.Signal == nil || l.Signal.Name != "SIGBUS" {
		return "", false
	}
	return "SIGBUS usually means a memory-mapped file was truncated or the filesystem behind it (often /tmp holding hsperfdata) is full", true
}

func crashInNativeLibrary(l *fatallog.Log, _ Thresholds) (string, bool) {
	f := l.ProblematicFrame
	if f == nil || f.Kind != "C" || f.Library == "" {
		return "", false
	}
	lib := f.Library
	if i := strings.Index(lib, "+0x"); i >= 0 {
		lib = lib[:i]
	}
	if strings.HasPrefix(lib, "libjvm") || strings.HasPrefix(lib, "jvm.dll") {
		return "", false
	}
	return fmt.Sprintf("the crash happened in native code in %s, outside the JVM", lib), true
}

func tunableBelow(get func(*fatallog.Log) event.Number, limit func(Thresholds) int64, name string) func(*fatallog.Log, Thresholds) (string, bool) {
	return func(l *fatallog.Log, th Thresholds) (string, bool) {
		v, want := get(l), limit(th)
		if !v.Below(want) {
			return "", false
		}
		return fmt.Sprintf("%s is %s, below the recommended %d", name, v, want), true
	}
}

func swappinessHigh(l *fatallog.Log, th Thresholds) (string, bool) {
	heap := l.MaxHeapBytes()
	if !l.Swappiness.Above(th.MaxSwappiness) || !heap.Above(th.LargeHeapBytes) {
		return "", false
	}
	n, _ := heap.Value()
	return fmt.Sprintf("vm.swappiness is %s with a %s heap; swapping heap pages stalls GC, set it to %d or lower",
		l.Swappiness, format.Bytes(n), th.MaxSwappiness), true
}

func thpAlways(l *fatallog.Log, _ Thresholds) (string, bool) {
	if l.THPEnabled == nil || l.THPEnabled.Selected != "always" {
		return "", false
	}
	return "transparent huge pages are set to always; madvise avoids latency spikes from compaction", true
}

func rlimitBelow(resource string, limit func(Thresholds) int64, msg string) func(*fatallog.Log, Thresholds) (string, bool) {
	return func(l *fatallog.Log, th Thresholds) (string, bool) {
		rl, ok := l.Rlimit(resource)
		want := limit(th)
		if !ok || !rl.Soft.Below(want) {
			return "", false
		}
		return fmt.Sprintf(msg, rl.Soft, want), true
	}
}

var rhel9Re = regexp.MustCompile(`Enterprise Linux (?:release )?9\b`)

var (
	jdk8u191 = jdk.Version{Feature: 8, Update: 191}
	jdk8u372 = jdk.Version{Feature: 8, Update: 372}
	jdk11016 = jdk.Version{Feature: 11, Update: 16}
)

// inContainer reports whether the JVM ran in a container. Builds before
// 8u191 print no container section and only a fixed set of environment
// variables, so the usable hint is the experimental cgroup heap flag that
// container deployments of those builds set.
func inContainer(l *fatallog.Log) bool {
	if len(l.Container) > 0 {
		return true
	}
	opts := append([]string{l.CommandLine}, l.JvmArgs...)
	for _, k := range []string{"JAVA_TOOL_OPTIONS", "_JAVA_OPTIONS"} {
		if v, ok := l.Env(k); ok {
			opts = append(opts, v)
		}
	}
	for _, o := range opts {
		if strings.Contains(o, "UseCGroupMemoryLimitForHeap") {
			return true
		}
	}
	return false
}

func containerAwareness(l *fatallog.Log, _ Thresholds) (string, bool) {
	v := l.Version
	if v.Feature != 8 || !v.Before(jdk8u191) || !inContainer(l) {
		return "", false
	}
	return fmt.Sprintf("%s runs in a container but container support arrived in 8u191; CPU count and memory limits come from the host", v), true
}

func cgroupV2(l *fatallog.Log) bool {
	if ct, ok := l.ContainerValue("container_type"); ok && ct == "cgroupv2" {
		return true
	}
	// RHEL 9 defaults to cgroup v2. HotSpot prints /etc/redhat-release as
	// the OS line there, os-release rows elsewhere.
	return rhel9Re.MatchString(l.OSDescription())
}

func cgroupV2Unsupported(l *fatallog.Log, _ Thresholds) (string, bool) {
	v := l.Version
	var fixed jdk.Version
	switch v.Feature {
	case 8:
		fixed = jdk8u372
	case 11:
		fixed = jdk11016
	default:
		return "", false
	}
	if !v.Before(fixed) || !cgroupV2(l) {
		return "", false
	}
	return fmt.Sprintf("%s predates cgroup v2 support (added in %s); container limits are ignored", v, fixed), true
}

func notLTS(l *fatallog.Log, _ Thresholds) (string, bool) {
	if l.Version.IsZero() || l.Version.LTS() {
		return "", false
	}
	return fmt.Sprintf("JDK %s is not a long-term support release", l.Version), true
}

func staleRelease(l *fatallog.Log, _ Thresholds) (string, bool) {
	v := l.Version
	if v.IsZero() {
		return "", false
	}
	latest, ok := jdk.Latest(v.Feature)
	if !ok || !v.Before(latest.Version) {
		return "", false
	}
	return fmt.Sprintf("JDK %s is older than %s (GA %s); crash fixes may be available",
		v, latest.Version, latest.GA.Format("2006-01-02")), true
}

func classRedefinition(l *fatallog.Log, _ Thresholds) (string, bool) {
	if l.RedefinitionEvents == 0 {
		return "", false
	}
	return fmt.Sprintf("%d class redefinition events; agents that redefine classes are a common source of JIT crashes", l.RedefinitionEvents), true
}

func coreDumpsDisabled(l *fatallog.Log, _ Thresholds) (string, bool) {
	if l.CoreDump != nil && !l.CoreDump.Written {
		return "no core dump was written: " + l.CoreDump.Detail, true
	}
	if rl, ok := l.Rlimit("CORE"); ok {
		if n, known := rl.Soft.Value(); known && n == 0 {
			return "core dumps are disabled (CORE limit is 0); run ulimit -c unlimited to capture the next crash", true
		}
	}
	return "", false
}

func truncated(l *fatallog.Log, _ Thresholds) (string, bool) {
	if !l.Truncated || l.Lines == 0 {
		return "", false
	}
	return fmt.Sprintf("the log ends after %d lines without END.; later sections are missing", l.Lines), true
}

// signature matches a known native library or agent by file name.
type signature struct {
	code     string
	severity Severity
	summary  string
	match    []string
	advice   string
}

var signatures = []signature{
	{
		code: "AGENT_DYNATRACE", severity: SeverityWarning,
		summary: "the Dynatrace OneAgent is loaded",
		match:   []string{"liboneagentloader.so", "liboneagentjava.so", "liboneagentproc.so"},
		advice:  "Dynatrace OneAgent instruments bytecode and has caused JIT crashes; check the agent version",
	},
	{
		code: "AGENT_YOURKIT", severity: SeverityWarning,
		summary: "the YourKit profiler agent is loaded",
		match:   []string{"libyjpagent.so"},
		advice:  "the YourKit profiler agent is loaded; profiling agents are frequent crash sources in production",
	},
	{
		code: "AGENT_JPROFILER", severity: SeverityWarning,
		summary: "the JProfiler agent is loaded",
		match:   []string{"libjprofilerti.so"},
		advice:  "the JProfiler agent is loaded; profiling agents are frequent crash sources in production",
	},
	{
		code: "AGENT_ASYNC_PROFILER", severity: SeverityWarning,
		summary: "async-profiler is loaded",
		match:   []string{"libasyncProfiler.so"},
		advice:  "async-profiler is loaded; older releases crash when walking stacks of some JDK builds",
	},
	{
		code: "AGENT_INTROSCOPE", severity: SeverityWarning,
		summary: "the CA Introscope agent is loaded",
		match:   []string{"libIntroscopeLinuxIntelAmd64Stats.so", "libIntroscope"},
		advice:  "the Introscope agent is loaded; its native stats library has been linked to crashes",
	},
	{
		code: "LIB_JNA", severity: SeverityInfo,
		summary: "JNA is loaded",
		match:   []string{"libjnidispatch.so"},
		advice:  "JNA is loaded; native calls through JNA bypass JVM safety checks",
	},
	{
		code: "PRELOAD_JEMALLOC", severity: SeverityInfo,
		summary: "jemalloc is preloaded",
		match:   []string{"libjemalloc.so"},
		advice:  "jemalloc is preloaded and replaces the system allocator for the JVM",
	},
}

// check reports the first loaded library or preload entry whose file name
// matches. A library listed many times yields one finding.
func (s signature) check(l *fatallog.Log, _ Thresholds) (string, bool) {
	paths := make([]string, 0, len(l.Libraries)+len(l.LdPreload))
	for _, lib := range l.Libraries {
		paths = append(paths, lib.Path)
	}
	paths = append(paths, l.LdPreload...)
	for _, p := range paths {
		base := path.Base(strings.ReplaceAll(p, `\`, "/"))
		for _, m := range s.match {
			if strings.HasPrefix(base, m) {
				return fmt.Sprintf("%s (%s)", s.advice, p), true
			}
		}
	}
	return "", false
}
