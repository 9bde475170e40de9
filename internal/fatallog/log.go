// Package fatallog folds the typed lines of a HotSpot fatal error log into a
// single model.
package fatallog

import (
	"regexp"
	"strings"
	"time"

	"github.com/setevik/crashtriage/internal/event"
	"github.com/setevik/crashtriage/internal/jdk"
)

// Log is the aggregate model of one fatal error log. Every field may be
// absent. The comment on each field names its merge rule; see MergeRuleOf.
// A Log is read-only once Builder.Finish has returned it.
type Log struct {
	// Version and Release: first present wins across the JRE version header
	// and vm_info.
	Version jdk.Version
	Release string
	// Runtime: first wins.
	Runtime string
	// JavaVM: first wins.
	JavaVM *event.JavaVM
	// VMInfo: first wins.
	VMInfo string
	// BuildDate is exact when taken from vm_info, otherwise estimated from
	// the release table when the log is finished.
	BuildDate          time.Time
	BuildDateEstimated bool

	// Header block. Signal, InternalError, ProblematicFrame and CoreDump:
	// first wins. NativeOOM and HeaderLines: append.
	Signal           *event.Signal
	InternalError    *event.InternalError
	NativeOOM        []event.NativeOOM
	ProblematicFrame *event.ProblematicFrame
	CoreDump         *event.CoreDump
	HeaderLines      []string

	// Sections: append, in order of appearance.
	Sections []string

	// CommandLine, Host, CrashTime and Timezone: first wins.
	CommandLine string
	Host        *event.Host
	CrashTime   time.Time
	Timezone    string
	// Uptime: last wins across "Time:" and "elapsed time:" lines.
	Uptime event.Uptime

	// Thread section. CurrentThread, StackBounds and SigInfo: first wins.
	// Frames and Registers: append.
	CurrentThread string
	StackBounds   string
	Frames        []string
	SigInfo       string
	Registers     []string

	// Process section. Threads, HeapGenerations, HeapRegions and
	// ExceptionCounts: append. The rest: first wins.
	Threads         []string
	VMState         string
	VMMutex         string
	HeapAddress     *event.HeapAddress
	NarrowKlass     string
	HeapGenerations []event.HeapGeneration
	HeapRegions     []string
	Metaspace       *event.SpaceUsage
	ClassSpace      *event.SpaceUsage
	ExceptionCounts []event.ExceptionCount

	// EventLogs: append. The entry counters: count.
	EventLogs            []event.EventLogHeader
	CompilationEvents    int
	DeoptimizationEvents int
	RedefinitionEvents   int
	InternalExceptions   int
	OtherEvents          int

	// Libraries: append, duplicates kept.
	Libraries []event.DynamicLibrary

	// JvmArgs: append, duplicates kept. JavaCommand, ClassPath and
	// LauncherType: first wins.
	JvmArgs      []string
	JavaCommand  string
	ClassPath    string
	LauncherType string

	// Environment and SignalHandlers: append.
	Environment    []event.KeyValue
	SignalHandlers []event.KeyValue

	// System section. OS, Uname, OSUptime, Libc, Rlimits and LoadAverage:
	// first wins. OSRelease and Meminfo: append.
	OS          string
	OSRelease   []event.KeyValue
	Uname       *event.Uname
	OSUptime    string
	Libc        string
	Rlimits     []event.ResourceLimit
	LoadAverage string
	Meminfo     []event.KeyValue

	// Kernel tunables: first wins. A placeholder value is kept as
	// event.Unavailable.
	ThreadsMax  event.Number
	MaxMapCount event.Number
	PidMax      event.Number
	Swappiness  event.Number
	THPEnabled  *event.HugePages
	THPDefrag   *event.HugePages

	// LdPreload: append, from both /etc/ld.so.preload and LD_PRELOAD.
	LdPreload []string
	// Container: append.
	Container []event.KeyValue
	// CPU and Memory: first wins.
	CPU    *event.CPU
	Memory *event.Memory

	// Unrecognized lines are kept verbatim.
	Unrecognized []event.RawLine

	// Lines is the number of lines folded.
	Lines int
	// Truncated is set when the log ended without "END.".
	Truncated bool

	frozen bool
}

// Frozen reports whether the log has been finished.
func (l *Log) Frozen() bool { return l.frozen }

var heapFlagRe = regexp.MustCompile(`^-(?:Xmx|XX:MaxHeapSize=)(\d+[kKmMgGtT]?)$`)

// MaxHeapBytes returns the maximum heap size. The heap geometry line wins;
// otherwise the last -Xmx or -XX:MaxHeapSize flag, as the JVM applies it.
func (l *Log) MaxHeapBytes() event.Number {
	if l.HeapAddress != nil {
		if _, ok := l.HeapAddress.SizeBytes.Value(); ok {
			return l.HeapAddress.SizeBytes
		}
	}
	var n event.Number
	args := l.JvmArgs
	if len(args) == 0 {
		args = strings.Fields(l.CommandLine)
	}
	for _, a := range args {
		if m := heapFlagRe.FindStringSubmatch(a); m != nil {
			n = event.ParseSize(m[1])
		}
	}
	return n
}

// Env returns the first value of the named environment variable.
func (l *Log) Env(key string) (string, bool) {
	for _, kv := range l.Environment {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Rlimit returns the limit for the named resource ("NOFILE", "CORE", ...).
func (l *Log) Rlimit(resource string) (event.ResourceLimit, bool) {
	return event.Rlimit{Limits: l.Rlimits}.Lookup(resource)
}

// ContainerValue returns the first value for key in the container section.
func (l *Log) ContainerValue(key string) (string, bool) {
	for _, kv := range l.Container {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// OSDescription returns the OS line, or the release description when the OS
// line is empty or is itself a key/value row: PRETTY_NAME from os-release,
// else DISTRIB_DESCRIPTION from lsb-release.
func (l *Log) OSDescription() string {
	if l.OS != "" && !strings.Contains(l.OS, "=") {
		return l.OS
	}
	for _, key := range []string{"PRETTY_NAME", "DISTRIB_DESCRIPTION"} {
		for _, kv := range l.OSRelease {
			if kv.Key == key {
				return strings.Trim(kv.Value, `"`)
			}
		}
	}
	if l.Host != nil && l.Host.OS != "" {
		return l.Host.OS
	}
	return l.OS
}

var offsetRe = regexp.MustCompile(`\+0x[0-9a-fA-F]+`)

// CrashSignature identifies the crash independent of load addresses: the
// problematic frame with offsets removed, else the internal error location,
// else the signal name.
func (l *Log) CrashSignature() string {
	switch {
	case l.ProblematicFrame != nil:
		f := l.ProblematicFrame
		parts := []string{f.Kind}
		if f.Library != "" {
			parts = append(parts, offsetRe.ReplaceAllString(f.Library, ""))
		}
		if f.Symbol != "" {
			parts = append(parts, offsetRe.ReplaceAllString(f.Symbol, ""))
		}
		return strings.Join(parts, " ")
	case l.InternalError != nil:
		return "internal error " + l.InternalError.Location
	case l.Signal != nil:
		return l.Signal.Name
	case len(l.NativeOOM) > 0:
		return "native out of memory"
	}
	return ""
}
