// Package event defines the typed records produced for each line of a HotSpot
// fatal error log.
package event

import (
	"time"

	"github.com/setevik/crashtriage/internal/jdk"
)

// RawLine is one input line and its 0-based position.
type RawLine struct {
	Ordinal int
	Text    string
}

// Event is the typed result of parsing one line. The set of implementations
// is closed; every concrete type embeds Base.
type Event interface {
	Type() Type
	Raw() RawLine
	isEvent()
}

// Base carries the type and source line of an event.
type Base struct {
	Kind Type
	Line RawLine
}

func (b Base) Type() Type   { return b.Kind }
func (b Base) Raw() RawLine { return b.Line }
func (Base) isEvent()       {}

// Text is an event whose only field is the text after the line's label.
// Section headers, raw section bodies and catch-alls use it.
type Text struct {
	Base
	Value string
}

// Signal is the "#  SIGSEGV (0xb) at pc=..., pid=..., tid=..." header line.
type Signal struct {
	Base
	Name string
	Code string
	PC   string
	PID  Number
	TID  string
}

// InternalError is the "#  Internal Error (file:line)" header line.
type InternalError struct {
	Base
	Location string
}

// NativeOOM is one of the lines describing a failed native allocation.
type NativeOOM struct {
	Base
	Detail string
	Bytes  Number
}

// JreVersion is the "# JRE version:" header line.
type JreVersion struct {
	Base
	Runtime string
	Release string
	Version jdk.Version
}

// JavaVM is the "# Java VM:" header line.
type JavaVM struct {
	Base
	Name   string
	Detail string
}

// ProblematicFrame is the frame line following "# Problematic frame:".
type ProblematicFrame struct {
	Base
	Kind    string
	Library string
	Symbol  string
}

// CoreDump reports whether the VM wrote a core file.
type CoreDump struct {
	Base
	Written bool
	Detail  string
}

// Section is a "----  S U M M A R Y  ----" banner.
type Section struct {
	Base
	Name string
}

// Host is the JDK 11+ "Host:" summary line.
type Host struct {
	Base
	CPU         string
	Cores       Number
	MemoryBytes Number
	OS          string
}

// Uptime is a process uptime in milliseconds plus the human-readable form the
// log printed next to it, e.g. "0d 0h 0m 0s".
type Uptime struct {
	Millis  int64
	Literal string
	Valid   bool
}

// Duration converts the uptime to a time.Duration.
func (u Uptime) Duration() time.Duration {
	return time.Duration(u.Millis) * time.Millisecond
}

// Time is the crash timestamp line. JDK 11+ prints the uptime on the same
// line.
type Time struct {
	Base
	At     time.Time
	Valid  bool
	Zone   string
	Uptime Uptime
}

// Elapsed is the JDK 8 "elapsed time:" line.
type Elapsed struct {
	Base
	Uptime Uptime
}

// HeapAddress is the heap geometry line.
type HeapAddress struct {
	Base
	Address   string
	SizeBytes Number
	Mode      string
}

// HeapGeneration is one "total NK, used NK" row of the heap section.
type HeapGeneration struct {
	Base
	Name       string
	TotalBytes Number
	UsedBytes  Number
}

// SpaceUsage is the Metaspace or class space summary.
type SpaceUsage struct {
	Base
	UsedBytes      Number
	CommittedBytes Number
	ReservedBytes  Number
}

// EventLogHeader opens one of the ring-buffer event logs, e.g.
// "Compilation events (250 events):".
type EventLogHeader struct {
	Base
	Name  string
	Count Number
}

// LogEntry is one "Event: 12.345 ..." line in an event log.
type LogEntry struct {
	Base
	Seconds string
	Detail  string
}

// DynamicLibrary is one mapping row of "Dynamic libraries:". Linux rows carry
// permissions; Windows rows only an address range.
type DynamicLibrary struct {
	Base
	Address string
	Perms   string
	Path    string
}

// Args is the "jvm_args:" line split into individual arguments.
type Args struct {
	Base
	Values []string
}

// KeyValue is a "key=value" or "key: value" row in an environment, meminfo,
// os-release or container section.
type KeyValue struct {
	Base
	Key   string
	Value string
}

// ExceptionCount is one row of the OutOfMemory/StackOverflow counters.
type ExceptionCount struct {
	Base
	Name  string
	Count Number
}

// Uname is the "uname:" line.
type Uname struct {
	Base
	Kernel  string
	Release string
	Arch    string
}

// ResourceLimit is one resource of the rlimit line. JDK 8 logs only the soft
// limit; Hard is then absent.
type ResourceLimit struct {
	Resource string
	Soft     Number
	Hard     Number
}

// Rlimit is the "rlimit:" line.
type Rlimit struct {
	Base
	Limits []ResourceLimit
}

// Lookup returns the limit for the named resource.
func (r Rlimit) Lookup(resource string) (ResourceLimit, bool) {
	for _, l := range r.Limits {
		if l.Resource == resource {
			return l, true
		}
	}
	return ResourceLimit{}, false
}

// Tunable is the value of a /proc/sys kernel tunable, either on the same line
// as its path or on the line after.
type Tunable struct {
	Base
	Value Number
}

// HugePages is a transparent-hugepage setting such as
// "always [madvise] never". Selected is the bracketed option.
type HugePages struct {
	Base
	Selected    string
	Options     []string
	Unavailable bool
}

// CPU is the "CPU:" summary.
type CPU struct {
	Base
	Total Number
}

// Memory is the "Memory:" summary. Sizes are in bytes.
type Memory struct {
	Base
	PageSize     Number
	Physical     Number
	PhysicalFree Number
	Swap         Number
	SwapFree     Number
}

// VMInfo is the "vm_info:" line near the end of the log.
type VMInfo struct {
	Base
	Description string
	Release     string
	Version     jdk.Version
	BuildDate   time.Time
	HasDate     bool
	Builder     string
}

// NumberLine is a line that holds a bare integer.
type NumberLine struct {
	Base
	Value Number
}
