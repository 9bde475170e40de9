package fatallog

import (
	"log/slog"
	"strings"

	"github.com/setevik/crashtriage/internal/classifier"
	"github.com/setevik/crashtriage/internal/event"
	"github.com/setevik/crashtriage/internal/jdk"
)

// Builder folds events into a Log in one forward pass.
type Builder struct {
	log   *Log
	ended bool
}

// NewBuilder returns a Builder holding an empty Log.
func NewBuilder() *Builder {
	return &Builder{log: &Log{}}
}

// Process classifies, parses and folds lines in order and returns the
// finished Log. It never fails; lines it cannot place are kept in
// Log.Unrecognized.
func Process(lines []string) *Log {
	c := classifier.New()
	b := NewBuilder()
	for _, line := range lines {
		b.Add(c.Next(line))
	}
	l := b.Finish()
	slog.Debug("fatal error log processed",
		"lines", l.Lines,
		"unrecognized", len(l.Unrecognized),
		"truncated", l.Truncated,
	)
	return l
}

// Finish freezes the Log and returns it. It derives the values that need the
// whole log: the truncation marker and the estimated build date. Calling
// Finish again returns the same Log.
func (b *Builder) Finish() *Log {
	l := b.log
	if l.frozen {
		return l
	}
	l.Truncated = !b.ended
	if l.BuildDate.IsZero() && !l.Version.IsZero() {
		if d, ok := jdk.EstimateBuildDate(l.Version); ok {
			l.BuildDate, l.BuildDateEstimated = d, true
		}
	}
	l.frozen = true
	return l
}

// Add folds one event into the Log using the merge rule of its type. It
// panics if the Log has been finished.
func (b *Builder) Add(ev event.Event) {
	l := b.log
	if l.frozen {
		panic("fatallog: Add called after Finish")
	}
	l.Lines++

	switch ev.Type() {
	case event.TypeHeader:
		l.HeaderLines = append(l.HeaderLines, text(ev))
	case event.TypeSignal:
		first(&l.Signal, ev)
	case event.TypeInternalError:
		first(&l.InternalError, ev)
	case event.TypeNativeOOM:
		if e, ok := ev.(event.NativeOOM); ok {
			l.NativeOOM = append(l.NativeOOM, e)
		}
	case event.TypeJreVersion:
		if e, ok := ev.(event.JreVersion); ok {
			b.setVersion(e.Release, e.Version)
			firstString(&l.Runtime, e.Runtime)
		}
	case event.TypeJavaVM:
		first(&l.JavaVM, ev)
	case event.TypeProblematicFrame:
		first(&l.ProblematicFrame, ev)
	case event.TypeCoreDump:
		first(&l.CoreDump, ev)

	case event.TypeSection:
		if e, ok := ev.(event.Section); ok {
			l.Sections = append(l.Sections, e.Name)
		}
	case event.TypeCommandLine:
		firstString(&l.CommandLine, text(ev))
	case event.TypeHost:
		first(&l.Host, ev)
	case event.TypeTime:
		if e, ok := ev.(event.Time); ok {
			if e.Valid && l.CrashTime.IsZero() {
				l.CrashTime = e.At
				firstString(&l.Timezone, e.Zone)
			}
			if e.Uptime.Valid || e.Uptime.Literal != "" {
				l.Uptime = e.Uptime
			}
		}
	case event.TypeTimezone:
		firstString(&l.Timezone, text(ev))
	case event.TypeElapsedTime:
		if e, ok := ev.(event.Elapsed); ok {
			l.Uptime = e.Uptime
		}
	case event.TypeCurrentThread:
		firstString(&l.CurrentThread, text(ev))
	case event.TypeStack:
		firstString(&l.StackBounds, text(ev))
	case event.TypeFrame:
		l.Frames = append(l.Frames, text(ev))
	case event.TypeSigInfo:
		firstString(&l.SigInfo, text(ev))
	case event.TypeRegister:
		l.Registers = append(l.Registers, text(ev))

	case event.TypeThread:
		l.Threads = append(l.Threads, text(ev))
	case event.TypeVMState:
		firstString(&l.VMState, text(ev))
	case event.TypeVMMutex:
		firstString(&l.VMMutex, text(ev))
	case event.TypeHeapAddress:
		first(&l.HeapAddress, ev)
	case event.TypeNarrowKlass:
		firstString(&l.NarrowKlass, text(ev))
	case event.TypeHeapGeneration:
		if e, ok := ev.(event.HeapGeneration); ok {
			l.HeapGenerations = append(l.HeapGenerations, e)
		}
	case event.TypeHeapRegion:
		l.HeapRegions = append(l.HeapRegions, text(ev))
	case event.TypeMetaspace:
		first(&l.Metaspace, ev)
	case event.TypeClassSpace:
		first(&l.ClassSpace, ev)
	case event.TypeExceptionCount:
		if e, ok := ev.(event.ExceptionCount); ok {
			l.ExceptionCounts = append(l.ExceptionCounts, e)
		}
	case event.TypeCompilationEventsHeader, event.TypeDeoptimizationEventsHeader,
		event.TypeRedefinitionEventsHeader, event.TypeInternalExceptionsHeader, event.TypeEventsHeader:
		if e, ok := ev.(event.EventLogHeader); ok {
			l.EventLogs = append(l.EventLogs, e)
		}
	case event.TypeCompilationEvent:
		l.CompilationEvents++
	case event.TypeDeoptimizationEvent:
		l.DeoptimizationEvents++
	case event.TypeRedefinitionEvent:
		l.RedefinitionEvents++
	case event.TypeInternalExceptionEvent:
		l.InternalExceptions++
	case event.TypeEvent:
		l.OtherEvents++
	case event.TypeDynamicLibrary:
		if e, ok := ev.(event.DynamicLibrary); ok {
			l.Libraries = append(l.Libraries, e)
		}
	case event.TypeJvmArgs:
		if e, ok := ev.(event.Args); ok {
			l.JvmArgs = append(l.JvmArgs, e.Values...)
		}
	case event.TypeJavaCommand:
		firstString(&l.JavaCommand, text(ev))
	case event.TypeClassPath:
		firstString(&l.ClassPath, text(ev))
	case event.TypeLauncherType:
		firstString(&l.LauncherType, text(ev))
	case event.TypeEnvironmentVariable:
		if e, ok := ev.(event.KeyValue); ok {
			l.Environment = append(l.Environment, e)
			if e.Key == "LD_PRELOAD" {
				l.LdPreload = append(l.LdPreload, splitPreload(e.Value)...)
			}
		}
	case event.TypeSignalHandler:
		if e, ok := ev.(event.KeyValue); ok {
			l.SignalHandlers = append(l.SignalHandlers, e)
		}

	case event.TypeOS:
		firstString(&l.OS, text(ev))
	case event.TypeOSRelease, event.TypeMeminfo, event.TypeContainerInfo:
		if e, ok := ev.(event.KeyValue); ok {
			switch ev.Type() {
			case event.TypeOSRelease:
				l.OSRelease = append(l.OSRelease, e)
			case event.TypeMeminfo:
				l.Meminfo = append(l.Meminfo, e)
			default:
				l.Container = append(l.Container, e)
			}
		}
	case event.TypeUname:
		first(&l.Uname, ev)
	case event.TypeOSUptime:
		firstString(&l.OSUptime, text(ev))
	case event.TypeLibc:
		firstString(&l.Libc, text(ev))
	case event.TypeRlimit:
		if e, ok := ev.(event.Rlimit); ok && l.Rlimits == nil {
			l.Rlimits = e.Limits
		}
	case event.TypeLoadAverage:
		firstString(&l.LoadAverage, text(ev))
	case event.TypeThreadsMax:
		firstNumber(&l.ThreadsMax, ev)
	case event.TypeMaxMapCount:
		firstNumber(&l.MaxMapCount, ev)
	case event.TypePidMax:
		firstNumber(&l.PidMax, ev)
	case event.TypeSwappiness:
		firstNumber(&l.Swappiness, ev)
	case event.TypeTHPEnabled:
		first(&l.THPEnabled, ev)
	case event.TypeTHPDefrag:
		first(&l.THPDefrag, ev)
	case event.TypeLdPreloadEntry:
		if s := text(ev); s != "" {
			l.LdPreload = append(l.LdPreload, s)
		}
	case event.TypeCPU:
		first(&l.CPU, ev)
	case event.TypeMemory:
		first(&l.Memory, ev)
	case event.TypeVMInfo:
		if e, ok := ev.(event.VMInfo); ok {
			firstString(&l.VMInfo, e.Description)
			b.setVersion(e.Release, e.Version)
			if e.HasDate && l.BuildDate.IsZero() {
				l.BuildDate = e.BuildDate
			}
		}
	case event.TypeEnd:
		b.ended = true

	case event.TypeUnrecognized:
		l.Unrecognized = append(l.Unrecognized, ev.Raw())
	}
}

func (b *Builder) setVersion(release string, v jdk.Version) {
	if v.IsZero() || !b.log.Version.IsZero() {
		return
	}
	b.log.Version = v
	b.log.Release = release
}

// first stores ev in *dst unless a value is already there.
func first[T any](dst **T, ev event.Event) {
	if *dst != nil {
		return
	}
	if v, ok := ev.(T); ok {
		*dst = &v
	}
}

// firstString stores s unless dst already holds a non-empty value.
func firstString(dst *string, s string) {
	if *dst == "" {
		*dst = s
	}
}

// firstNumber stores the tunable's value unless dst is already present.
// An unavailable value counts as present.
func firstNumber(dst *event.Number, ev event.Event) {
	if dst.Present() {
		return
	}
	if t, ok := ev.(event.Tunable); ok {
		*dst = t.Value
	}
}

// text returns the value of a Text event, or the raw line for any other
// event shape.
func text(ev event.Event) string {
	if t, ok := ev.(event.Text); ok {
		return t.Value
	}
	return strings.TrimSpace(ev.Raw().Text)
}

// splitPreload splits an LD_PRELOAD value, which may separate entries with
// spaces or colons.
func splitPreload(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == ':' || r == ' ' || r == '\t'
	})
}
