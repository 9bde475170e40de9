package classifier

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/setevik/crashtriage/internal/event"
	"github.com/setevik/crashtriage/internal/jdk"
)

// extractor builds the typed event for a line from the submatches of the
// pattern that accepted it. Extractors never fail: values they cannot read
// become event.Unavailable.
type extractor func(b event.Base, m []string) event.Event

// group returns submatch i, or "" when the pattern has fewer groups or the
// group did not participate.
func group(m []string, i int) string {
	if i < len(m) {
		return strings.TrimSpace(m[i])
	}
	return ""
}

// textOf keeps submatch i as the event's value. textOf(0) keeps the whole
// line.
func textOf(i int) extractor {
	return func(b event.Base, m []string) event.Event {
		return event.Text{Base: b, Value: group(m, i)}
	}
}

func extractSignal(b event.Base, m []string) event.Event {
	return event.Signal{
		Base: b,
		Name: group(m, 1),
		Code: group(m, 2),
		PC:   group(m, 3),
		PID:  event.ParseNumber(group(m, 4)),
		TID:  group(m, 5),
	}
}

func extractInternalError(b event.Base, m []string) event.Event {
	return event.InternalError{Base: b, Location: group(m, 1)}
}

func extractNativeOOM(b event.Base, m []string) event.Event {
	ev := event.NativeOOM{Base: b, Detail: group(m, 1)}
	if n := group(m, 2); n != "" {
		ev.Bytes = event.ParseNumber(n)
	}
	return ev
}

func extractJreVersion(b event.Base, m []string) event.Event {
	ev := event.JreVersion{Base: b, Runtime: group(m, 1), Release: group(m, 3)}
	if ev.Release == "" {
		ev.Release = group(m, 2)
	}
	if v, ok := jdk.Parse(ev.Release); ok {
		ev.Version = v
	} else if v, ok := jdk.Parse(group(m, 2)); ok {
		ev.Version = v
	}
	return ev
}

func extractJavaVM(b event.Base, m []string) event.Event {
	return event.JavaVM{Base: b, Name: group(m, 1), Detail: group(m, 2)}
}

var bracketRe = regexp.MustCompile(`\[([^\]]+)\]\s*(.*)$`)

func extractProblematicFrame(b event.Base, m []string) event.Event {
	ev := event.ProblematicFrame{Base: b, Kind: group(m, 1), Symbol: group(m, 2)}
	if bm := bracketRe.FindStringSubmatch(ev.Symbol); bm != nil {
		ev.Library = bm[1]
		ev.Symbol = strings.TrimSpace(bm[2])
	}
	return ev
}

func extractCoreDump(b event.Base, m []string) event.Event {
	status := group(m, 1)
	return event.CoreDump{
		Base:    b,
		Written: status == "Core dump written" || status == "Core dump will be written",
		Detail:  group(m, 2),
	}
}

func extractSection(b event.Base, m []string) event.Event {
	return event.Section{Base: b, Name: strings.ReplaceAll(group(m, 1), " ", "")}
}

func extractHost(b event.Base, m []string) event.Event {
	if len(m) < 5 {
		return event.Host{Base: b, CPU: group(m, 1)}
	}
	return event.Host{
		Base:        b,
		CPU:         group(m, 1),
		Cores:       event.ParseNumber(group(m, 2)),
		MemoryBytes: event.ParseSize(group(m, 3)),
		OS:          group(m, 4),
	}
}

var timeLayouts = []string{
	"Mon Jan _2 15:04:05 2006 MST",
	"Mon Jan _2 15:04:05 2006",
}

func extractTime(b event.Base, m []string) event.Event {
	ev := event.Time{Base: b}
	s := group(m, 1)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ev.At, ev.Valid = t, true
			if strings.HasSuffix(layout, "MST") {
				ev.Zone = s[strings.LastIndexByte(s, ' ')+1:]
			}
			break
		}
	}
	if e := group(m, 2); e != "" {
		ev.Uptime = parseUptime(e)
	}
	return ev
}

func extractElapsed(b event.Base, m []string) event.Event {
	return event.Elapsed{Base: b, Uptime: parseUptime(group(m, 1))}
}

// parseUptime reads "228058 seconds" or "0.606413 seconds (0d 0h 0m 0s)".
// The fraction is truncated to milliseconds without going through floating
// point.
func parseUptime(s string) event.Uptime {
	m := secondsRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return event.Uptime{Literal: strings.TrimSpace(s)}
	}
	secs, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return event.Uptime{Literal: strings.TrimSpace(s)}
	}
	frac := m[2]
	if len(frac) > 3 {
		frac = frac[:3]
	}
	frac += strings.Repeat("0", 3-len(frac))
	ms, _ := strconv.ParseInt(frac, 10, 64)
	return event.Uptime{Millis: secs*1000 + ms, Literal: strings.TrimSpace(m[3]), Valid: true}
}

func extractHeapAddress(b event.Base, m []string) event.Event {
	ev := event.HeapAddress{Base: b, Address: group(m, 1), Mode: group(m, 3)}
	ev.SizeBytes = scaled(group(m, 2), 1<<20)
	return ev
}

func extractHeapGeneration(b event.Base, m []string) event.Event {
	return event.HeapGeneration{
		Base:       b,
		Name:       group(m, 1),
		TotalBytes: scaled(group(m, 2), 1<<10),
		UsedBytes:  scaled(group(m, 3), 1<<10),
	}
}

func extractSpaceUsage(b event.Base, m []string) event.Event {
	return event.SpaceUsage{
		Base:           b,
		UsedBytes:      scaled(group(m, 1), 1<<10),
		CommittedBytes: scaled(group(m, 2), 1<<10),
		ReservedBytes:  scaled(group(m, 3), 1<<10),
	}
}

// scaled parses s and multiplies it by unit.
func scaled(s string, unit int64) event.Number {
	return event.ParseNumber(s).Scale(unit)
}

func extractEventLogHeader(b event.Base, m []string) event.Event {
	return event.EventLogHeader{Base: b, Name: group(m, 1), Count: event.ParseNumber(group(m, 2))}
}

func extractLogEntry(b event.Base, m []string) event.Event {
	return event.LogEntry{Base: b, Seconds: group(m, 1), Detail: group(m, 2)}
}

func extractDynamicLibrary(b event.Base, m []string) event.Event {
	if len(m) == 4 {
		return event.DynamicLibrary{Base: b, Address: group(m, 1), Perms: group(m, 2), Path: group(m, 3)}
	}
	return event.DynamicLibrary{Base: b, Address: group(m, 1), Path: group(m, 2)}
}

func extractArgs(b event.Base, m []string) event.Event {
	return event.Args{Base: b, Values: strings.Fields(group(m, 1))}
}

func extractKeyValue(b event.Base, m []string) event.Event {
	return event.KeyValue{Base: b, Key: group(m, 1), Value: group(m, 2)}
}

func extractExceptionCount(b event.Base, m []string) event.Event {
	return event.ExceptionCount{Base: b, Name: group(m, 1), Count: event.ParseNumber(group(m, 2))}
}

func extractUname(b event.Base, m []string) event.Event {
	ev := event.Uname{Base: b, Kernel: group(m, 1), Release: group(m, 2)}
	if rest := strings.Fields(group(m, 3)); len(rest) > 0 {
		ev.Arch = rest[len(rest)-1]
	}
	return ev
}

// extractRlimit reads both the JDK 8 soft-only form
// ("STACK 8192k, CORE 0k, NOFILE 65536, AS infinity") and the soft/hard form
// ("STACK 8192k/infinity , CORE 0k/infinity , NOFILE 65536/65536").
func extractRlimit(b event.Base, m []string) event.Event {
	ev := event.Rlimit{Base: b}
	for _, part := range strings.Split(group(m, 1), ",") {
		fields := strings.Fields(part)
		if len(fields) < 2 {
			continue
		}
		limit := event.ResourceLimit{Resource: fields[0]}
		soft, hard, both := strings.Cut(fields[1], "/")
		limit.Soft = event.ParseSize(soft)
		if both {
			limit.Hard = event.ParseSize(hard)
		}
		ev.Limits = append(ev.Limits, limit)
	}
	return ev
}

func extractTunable(b event.Base, m []string) event.Event {
	return event.Tunable{Base: b, Value: event.ParseNumber(group(m, 1))}
}

// extractHugePages reads "always [madvise] never". A single bare word is
// taken as the selected mode.
func extractHugePages(b event.Base, m []string) event.Event {
	ev := event.HugePages{Base: b}
	s := group(m, 1)
	if s == "" || strings.HasPrefix(s, "<") {
		ev.Unavailable = true
		return ev
	}
	for _, f := range strings.Fields(s) {
		opt := strings.Trim(f, "[]")
		if opt != f {
			ev.Selected = opt
		}
		ev.Options = append(ev.Options, opt)
	}
	if ev.Selected == "" && len(ev.Options) == 1 {
		ev.Selected = ev.Options[0]
	}
	return ev
}

func extractCPU(b event.Base, m []string) event.Event {
	return event.CPU{Base: b, Total: event.ParseNumber(group(m, 1))}
}

func extractMemory(b event.Base, m []string) event.Event {
	ev := event.Memory{
		Base:         b,
		PageSize:     event.ParseSize(group(m, 1)),
		Physical:     event.ParseSize(group(m, 2)),
		PhysicalFree: event.ParseSize(group(m, 3)),
	}
	if group(m, 4) != "" {
		ev.Swap = event.ParseSize(group(m, 4))
		ev.SwapFree = event.ParseSize(group(m, 5))
	}
	return ev
}

const vmInfoDateLayout = "Jan _2 2006 15:04:05"

func extractVMInfo(b event.Base, m []string) event.Event {
	ev := event.VMInfo{Base: b, Description: group(m, 1)}
	if jm := vmInfoJreRe.FindStringSubmatch(ev.Description); jm != nil {
		ev.Release = jm[1]
		ev.Version, _ = jdk.Parse(jm[1])
	}
	if dm := vmInfoBuiltRe.FindStringSubmatch(ev.Description); dm != nil {
		if t, err := time.Parse(vmInfoDateLayout, dm[1]); err == nil {
			ev.BuildDate, ev.HasDate = t, true
		}
	}
	if bm := vmInfoBuilderRe.FindStringSubmatch(ev.Description); bm != nil {
		ev.Builder = bm[1]
	}
	return ev
}

func extractNumber(b event.Base, m []string) event.Event {
	return event.NumberLine{Base: b, Value: event.ParseNumber(group(m, 1))}
}
