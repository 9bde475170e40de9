package fatallog

import "github.com/setevik/crashtriage/internal/event"

// MergeRule says how repeated lines of one type combine into the model.
type MergeRule int

const (
	// Ignore marks structural lines that carry no model value.
	Ignore MergeRule = iota
	// FirstWins keeps the first occurrence; later ones are dropped.
	FirstWins
	// LastWins keeps the latest occurrence.
	LastWins
	// Append keeps every occurrence in order.
	Append
	// Count only counts occurrences.
	Count
)

func (r MergeRule) String() string {
	switch r {
	case FirstWins:
		return "first-wins"
	case LastWins:
		return "last-wins"
	case Append:
		return "append"
	case Count:
		return "count"
	}
	return "ignore"
}

var mergeRules = map[event.Type]MergeRule{
	event.TypeHeader:                 Append,
	event.TypeSignal:                 FirstWins,
	event.TypeInternalError:          FirstWins,
	event.TypeNativeOOM:              Append,
	event.TypeJreVersion:             FirstWins,
	event.TypeJavaVM:                 FirstWins,
	event.TypeProblematicFrameHeader: Ignore,
	event.TypeProblematicFrame:       FirstWins,
	event.TypeCoreDump:               FirstWins,

	event.TypeSection:         Append,
	event.TypeCommandLine:     FirstWins,
	event.TypeHost:            FirstWins,
	event.TypeTime:            FirstWins,
	event.TypeTimezone:        FirstWins,
	event.TypeElapsedTime:     LastWins,
	event.TypeCurrentThread:   FirstWins,
	event.TypeStack:           FirstWins,
	event.TypeFramesHeader:    Ignore,
	event.TypeFrame:           Append,
	event.TypeMoreFrames:      Ignore,
	event.TypeSigInfo:         FirstWins,
	event.TypeRegistersHeader: Ignore,
	event.TypeRegister:        Append,

	event.TypeThreadsHeader:              Ignore,
	event.TypeThread:                     Append,
	event.TypeVMState:                    FirstWins,
	event.TypeVMMutex:                    FirstWins,
	event.TypeHeapAddress:                FirstWins,
	event.TypeNarrowKlass:                FirstWins,
	event.TypeHeapHeader:                 Ignore,
	event.TypeHeapGeneration:             Append,
	event.TypeHeapRegion:                 Append,
	event.TypeMetaspace:                  FirstWins,
	event.TypeClassSpace:                 FirstWins,
	event.TypeExceptionCountsHeader:      Ignore,
	event.TypeExceptionCount:             Append,
	event.TypeCompilationEventsHeader:    Append,
	event.TypeCompilationEvent:           Count,
	event.TypeDeoptimizationEventsHeader: Append,
	event.TypeDeoptimizationEvent:        Count,
	event.TypeRedefinitionEventsHeader:   Append,
	event.TypeRedefinitionEvent:          Count,
	event.TypeInternalExceptionsHeader:   Append,
	event.TypeInternalExceptionEvent:     Count,
	event.TypeEventsHeader:               Append,
	event.TypeEvent:                      Count,
	event.TypeNoEvents:                   Ignore,
	event.TypeDynamicLibrariesHeader:     Ignore,
	event.TypeDynamicLibrary:             Append,
	event.TypeVMArgumentsHeader:          Ignore,
	event.TypeJvmArgs:                    Append,
	event.TypeJavaCommand:                FirstWins,
	event.TypeClassPath:                  FirstWins,
	event.TypeLauncherType:               FirstWins,
	event.TypeEnvironmentHeader:          Ignore,
	event.TypeEnvironmentVariable:        Append,
	event.TypeSignalHandlersHeader:       Ignore,
	event.TypeSignalHandler:              Append,

	event.TypeOS:                FirstWins,
	event.TypeOSRelease:         Append,
	event.TypeUname:             FirstWins,
	event.TypeOSUptime:          FirstWins,
	event.TypeLibc:              FirstWins,
	event.TypeRlimit:            FirstWins,
	event.TypeLoadAverage:       FirstWins,
	event.TypeMeminfoHeader:     Ignore,
	event.TypeMeminfo:           Append,
	event.TypeThreadsMaxHeader:  Ignore,
	event.TypeThreadsMax:        FirstWins,
	event.TypeMaxMapCountHeader: Ignore,
	event.TypeMaxMapCount:       FirstWins,
	event.TypePidMaxHeader:      Ignore,
	event.TypePidMax:            FirstWins,
	event.TypeSwappinessHeader:  Ignore,
	event.TypeSwappiness:        FirstWins,
	event.TypeTHPEnabledHeader:  Ignore,
	event.TypeTHPEnabled:        FirstWins,
	event.TypeTHPDefragHeader:   Ignore,
	event.TypeTHPDefrag:         FirstWins,
	event.TypeLdPreloadHeader:   Ignore,
	event.TypeLdPreloadEntry:    Append,
	event.TypeContainerHeader:   Ignore,
	event.TypeContainerInfo:     Append,
	event.TypeCPU:               FirstWins,
	event.TypeMemory:            FirstWins,
	event.TypeVMInfo:            FirstWins,
	event.TypeEnd:               Ignore,

	event.TypeBlank:        Ignore,
	event.TypeNumber:       Ignore,
	event.TypeUnrecognized: Append,
}

// MergeRuleOf returns the declared merge rule for lines of type t. The
// second result is false for a type without a declaration.
func MergeRuleOf(t event.Type) (MergeRule, bool) {
	r, ok := mergeRules[t]
	return r, ok
}
