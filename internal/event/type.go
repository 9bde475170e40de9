package event

// Type classifies one line of a fatal error log.
type Type string

// TypeNone is the continuation context before the first line. It is never
// assigned to a line.
const TypeNone Type = ""

// Header block ("#"-prefixed lines).
const (
	TypeHeader                 Type = "header"
	TypeSignal                 Type = "signal"
	TypeInternalError          Type = "internal_error"
	TypeNativeOOM              Type = "native_oom"
	TypeJreVersion             Type = "jre_version"
	TypeJavaVM                 Type = "java_vm"
	TypeProblematicFrameHeader Type = "problematic_frame_header"
	TypeProblematicFrame       Type = "problematic_frame"
	TypeCoreDump               Type = "core_dump"
)

// Summary and thread sections.
const (
	TypeSection         Type = "section"
	TypeCommandLine     Type = "command_line"
	TypeHost            Type = "host"
	TypeTime            Type = "time"
	TypeTimezone        Type = "timezone"
	TypeElapsedTime     Type = "elapsed_time"
	TypeCurrentThread   Type = "current_thread"
	TypeStack           Type = "stack"
	TypeFramesHeader    Type = "frames_header"
	TypeFrame           Type = "frame"
	TypeMoreFrames      Type = "more_frames"
	TypeSigInfo         Type = "siginfo"
	TypeRegistersHeader Type = "registers_header"
	TypeRegister        Type = "register"
)

// Process section.
const (
	TypeThreadsHeader              Type = "threads_header"
	TypeThread                     Type = "thread"
	TypeVMState                    Type = "vm_state"
	TypeVMMutex                    Type = "vm_mutex"
	TypeHeapAddress                Type = "heap_address"
	TypeNarrowKlass                Type = "narrow_klass"
	TypeHeapHeader                 Type = "heap_header"
	TypeHeapGeneration             Type = "heap_generation"
	TypeHeapRegion                 Type = "heap_region"
	TypeMetaspace                  Type = "metaspace"
	TypeClassSpace                 Type = "class_space"
	TypeExceptionCountsHeader      Type = "exception_counts_header"
	TypeExceptionCount             Type = "exception_count"
	TypeCompilationEventsHeader    Type = "compilation_events_header"
	TypeCompilationEvent           Type = "compilation_event"
	TypeDeoptimizationEventsHeader Type = "deoptimization_events_header"
	TypeDeoptimizationEvent        Type = "deoptimization_event"
	TypeRedefinitionEventsHeader   Type = "redefinition_events_header"
	TypeRedefinitionEvent          Type = "redefinition_event"
	TypeInternalExceptionsHeader   Type = "internal_exceptions_header"
	TypeInternalExceptionEvent     Type = "internal_exception_event"
	TypeEventsHeader               Type = "events_header"
	TypeEvent                      Type = "event"
	TypeNoEvents                   Type = "no_events"
	TypeDynamicLibrariesHeader     Type = "dynamic_libraries_header"
	TypeDynamicLibrary             Type = "dynamic_library"
	TypeVMArgumentsHeader          Type = "vm_arguments_header"
	TypeJvmArgs                    Type = "jvm_args"
	TypeJavaCommand                Type = "java_command"
	TypeClassPath                  Type = "class_path"
	TypeLauncherType               Type = "launcher_type"
	TypeEnvironmentHeader          Type = "environment_header"
	TypeEnvironmentVariable        Type = "environment_variable"
	TypeSignalHandlersHeader       Type = "signal_handlers_header"
	TypeSignalHandler              Type = "signal_handler"
)

// System section.
const (
	TypeOS                Type = "os"
	TypeOSRelease         Type = "os_release"
	TypeUname             Type = "uname"
	TypeOSUptime          Type = "os_uptime"
	TypeLibc              Type = "libc"
	TypeRlimit            Type = "rlimit"
	TypeLoadAverage       Type = "load_average"
	TypeMeminfoHeader     Type = "meminfo_header"
	TypeMeminfo           Type = "meminfo"
	TypeThreadsMaxHeader  Type = "threads_max_header"
	TypeThreadsMax        Type = "threads_max"
	TypeMaxMapCountHeader Type = "max_map_count_header"
	TypeMaxMapCount       Type = "max_map_count"
	TypePidMaxHeader      Type = "pid_max_header"
	TypePidMax            Type = "pid_max"
	TypeSwappinessHeader  Type = "swappiness_header"
	TypeSwappiness        Type = "swappiness"
	TypeTHPEnabledHeader  Type = "thp_enabled_header"
	TypeTHPEnabled        Type = "thp_enabled"
	TypeTHPDefragHeader   Type = "thp_defrag_header"
	TypeTHPDefrag         Type = "thp_defrag"
	TypeLdPreloadHeader   Type = "ld_preload_header"
	TypeLdPreloadEntry    Type = "ld_preload_entry"
	TypeContainerHeader   Type = "container_header"
	TypeContainerInfo     Type = "container_info"
	TypeCPU               Type = "cpu"
	TypeMemory            Type = "memory"
	TypeVMInfo            Type = "vm_info"
	TypeEnd               Type = "end"
)

// Catch-alls.
const (
	TypeBlank        Type = "blank"
	TypeNumber       Type = "number"
	TypeUnrecognized Type = "unrecognized"
)

var all = []Type{
	TypeHeader, TypeSignal, TypeInternalError, TypeNativeOOM, TypeJreVersion, TypeJavaVM,
	TypeProblematicFrameHeader, TypeProblematicFrame, TypeCoreDump,

	TypeSection, TypeCommandLine, TypeHost, TypeTime, TypeTimezone, TypeElapsedTime,
	TypeCurrentThread, TypeStack, TypeFramesHeader, TypeFrame, TypeMoreFrames, TypeSigInfo,
	TypeRegistersHeader, TypeRegister,

	TypeThreadsHeader, TypeThread, TypeVMState, TypeVMMutex, TypeHeapAddress, TypeNarrowKlass,
	TypeHeapHeader, TypeHeapGeneration, TypeHeapRegion, TypeMetaspace, TypeClassSpace,
	TypeExceptionCountsHeader, TypeExceptionCount,
	TypeCompilationEventsHeader, TypeCompilationEvent,
	TypeDeoptimizationEventsHeader, TypeDeoptimizationEvent,
	TypeRedefinitionEventsHeader, TypeRedefinitionEvent,
	TypeInternalExceptionsHeader, TypeInternalExceptionEvent,
	TypeEventsHeader, TypeEvent, TypeNoEvents,
	TypeDynamicLibrariesHeader, TypeDynamicLibrary,
	TypeVMArgumentsHeader, TypeJvmArgs, TypeJavaCommand, TypeClassPath, TypeLauncherType,
	TypeEnvironmentHeader, TypeEnvironmentVariable,
	TypeSignalHandlersHeader, TypeSignalHandler,

	TypeOS, TypeOSRelease, TypeUname, TypeOSUptime, TypeLibc, TypeRlimit, TypeLoadAverage,
	TypeMeminfoHeader, TypeMeminfo,
	TypeThreadsMaxHeader, TypeThreadsMax, TypeMaxMapCountHeader, TypeMaxMapCount,
	TypePidMaxHeader, TypePidMax, TypeSwappinessHeader, TypeSwappiness,
	TypeTHPEnabledHeader, TypeTHPEnabled, TypeTHPDefragHeader, TypeTHPDefrag,
	TypeLdPreloadHeader, TypeLdPreloadEntry, TypeContainerHeader, TypeContainerInfo,
	TypeCPU, TypeMemory, TypeVMInfo, TypeEnd,

	TypeBlank, TypeNumber, TypeUnrecognized,
}

// All returns every line type in declaration order.
func All() []Type {
	out := make([]Type, len(all))
	copy(out, all)
	return out
}

// Label returns a human-readable label for the type.
func (t Type) Label() string {
	if t == TypeNone {
		return "none"
	}
	return string(t)
}
