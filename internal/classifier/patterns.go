package classifier

import (
	"regexp"

	"github.com/setevik/crashtriage/internal/event"
)

// Header block. Every line starts with "#".
var (
	// "#  SIGSEGV (0xb) at pc=0x00007f3e4c6a1b2c, pid=12345, tid=0x00007f3e2c7f8700"
	// "#  EXCEPTION_ACCESS_VIOLATION (0xc0000005) at pc=0x000000006d8a3f1c, pid=4720, tid=0x0000000000001c4c"
	signalRe = regexp.MustCompile(`^#\s+([A-Z][A-Z0-9_]+) \((0x[0-9a-fA-F]+)\) at pc=(0x[0-9a-fA-F]+), pid=(\d+), tid=(\S+)`)

	// "#  Internal Error (g1ConcurrentMark.cpp:1665), pid=4163, tid=4170"
	internalErrorRe = regexp.MustCompile(`^#\s+Internal Error \(([^)]*)\)`)

	// "# Native memory allocation (mmap) failed to map 12288 bytes for committing reserved memory."
	// "# Native memory allocation (malloc) failed to allocate 32744 bytes for ChunkPool::allocate"
	nativeAllocRe = regexp.MustCompile(`^#\s+(Native memory allocation \((?:mmap|malloc)\) failed to (?:map|allocate) (\d+) bytes.*)$`)
	// "# There is insufficient memory for the Java Runtime Environment to continue."
	insufficientMemoryRe = regexp.MustCompile(`^#\s+(There is insufficient memory for the Java Runtime Environment to continue\.?)$`)
	// "#  Out of Memory Error (os_linux.cpp:2749), pid=6792, tid=0x00007f8f5c3c6700"
	outOfMemoryErrorRe = regexp.MustCompile(`^#\s+(Out of Memory Error \([^)]*\))`)

	// "# JRE version: OpenJDK Runtime Environment (8.0_252-b09) (build 1.8.0_252-b09)"
	// "# JRE version:  (11.0.7+10) (build )"
	jreVersionRe = regexp.MustCompile(`^#\s+JRE version:\s*(.*?)\s*\(([^()]*)\)(?:\s*\(build ([^)]*)\))?\s*$`)

	// "# Java VM: OpenJDK 64-Bit Server VM (25.252-b09 mixed mode linux-amd64 compressed oops)"
	javaVMRe = regexp.MustCompile(`^#\s+Java VM:\s*(.*)\s+\(([^()]*)\)\s*$`)

	problematicFrameHeaderRe = regexp.MustCompile(`^#\s+Problematic frame:\s*$`)

	// "# C  [libc.so.6+0x15c2b9]  __memmove_ssse3_back+0x1a9"
	// "# J 5473 C2 org.example.Foo.bar()V (87 bytes) @ 0x00007f..."
	problematicFrameRe = regexp.MustCompile(`^#\s+([CJjVvA])\s+(.*)$`)

	// "# Core dump written. Default location: /tmp/core or core.12345"
	// "# Failed to write core dump. Core dumps have been disabled."
	coreDumpRe = regexp.MustCompile(`^#\s+(Core dump will be written|Core dump written|Failed to write core dump|No core dump will be written)\.?\s*(.*)$`)

	headerRe = regexp.MustCompile(`^#`)
)

// Summary and thread sections.
var (
	// "---------------  S U M M A R Y ------------"
	sectionRe = regexp.MustCompile(`^-{3,}\s+([A-Z](?: [A-Z])*)\s+-{3,}\s*$`)

	commandLineRe = regexp.MustCompile(`^Command Line:\s*(.*)$`)

	// "Host: Intel(R) Xeon(R) CPU E5-2686 v4 @ 2.30GHz, 4 cores, 15G, Red Hat Enterprise Linux release 8.2 (Ootpa)"
	hostRe      = regexp.MustCompile(`^Host:\s*(.*?), (\d+) cores, (\d+[KMGT]?), (.*)$`)
	hostPlainRe = regexp.MustCompile(`^Host:\s*(.*)$`)

	// "time: Tue Jun  9 12:54:50 2020"
	// "Time: Tue Jun  9 12:54:50 2020 UTC elapsed time: 0.606413 seconds (0d 0h 0m 0s)"
	timeRe = regexp.MustCompile(`^[Tt]ime:\s*(.*?)(?:\s+elapsed time:\s*(.*))?$`)

	timezoneRe = regexp.MustCompile(`^timezone:\s*(.*)$`)

	// "elapsed time: 228058 seconds (2d 15h 20m 58s)"
	elapsedRe = regexp.MustCompile(`^elapsed time:\s*(.*)$`)

	// "228058 seconds", "0.606413 seconds (0d 0h 0m 0s)"
	secondsRe = regexp.MustCompile(`^(\d+)(?:\.(\d+))?\s*seconds(?:\s*\(([^)]*)\))?`)

	// "Current thread (0x00007f3e44013800):  JavaThread "main" [_thread_in_native, id=12346]"
	currentThreadRe = regexp.MustCompile(`^Current thread\b\s*(.*)$`)

	// "Stack: [0x00007f3e4c4e3000,0x00007f3e4c5e4000],  sp=0x00007f3e4c5e2138,  free space=1016k"
	stackRe = regexp.MustCompile(`^Stack: (\[.*)$`)

	// "Native frames: (J=compiled Java code, j=interpreted, Vv=VM code, C=native code)"
	framesHeaderRe = regexp.MustCompile(`^(?:Native|Java) frames:`)

	// "C  [libc.so.6+0x15c2b9]  __memmove_ssse3_back+0x1a9"
	frameRe = regexp.MustCompile(`^[CJjVvA]\s+\S.*$`)

	moreFramesRe = regexp.MustCompile(`^\.\.\.<more frames>\.\.\.$`)

	// "siginfo: si_signo: 11 (SIGSEGV), si_code: 1 (SEGV_MAPERR), si_addr: 0x0000000000000000"
	sigInfoRe = regexp.MustCompile(`^siginfo:\s*(.*)$`)

	registersHeaderRe = regexp.MustCompile(`^Registers:\s*$`)

	// "RAX=0x0000000000000000, RBX=0x00007f3e44013800, RCX=0x0000000000000001"
	registerRe = regexp.MustCompile(`^\s*[A-Za-z][A-Za-z0-9]*\s*=0x[0-9a-fA-F]+.*$`)
)

// Process section.
var (
	// "Java Threads: ( => current thread )", "Other Threads:"
	threadsHeaderRe = regexp.MustCompile(`^(?:Java|Other) Threads:`)

	// "=>0x00007f3e44013800 JavaThread "main" [_thread_in_native, id=12346]"
	threadRe = regexp.MustCompile(`^(?:=>)?\s*0x[0-9a-fA-F]+ \S*Thread\b`)

	vmStateRe = regexp.MustCompile(`^VM state:\s*(.*)$`)
	vmMutexRe = regexp.MustCompile(`^VM Mutex/Monitor currently owned by a thread:\s*(.*)$`)

	// "heap address: 0x00000006c0000000, size: 4096 MB, Compressed Oops mode: Zero based, Oop shift amount: 3"
	heapAddressRe = regexp.MustCompile(`^[Hh]eap address:\s*(0x[0-9a-fA-F]+), size:\s*(\d+) MB(?:, Compressed Oops mode:\s*([^,]+))?`)

	narrowKlassRe = regexp.MustCompile(`^Narrow klass base:\s*(.*)$`)
	heapHeaderRe  = regexp.MustCompile(`^Heap:\s*$`)

	// " PSYoungGen      total 1223168K, used 601370K [0x..., 0x..., 0x...)"
	heapGenerationRe = regexp.MustCompile(`^\s+(\S.*?)\s+total (\d+)K, used (\d+)K`)

	// "  eden space 1048576K, 57% used [0x..."
	heapRegionRe = regexp.MustCompile(`^\s{2,}(\S.*)$`)

	// " Metaspace       used 86123K, capacity 88794K, committed 89088K, reserved 1128448K"
	metaspaceRe  = regexp.MustCompile(`^\s*Metaspace\s+used (\d+)K(?:, capacity \d+K)?, committed (\d+)K, reserved (\d+)K`)
	classSpaceRe = regexp.MustCompile(`^\s*class space\s+used (\d+)K(?:, capacity \d+K)?, committed (\d+)K, reserved (\d+)K`)

	exceptionCountsHeaderRe = regexp.MustCompile(`^OutOfMemory and StackOverflow Exception counts:\s*$`)

	// "OutOfMemoryError java_heap_errors=1", "StackOverflowErrors=12"
	exceptionCountRe = regexp.MustCompile(`^(\w+(?: \w+)?)=(\d+)$`)

	// "Compilation events (250 events):"
	compilationEventsRe    = regexp.MustCompile(`^(Compilation) events \((\d+) events\):$`)
	deoptimizationEventsRe = regexp.MustCompile(`^(Deoptimization) events \((\d+) events\):$`)
	redefinitionEventsRe   = regexp.MustCompile(`^(Classes redefined) \((\d+) events\):$`)
	internalExceptionsRe   = regexp.MustCompile(`^(Internal exceptions) \((\d+) events\):$`)
	eventsHeaderRe         = regexp.MustCompile(`^([A-Z][\w ]*?) \((\d+) events\):$`)

	// "Event: 12.345 Thread 0x00007f3e44013800 redefined class name=com.example.Foo, count=1"
	logEntryRe = regexp.MustCompile(`^Event:\s+(\d+\.\d+)\s+(.*)$`)

	noEventsRe = regexp.MustCompile(`^No [Ee]vents$`)

	dynamicLibrariesHeaderRe = regexp.MustCompile(`^Dynamic libraries:\s*$`)

	// "7f3e4c6a1000-7f3e4c6c3000 r-xp 00000000 fd:00 1234567   /usr/lib64/libc-2.17.so"
	mapsRowRe = regexp.MustCompile(`^([0-9a-fA-F]+-[0-9a-fA-F]+)\s+([rwxsp-]{4})\s+[0-9a-fA-F]+\s+[0-9a-fA-F]+:[0-9a-fA-F]+\s+\d+\s*(.*)$`)

	// "0x00007ff6a2a60000 - 0x00007ff6a2aa5000 	C:\Program Files\Java\jdk1.8.0_121\bin\java.exe"
	windowsLibraryRe = regexp.MustCompile(`^(0x[0-9a-fA-F]+ - 0x[0-9a-fA-F]+)\s+(.*)$`)

	vmArgumentsHeaderRe = regexp.MustCompile(`^VM Arguments:\s*$`)
	jvmArgsRe           = regexp.MustCompile(`^jvm_args:\s*(.*)$`)
	javaCommandRe       = regexp.MustCompile(`^java_command:\s*(.*)$`)
	classPathRe         = regexp.MustCompile(`^java_class_path \(initial\):\s*(.*)$`)
	launcherTypeRe      = regexp.MustCompile(`^Launcher Type:\s*(.*)$`)

	environmentHeaderRe = regexp.MustCompile(`^Environment Variables:\s*$`)
	envVarRe            = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)=(.*)$`)

	signalHandlersHeaderRe = regexp.MustCompile(`^Signal Handlers:\s*$`)
	// "SIGSEGV: [libjvm.so+0x9a1b20], sa_mask[0]=11111111011111111101111111111110, sa_flags=SA_RESTART|SA_SIGINFO"
	signalHandlerRe = regexp.MustCompile(`^\s*(SIG[A-Z0-9]+):\s+(.*)$`)
)

// System section.
var (
	osRe = regexp.MustCompile(`^OS:\s*(.*)$`)

	// "NAME="Red Hat Enterprise Linux"", "DISTRIB_RELEASE=18.04"
	osReleaseRe = regexp.MustCompile(`^([A-Z][A-Z0-9_]*)=(.*)$`)

	// "uname:Linux 3.10.0-1160.el7.x86_64 #1 SMP Tue Aug 18 14:50:17 EDT 2020 x86_64"
	unameRe = regexp.MustCompile(`^uname:\s*(\S+)\s+(\S+)(?:\s+(.*))?$`)

	osUptimeRe    = regexp.MustCompile(`^OS uptime:\s*(.*)$`)
	libcRe        = regexp.MustCompile(`^libc:\s*(.*)$`)
	rlimitRe      = regexp.MustCompile(`^rlimit(?: \(soft/hard\))?:\s*(.*)$`)
	loadAverageRe = regexp.MustCompile(`^load average:\s*(.*)$`)

	meminfoHeaderRe = regexp.MustCompile(`^/proc/meminfo:\s*$`)
	// "MemTotal:       16266760 kB"
	meminfoRe = regexp.MustCompile(`^([\w()]+):\s+(\d+)(?:\s*kB)?$`)

	// Value lines after a tunable's header-only form.
	tunableValueRe = regexp.MustCompile(`^\s*(\S.*?)\s*$`)

	ldPreloadHeaderRe = regexp.MustCompile(`^/etc/ld\.so\.preload:\s*$`)

	containerHeaderRe = regexp.MustCompile(`^container \(cgroup\) information:\s*$`)
	// "container_type: cgroupv2", "memory_limit_in_bytes: unlimited"
	containerInfoRe = regexp.MustCompile(`^(\w+):\s*(.*)$`)

	// "CPU:total 4 (initial active 4) (2 cores per cpu, 2 threads per core) ..."
	cpuRe = regexp.MustCompile(`^CPU:\s*total (\d+)`)

	// "Memory: 4k page, physical 16266760k(1140524k free), swap 8388604k(8388604k free)"
	memoryRe = regexp.MustCompile(`^Memory:\s*(\d+[kKmMgG]?) page, physical (\d+[kKmMgG]?)\((\d+[kKmMgG]?) free\)(?:, swap (\d+[kKmMgG]?)\((\d+[kKmMgG]?) free\))?`)

	// "vm_info: OpenJDK 64-Bit Server VM (25.252-b09) for linux-amd64 JRE (1.8.0_252-b09), built on Apr 14 2020 15:34:31 by "mockbuild" with gcc 4.8.5"
	vmInfoRe = regexp.MustCompile(`^vm_info:\s*(.*)$`)
	// Pieces of the vm_info description.
	vmInfoJreRe     = regexp.MustCompile(`JRE \(([^)]*)\)`)
	vmInfoBuiltRe   = regexp.MustCompile(`built on (\w{3} [ \d]\d \d{4} \d{2}:\d{2}:\d{2})`)
	vmInfoBuilderRe = regexp.MustCompile(`by "([^"]*)"`)

	endRe = regexp.MustCompile(`^END\.\s*$`)
)

// Catch-alls.
var (
	blankRe  = regexp.MustCompile(`^\s*$`)
	numberRe = regexp.MustCompile(`^\s*(-?\d+)\s*$`)
)

// Kernel tunables, each logged either as "path (desc): value" on one line or
// as "path (desc):" followed by the value on the next line.
var tunables = []struct {
	header event.Type
	value  event.Type
	path   string
}{
	{event.TypeThreadsMaxHeader, event.TypeThreadsMax, "/proc/sys/kernel/threads-max"},
	{event.TypeMaxMapCountHeader, event.TypeMaxMapCount, "/proc/sys/vm/max_map_count"},
	{event.TypePidMaxHeader, event.TypePidMax, "/proc/sys/kernel/pid_max"},
	{event.TypeSwappinessHeader, event.TypeSwappiness, "/proc/sys/vm/swappiness"},
	{event.TypeTHPEnabledHeader, event.TypeTHPEnabled, "/sys/kernel/mm/transparent_hugepage/enabled"},
	{event.TypeTHPDefragHeader, event.TypeTHPDefrag, "/sys/kernel/mm/transparent_hugepage/defrag"},
}

// tunableSameLine matches "path (desc): value".
func tunableSameLine(path string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(path) + `(?: \([^)]*\))?:\s*(\S.*?)\s*$`)
}

// tunableHeaderOnly matches "path (desc):" with nothing after the colon.
func tunableHeaderOnly(path string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(path) + `(?: \([^)]*\))?:\s*$`)
}
