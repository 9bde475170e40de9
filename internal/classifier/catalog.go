package classifier

import (
	"regexp"
	"slices"

	"github.com/setevik/crashtriage/internal/event"
)

// Descriptor ties a line type to the patterns that recognise it. When After is
// non-empty the descriptor only applies if the previous line had one of those
// types. A descriptor without patterns accepts every line.
type Descriptor struct {
	Type     event.Type
	Patterns []*regexp.Regexp
	After    []event.Type

	extract extractor
}

// accepts reports whether the descriptor applies after a line of type prev.
func (d Descriptor) accepts(prev event.Type) bool {
	return len(d.After) == 0 || slices.Contains(d.After, prev)
}

// submatch returns the submatches of the first pattern that matches text, or
// nil when none does.
func (d Descriptor) submatch(text string) []string {
	if len(d.Patterns) == 0 {
		return []string{text}
	}
	for _, re := range d.Patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m
		}
	}
	return nil
}

// Gated reports whether the descriptor needs a continuation context.
func (d Descriptor) Gated() bool { return len(d.After) > 0 }

func res(rs ...*regexp.Regexp) []*regexp.Regexp { return rs }

func after(ts ...event.Type) []event.Type { return ts }

// body describes a multi-line section row that may follow its header or
// another row of the same kind.
func body(t, header event.Type, extract extractor, rs ...*regexp.Regexp) Descriptor {
	return Descriptor{Type: t, Patterns: rs, After: after(header, t), extract: extract}
}

// catalog is tried in order. More specific shapes come first: the header
// block, then top-level section lines, then section bodies that depend on the
// previous line, then the catch-alls.
var catalog = buildCatalog()

func buildCatalog() []Descriptor {
	c := []Descriptor{
		{Type: event.TypeSignal, Patterns: res(signalRe), extract: extractSignal},
		{Type: event.TypeInternalError, Patterns: res(internalErrorRe), extract: extractInternalError},
		{Type: event.TypeNativeOOM, Patterns: res(nativeAllocRe, insufficientMemoryRe, outOfMemoryErrorRe), extract: extractNativeOOM},
		{Type: event.TypeJreVersion, Patterns: res(jreVersionRe), extract: extractJreVersion},
		{Type: event.TypeJavaVM, Patterns: res(javaVMRe), extract: extractJavaVM},
		{Type: event.TypeProblematicFrameHeader, Patterns: res(problematicFrameHeaderRe), extract: textOf(0)},
		{Type: event.TypeProblematicFrame, Patterns: res(problematicFrameRe), After: after(event.TypeProblematicFrameHeader), extract: extractProblematicFrame},
		{Type: event.TypeCoreDump, Patterns: res(coreDumpRe), extract: extractCoreDump},

		{Type: event.TypeSection, Patterns: res(sectionRe), extract: extractSection},
		{Type: event.TypeCommandLine, Patterns: res(commandLineRe), extract: textOf(1)},
		{Type: event.TypeHost, Patterns: res(hostRe, hostPlainRe), extract: extractHost},
		{Type: event.TypeTime, Patterns: res(timeRe), extract: extractTime},
		{Type: event.TypeTimezone, Patterns: res(timezoneRe), extract: textOf(1)},
		{Type: event.TypeElapsedTime, Patterns: res(elapsedRe), extract: extractElapsed},
		{Type: event.TypeCurrentThread, Patterns: res(currentThreadRe), extract: textOf(1)},
		{Type: event.TypeStack, Patterns: res(stackRe), extract: textOf(1)},
		{Type: event.TypeFramesHeader, Patterns: res(framesHeaderRe), extract: textOf(0)},
		{Type: event.TypeMoreFrames, Patterns: res(moreFramesRe), extract: textOf(0)},
		{Type: event.TypeSigInfo, Patterns: res(sigInfoRe), extract: textOf(1)},
		{Type: event.TypeRegistersHeader, Patterns: res(registersHeaderRe), extract: textOf(0)},

		{Type: event.TypeThreadsHeader, Patterns: res(threadsHeaderRe), extract: textOf(0)},
		{Type: event.TypeVMState, Patterns: res(vmStateRe), extract: textOf(1)},
		{Type: event.TypeVMMutex, Patterns: res(vmMutexRe), extract: textOf(1)},
		{Type: event.TypeHeapAddress, Patterns: res(heapAddressRe), extract: extractHeapAddress},
		{Type: event.TypeNarrowKlass, Patterns: res(narrowKlassRe), extract: textOf(1)},
		{Type: event.TypeHeapHeader, Patterns: res(heapHeaderRe), extract: textOf(0)},
		{Type: event.TypeMetaspace, Patterns: res(metaspaceRe), extract: extractSpaceUsage},
		{Type: event.TypeClassSpace, Patterns: res(classSpaceRe), extract: extractSpaceUsage},
		{Type: event.TypeExceptionCountsHeader, Patterns: res(exceptionCountsHeaderRe), extract: textOf(0)},
		{Type: event.TypeCompilationEventsHeader, Patterns: res(compilationEventsRe), extract: extractEventLogHeader},
		{Type: event.TypeDeoptimizationEventsHeader, Patterns: res(deoptimizationEventsRe), extract: extractEventLogHeader},
		{Type: event.TypeRedefinitionEventsHeader, Patterns: res(redefinitionEventsRe), extract: extractEventLogHeader},
		{Type: event.TypeInternalExceptionsHeader, Patterns: res(internalExceptionsRe), extract: extractEventLogHeader},
		{Type: event.TypeEventsHeader, Patterns: res(eventsHeaderRe), extract: extractEventLogHeader},
		{Type: event.TypeNoEvents, Patterns: res(noEventsRe), extract: textOf(0)},
		{Type: event.TypeDynamicLibrariesHeader, Patterns: res(dynamicLibrariesHeaderRe), extract: textOf(0)},
		{Type: event.TypeVMArgumentsHeader, Patterns: res(vmArgumentsHeaderRe), extract: textOf(0)},
		{Type: event.TypeJvmArgs, Patterns: res(jvmArgsRe), extract: extractArgs},
		{Type: event.TypeJavaCommand, Patterns: res(javaCommandRe), extract: textOf(1)},
		{Type: event.TypeClassPath, Patterns: res(classPathRe), extract: textOf(1)},
		{Type: event.TypeLauncherType, Patterns: res(launcherTypeRe), extract: textOf(1)},
		{Type: event.TypeEnvironmentHeader, Patterns: res(environmentHeaderRe), extract: textOf(0)},
		{Type: event.TypeSignalHandlersHeader, Patterns: res(signalHandlersHeaderRe), extract: textOf(0)},

		{Type: event.TypeOSUptime, Patterns: res(osUptimeRe), extract: textOf(1)},
		{Type: event.TypeOS, Patterns: res(osRe), extract: textOf(1)},
		{Type: event.TypeUname, Patterns: res(unameRe), extract: extractUname},
		{Type: event.TypeLibc, Patterns: res(libcRe), extract: textOf(1)},
		{Type: event.TypeRlimit, Patterns: res(rlimitRe), extract: extractRlimit},
		{Type: event.TypeLoadAverage, Patterns: res(loadAverageRe), extract: textOf(1)},
		{Type: event.TypeMeminfoHeader, Patterns: res(meminfoHeaderRe), extract: textOf(0)},
	}

	for _, tn := range tunables {
		c = append(c,
			Descriptor{Type: tn.value, Patterns: res(tunableSameLine(tn.path)), extract: tunableExtractor(tn.value)},
			Descriptor{Type: tn.header, Patterns: res(tunableHeaderOnly(tn.path)), extract: textOf(0)},
		)
	}

	c = append(c,
		Descriptor{Type: event.TypeLdPreloadHeader, Patterns: res(ldPreloadHeaderRe), extract: textOf(0)},
		Descriptor{Type: event.TypeContainerHeader, Patterns: res(containerHeaderRe), extract: textOf(0)},
		Descriptor{Type: event.TypeCPU, Patterns: res(cpuRe), extract: extractCPU},
		Descriptor{Type: event.TypeMemory, Patterns: res(memoryRe), extract: extractMemory},
		Descriptor{Type: event.TypeVMInfo, Patterns: res(vmInfoRe), extract: extractVMInfo},
		Descriptor{Type: event.TypeEnd, Patterns: res(endRe), extract: textOf(0)},
	)

	// Section bodies.
	c = append(c,
		body(event.TypeFrame, event.TypeFramesHeader, textOf(0), frameRe),
		body(event.TypeRegister, event.TypeRegistersHeader, textOf(0), registerRe),
		body(event.TypeThread, event.TypeThreadsHeader, textOf(0), threadRe),
		Descriptor{
			Type:     event.TypeHeapGeneration,
			Patterns: res(heapGenerationRe),
			After:    after(event.TypeHeapHeader, event.TypeHeapGeneration, event.TypeHeapRegion),
			extract:  extractHeapGeneration,
		},
		Descriptor{
			Type:     event.TypeHeapRegion,
			Patterns: res(heapRegionRe),
			After:    after(event.TypeHeapHeader, event.TypeHeapGeneration, event.TypeHeapRegion),
			extract:  textOf(1),
		},
		body(event.TypeExceptionCount, event.TypeExceptionCountsHeader, extractExceptionCount, exceptionCountRe),
		body(event.TypeCompilationEvent, event.TypeCompilationEventsHeader, extractLogEntry, logEntryRe),
		body(event.TypeDeoptimizationEvent, event.TypeDeoptimizationEventsHeader, extractLogEntry, logEntryRe),
		body(event.TypeRedefinitionEvent, event.TypeRedefinitionEventsHeader, extractLogEntry, logEntryRe),
		body(event.TypeInternalExceptionEvent, event.TypeInternalExceptionsHeader, extractLogEntry, logEntryRe),
		body(event.TypeEvent, event.TypeEventsHeader, extractLogEntry, logEntryRe),
		body(event.TypeDynamicLibrary, event.TypeDynamicLibrariesHeader, extractDynamicLibrary, mapsRowRe, windowsLibraryRe),
		body(event.TypeEnvironmentVariable, event.TypeEnvironmentHeader, extractKeyValue, envVarRe),
		body(event.TypeSignalHandler, event.TypeSignalHandlersHeader, extractKeyValue, signalHandlerRe),
		body(event.TypeOSRelease, event.TypeOS, extractKeyValue, osReleaseRe),
		body(event.TypeMeminfo, event.TypeMeminfoHeader, extractKeyValue, meminfoRe),
		body(event.TypeLdPreloadEntry, event.TypeLdPreloadHeader, textOf(1), tunableValueRe),
		body(event.TypeContainerInfo, event.TypeContainerHeader, extractKeyValue, containerInfoRe),
	)
	for _, tn := range tunables {
		c = append(c, Descriptor{
			Type:     tn.value,
			Patterns: res(tunableValueRe),
			After:    after(tn.header),
			extract:  tunableExtractor(tn.value),
		})
	}

	// Catch-alls.
	return append(c,
		Descriptor{Type: event.TypeHeader, Patterns: res(headerRe), extract: textOf(0)},
		Descriptor{Type: event.TypeBlank, Patterns: res(blankRe), extract: textOf(0)},
		Descriptor{Type: event.TypeNumber, Patterns: res(numberRe), extract: extractNumber},
		Descriptor{Type: event.TypeUnrecognized, extract: textOf(0)},
	)
}

func tunableExtractor(t event.Type) extractor {
	if t == event.TypeTHPEnabled || t == event.TypeTHPDefrag {
		return extractHugePages
	}
	return extractTunable
}

// Catalog returns a copy of the descriptor list in priority order.
func Catalog() []Descriptor {
	return slices.Clone(catalog)
}
