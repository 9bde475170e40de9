// Package jdk models JDK release identifiers as comparable version tuples.
package jdk

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version is a structured JDK release identifier. JDK 8 releases map their
// update number onto Update (1.8.0_252-b09 is {8, 0, 252, 0, 9}).
type Version struct {
	Feature int
	Interim int
	Update  int
	Patch   int
	Build   int
}

// "1.8.0_252-b09", "1.8.0-b132"
var legacyLongRe = regexp.MustCompile(`^1\.(\d+)\.\d+(?:_(\d+))?(?:-b(\d+))?`)

// "8.0_252-b09" as printed in the JRE version header of JDK 8.
var legacyShortRe = regexp.MustCompile(`^([1-8])\.\d+_(\d+)(?:-b(\d+))?`)

// "11.0.7+10-LTS", "17+35", "21.0.1+12-LTS-29"
var modernRe = regexp.MustCompile(`^(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:\.(\d+))?(?:\+(\d+))?`)

// Parse extracts a Version from a release string. It returns false when the
// string does not start with a recognizable JDK release.
func Parse(s string) (Version, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, false
	}

	if m := legacyLongRe.FindStringSubmatch(s); m != nil {
		return Version{Feature: atoi(m[1]), Update: atoi(m[2]), Build: atoi(m[3])}, true
	}
	if m := legacyShortRe.FindStringSubmatch(s); m != nil {
		return Version{Feature: atoi(m[1]), Update: atoi(m[2]), Build: atoi(m[3])}, true
	}

	m := modernRe.FindStringSubmatch(s)
	if m == nil {
		return Version{}, false
	}
	v := Version{
		Feature: atoi(m[1]),
		Interim: atoi(m[2]),
		Update:  atoi(m[3]),
		Patch:   atoi(m[4]),
		Build:   atoi(m[5]),
	}
	// Anything below 9 without the legacy shape is a HotSpot VM version
	// (e.g. "25.252-b09"), not a JDK release.
	if v.Feature < 9 {
		return Version{}, false
	}
	return v, true
}

// MustParse is like Parse but panics on malformed input. Intended for tables.
func MustParse(s string) Version {
	v, ok := Parse(s)
	if !ok {
		panic(fmt.Sprintf("jdk: invalid version %q", s))
	}
	return v
}

// IsZero reports whether v is the zero Version (unknown release).
func (v Version) IsZero() bool {
	return v == Version{}
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal to,
// or after o. The build number is the last tiebreaker.
func (v Version) Compare(o Version) int {
	a := [...]int{v.Feature, v.Interim, v.Update, v.Patch, v.Build}
	b := [...]int{o.Feature, o.Interim, o.Update, o.Patch, o.Build}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// Before reports whether v is an older release than o, ignoring build numbers.
func (v Version) Before(o Version) bool {
	v.Build, o.Build = 0, 0
	return v.Compare(o) < 0
}

// LTS reports whether the feature release is a long-term support line.
func (v Version) LTS() bool {
	switch v.Feature {
	case 8, 11, 17, 21, 25:
		return true
	}
	return false
}

// String renders the version the way vendors label it: "8u252" for JDK 8,
// "11.0.7" for later lines.
func (v Version) String() string {
	if v.IsZero() {
		return "unknown"
	}
	if v.Feature <= 8 {
		return fmt.Sprintf("%du%d", v.Feature, v.Update)
	}
	s := strconv.Itoa(v.Feature)
	switch {
	case v.Patch > 0:
		s += fmt.Sprintf(".%d.%d.%d", v.Interim, v.Update, v.Patch)
	case v.Interim > 0 || v.Update > 0:
		s += fmt.Sprintf(".%d.%d", v.Interim, v.Update)
	}
	return s
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
