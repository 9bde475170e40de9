package event

import (
	"math"
	"strconv"
	"strings"
)

type numberState uint8

const (
	numberAbsent numberState = iota
	numberKnown
	numberUnlimited
	numberUnavailable
)

// Number is an integer field that a log may omit, report as unavailable, or
// report as unlimited. The zero value is absent.
type Number struct {
	n     int64
	state numberState
}

var (
	// Unavailable marks a value the log printed as a placeholder such as
	// "<Not Available>". It is distinct from zero.
	Unavailable = Number{state: numberUnavailable}

	// Unlimited marks an "infinity" resource limit.
	Unlimited = Number{state: numberUnlimited}
)

// Known returns a Number holding n.
func Known(n int64) Number {
	return Number{n: n, state: numberKnown}
}

// Value returns the integer and true when the number is known.
func (n Number) Value() (int64, bool) {
	return n.n, n.state == numberKnown
}

// Present reports whether the log mentioned the value at all.
func (n Number) Present() bool { return n.state != numberAbsent }

// IsUnavailable reports whether the value was a placeholder.
func (n Number) IsUnavailable() bool { return n.state == numberUnavailable }

// IsUnlimited reports whether the value was "infinity".
func (n Number) IsUnlimited() bool { return n.state == numberUnlimited }

// Below reports whether the number is known and strictly less than limit.
// Unlimited, unavailable and absent values are never below anything.
func (n Number) Below(limit int64) bool {
	return n.state == numberKnown && n.n < limit
}

// Above reports whether the number is known and strictly greater than limit.
func (n Number) Above(limit int64) bool {
	return n.state == numberKnown && n.n > limit
}

func (n Number) String() string {
	switch n.state {
	case numberKnown:
		return strconv.FormatInt(n.n, 10)
	case numberUnlimited:
		return "infinity"
	case numberUnavailable:
		return "unavailable"
	}
	return ""
}

// MarshalText renders the number for JSON and YAML reports.
func (n Number) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// ParseNumber parses a decimal integer. "infinity" and "unlimited" yield
// Unlimited; anything else that is not an integer yields Unavailable.
func ParseNumber(s string) Number {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "infinity", "unlimited":
		return Unlimited
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Unavailable
	}
	return Known(v)
}

// ParseSize parses an integer with an optional k/m/g suffix (binary units),
// as printed in resource limits and memory summaries.
func ParseSize(s string) Number {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unavailable
	}
	mult := int64(1)
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1 << 10
	case 'm', 'M':
		mult = 1 << 20
	case 'g', 'G':
		mult = 1 << 30
	case 't', 'T':
		mult = 1 << 40
	}
	if mult > 1 {
		s = s[:len(s)-1]
	}
	return ParseNumber(s).Scale(mult)
}

// Scale multiplies a known value by unit. A product that does not fit in an
// int64 is reported as Unavailable; other states are returned unchanged.
func (n Number) Scale(unit int64) Number {
	v, ok := n.Value()
	if !ok {
		return n
	}
	if unit > 0 && (v > math.MaxInt64/unit || v < math.MinInt64/unit) {
		return Unavailable
	}
	return Known(v * unit)
}
