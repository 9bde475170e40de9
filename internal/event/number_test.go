package event

import "testing"

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want Number
	}{
		{"65530", Known(65530)},
		{"  0 ", Known(0)},
		{"infinity", Unlimited},
		{"unlimited", Unlimited},
		{"<Not Available>", Unavailable},
		{"", Unavailable},
		{"12abc", Unavailable},
	}
	for _, tt := range tests {
		if got := ParseNumber(tt.in); got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want Number
	}{
		{"8192k", Known(8192 << 10)},
		{"15G", Known(15 << 30)},
		{"4096", Known(4096)},
		{"infinity", Unlimited},
		{"", Unavailable},
		{"8388607t", Known(8388607 << 40)},
		{"8388608t", Unavailable},
		{"9223372036854775807k", Unavailable},
	}
	for _, tt := range tests {
		if got := ParseSize(tt.in); got != tt.want {
			t.Errorf("ParseSize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		name string
		n    Number
		unit int64
		want Number
	}{
		{"known", Known(3), 1 << 10, Known(3 << 10)},
		{"negative", Known(-2), 1 << 20, Known(-2 << 20)},
		{"overflow", Known(1 << 54), 1 << 10, Unavailable},
		{"negative overflow", Known(-(1 << 54)), 1 << 10, Unavailable},
		{"unlimited", Unlimited, 1 << 10, Unlimited},
		{"absent", Number{}, 1 << 10, Number{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.n.Scale(tt.unit); got != tt.want {
				t.Errorf("Scale(%d) = %v, want %v", tt.unit, got, tt.want)
			}
		})
	}
}

func TestNumberStates(t *testing.T) {
	var absent Number
	if absent.Present() {
		t.Error("zero Number should be absent")
	}
	if _, ok := absent.Value(); ok {
		t.Error("absent Number should have no value")
	}

	zero := Known(0)
	if !zero.Present() || zero.IsUnavailable() {
		t.Error("Known(0) should be present and available")
	}
	if zero == Unavailable {
		t.Error("Known(0) must differ from Unavailable")
	}

	for _, n := range []Number{absent, Unavailable, Unlimited} {
		if n.Below(1 << 40) {
			t.Errorf("%v should never be below a threshold", n)
		}
		if n.Above(-1) {
			t.Errorf("%v should never be above a threshold", n)
		}
	}
	if !Known(10).Above(1) || !Known(10).Below(11) {
		t.Error("Known(10) comparisons wrong")
	}
}

func TestUptimeDuration(t *testing.T) {
	u := Uptime{Millis: 1500, Valid: true}
	if got := u.Duration().String(); got != "1.5s" {
		t.Errorf("Duration = %s, want 1.5s", got)
	}
}

func TestAllUniqueAndLabelled(t *testing.T) {
	seen := make(map[Type]bool)
	for _, typ := range All() {
		if typ == TypeNone {
			t.Fatal("TypeNone must not be listed")
		}
		if seen[typ] {
			t.Errorf("duplicate type %s", typ)
		}
		seen[typ] = true
	}
	if TypeNone.Label() != "none" {
		t.Errorf("TypeNone label = %q", TypeNone.Label())
	}
}

func TestRlimitLookup(t *testing.T) {
	r := Rlimit{Limits: []ResourceLimit{
		{Resource: "NOFILE", Soft: Known(1024), Hard: Known(4096)},
	}}
	l, ok := r.Lookup("NOFILE")
	if !ok || l.Soft != Known(1024) {
		t.Errorf("Lookup(NOFILE) = %+v, %v", l, ok)
	}
	if _, ok := r.Lookup("CORE"); ok {
		t.Error("CORE should be missing")
	}
}
