package signature

import (
	"strings"
	"testing"
)

func TestParse_RoundTrip(t *testing.T) {
	lines := []string{
		"method std.String substring int",
		"method std.String substring int int",
		"method std.Object hashCode",
		"method std.String *",
		"staticMethod std.Math max int int",
		"new std.List",
		"new std.String std.String",
		"field std.Point x",
		"staticField std.Math PI",
		"method std.Arrays sort int[][]",
	}
	for _, line := range lines {
		s, err := Parse(line)
		if err != nil {
			t.Errorf("Parse(%q): %v", line, err)
			continue
		}
		if got := s.String(); got != line {
			t.Errorf("Parse(%q).String() = %q; round trip must be exact", line, got)
		}
	}
}

func TestParse_NormalizesWhitespace(t *testing.T) {
	s, err := Parse("  method   std.String	substring   int ")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := s.String(); got != "method std.String substring int" {
		t.Errorf("got %q", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"unknown kind", "constructor std.List"},
		{"method missing name", "method std.String"},
		{"new missing type", "new"},
		{"field with args", "field std.Point x int"},
		{"field missing name", "staticField std.Math"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.line); err == nil {
				t.Errorf("Parse(%q) should fail", tt.line)
			}
		})
	}
}

func TestSortAndDedup(t *testing.T) {
	parse := func(line string) *Signature {
		s, err := Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q): %v", line, err)
		}
		return s
	}

	sigs := []*Signature{
		parse("method std.String substring int int"),
		parse("new std.List"),
		parse("method std.List get int"),
		parse("method std.String substring int"),
		parse("staticField std.Math PI"),
		parse("method std.String substring int"), // duplicate
	}

	out := Dedup(sigs)
	got := make([]string, len(out))
	for i, s := range out {
		got[i] = s.String()
	}
	// Constructor part is just the type name, so "new std.List" sorts
	// before every "std.List <member>" entry.
	want := []string{
		"new std.List",
		"method std.List get int",
		"staticField std.Math PI",
		"method std.String substring int",
		"method std.String substring int int",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("Dedup order:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}

	if len(sigs) != 6 {
		t.Errorf("Dedup must not mutate its input")
	}
}

func FuzzParse(f *testing.F) {
	f.Add("method std.String substring int")
	f.Add("new std.List")
	f.Add("field std.Point x")
	f.Add("staticField std.Math PI")
	f.Add("staticMethod std.Math max int int")
	f.Add("method a *")
	f.Add("")
	f.Add("# comment")

	f.Fuzz(func(t *testing.T, line string) {
		s, err := Parse(line)
		if err != nil {
			return
		}
		// Whatever parses must re-render to a line that parses to an
		// equal signature.
		again, err := Parse(s.String())
		if err != nil {
			t.Fatalf("re-parse of %q failed: %v", s.String(), err)
		}
		if !s.Equal(again) {
			t.Fatalf("round trip changed %q into %q", s.String(), again.String())
		}
	})
}
