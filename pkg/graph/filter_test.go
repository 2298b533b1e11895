package graph

import "testing"

func TestStripDecorations(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ex:Person", "ex:Person"},
		{"ex:Person (42)", "ex:Person"},
		{"ex:Person*", "ex:Person"},
		{"ex:Person (3 violations)*", "ex:Person (3 violations)"},
		{"  spaced  ", "spaced"},
		{"(only)", "(only)"},
	}
	for _, tt := range tests {
		if got := StripDecorations(tt.in); got != tt.want {
			t.Errorf("StripDecorations(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilterMatch(t *testing.T) {
	f, err := NewFilter([]string{"owl:Thing", "sh:*", " "})
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	tests := []struct {
		label string
		want  bool
	}{
		{"owl:Thing", true},
		{"owl:Thing (4)", true},
		{"sh:NodeShape*", true},
		{"ex:Thing", false},
	}
	for _, tt := range tests {
		if got := f.Match(tt.label); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
	if len(f.Patterns()) != 2 {
		t.Errorf("blank patterns should be skipped, got %v", f.Patterns())
	}
}

func TestNilFilter(t *testing.T) {
	var f *Filter
	if f.Match("anything") {
		t.Error("nil filter should match nothing")
	}
}

func TestNewFilterInvalid(t *testing.T) {
	if _, err := NewFilter([]string{"[unclosed"}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}
