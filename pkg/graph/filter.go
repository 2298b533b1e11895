package graph

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter hides nodes by label independently of the disclosure state.
// Patterns use doublestar glob syntax and are matched against the label with
// decorations stripped (see [StripDecorations]). A nil Filter matches nothing.
type Filter struct {
	patterns []string
}

// NewFilter validates the patterns and returns a Filter.
func NewFilter(patterns []string) (*Filter, error) {
	f := &Filter{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid blacklist pattern %q", p)
		}
		f.patterns = append(f.patterns, p)
	}
	return f, nil
}

// Patterns returns the active patterns.
func (f *Filter) Patterns() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.patterns...)
}

// Match reports whether label is blacklisted.
func (f *Filter) Match(label string) bool {
	if f == nil || len(f.patterns) == 0 {
		return false
	}
	clean := StripDecorations(label)
	for _, p := range f.patterns {
		if ok, _ := doublestar.Match(p, clean); ok {
			return true
		}
	}
	return false
}

// StripDecorations removes a trailing parenthesized group and a trailing
// asterisk, so "ex:Person (42)" and "ex:Person*" both become "ex:Person".
func StripDecorations(label string) string {
	s := strings.TrimSpace(label)
	if strings.HasSuffix(s, ")") {
		if i := strings.LastIndex(s, "("); i > 0 {
			s = strings.TrimSpace(s[:i])
		}
	}
	s = strings.TrimSuffix(s, "*")
	return strings.TrimSpace(s)
}
