package identity

import (
	"strings"
	"unicode"
)

// Set holds normalized telephone numbers already collected.
// It only grows.
type Set struct {
	seen map[string]struct{}
}

// New creates an empty Set
func New() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Normalize strips whitespace, hyphens and parentheses
func Normalize(telephone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		switch r {
		case '-', '(', ')':
			return -1
		}
		return r
	}, telephone)
}

// IsDuplicate reports whether the telephone was seen before.
// An empty telephone is never a duplicate.
func (s *Set) IsDuplicate(telephone string) bool {
	key := Normalize(telephone)
	if key == "" {
		return false
	}
	_, ok := s.seen[key]
	return ok
}

// Add records a telephone, ignoring empty values
func (s *Set) Add(telephone string) {
	key := Normalize(telephone)
	if key == "" {
		return
	}
	s.seen[key] = struct{}{}
}

// Len returns the number of distinct telephones
func (s *Set) Len() int {
	return len(s.seen)
}
