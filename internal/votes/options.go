package votes

import (
	"errors"
	"strings"
)

var ErrTooFewOptions = errors.New("a vote needs at least two distinct options")

// OptionSet is the ordered set of option strings fixed at vote creation.
// It is stored as a JSONB array and never mutated afterwards.
type OptionSet []string

func (s OptionSet) Contains(option string) bool {
	for _, o := range s {
		if o == option {
			return true
		}
	}
	return false
}

// NormalizeOptions trims entries, drops empty ones, and collapses duplicates
// while preserving first-seen order. Fewer than two survivors is an error.
func NormalizeOptions(raw []string) (OptionSet, error) {
	seen := make(map[string]bool, len(raw))
	out := make(OptionSet, 0, len(raw))
	for _, o := range raw {
		o = strings.TrimSpace(o)
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	if len(out) < 2 {
		return nil, ErrTooFewOptions
	}
	return out, nil
}
