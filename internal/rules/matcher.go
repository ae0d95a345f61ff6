package rules

import (
	"fmt"
	"path"
	"strings"
)

// Rule is a single compiled exclusion pattern.
type Rule struct {
	// Pattern is the pattern as written in the config or defaults.
	Pattern string

	// DirOnly restricts the rule to directories (pattern had a trailing slash).
	DirOnly bool

	// Anchored rules are matched against the full relative path instead
	// of individual path components.
	Anchored bool

	glob string
}

// ParseRule compiles a single pattern. Empty patterns and malformed globs
// are rejected.
func ParseRule(pattern string) (Rule, error) {
	glob := strings.TrimSpace(pattern)
	if glob == "" {
		return Rule{}, fmt.Errorf("empty exclude pattern")
	}

	r := Rule{Pattern: pattern}

	if strings.HasSuffix(glob, "/") {
		r.DirOnly = true
		glob = strings.TrimRight(glob, "/")
	}
	if strings.HasPrefix(glob, "/") {
		r.Anchored = true
		glob = strings.TrimLeft(glob, "/")
	}
	if strings.Contains(glob, "/") {
		r.Anchored = true
	}
	if glob == "" {
		return Rule{}, fmt.Errorf("exclude pattern %q matches nothing", pattern)
	}

	if _, err := path.Match(glob, ""); err != nil {
		return Rule{}, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
	}
	r.glob = glob
	return r, nil
}

// matches reports whether the rule matches rel, where isDir describes
// the final component of rel.
func (r Rule) matches(rel string, isDir bool) bool {
	if r.Anchored {
		if r.DirOnly && !isDir {
			return false
		}
		ok, _ := path.Match(r.glob, rel)
		return ok
	}

	parts := strings.Split(rel, "/")
	for i, part := range parts {
		last := i == len(parts)-1
		// Every component but the last is a directory by construction.
		if r.DirOnly && last && !isDir {
			continue
		}
		if ok, _ := path.Match(r.glob, part); ok {
			return true
		}
	}
	return false
}

// Matcher evaluates a set of exclusion rules.
type Matcher struct {
	rules []Rule
}

// Compile builds a Matcher from patterns. The first invalid pattern
// aborts compilation.
func Compile(patterns []string) (*Matcher, error) {
	m := &Matcher{rules: make([]Rule, 0, len(patterns))}
	for _, p := range patterns {
		r, err := ParseRule(p)
		if err != nil {
			return nil, err
		}
		m.rules = append(m.rules, r)
	}
	return m, nil
}

// Rules returns the compiled rules in evaluation order.
func (m *Matcher) Rules() []Rule {
	return m.rules
}

// Match returns the first rule that excludes rel. rel must be a
// slash-separated path relative to the project directory.
func (m *Matcher) Match(rel string, isDir bool) (Rule, bool) {
	rel = strings.Trim(path.Clean(rel), "/")
	if rel == "" || rel == "." {
		return Rule{}, false
	}
	for _, r := range m.rules {
		if r.matches(rel, isDir) {
			return r, true
		}
	}
	return Rule{}, false
}

// Excluded reports whether any rule matches rel.
func (m *Matcher) Excluded(rel string, isDir bool) bool {
	_, ok := m.Match(rel, isDir)
	return ok
}
