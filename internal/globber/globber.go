// Package globber implements pathname expansion, spec.md §4.8: expanding a
// word containing unquoted pattern metacharacters into the sorted list of
// matching filesystem entries, honoring nullglob, failglob, dotglob,
// globstar, and the GLOBIGNORE/FIGNORE exclusion lists SPEC_FULL.md §4
// supplements in from original_source.
//
// Grounded on github.com/bmatcuk/doublestar/v4, the glob engine the teacher
// wires for Dockerfile-discovery path matching (internal/discovery.go,
// internal/processor/exclude.go), generalized here from filesystem-only
// discovery globs to full shell pathname expansion semantics, and on
// github.com/moby/patternmatcher, which the teacher uses for .dockerignore
// exclusion (internal/context/context.go) and which this package reuses for
// GLOBIGNORE/FIGNORE filtering of already-expanded globber results.
package globber

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/moby/patternmatcher"
)

// Filesystem is the one method of the expansion Driver's Filesystem
// collaborator that pathname expansion needs.
type Filesystem interface {
	Glob(pattern string) ([]string, error)
}

// NoMatchError is returned under failglob when pattern matched nothing.
type NoMatchError struct{ Pattern string }

func (e *NoMatchError) Error() string { return "no match: " + e.Pattern }

// Options controls globbing behavior, mirroring the subset of OptionSet
// that affects pathname expansion.
type Options struct {
	NoGlob          bool
	NullGlob        bool
	FailGlob        bool
	DotGlob         bool
	GlobStar        bool
	NoCaseMatch     bool
	GlobAsciiRanges bool
	ExtGlob         bool
	GlobIgnore      []string // GLOBIGNORE patterns, patternmatcher (.dockerignore) syntax
	FIgnore         []string // FIGNORE entries, matched as patternmatcher patterns like GlobIgnore
}

// Expand matches pattern (a single word containing glob metacharacters)
// against fs, the Filesystem collaborator, and returns the sorted list of
// matches. If the pattern has no metacharacters, or NoGlob is set, or no
// file matches and NullGlob/FailGlob are both off, the pattern itself is
// returned as the sole result, per spec.md §4.8's "unmatched pattern
// expands to itself" default.
func Expand(fsys Filesystem, pattern string, opts Options) ([]string, error) {
	if opts.NoGlob || !hasGlobMeta(pattern) {
		return []string{pattern}, nil
	}

	doublestarPattern := translateToDoublestar(pattern, opts)

	matches, err := fsys.Glob(doublestarPattern)
	if err != nil {
		return nil, err
	}

	matches = filterDotfiles(matches, pattern, opts.DotGlob)
	matches, err = filterIgnored(matches, opts.GlobIgnore)
	if err != nil {
		return nil, err
	}
	matches, err = filterIgnored(matches, opts.FIgnore)
	if err != nil {
		return nil, err
	}

	sort.Strings(matches)

	if len(matches) == 0 {
		if opts.NullGlob {
			return nil, nil
		}
		if opts.FailGlob {
			return nil, &NoMatchError{Pattern: pattern}
		}
		return []string{pattern}, nil
	}
	return matches, nil
}

// translateToDoublestar rewrites a shell glob pattern's ** component for
// globstar: when globstar is off, ** behaves like a single-directory *, so
// we collapse any run of 2+ asterisks to a single * to match bash's
// default (pre-4.0-style) behavior instead of doublestar's recursive
// semantics.
func translateToDoublestar(pattern string, opts Options) string {
	if opts.GlobStar {
		return pattern
	}
	var b strings.Builder
	runs := 0
	for _, r := range pattern {
		if r == '*' {
			runs++
			continue
		}
		if runs > 0 {
			b.WriteByte('*')
			runs = 0
		}
		b.WriteRune(r)
	}
	if runs > 0 {
		b.WriteByte('*')
	}
	return b.String()
}

func hasGlobMeta(s string) bool {
	esc := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if esc {
			esc = false
			continue
		}
		switch c {
		case '\\':
			esc = true
		case '*', '?', '[':
			return true
		}
	}
	return false
}

// filterDotfiles drops results whose basename starts with '.' unless
// dotglob is set or the pattern's own leading component explicitly starts
// with '.', matching the Pattern engine's equivalent DotGlob guard.
func filterDotfiles(matches []string, pattern string, dotGlob bool) []string {
	if dotGlob {
		return matches
	}
	firstComponent := pattern
	if idx := strings.IndexByte(pattern, '/'); idx >= 0 {
		firstComponent = pattern[:idx]
	}
	if strings.HasPrefix(firstComponent, ".") {
		return matches
	}
	out := matches[:0]
	for _, m := range matches {
		if strings.HasPrefix(filepath.Base(m), ".") {
			continue
		}
		out = append(out, m)
	}
	return out
}

// filterIgnored removes entries matching any of patterns, using
// patternmatcher the same way the teacher applies .dockerignore rules.
func filterIgnored(matches []string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return matches, nil
	}
	pm, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, err
	}
	out := matches[:0]
	for _, m := range matches {
		ignored, err := pm.MatchesOrParentMatches(filepath.ToSlash(m))
		if err != nil {
			return nil, err
		}
		if !ignored {
			out = append(out, m)
		}
	}
	return out, nil
}

// MatchPattern reports whether name matches pattern using doublestar's
// syntax directly: full-string (not pathname) matching against a
// doublestar-style pattern. Nothing in this module calls it; parameter
// expansion's pattern operators use internal/pattern.
func MatchPattern(pattern, name string) (bool, error) {
	return doublestar.Match(pattern, filepath.ToSlash(name))
}
