// Package pattern implements the shell pattern engine: fnmatch/glob-style
// matching used by case, parameter-expansion suffix/prefix removal, and
// pathname expansion (spec.md §4.3).
package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// Options are the matching options spec.md §4.3 names.
type Options struct {
	NoCaseMatch     bool
	DotGlob         bool
	GlobAsciiRanges bool
	ExtGlob         bool
}

// Pattern is an immutable, compiled shell pattern.
type Pattern struct {
	raw       string
	full      *regexp.Regexp // anchored ^...$ for Matches
	body      string         // unanchored regex body, reused for prefix/suffix scans
	opts      Options
	negGroups []negGroup
}

// Compile translates raw (in shell-pattern syntax) into a Pattern.
func Compile(raw string, opts Options) (*Pattern, error) {
	body, negGroups, err := translate(raw, opts)
	if err != nil {
		return nil, fmt.Errorf("pattern: compile %q: %w", raw, err)
	}
	flags := ""
	if opts.NoCaseMatch {
		flags = "(?i)"
	}
	full, err := regexp.Compile(flags + "^(?:" + body + ")$")
	if err != nil {
		return nil, fmt.Errorf("pattern: compile %q: %w", raw, err)
	}
	return &Pattern{raw: raw, full: full, body: flags + "(?:" + body + ")", opts: opts, negGroups: negGroups}, nil
}

// vetoed reports whether any named !() capture in m fully matches one of
// its negated alternatives, which disqualifies an otherwise successful
// match — the post-match half of the negation-group workaround RE2's lack
// of lookaround requires (see negGroup).
func (p *Pattern) vetoed(re *regexp.Regexp, m []string) bool {
	for _, g := range p.negGroups {
		idx := re.SubexpIndex(g.name)
		if idx < 0 || idx >= len(m) {
			continue
		}
		captured := m[idx]
		for _, alt := range g.alts {
			if alt.Matches(captured) {
				return true
			}
		}
	}
	return false
}

// String returns the original shell-pattern text.
func (p *Pattern) String() string { return p.raw }

// Matches reports a full match of pattern against s.
func (p *Pattern) Matches(s string) bool {
	extGroup := p.opts.ExtGlob && len(p.raw) > 1 && p.raw[1] == '('
	if !p.opts.DotGlob && strings.HasPrefix(s, ".") && patternStartsWithMeta(p.raw) && !extGroup {
		return false
	}
	m := p.full.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	return !p.vetoed(p.full, m)
}

// MatchPrefix returns the length (in runes) of the longest or shortest
// prefix of s that the pattern fully matches, per spec.md's tie-break:
// scan from index 1 upward, remember the first and last matching index,
// return the first for shortest and the last for longest.
func (p *Pattern) MatchPrefix(s string, longest bool) (int, bool) {
	re := p.full
	runes := []rune(s)
	first, last := -1, -1
	for i := 1; i <= len(runes); i++ {
		m := re.FindStringSubmatch(string(runes[:i]))
		if m != nil && !p.vetoed(re, m) {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	if first == -1 {
		return 0, false
	}
	if longest {
		return last, true
	}
	return first, true
}

// MatchSuffix is the suffix symmetric counterpart of MatchPrefix: scan from
// the last index downward.
func (p *Pattern) MatchSuffix(s string, longest bool) (int, bool) {
	re := p.full
	runes := []rune(s)
	n := len(runes)
	first, last := -1, -1
	for i := n - 1; i >= 0; i-- {
		length := n - i
		m := re.FindStringSubmatch(string(runes[i:]))
		if m != nil && !p.vetoed(re, m) {
			if first == -1 {
				first = length
			}
			last = length
		}
	}
	if first == -1 {
		return 0, false
	}
	if longest {
		return last, true
	}
	return first, true
}

func patternStartsWithMeta(raw string) bool {
	return len(raw) > 0 && (raw[0] == '*' || raw[0] == '?')
}

// HasMeta reports whether s contains any unescaped pattern metacharacter,
// mirroring the check the Driver and Globber use to decide whether a word
// needs compiling at all.
func HasMeta(s string) bool {
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

// Quote escapes s so that it matches itself literally when embedded inside
// a larger pattern, mirroring mvdan.cc/sh/v3/syntax.QuotePattern's role of
// marking a quoted word-part as non-pattern text before concatenation.
func Quote(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
