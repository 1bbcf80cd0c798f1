// Package brace implements brace expansion, spec.md §4.6: {a,b,c} alternation
// and {x..y[..incr]} sequence forms, expanded before any other word
// expansion runs.
//
// No pack dependency does brace expansion; bash's own implementation
// (original_source/src/braceexp.c) is a hand-rolled recursive-descent
// scanner, and nothing in the retrieved examples wraps one as a library.
// This package is grounded on that scanner's structure (brace_gobble,
// mustache_expand equivalents) rather than any teacher Go file, since the
// teacher never needed brace expansion.
package brace

import (
	"strconv"
	"strings"
)

// Expand returns the brace expansion of raw. If raw contains no brace
// expression, or an unbalanced one, it is returned unchanged as the sole
// element, matching bash's leave-it-alone behavior for malformed input.
func Expand(raw string) []string {
	results := expand(raw)
	if len(results) == 0 {
		return []string{raw}
	}
	return results
}

// expand returns nil when raw has no expandable brace group.
func expand(raw string) []string {
	open := findUnescapedOpen(raw)
	if open == -1 {
		return nil
	}
	close, body, ok := splitBraceGroup(raw, open)
	if !ok {
		return nil
	}
	prefix, suffix := raw[:open], raw[close+1:]

	var items []string
	if seq, ok := sequenceItems(body); ok {
		items = seq
	} else {
		parts := splitAlternatives(body)
		if len(parts) < 2 {
			return nil
		}
		items = parts
	}

	var out []string
	for _, item := range items {
		combined := prefix + item + suffix
		if sub := expand(combined); sub != nil {
			out = append(out, sub...)
		} else {
			out = append(out, combined)
		}
	}
	return out
}

// findUnescapedOpen returns the index of the first unescaped '{', or -1.
func findUnescapedOpen(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == '{' {
			return i
		}
	}
	return -1
}

// splitBraceGroup finds the matching '}' for the '{' at index open,
// respecting nested braces and backslash escapes. ok is false only if the
// group is unbalanced; whether the body has a comma or range is for the
// caller to check.
func splitBraceGroup(s string, open int) (closeIdx int, body string, ok bool) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, s[open+1 : i], true
			}
		}
	}
	return 0, "", false
}

// splitAlternatives splits body on top-level commas (not inside a nested
// brace group, and not backslash-escaped).
func splitAlternatives(body string) []string {
	var parts []string
	depth := 0
	start := 0
	runes := []byte(body)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, body[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, body[start:])
	return parts
}

// sequenceItems recognizes x..y or x..y..incr, where x and y are both
// integers or both single letters.
func sequenceItems(body string) ([]string, bool) {
	segs := strings.Split(body, "..")
	if len(segs) != 2 && len(segs) != 3 {
		return nil, false
	}
	if lo, hi, ok := parseIntSeq(segs); ok {
		incr := 1
		if len(segs) == 3 {
			n, err := strconv.Atoi(segs[2])
			if err != nil || n == 0 {
				return nil, false
			}
			incr = n
		}
		return intRange(lo, hi, incr), true
	}
	if lo, hi, ok := parseCharSeq(segs); ok {
		incr := 1
		if len(segs) == 3 {
			n, err := strconv.Atoi(segs[2])
			if err != nil || n == 0 {
				return nil, false
			}
			incr = n
		}
		return charRange(lo, hi, incr), true
	}
	return nil, false
}

func parseIntSeq(segs []string) (lo, hi int, ok bool) {
	loStr, hiStr := segs[0], segs[1]
	l, err := strconv.Atoi(loStr)
	if err != nil {
		return 0, 0, false
	}
	h, err := strconv.Atoi(hiStr)
	if err != nil {
		return 0, 0, false
	}
	return l, h, true
}

// intRange produces the numeric sequence from lo to hi in steps of incr,
// formatted with strconv.Itoa; a leading zero on an endpoint in the source
// is not preserved, so {01..03} yields 1 2 3.
func intRange(lo, hi, incr int) []string {
	if incr < 0 {
		incr = -incr
	}
	var out []string
	if lo <= hi {
		for v := lo; v <= hi; v += incr {
			out = append(out, strconv.Itoa(v))
		}
	} else {
		for v := lo; v >= hi; v -= incr {
			out = append(out, strconv.Itoa(v))
		}
	}
	return out
}

func parseCharSeq(segs []string) (lo, hi rune, ok bool) {
	if len(segs[0]) != 1 || len(segs[1]) != 1 {
		return 0, 0, false
	}
	return rune(segs[0][0]), rune(segs[1][0]), true
}

func charRange(lo, hi rune, incr int) []string {
	if incr < 0 {
		incr = -incr
	}
	var out []string
	if lo <= hi {
		for v := lo; v <= hi; v += rune(incr) {
			out = append(out, string(v))
		}
	} else {
		for v := lo; v >= hi; v -= rune(incr) {
			out = append(out, string(v))
		}
	}
	return out
}
