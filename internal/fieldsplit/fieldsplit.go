// Package fieldsplit implements field splitting, spec.md §4.7: partitioning
// an expanded, unquoted word on IFS boundaries into zero or more fields.
//
// Grounded in structure on mvdan.cc/sh/v3/expand's ifsRune/ifsFields
// handling (whitespace vs. non-whitespace IFS characters split differently,
// and leading/trailing IFS-whitespace is trimmed without producing an empty
// field), adapted to operate on a single already-expanded string rather
// than mvdan's field-accumulator model. No pack dependency exposes IFS
// splitting as a standalone function, so the splitter itself is
// stdlib-only.
package fieldsplit

import "strings"

// DefaultIFS is the value IFS defaults to when unset, per spec.md §4.7.
const DefaultIFS = " \t\n"

// Split partitions s into fields using ifs. An empty ifs ("" explicitly
// set) disables splitting entirely and returns s as the sole field, unless
// s is also empty in which case no fields are returned.
func Split(s, ifs string) []string {
	if ifs == "" {
		if s == "" {
			return nil
		}
		return []string{s}
	}

	whitespace, nonWhitespace := partitionIFS(ifs)

	var fields []string
	var cur strings.Builder
	haveField := false
	i := 0
	runes := []rune(s)
	n := len(runes)

	flush := func() {
		if haveField {
			fields = append(fields, cur.String())
			cur.Reset()
			haveField = false
		}
	}

	// skip leading IFS-whitespace
	for i < n && isIFSWhitespace(runes[i], whitespace) {
		i++
	}
	if i == n {
		return fields
	}
	// A field is now pending even if empty: the text up to the next
	// delimiter (possibly none) is always a field, per spec.md §4.7 (a
	// leading non-whitespace delimiter yields a leading empty field, but
	// leading IFS-whitespace, skipped above, does not).
	haveField = true

	for i < n {
		r := runes[i]
		switch {
		case isIFSWhitespace(r, whitespace):
			flush()
			for i < n && isIFSWhitespace(runes[i], whitespace) {
				i++
			}
		case strings.ContainsRune(nonWhitespace, r):
			flush()
			// The delimiter just consumed always starts another field,
			// even if the input ends here or another delimiter follows
			// immediately — that's how adjacent delimiters (whitespace or
			// not) produce empty fields between them. Unlike the
			// whitespace case above, a non-whitespace delimiter does not
			// absorb a following run of IFS-whitespace into itself: each
			// stays its own boundary.
			haveField = true
			i++
		default:
			cur.WriteRune(r)
			haveField = true
			i++
		}
	}
	flush()
	return fields
}

// partitionIFS separates ifs into its whitespace characters (space, tab,
// newline, when present in ifs) and its non-whitespace delimiter
// characters, which are treated differently: consecutive whitespace
// delimiters collapse, but each non-whitespace delimiter always starts a
// new field even when repeated.
func partitionIFS(ifs string) (whitespace, nonWhitespace string) {
	var ws, nws strings.Builder
	for _, r := range ifs {
		if r == ' ' || r == '\t' || r == '\n' {
			ws.WriteRune(r)
		} else {
			nws.WriteRune(r)
		}
	}
	return ws.String(), nws.String()
}

func isIFSWhitespace(r rune, whitespace string) bool {
	return strings.ContainsRune(whitespace, r)
}
