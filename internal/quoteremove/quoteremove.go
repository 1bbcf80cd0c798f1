// Package quoteremove implements quote removal, spec.md §4.9: the final
// expansion stage, which deletes the unquoted ' and " characters and any
// backslash used to quote a single character, provided they were not
// themselves produced by an earlier expansion (a $(...) or ${...} result
// is never re-scanned for quoting).
//
// No pack library exposes POSIX quote removal as a standalone function;
// this is a direct character scan grounded on the same single/double/
// backslash state machine spec.md §4.1 describes for the forward scan,
// run here as a dedicated final pass. Stdlib-only.
package quoteremove

import "strings"

// Remove deletes the structural quote characters and escaping backslashes
// from s, which is raw shell source text (not yet had any other expansion
// applied). Callers that need quote removal applied to an already-expanded
// word should track quoting during the expansion scan instead and use
// RemoveFromParts.
func Remove(s string) string {
	var b strings.Builder
	runes := []rune(s)
	n := len(runes)
	for i := 0; i < n; i++ {
		switch runes[i] {
		case '\\':
			if i+1 < n {
				i++
				b.WriteRune(runes[i])
			}
		case '\'':
			i++
			for i < n && runes[i] != '\'' {
				b.WriteRune(runes[i])
				i++
			}
		case '"':
			i++
			for i < n && runes[i] != '"' {
				if runes[i] == '\\' && i+1 < n && isDoubleQuoteEscapable(runes[i+1]) {
					i++
				}
				b.WriteRune(runes[i])
				i++
			}
		default:
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}

// isDoubleQuoteEscapable reports whether r is one of the characters bash
// lets a backslash escape inside double quotes: $ ` " \ and newline.
func isDoubleQuoteEscapable(r rune) bool {
	switch r {
	case '$', '`', '"', '\\', '\n':
		return true
	}
	return false
}

// Part is one already-expanded fragment of a word, tagged with whether it
// came from inside single quotes, double quotes, or neither. The expansion
// Driver assembles these as it performs tilde/parameter/command/arithmetic
// expansion, then calls RemoveFromParts once at the end instead of
// re-scanning raw text.
type Part struct {
	Text   string
	Single bool
	Double bool
}

// RemoveFromParts concatenates parts, applying backslash removal only to
// text that came from outside any quotes (single- and double-quoted text is
// already literal and passes through unchanged, since it was never
// re-scanned for escapes other than the double-quote set the Driver
// resolved inline).
func RemoveFromParts(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		if p.Single || p.Double {
			b.WriteString(p.Text)
			continue
		}
		b.WriteString(Remove(p.Text))
	}
	return b.String()
}
