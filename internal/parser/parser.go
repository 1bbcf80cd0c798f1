// Package parser turns a line of shell source into the raw word strings
// internal/expand.Driver.Expand consumes. It is intentionally thin: the
// expansion core's contract (spec.md §3) takes already-delimited word text,
// so this package's only job is delimiting it, not re-implementing any of
// the expansion semantics mvdan.cc/sh/v3/syntax itself does not need to
// understand for that split.
//
// The dialect-selection half is grounded on internal/shell/shell.go's
// Variant/VariantFromShell: the same enum and shell-name mapping, reused
// here to pick which syntax.LangVariant the parser's word splitter should
// honor (bash's $'...' and ${var,,} forms parse differently than strict
// POSIX sh).
package parser

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Variant selects which shell dialect's word-splitting rules apply.
type Variant int

const (
	VariantBash Variant = iota
	VariantPOSIX
	VariantMksh
)

// VariantFromShell maps a shell executable name to a Variant, following
// internal/shell.VariantFromShell's mapping (zsh treated as bash-compatible,
// unknown shells default to bash).
func VariantFromShell(shell string) Variant {
	shell = strings.ToLower(shell)
	if i := strings.LastIndexByte(shell, '/'); i >= 0 {
		shell = shell[i+1:]
	}
	switch shell {
	case "sh", "dash", "ash":
		return VariantPOSIX
	case "mksh", "ksh":
		return VariantMksh
	default:
		return VariantBash
	}
}

func (v Variant) langVariant() syntax.LangVariant {
	switch v {
	case VariantPOSIX:
		return syntax.LangPOSIX
	case VariantMksh:
		return syntax.LangMirBSDKorn
	default:
		return syntax.LangBash
	}
}

// SplitWords splits one line of shell source into its unexpanded word
// strings, preserving the source text of each word (quotes, $, backticks,
// and all) for internal/expand.Driver.Expand to process. Returns one slice
// of word text per simple command found on the line, in source order; a
// line with no commands (blank, comment-only) returns a nil slice.
//
// Word boundaries are taken directly from each syntax.Word's source
// position span rather than re-printed from its parsed parts, so the text
// handed to the expansion core is byte-for-byte identical to what the user
// wrote, including any shell syntax the Driver doesn't otherwise need to
// parse itself (e.g. the exact spacing inside ${ } forms).
func SplitWords(line string, variant Variant) ([][]string, error) {
	p := syntax.NewParser(syntax.Variant(variant.langVariant()), syntax.KeepComments(false))

	prog, err := p.Parse(strings.NewReader(line), "")
	if err != nil {
		return nil, err
	}

	lines := splitLines(line)

	var commands [][]string
	syntax.Walk(prog, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok {
			return true
		}
		words := make([]string, 0, len(call.Args))
		for _, w := range call.Args {
			words = append(words, sourceSpan(lines, w.Pos(), w.End()))
		}
		commands = append(commands, words)
		return true
	})
	return commands, nil
}

// splitLines keeps \n boundaries so Pos/End's 1-based (line, col) pairs
// can be mapped back to byte offsets in the original text.
func splitLines(s string) []string {
	return strings.SplitAfter(s, "\n")
}

func sourceSpan(lines []string, from, to syntax.Pos) string {
	if !from.IsValid() || !to.IsValid() {
		return ""
	}
	if int(from.Line()) == int(to.Line()) {
		line := lineAt(lines, int(from.Line()))
		start := int(from.Col()) - 1
		end := int(to.Col()) - 1
		if start < 0 || end > len(line) || start > end {
			return ""
		}
		return line[start:end]
	}
	var b strings.Builder
	for ln := int(from.Line()); ln <= int(to.Line()); ln++ {
		line := lineAt(lines, ln)
		switch {
		case ln == int(from.Line()):
			start := int(from.Col()) - 1
			if start >= 0 && start <= len(line) {
				b.WriteString(line[start:])
			}
		case ln == int(to.Line()):
			end := int(to.Col()) - 1
			if end >= 0 && end <= len(line) {
				b.WriteString(line[:end])
			}
		default:
			b.WriteString(line)
		}
	}
	return b.String()
}

func lineAt(lines []string, n int) string {
	if n < 1 || n > len(lines) {
		return ""
	}
	return lines[n-1]
}
