// Package expand implements the word-expansion core of loshell: the
// pipeline that turns a raw shell word into the argument vector, assignment
// value, or here-document body delivered to a command.
package expand

// Word is a single expandable token, mutable during the pipeline and
// immutable once it leaves the Driver. The byte buffer is owned by the
// Word; the WordList owns its Words; the caller owns the WordList.
type Word struct {
	Value string

	// HadSingleQuotes and HadDoubleQuotes are monotonic: once set by a
	// stage, never cleared before the word leaves the pipeline.
	HadSingleQuotes bool
	HadDoubleQuotes bool
}

// WordList is the Driver's output: zero or more expanded words.
type WordList []*Word

// Strings returns the plain string values of a WordList, in order.
func (wl WordList) Strings() []string {
	out := make([]string, len(wl))
	for i, w := range wl {
		out[i] = w.Value
	}
	return out
}

// HeredocMode selects how a here-document body is expanded: never split or
// globbed, but parameter/command/arithmetic expansion still apply unless
// the delimiter was quoted.
type HeredocMode int

const (
	NotHeredoc HeredocMode = iota
	HeredocQuoted
	HeredocUnquoted
)

// ExpandFlags is the implicit context threaded through every stage of the
// pipeline (spec data model §3, "Expansion context").
type ExpandFlags struct {
	// InDoubleQuotes marks the word as already inside a double-quoted
	// context (used for heredoc and recursive re-expansion callers; a
	// top-level CLI word normally starts with this false and the Driver
	// discovers quoting itself as it scans).
	InDoubleQuotes bool

	// InVarAssignment marks the word as an assignment right-hand side. No
	// expansion stage reads it: tilde is expanded only at word start (not
	// after '=' or ':'), and single-quoted text is not converted.
	InVarAssignment bool

	StripQuotes    bool
	FieldSplit     bool
	PathnameExpand bool
	Heredoc        HeredocMode
}

// DefaultCommandWordFlags are the flags used for an ordinary command-line
// word: every stage runs.
func DefaultCommandWordFlags() ExpandFlags {
	return ExpandFlags{
		StripQuotes:    true,
		FieldSplit:     true,
		PathnameExpand: true,
	}
}

// AssignmentWordFlags are the flags used for the right-hand side of a
// variable assignment: no field splitting or pathname expansion ever
// applies to an assignment RHS. Tilde is expanded only at word start, as
// for any other word.
func AssignmentWordFlags() ExpandFlags {
	return ExpandFlags{
		InVarAssignment: true,
		StripQuotes:     true,
	}
}

// HeredocWordFlags are the flags for a here-document body: parameter,
// command and arithmetic expansion run, but never field splitting or
// pathname expansion. quoted marks whether the heredoc delimiter was quoted
// (in which case the body is copied verbatim, no expansion at all).
func HeredocWordFlags(quoted bool) ExpandFlags {
	if quoted {
		return ExpandFlags{Heredoc: HeredocQuoted}
	}
	return ExpandFlags{Heredoc: HeredocUnquoted, StripQuotes: true}
}
