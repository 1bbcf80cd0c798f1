package expand

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/loshellproject/loshell/internal/ansic"
	"github.com/loshellproject/loshell/internal/arith"
	"github.com/loshellproject/loshell/internal/brace"
	"github.com/loshellproject/loshell/internal/cmdsubst"
	"github.com/loshellproject/loshell/internal/expand/param"
	"github.com/loshellproject/loshell/internal/fieldsplit"
	"github.com/loshellproject/loshell/internal/globber"
	"github.com/loshellproject/loshell/internal/pattern"
	"github.com/loshellproject/loshell/internal/quoteremove"
)

// Driver runs the full expansion pipeline spec.md §4 describes: a single
// left-to-right scan that interleaves tilde, parameter, command, and
// arithmetic expansion (§4.1's scanner model), followed by the three
// structural stages — field splitting, pathname expansion, and quote
// removal — each a dedicated sub-package.
type Driver struct {
	Vars    VariableStore
	Exec    Executor
	Opts    OptionSet
	FS      Filesystem
	Prompt  PromptEvaluator
	Arith   ArithmeticEvaluator
	IFS     func() string // returns the current $IFS value
}

// segment is one run of already-substituted text from the scan, tagged
// with the quoting it came from. Unquoted segments are eligible for field
// splitting and pathname expansion; quoted segments are not, and their
// glob metacharacters (if any survive, e.g. from a literal '*' typed inside
// quotes) are escaped via pattern.Quote before pathname expansion sees them.
type segment struct {
	text   string
	single bool
	double bool
	// boundary forces a field break immediately after this segment even
	// though it is quoted, used to keep the separate fields "$@" produces
	// (one per positional parameter) from gluing back together in
	// splitSegments.
	boundary bool
}

func (s segment) protected() bool { return s.single || s.double }

// Expand runs the full pipeline over raw (shell source text for one word,
// as delivered by the parser) and returns the resulting fields.
func (d *Driver) Expand(ctx context.Context, raw string, flags ExpandFlags) (WordList, error) {
	candidates := []string{raw}
	if flags.FieldSplit && d.braceEnabled() {
		candidates = brace.Expand(raw)
	}

	var out WordList
	for _, c := range candidates {
		words, err := d.expandOne(ctx, c, flags)
		if err != nil {
			return nil, err
		}
		out = append(out, words...)
	}
	return out, nil
}

func (d *Driver) braceEnabled() bool {
	return d.Opts != nil && d.Opts.Brace()
}

func (d *Driver) expandOne(ctx context.Context, raw string, flags ExpandFlags) (WordList, error) {
	if flags.Heredoc == HeredocQuoted {
		return WordList{{Value: raw}}, nil
	}
	segs, err := d.scan(ctx, []rune(raw), flags)
	if err != nil {
		return nil, err
	}

	segs = d.applyTilde(segs, flags)

	if !flags.FieldSplit {
		text := concatQuoteRemoved(segs)
		return WordList{{Value: text, HadSingleQuotes: anySingle(segs), HadDoubleQuotes: anyDouble(segs)}}, nil
	}

	fields := splitSegments(segs, d.currentIFS())
	if len(fields) == 0 {
		return nil, nil
	}

	var words WordList
	for _, f := range fields {
		text := concatQuoteRemoved(f)
		if flags.PathnameExpand && d.Opts != nil && !d.Opts.NoGlob() {
			globText := concatGlobEscaped(f)
			if pattern.HasMeta(globText) {
				matches, err := globber.Expand(d.FS, globText, d.globOptions())
				if err != nil {
					var noMatch *globber.NoMatchError
					if errors.As(err, &noMatch) {
						return nil, NewGlobFailedError(noMatch.Pattern)
					}
					return nil, err
				}
				for _, m := range matches {
					words = append(words, &Word{Value: m})
				}
				continue
			}
		}
		words = append(words, &Word{Value: text, HadSingleQuotes: anySingle(f), HadDoubleQuotes: anyDouble(f)})
	}
	return words, nil
}

func (d *Driver) currentIFS() string {
	if d.IFS != nil {
		return d.IFS()
	}
	return fieldsplit.DefaultIFS
}

func (d *Driver) globOptions() globber.Options {
	if d.Opts == nil {
		return globber.Options{}
	}
	var ignore, fignore []string
	if d.Vars != nil {
		if v, ok := d.Vars.Get("GLOBIGNORE"); ok && v != "" {
			ignore = strings.Split(v, ":")
		}
		if v, ok := d.Vars.Get("FIGNORE"); ok && v != "" {
			fignore = strings.Split(v, ":")
		}
	}
	return globber.Options{
		GlobIgnore:      ignore,
		FIgnore:         fignore,
		NoGlob:          d.Opts.NoGlob(),
		NullGlob:        d.Opts.NullGlob(),
		FailGlob:        d.Opts.FailGlob(),
		DotGlob:         d.Opts.DotGlob(),
		GlobStar:        d.Opts.GlobStar(),
		NoCaseMatch:     d.Opts.NoCaseMatch(),
		GlobAsciiRanges: d.Opts.GlobAsciiRanges(),
		ExtGlob:         d.Opts.ExtGlob(),
	}
}

// scan is the §4.1 interleaved pass: it walks raw rune by rune, tracking
// quote state, and dispatches to the parameter/command/arithmetic
// sub-expanders whenever it meets $ or a backtick.
func (d *Driver) scan(ctx context.Context, src []rune, flags ExpandFlags) ([]segment, error) {
	var segs []segment
	var cur strings.Builder
	curSingle, curDouble := false, false
	inSingle, inDouble := false, flags.InDoubleQuotes

	flush := func() {
		if cur.Len() > 0 {
			segs = append(segs, segment{text: cur.String(), single: curSingle, double: curDouble})
			cur.Reset()
		}
	}

	// emitPositional expands bare or braced $@/$*/${@}/${*}, per op ("@" or
	// "*"). Double-quoted "$@" is the one case the rest of the pipeline
	// cannot express as a single joined string: it must surface as one
	// protected field per positional parameter (spec.md §3, §8 scenario 4),
	// so the first and last values are merged into the surrounding text (the
	// way bash glues "pre$@post" into preArg1 ... ArgNpost) while any values
	// in between are pushed straight onto segs as their own boundary-forced
	// fields. That only matters when the result will actually go through
	// field splitting (flags.FieldSplit); in a context where it won't (a
	// variable assignment's right-hand side, an operand word), a scalar has
	// nowhere to put N separate fields, so "$@" there collapses exactly like
	// "$*" does. Everything else (unquoted $@, and $*/"$*" always) joins on
	// IFS's first character, exactly as an ordinary expansion result would.
	emitPositional := func(op string, quoted bool) {
		count := d.Vars.CountPositional()
		if op == "@" && quoted && flags.FieldSplit {
			if count == 0 {
				return
			}
			first, _ := d.Vars.GetPositional(1)
			cur.WriteString(first)
			curDouble = true
			if count == 1 {
				return
			}
			text := cur.String()
			cur.Reset()
			segs = append(segs, segment{text: text, double: true, boundary: true})
			for k := 2; k < count; k++ {
				v, _ := d.Vars.GetPositional(k)
				segs = append(segs, segment{text: v, double: true, boundary: true})
			}
			if count >= 2 {
				last, _ := d.Vars.GetPositional(count)
				cur.WriteString(last)
				curDouble = true
			}
			return
		}
		sep := d.ifsFirstChar()
		vals := make([]string, 0, count)
		for k := 1; k <= count; k++ {
			v, _ := d.Vars.GetPositional(k)
			vals = append(vals, v)
		}
		cur.WriteString(strings.Join(vals, sep))
		if quoted {
			curDouble = true
		}
	}

	n := len(src)
	for i := 0; i < n; i++ {
		r := src[i]

		if inSingle {
			if r == '\'' {
				inSingle = false
				curSingle = false
				continue
			}
			cur.WriteRune(r)
			continue
		}

		switch r {
		case '\'':
			if inDouble {
				cur.WriteRune(r)
				continue
			}
			flush()
			inSingle = true
			curSingle = true
			continue
		case '"':
			if inDouble && !flags.InDoubleQuotes {
				flush()
				inDouble = false
				curDouble = false
				continue
			}
			if !inDouble {
				flush()
				inDouble = true
				curDouble = true
				continue
			}
			cur.WriteRune(r)
			continue
		case '\\':
			if i+1 < n {
				if inDouble && !isDoubleQuoteEscapable(src[i+1]) {
					cur.WriteRune(r)
					continue
				}
				i++
				cur.WriteRune(src[i])
			}
			continue
		case '~':
			// tilde handled post-scan by applyTilde (needs segment position).
			cur.WriteRune(r)
			continue
		case '$':
			if i+1 < n && src[i+1] == '\'' {
				flush()
				end := findClosingQuote(src, i+2, '\'')
				value, err := ansic.Expand(string(src[i+2 : end]))
				if err != nil {
					return nil, newErr(ErrBadSubstitution, string(src[i:end+1]), err)
				}
				cur.WriteString(value)
				curSingle = true
				flush()
				curSingle = false
				i = end
				continue
			}
			if i+1 < n && src[i+1] == '"' {
				// $"..." locale-translated string: pass through untranslated.
				flush()
				end := findClosingQuote(src, i+2, '"')
				cur.WriteString(string(src[i+2 : end]))
				curDouble = inDouble
				flush()
				i = end
				continue
			}
			if i+1 < n && src[i+1] == '(' {
				if i+2 < n && src[i+2] == '(' {
					val, newPos, err := d.expandArith(ctx, src, i)
					if err != nil {
						// $((expr)) is tried as arithmetic first; only a
						// genuine parse failure (not a division-by-zero or
						// similar runtime error) falls back to the nested
						// $( (expr) ) command-substitution reading.
						var synErr *arith.SyntaxError
						if !errors.As(err, &synErr) {
							return nil, err
						}
						val, newPos, err = d.expandCmdSubstParen(ctx, src, i)
						if err != nil {
							return nil, err
						}
					}
					cur.WriteString(val)
					i = newPos - 1
					continue
				}
				val, newPos, err := d.expandCmdSubstParen(ctx, src, i)
				if err != nil {
					return nil, err
				}
				cur.WriteString(val)
				i = newPos - 1
				continue
			}
			if i+1 < n && src[i+1] == '{' {
				if body, ok := plainPositionalBody(src, i); ok {
					end := findBalanced(src, i+1, '{', '}')
					emitPositional(body, inDouble)
					i = end
					continue
				}
				val, newPos, err := d.expandBraceParam(ctx, src, i, flags)
				if err != nil {
					return nil, err
				}
				cur.WriteString(val)
				i = newPos - 1
				continue
			}
			if i+1 < n && (src[i+1] == '@' || src[i+1] == '*') {
				emitPositional(string(src[i+1]), inDouble)
				i++
				continue
			}
			if i+1 < n && isBareNameStart(src[i+1]) {
				val, newPos, err := d.expandBareParam(ctx, src, i, flags)
				if err != nil {
					return nil, err
				}
				cur.WriteString(val)
				i = newPos - 1
				continue
			}
			cur.WriteRune('$')
			continue
		case '`':
			val, newPos, err := d.expandBacktick(ctx, src, i)
			if err != nil {
				return nil, err
			}
			cur.WriteString(val)
			i = newPos - 1
			continue
		default:
			cur.WriteRune(r)
		}
	}
	if inSingle || (inDouble && !flags.InDoubleQuotes) {
		return nil, newErr(ErrUnbalancedQuote, string(src), nil)
	}
	flush()
	return segs, nil
}

func isDoubleQuoteEscapable(r rune) bool {
	switch r {
	case '$', '`', '"', '\\', '\n':
		return true
	}
	return false
}

func isBareNameStart(r rune) bool {
	switch r {
	case '@', '*', '#', '?', '-', '$', '!', '<':
		return true
	}
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func findClosingQuote(src []rune, from int, q rune) int {
	for i := from; i < len(src); i++ {
		if src[i] == '\\' && i+1 < len(src) {
			i++
			continue
		}
		if src[i] == q {
			return i
		}
	}
	return len(src)
}

// findBalanced returns the index of the ')' (or '}') that matches the
// opener at src[open], counting nested (/{ of the same kind and ignoring
// characters inside single quotes.
func findBalanced(src []rune, open int, openCh, closeCh rune) int {
	depth := 1
	inSingle := false
	for i := open + 1; i < len(src); i++ {
		if inSingle {
			if src[i] == '\'' {
				inSingle = false
			}
			continue
		}
		switch src[i] {
		case '\'':
			inSingle = true
		case '\\':
			i++
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(src)
}

// plainPositionalBody reports whether the ${...} construct starting at
// src[dollarPos] is a bare ${@} or ${*} with no operator attached, the one
// braced form that gets the same "$@" treatment as the unbraced special
// parameter rather than going through param.Expander.
func plainPositionalBody(src []rune, dollarPos int) (string, bool) {
	open := dollarPos + 1
	end := findBalanced(src, open, '{', '}')
	body := strings.TrimSpace(string(src[open+1 : end]))
	if body == "@" || body == "*" {
		return body, true
	}
	return "", false
}

func (d *Driver) expandArith(ctx context.Context, src []rune, dollarPos int) (string, int, error) {
	end := findBalanced(src, dollarPos+1, '(', ')')
	// end points to the outer ')' of "$((...))"; the inner ')' immediately
	// precedes it, so the expression text is the slice between the two
	// opening and the two closing parens.
	inner := string(src[dollarPos+3 : end-1])
	if d.Arith == nil {
		return "", 0, newErr(ErrSubstitutionFailed, inner, fmt.Errorf("no arithmetic evaluator configured"))
	}
	lookup := func(name string) (string, bool) { return d.Vars.Get(name) }
	csub := func(text string) (string, error) {
		return cmdsubst.Run(ctx, execAdapter{d.Exec}, text, cmdsubst.Options{})
	}
	v, err := d.Arith.Eval(ctx, inner, lookup, csub)
	if err != nil {
		return "", 0, newErr(ErrSubstitutionFailed, inner, err)
	}
	return fmt.Sprintf("%d", v), end + 1, nil
}

func (d *Driver) expandCmdSubstParen(ctx context.Context, src []rune, dollarPos int) (string, int, error) {
	open := dollarPos + 1
	end := findBalanced(src, open, '(', ')')
	inner := string(src[open+1 : end])
	val, err := d.runCmdSubst(ctx, inner)
	if err != nil {
		return "", 0, err
	}
	return val, end + 1, nil
}

func (d *Driver) expandBacktick(ctx context.Context, src []rune, tick int) (string, int, error) {
	end := tick + 1
	for end < len(src) && src[end] != '`' {
		if src[end] == '\\' && end+1 < len(src) {
			end++
		}
		end++
	}
	inner := strings.ReplaceAll(string(src[tick+1:end]), `\`+"`", "`")
	val, err := d.runCmdSubst(ctx, inner)
	if err != nil {
		return "", 0, err
	}
	if end < len(src) {
		end++
	}
	return val, end, nil
}

// runCmdSubst handles the $(<file) shortcut before falling back to
// spawning a subshell through Exec. There is no $(N<#) shortcut: that text
// goes to Exec like any other command.
func (d *Driver) runCmdSubst(ctx context.Context, inner string) (string, error) {
	trimmed := strings.TrimSpace(inner)
	if strings.HasPrefix(trimmed, "<") {
		path := strings.TrimSpace(trimmed[1:])
		val, err := cmdsubst.RunFromFile(d.FS.ReadFile, path)
		if err != nil {
			return "", newErr(ErrSubstitutionFailed, inner, err)
		}
		return val, nil
	}
	if d.Exec == nil {
		return "", newErr(ErrSubstitutionFailed, inner, fmt.Errorf("no executor configured"))
	}
	val, err := cmdsubst.Run(ctx, execAdapter{d.Exec}, inner, cmdsubst.Options{})
	if err != nil {
		return "", newErr(ErrSubstitutionFailed, inner, err)
	}
	return val, nil
}

func (d *Driver) expandBraceParam(ctx context.Context, src []rune, dollarPos int, flags ExpandFlags) (string, int, error) {
	open := dollarPos + 1
	end := findBalanced(src, open, '{', '}')
	body := string(src[open+1 : end])
	exp := &param.Expander{
		Store:          storeAdapter{d.Vars},
		ExpandRaw:      d.expandRawSub(ctx, flags),
		NoUnset:        d.Opts != nil && d.Opts.NoUnset(),
		PositionalSep:  d.ifsFirstChar(),
		ReadLine:       d.readLine,
		EvaluatePrompt: d.evaluatePrompt,
		PatternOptions: param.PatternOptions{
			NoCaseMatch:     d.Opts != nil && d.Opts.NoCaseMatch(),
			ExtGlob:         d.Opts != nil && d.Opts.ExtGlob(),
			GlobAsciiRanges: d.Opts != nil && d.Opts.GlobAsciiRanges(),
		},
	}
	res, err := exp.Expand(ctx, body)
	if err != nil {
		return "", 0, newErr(ErrBadSubstitution, body, err)
	}
	if res.IsArray {
		return strings.Join(res.Values, d.ifsFirstChar()), end + 1, nil
	}
	return res.Value, end + 1, nil
}

// ifsFirstChar is the separator "$*"-shaped results join on: the first
// character of $IFS, or "" when IFS is explicitly set empty (spec.md §3).
func (d *Driver) ifsFirstChar() string {
	ifs := d.currentIFS()
	if ifs == "" {
		return ""
	}
	return string([]rune(ifs)[0])
}

func (d *Driver) readLine() (string, bool) {
	if d.FS == nil {
		return "", false
	}
	return d.FS.ReadLine()
}

func (d *Driver) evaluatePrompt(raw string) (string, error) {
	if d.Prompt == nil {
		return raw, nil
	}
	return d.Prompt.EvaluatePrompt(raw)
}

func (d *Driver) expandBareParam(ctx context.Context, src []rune, dollarPos int, flags ExpandFlags) (string, int, error) {
	i := dollarPos + 1
	if isSingleCharSpecial(src[i]) {
		name := string(src[i])
		val, _ := d.lookupSpecial(name)
		return val, i + 1, nil
	}
	start := i
	for i < len(src) && isNameContRune(src[i]) {
		i++
	}
	name := string(src[start:i])
	if name == "_" {
		val, _ := d.lookupSpecial(name)
		return val, i, nil
	}
	val, set := d.Vars.Get(name)
	if !set && d.Opts != nil && d.Opts.NoUnset() {
		return "", 0, newErr(ErrUnset, name, nil)
	}
	return val, i, nil
}

func (d *Driver) lookupSpecial(name string) (string, bool) {
	switch name {
	case "_":
		return d.Vars.LastArgument(), true
	case "!":
		return d.Vars.LastBackgroundPID(), true
	case "#":
		return fmt.Sprintf("%d", d.Vars.CountPositional()), true
	case "<":
		if d.FS == nil {
			return "", false
		}
		return d.FS.ReadLine()
	case "@", "*":
		// Reached only if something calls expandBareParam directly for
		// these names; scan's dispatch handles "$@"/"$*" itself (see
		// emitPositional) before this is ever consulted.
		n := d.Vars.CountPositional()
		sep := d.ifsFirstChar()
		vals := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			v, _ := d.Vars.GetPositional(i)
			vals = append(vals, v)
		}
		return strings.Join(vals, sep), true
	}
	if len(name) == 1 && name[0] >= '0' && name[0] <= '9' {
		return d.Vars.GetPositional(int(name[0] - '0'))
	}
	return "", false
}

func isSingleCharSpecial(r rune) bool {
	switch r {
	case '@', '*', '#', '?', '-', '$', '!', '<':
		return true
	}
	return r >= '0' && r <= '9'
}

func isNameContRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// expandRawSub builds the WordExpander callback param.Expander uses for
// operand words (the `word` in :-, :=, ?, +, and pattern operands); it
// reuses scan directly rather than round-tripping through Expand, since
// operand text must not itself be field-split or globbed.
func (d *Driver) expandRawSub(ctx context.Context, flags ExpandFlags) param.WordExpander {
	return func(ctx context.Context, raw string) (string, error) {
		sub := flags
		sub.FieldSplit = false
		sub.PathnameExpand = false
		segs, err := d.scan(ctx, []rune(raw), sub)
		if err != nil {
			return "", err
		}
		return concatQuoteRemoved(segs), nil
	}
}

// applyTilde expands a leading ~ (and ~user) at the start of the word,
// per spec.md §4's scope. Only a ~ at the very start of the word is
// expanded; a ~ after '=' or ':' is left as is, even when InVarAssignment
// is set.
func (d *Driver) applyTilde(segs []segment, flags ExpandFlags) []segment {
	if len(segs) == 0 || segs[0].protected() || d.FS == nil {
		return segs
	}
	text := segs[0].text
	if !strings.HasPrefix(text, "~") {
		return segs
	}
	rest := text[1:]
	end := strings.IndexAny(rest, "/")
	userPart := rest
	tail := ""
	if end >= 0 {
		userPart = rest[:end]
		tail = rest[end:]
	}
	dir, ok := d.FS.HomeDir(userPart)
	if !ok {
		return segs
	}
	segs[0].text = dir + tail
	return segs
}

// storeAdapter narrows VariableStore to param.Store's smaller surface.
type storeAdapter struct{ VariableStore }

// execAdapter converts an Executor's CaptureResult to cmdsubst's own
// identically-shaped local type, since Go does not let an expand.Executor
// satisfy cmdsubst.Executor directly — their methods return distinct named
// struct types even though the fields match.
type execAdapter struct{ Executor }

func (a execAdapter) RunCapturing(ctx context.Context, commandText string) (cmdsubst.CaptureResult, error) {
	res, err := a.Executor.RunCapturing(ctx, commandText)
	return cmdsubst.CaptureResult{Output: res.Output, ExitStatus: res.ExitStatus}, err
}

func concatQuoteRemoved(segs []segment) string {
	parts := make([]quoteremove.Part, len(segs))
	for i, s := range segs {
		parts[i] = quoteremove.Part{Text: s.text, Single: s.single, Double: s.double}
	}
	return quoteremove.RemoveFromParts(parts)
}

func concatGlobEscaped(segs []segment) string {
	var b strings.Builder
	for _, s := range segs {
		if s.protected() {
			b.WriteString(pattern.Quote(s.text))
		} else {
			b.WriteString(s.text)
		}
	}
	return b.String()
}

func anySingle(segs []segment) bool {
	for _, s := range segs {
		if s.single {
			return true
		}
	}
	return false
}

func anyDouble(segs []segment) bool {
	for _, s := range segs {
		if s.double {
			return true
		}
	}
	return false
}

// splitSegments performs IFS field splitting across a slice of segments,
// treating quoted segments as unsplittable literal content that glues to
// its neighboring field rather than introducing a boundary — the
// segment-aware extension fieldsplit.Split itself does not need, since
// that package only ever sees one quoting context at a time.
func splitSegments(segs []segment, ifs string) [][]segment {
	var fields [][]segment
	var cur []segment
	haveField := false

	appendLiteral := func(s segment) {
		cur = append(cur, s)
		haveField = true
	}
	flush := func() {
		if haveField {
			fields = append(fields, cur)
			cur = nil
			haveField = false
		}
	}

	for _, s := range segs {
		if s.protected() {
			if s.text == "" && !haveField {
				haveField = true
			}
			appendLiteral(s)
			if s.boundary {
				flush()
			}
			continue
		}
		parts := fieldsplit.Split(s.text, ifs)
		if len(parts) == 0 {
			if strings.TrimSpace(s.text) == "" {
				flush()
			}
			continue
		}
		leadingSep := ifs != "" && len(s.text) > 0 && isIFSRune(rune(s.text[0]), ifs)
		if leadingSep {
			flush()
		}
		for idx, p := range parts {
			if idx > 0 {
				flush()
			}
			appendLiteral(segment{text: p})
		}
	}
	flush()
	return fields
}

func isIFSRune(r rune, ifs string) bool {
	return strings.ContainsRune(ifs, r)
}
