// Package param implements parameter expansion, the ${...} forms spec.md
// §4.2 tabulates: plain and indirect name lookup, the four unset/null
// fallback operators (:-, :=, :?, :+), length (#), substring removal
// (#, ##, %, %%), substitution (/, //, /#, /%), case conversion
// (^, ^^, ,, ,,), substring extraction (:offset[:length]), the name-prefix
// queries (${!prefix*}, ${!prefix@}), and the ${name@op} info operators
// SPEC_FULL.md's original_source supplement adds.
//
// Grounded on spec.md §4.2's operator table plus the retrieved
// ganbarodigital-go-shellexpand token-parsing shape for splitting a
// ${...} body into name/operator/word components; the per-operator
// semantics beyond that shape are original_source-derived (parameter.c's
// operator dispatch), since no pack library implements shell parameter
// expansion directly.
package param

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/loshellproject/loshell/internal/pattern"
)

// Store is the subset of expand.VariableStore param needs; declared
// locally so this package does not import expand (avoiding an import
// cycle, since expand will import param).
type Store interface {
	Get(name string) (string, bool)
	Set(name, value string, exported bool) error
	Unset(name string) error
	IsReadonly(name string) bool
	EachNameWithPrefix(prefix string, visit func(name string))
	GetPositional(index int) (string, bool)
	CountPositional() int
}

// WordExpander is called to expand a nested word (the `word` operand of
// :-, :=, ?, +, the pattern operand of #/##/%/%%, etc.): parameter,
// command and arithmetic substitutions inside the operand are expanded and
// quotes removed, but the operand is not field split or globbed.
type WordExpander func(ctx context.Context, raw string) (string, error)

// PatternOptions carries the subset of OptionSet that affects pattern-based
// operators (#, ##, %, %%, /, //, /#, /%, and the case-conversion forms
// when their argument is itself a pattern).
type PatternOptions struct {
	NoCaseMatch     bool
	ExtGlob         bool
	GlobAsciiRanges bool
}

// Expander evaluates ${...} bodies.
type Expander struct {
	Store     Store
	ExpandRaw WordExpander
	NoUnset   bool
	// PositionalSep is the separator used when "@"/"*" must collapse to a
	// single string for an operator other than plain lookup (${@:-x},
	// ${@/pat/repl}, ...): the first character of $IFS, or "" when IFS is
	// set-but-empty. Callers that want the unset-IFS default (space) must
	// set this explicitly; the zero value matches an empty IFS.
	PositionalSep string
	// ReadLine backs ${<}, the read-one-line-from-stdin special parameter
	// (SPEC_FULL.md §4 supplement). Left nil, ${<} behaves as unset.
	ReadLine func() (string, bool)
	// EvaluatePrompt backs ${x@P}, spec.md §4.2's prompt-string info
	// operator. Left nil, ${x@P} returns the value unchanged.
	EvaluatePrompt func(raw string) (string, error)
	PatternOptions
}

// Result is the outcome of expanding one ${...} body.
type Result struct {
	Value   string
	IsSet   bool
	IsArray bool     // true for ${@}/${*} and ${!prefix@}-style list results
	Values  []string // populated instead of Value when IsArray
}

// Expand evaluates body, the text between the outermost { and } of a
// ${...} construct (braces already balanced by the caller).
func (e *Expander) Expand(ctx context.Context, body string) (Result, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Result{}, fmt.Errorf("param: empty substitution")
	}

	if strings.HasPrefix(body, "!") {
		return e.expandBang(ctx, body[1:])
	}

	if body == "#" {
		// ${#}: number of positional parameters, same as $#.
		return Result{Value: strconv.Itoa(e.Store.CountPositional()), IsSet: true}, nil
	}
	if strings.HasPrefix(body, "#") {
		// ${#name}: length of name's value.
		return e.length(body[1:], "")
	}

	name, rest, op := splitNameAndOp(body)

	val, isSet := e.lookup(name)

	switch op {
	case "":
		return e.plain(name, val, isSet)
	case ":-", "-":
		return e.unsetOrNullDefault(ctx, name, val, isSet, rest, op == ":-")
	case ":=", "=":
		return e.assignDefault(ctx, name, val, isSet, rest, op == ":=")
	case ":?", "?":
		return e.errorIfUnset(ctx, name, val, isSet, rest, op == ":?")
	case ":+", "+":
		return e.alternateValue(ctx, val, isSet, rest, op == ":+")
	case "#", "##":
		return e.trimPrefix(ctx, val, rest, op == "##")
	case "%", "%%":
		return e.trimSuffix(ctx, val, rest, op == "%%")
	case "/", "//", "/#", "/%":
		return e.substitute(ctx, val, rest, op)
	case "^", "^^", ",", ",,":
		return e.caseConvert(ctx, val, rest, op)
	case "@":
		return e.infoOperator(val, isSet, rest)
	case ":":
		return e.substring(ctx, val, isSet, rest)
	}
	return Result{}, fmt.Errorf("param: bad substitution %q", body)
}

func (e *Expander) lookup(name string) (string, bool) {
	switch name {
	case "@", "*":
		n := e.Store.CountPositional()
		vals := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			v, _ := e.Store.GetPositional(i)
			vals = append(vals, v)
		}
		return strings.Join(vals, e.PositionalSep), n > 0
	case "#":
		return strconv.Itoa(e.Store.CountPositional()), true
	case "<":
		if e.ReadLine == nil {
			return "", false
		}
		return e.ReadLine()
	}
	if n, err := strconv.Atoi(name); err == nil {
		return e.Store.GetPositional(n)
	}
	return e.Store.Get(name)
}

func (e *Expander) plain(name, val string, isSet bool) (Result, error) {
	if name == "@" || name == "*" {
		n := e.Store.CountPositional()
		vals := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			v, _ := e.Store.GetPositional(i)
			vals = append(vals, v)
		}
		return Result{IsArray: true, Values: vals, IsSet: n > 0}, nil
	}
	if !isSet && e.NoUnset {
		return Result{}, fmt.Errorf("param: %s: unbound variable", name)
	}
	return Result{Value: val, IsSet: isSet}, nil
}

func (e *Expander) length(name, _ string) (Result, error) {
	if name == "@" || name == "*" {
		return Result{Value: strconv.Itoa(e.Store.CountPositional()), IsSet: true}, nil
	}
	val, isSet := e.lookup(name)
	if !isSet && e.NoUnset {
		return Result{}, fmt.Errorf("param: %s: unbound variable", name)
	}
	return Result{Value: strconv.Itoa(len([]rune(val))), IsSet: true}, nil
}

func (e *Expander) expandBang(ctx context.Context, rest string) (Result, error) {
	// ${!prefix*} / ${!prefix@}: list of variable names with that prefix.
	if strings.HasSuffix(rest, "*") || strings.HasSuffix(rest, "@") {
		sep := " "
		prefix := rest[:len(rest)-1]
		var names []string
		e.Store.EachNameWithPrefix(prefix, func(n string) { names = append(names, n) })
		return Result{Value: strings.Join(names, sep), IsArray: true, Values: names, IsSet: len(names) > 0}, nil
	}
	// ${!name}: indirect reference — name's value is itself a variable name.
	target, isSet := e.lookup(rest)
	if !isSet {
		if e.NoUnset {
			return Result{}, fmt.Errorf("param: %s: unbound variable", rest)
		}
		return Result{}, nil
	}
	val, isSet := e.lookup(target)
	return Result{Value: val, IsSet: isSet}, nil
}

func (e *Expander) unsetOrNullDefault(ctx context.Context, name, val string, isSet bool, wordRaw string, alsoNull bool) (Result, error) {
	needDefault := !isSet || (alsoNull && val == "")
	if !needDefault {
		return Result{Value: val, IsSet: true}, nil
	}
	word, err := e.ExpandRaw(ctx, wordRaw)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: word, IsSet: true}, nil
}

func (e *Expander) assignDefault(ctx context.Context, name, val string, isSet bool, wordRaw string, alsoNull bool) (Result, error) {
	needDefault := !isSet || (alsoNull && val == "")
	if !needDefault {
		return Result{Value: val, IsSet: true}, nil
	}
	word, err := e.ExpandRaw(ctx, wordRaw)
	if err != nil {
		return Result{}, err
	}
	if isSpecialOrPositional(name) {
		return Result{}, fmt.Errorf("param: %s: cannot assign in this way", name)
	}
	if e.Store.IsReadonly(name) {
		return Result{}, fmt.Errorf("param: %s: readonly variable", name)
	}
	if err := e.Store.Set(name, word, false); err != nil {
		return Result{}, err
	}
	return Result{Value: word, IsSet: true}, nil
}

func (e *Expander) errorIfUnset(ctx context.Context, name, val string, isSet bool, wordRaw string, alsoNull bool) (Result, error) {
	needError := !isSet || (alsoNull && val == "")
	if !needError {
		return Result{Value: val, IsSet: true}, nil
	}
	msg, err := e.ExpandRaw(ctx, wordRaw)
	if err != nil {
		return Result{}, err
	}
	if msg == "" {
		msg = "parameter null or not set"
	}
	return Result{}, fmt.Errorf("param: %s: %s", name, msg)
}

func (e *Expander) alternateValue(ctx context.Context, val string, isSet bool, wordRaw string, alsoNull bool) (Result, error) {
	useAlt := isSet && (!alsoNull || val != "")
	if !useAlt {
		return Result{Value: "", IsSet: isSet}, nil
	}
	word, err := e.ExpandRaw(ctx, wordRaw)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: word, IsSet: true}, nil
}

func (e *Expander) trimPrefix(ctx context.Context, val, patRaw string, longest bool) (Result, error) {
	patText, err := e.ExpandRaw(ctx, patRaw)
	if err != nil {
		return Result{}, err
	}
	p, err := pattern.Compile(patText, e.patOpts())
	if err != nil {
		return Result{Value: val, IsSet: true}, nil
	}
	n, ok := p.MatchPrefix(val, longest)
	if !ok {
		return Result{Value: val, IsSet: true}, nil
	}
	runes := []rune(val)
	return Result{Value: string(runes[n:]), IsSet: true}, nil
}

func (e *Expander) trimSuffix(ctx context.Context, val, patRaw string, longest bool) (Result, error) {
	patText, err := e.ExpandRaw(ctx, patRaw)
	if err != nil {
		return Result{}, err
	}
	p, err := pattern.Compile(patText, e.patOpts())
	if err != nil {
		return Result{Value: val, IsSet: true}, nil
	}
	n, ok := p.MatchSuffix(val, longest)
	if !ok {
		return Result{Value: val, IsSet: true}, nil
	}
	runes := []rune(val)
	return Result{Value: string(runes[:len(runes)-n]), IsSet: true}, nil
}

func (e *Expander) substitute(ctx context.Context, val, rest, op string) (Result, error) {
	patRaw, replRaw, hasRepl := splitOnUnescapedSlash(rest)
	patText, err := e.ExpandRaw(ctx, patRaw)
	if err != nil {
		return Result{}, err
	}
	var repl string
	if hasRepl {
		repl, err = e.ExpandRaw(ctx, replRaw)
		if err != nil {
			return Result{}, err
		}
	}
	anchorStart := op == "/#"
	anchorEnd := op == "/%"
	all := op == "//"

	p, err := pattern.Compile(patText, e.patOpts())
	if err != nil {
		return Result{Value: val, IsSet: true}, nil
	}

	runes := []rune(val)
	var b strings.Builder
	i := 0
	replaced := false
	for i <= len(runes) {
		if anchorStart && i > 0 {
			break
		}
		if n, ok := p.MatchPrefix(string(runes[i:]), true); ok && (!anchorEnd || i+n == len(runes)) {
			b.WriteString(repl)
			i += n
			replaced = true
			if !all {
				b.WriteString(string(runes[i:]))
				return Result{Value: b.String(), IsSet: true}, nil
			}
			if n == 0 {
				if i < len(runes) {
					b.WriteRune(runes[i])
				}
				i++
			}
			continue
		}
		if i < len(runes) {
			b.WriteRune(runes[i])
		}
		i++
	}
	if !replaced {
		return Result{Value: val, IsSet: true}, nil
	}
	return Result{Value: b.String(), IsSet: true}, nil
}

func (e *Expander) caseConvert(ctx context.Context, val, patRaw, op string) (Result, error) {
	all := op == "^^" || op == ",,"
	upper := op == "^" || op == "^^"

	patText := "?"
	if strings.TrimSpace(patRaw) != "" {
		var err error
		patText, err = e.ExpandRaw(ctx, patRaw)
		if err != nil {
			return Result{}, err
		}
	}
	p, err := pattern.Compile(patText, e.patOpts())
	if err != nil {
		return Result{Value: val, IsSet: true}, nil
	}

	runes := []rune(val)
	var b strings.Builder
	for i, r := range runes {
		if !all && i > 0 {
			b.WriteRune(r)
			continue
		}
		if p.Matches(string(r)) {
			if upper {
				b.WriteString(strings.ToUpper(string(r)))
			} else {
				b.WriteString(strings.ToLower(string(r)))
			}
		} else {
			b.WriteRune(r)
		}
	}
	return Result{Value: b.String(), IsSet: true}, nil
}

func (e *Expander) infoOperator(val string, isSet bool, op string) (Result, error) {
	switch op {
	case "Q":
		return Result{Value: pattern.Quote(val), IsSet: isSet}, nil
	case "U":
		return Result{Value: strings.ToUpper(val), IsSet: isSet}, nil
	case "L":
		return Result{Value: strings.ToLower(val), IsSet: isSet}, nil
	case "E":
		return Result{Value: val, IsSet: isSet}, nil
	case "A":
		return Result{Value: "", IsSet: isSet}, nil
	case "P":
		if e.EvaluatePrompt == nil {
			return Result{Value: val, IsSet: isSet}, nil
		}
		prompt, err := e.EvaluatePrompt(val)
		if err != nil {
			return Result{}, err
		}
		return Result{Value: prompt, IsSet: isSet}, nil
	}
	return Result{}, fmt.Errorf("param: unknown @%s operator", op)
}

func (e *Expander) substring(ctx context.Context, val string, isSet bool, rest string) (Result, error) {
	offsetRaw, lengthRaw, hasLength := strings.Cut(rest, ":")
	offset, err := e.parseOffset(ctx, offsetRaw)
	if err != nil {
		return Result{}, err
	}
	runes := []rune(val)
	n := len(runes)
	if offset < 0 {
		offset += n
		if offset < 0 {
			offset = 0
		}
	}
	if offset > n {
		offset = n
	}
	if !hasLength {
		return Result{Value: string(runes[offset:]), IsSet: isSet}, nil
	}
	length, err := e.parseOffset(ctx, lengthRaw)
	if err != nil {
		return Result{}, err
	}
	end := offset + length
	if length < 0 {
		end = n + length
	}
	if end < offset {
		end = offset
	}
	if end > n {
		end = n
	}
	return Result{Value: string(runes[offset:end]), IsSet: isSet}, nil
}

func (e *Expander) parseOffset(ctx context.Context, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	expanded, err := e.ExpandRaw(ctx, raw)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(expanded))
	if err != nil {
		return 0, fmt.Errorf("param: bad offset %q", raw)
	}
	return n, nil
}

func (e *Expander) patOpts() pattern.Options {
	return pattern.Options{
		NoCaseMatch:     e.NoCaseMatch,
		ExtGlob:         e.ExtGlob,
		GlobAsciiRanges: e.GlobAsciiRanges,
	}
}

func isSpecialOrPositional(name string) bool {
	if name == "" {
		return true
	}
	switch name {
	case "@", "*", "#", "?", "-", "$", "!", "0", "<":
		return true
	}
	if _, err := strconv.Atoi(name); err == nil {
		return true
	}
	return false
}

// splitNameAndOp splits a ${...} body into its name and operator+operand
// text. It scans for the first operator token, respecting that names are
// alphanumeric/underscore (or one of the single-character special params).
func splitNameAndOp(body string) (name, rest, op string) {
	i := 0
	n := len(body)
	if i < n && isSpecialParamChar(rune(body[i])) {
		name = string(body[i])
		i++
	} else {
		for i < n && isNameChar(rune(body[i])) {
			i++
		}
		name = body[:i]
	}
	if i >= n {
		return name, "", ""
	}
	remaining := body[i:]
	for _, candidate := range []string{":-", ":=", ":?", ":+", "##", "%%", "//", "/#", "/%", "^^", ",,", "-", "=", "?", "+", "#", "%", "/", "^", ",", "@", ":"} {
		if strings.HasPrefix(remaining, candidate) {
			return name, remaining[len(candidate):], candidate
		}
	}
	return name, remaining, ""
}

func isNameChar(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isSpecialParamChar(r rune) bool {
	switch r {
	case '@', '*', '#', '?', '-', '$', '!', '<':
		return true
	}
	return r >= '0' && r <= '9'
}

// splitOnUnescapedSlash splits a /pattern/repl body on the first unescaped
// '/', returning hasRepl=false when there is no replacement part (bare
// deletion form ${var/pattern}).
func splitOnUnescapedSlash(s string) (pat, repl string, hasRepl bool) {
	esc := false
	for i, r := range s {
		if esc {
			esc = false
			continue
		}
		if r == '\\' {
			esc = true
			continue
		}
		if r == '/' {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}
