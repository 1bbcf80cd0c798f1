package expand

import (
	"context"
	"errors"
	"testing"

	"github.com/loshellproject/loshell/internal/arith"
)

type fakeStore struct {
	vars       map[string]string
	readonly   map[string]bool
	positional []string
	lastArg    string
}

func newFakeStore() *fakeStore { return &fakeStore{vars: map[string]string{}} }

func (s *fakeStore) Get(name string) (string, bool) {
	v, ok := s.vars[name]
	return v, ok
}
func (s *fakeStore) Set(name, value string, exported bool) error {
	s.vars[name] = value
	return nil
}
func (s *fakeStore) Unset(name string) error {
	delete(s.vars, name)
	return nil
}
func (s *fakeStore) IsReadonly(name string) bool { return s.readonly[name] }
func (s *fakeStore) EachNameWithPrefix(prefix string, visit func(string)) {
	for k := range s.vars {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			visit(k)
		}
	}
}
func (s *fakeStore) GetPositional(i int) (string, bool) {
	if i < 1 || i > len(s.positional) {
		return "", false
	}
	return s.positional[i-1], true
}
func (s *fakeStore) CountPositional() int     { return len(s.positional) }
func (s *fakeStore) LastArgument() string     { return s.lastArg }
func (s *fakeStore) LastBackgroundPID() string { return "" }

type fakeOpts struct {
	noUnset, noGlob, nullGlob, failGlob, noCase, extGlob, dotGlob, asciiRanges, globStar, brace bool
}

func (o fakeOpts) NoUnset() bool          { return o.noUnset }
func (o fakeOpts) NoGlob() bool           { return o.noGlob }
func (o fakeOpts) NullGlob() bool         { return o.nullGlob }
func (o fakeOpts) FailGlob() bool         { return o.failGlob }
func (o fakeOpts) NoCaseMatch() bool      { return o.noCase }
func (o fakeOpts) ExtGlob() bool          { return o.extGlob }
func (o fakeOpts) DotGlob() bool          { return o.dotGlob }
func (o fakeOpts) GlobAsciiRanges() bool  { return o.asciiRanges }
func (o fakeOpts) GlobStar() bool         { return o.globStar }
func (o fakeOpts) Brace() bool            { return o.brace }
func (o fakeOpts) ErrExit() bool          { return false }
func (o fakeOpts) InheritErrExit() bool   { return false }
func (o fakeOpts) FuncTrace() bool        { return false }
func (o fakeOpts) ErrTrace() bool         { return false }
func (o fakeOpts) Interactive() bool      { return false }

type fakeFS struct {
	homes   map[string]string
	files   map[string][]byte
	globs   map[string][]string
	lines   []string
	lineIdx int
}

func (f *fakeFS) HomeDir(user string) (string, bool) {
	d, ok := f.homes[user]
	return d, ok
}
func (f *fakeFS) ReadFile(path string) ([]byte, error) { return f.files[path], nil }
func (f *fakeFS) Glob(pattern string) ([]string, error) { return f.globs[pattern], nil }
func (f *fakeFS) ReadLine() (string, bool) {
	if f.lineIdx >= len(f.lines) {
		return "", false
	}
	line := f.lines[f.lineIdx]
	f.lineIdx++
	return line, true
}

func newDriver(vars map[string]string) (*Driver, *fakeStore) {
	store := newFakeStore()
	for k, v := range vars {
		store.vars[k] = v
	}
	d := &Driver{
		Vars: store,
		Opts: fakeOpts{},
		FS:   &fakeFS{homes: map[string]string{"": "/home/user"}},
	}
	return d, store
}

func TestExpandPlainWord(t *testing.T) {
	d, _ := newDriver(nil)
	got, err := d.Expand(context.Background(), "hello", DefaultCommandWordFlags())
	if err != nil || got.Strings()[0] != "hello" {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestExpandVariable(t *testing.T) {
	d, _ := newDriver(map[string]string{"FOO": "bar"})
	got, err := d.Expand(context.Background(), "$FOO", DefaultCommandWordFlags())
	if err != nil || got.Strings()[0] != "bar" {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestExpandBraceParameter(t *testing.T) {
	d, _ := newDriver(map[string]string{"FOO": "bar"})
	got, err := d.Expand(context.Background(), "${FOO}baz", DefaultCommandWordFlags())
	if err != nil || got.Strings()[0] != "barbaz" {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestExpandParameterDefault(t *testing.T) {
	d, _ := newDriver(nil)
	got, err := d.Expand(context.Background(), "${MISSING:-fallback}", DefaultCommandWordFlags())
	if err != nil || got.Strings()[0] != "fallback" {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestExpandSingleQuotesSuppressExpansion(t *testing.T) {
	d, _ := newDriver(map[string]string{"FOO": "bar"})
	got, err := d.Expand(context.Background(), `'$FOO'`, DefaultCommandWordFlags())
	if err != nil || got.Strings()[0] != "$FOO" {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestExpandDoubleQuotesAllowSubstitution(t *testing.T) {
	d, _ := newDriver(map[string]string{"FOO": "bar"})
	got, err := d.Expand(context.Background(), `"$FOO baz"`, DefaultCommandWordFlags())
	if err != nil || got.Strings()[0] != "bar baz" {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestExpandFieldSplitting(t *testing.T) {
	d, _ := newDriver(map[string]string{"FOO": "one two three"})
	got, err := d.Expand(context.Background(), "$FOO", DefaultCommandWordFlags())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	strs := got.Strings()
	want := []string{"one", "two", "three"}
	if len(strs) != len(want) {
		t.Fatalf("got %v, want %v", strs, want)
	}
	for i := range want {
		if strs[i] != want[i] {
			t.Errorf("got %v, want %v", strs, want)
		}
	}
}

func TestExpandQuotedFieldNotSplit(t *testing.T) {
	d, _ := newDriver(map[string]string{"FOO": "one two three"})
	got, err := d.Expand(context.Background(), `"$FOO"`, DefaultCommandWordFlags())
	if err != nil || len(got) != 1 || got.Strings()[0] != "one two three" {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestExpandTilde(t *testing.T) {
	d, _ := newDriver(nil)
	got, err := d.Expand(context.Background(), "~/bin", DefaultCommandWordFlags())
	if err != nil || got.Strings()[0] != "/home/user/bin" {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestExpandArithmetic(t *testing.T) {
	d, _ := newDriver(nil)
	d.Arith = arithStub{}
	got, err := d.Expand(context.Background(), "$((1+2))", DefaultCommandWordFlags())
	if err != nil || got.Strings()[0] != "3" {
		t.Fatalf("got %v, %v", got, err)
	}
}

type arithStub struct{}

func (arithStub) Eval(ctx context.Context, expr string, lookup func(string) (string, bool), cmdSubst func(string) (string, error)) (int64, error) {
	return 3, nil
}

func TestExpandGlobbing(t *testing.T) {
	d, _ := newDriver(nil)
	d.FS = &fakeFS{globs: map[string][]string{"*.go": {"b.go", "a.go"}}}
	got, err := d.Expand(context.Background(), "*.go", DefaultCommandWordFlags())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	strs := got.Strings()
	if len(strs) != 2 || strs[0] != "a.go" || strs[1] != "b.go" {
		t.Errorf("got %v", strs)
	}
}

func TestExpandUnmatchedGlobIsLiteral(t *testing.T) {
	d, _ := newDriver(nil)
	d.FS = &fakeFS{globs: map[string][]string{}}
	got, err := d.Expand(context.Background(), "*.absent", DefaultCommandWordFlags())
	if err != nil || got.Strings()[0] != "*.absent" {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestExpandNoUnsetErrors(t *testing.T) {
	d, _ := newDriver(nil)
	d.Opts = fakeOpts{noUnset: true}
	_, err := d.Expand(context.Background(), "$MISSING", DefaultCommandWordFlags())
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestExpandBacktickCommandSubst(t *testing.T) {
	d, _ := newDriver(nil)
	d.Exec = fakeExec{out: "hi\n"}
	got, err := d.Expand(context.Background(), "`echo hi`", DefaultCommandWordFlags())
	if err != nil || got.Strings()[0] != "hi" {
		t.Fatalf("got %v, %v", got, err)
	}
}

type fakeExec struct{ out string }

func (f fakeExec) RunCapturing(ctx context.Context, commandText string) (CaptureResult, error) {
	return CaptureResult{Output: []byte(f.out)}, nil
}

func TestExpandQuotedAtSignIsOneFieldPerPositional(t *testing.T) {
	d, store := newDriver(nil)
	store.positional = []string{"a b", "c"}
	got, err := d.Expand(context.Background(), `"$@"`, DefaultCommandWordFlags())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	strs := got.Strings()
	want := []string{"a b", "c"}
	if len(strs) != len(want) || strs[0] != want[0] || strs[1] != want[1] {
		t.Fatalf("got %v, want %v", strs, want)
	}
}

func TestExpandQuotedAtSignGluesSurroundingText(t *testing.T) {
	d, store := newDriver(nil)
	store.positional = []string{"one", "two", "three"}
	got, err := d.Expand(context.Background(), `pre"$@"post`, DefaultCommandWordFlags())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	strs := got.Strings()
	want := []string{"preone", "two", "threepost"}
	if len(strs) != len(want) {
		t.Fatalf("got %v, want %v", strs, want)
	}
	for i := range want {
		if strs[i] != want[i] {
			t.Errorf("got %v, want %v", strs, want)
		}
	}
}

func TestExpandUnquotedAtSignFieldSplits(t *testing.T) {
	d, store := newDriver(nil)
	store.positional = []string{"one two", "three"}
	got, err := d.Expand(context.Background(), `$@`, DefaultCommandWordFlags())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	strs := got.Strings()
	want := []string{"one", "two", "three"}
	if len(strs) != len(want) {
		t.Fatalf("got %v, want %v", strs, want)
	}
	for i := range want {
		if strs[i] != want[i] {
			t.Errorf("got %v, want %v", strs, want)
		}
	}
}

func TestExpandQuotedStarJoinsOnIFS(t *testing.T) {
	d, store := newDriver(nil)
	store.positional = []string{"a", "b", "c"}
	got, err := d.Expand(context.Background(), `"$*"`, DefaultCommandWordFlags())
	if err != nil || len(got) != 1 || got.Strings()[0] != "a b c" {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestExpandBracedStarJoinsOnIFSFirstChar(t *testing.T) {
	d, store := newDriver(nil)
	store.positional = []string{"a", "b", "c"}
	d.IFS = func() string { return ":," }
	got, err := d.Expand(context.Background(), `"${*}"`, DefaultCommandWordFlags())
	if err != nil || len(got) != 1 || got.Strings()[0] != "a:b:c" {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestExpandQuotedAtSignInAssignmentCollapsesLikeStar(t *testing.T) {
	d, store := newDriver(nil)
	store.positional = []string{"a", "b", "c"}
	got, err := d.Expand(context.Background(), `"$@"`, AssignmentWordFlags())
	if err != nil || len(got) != 1 || got.Strings()[0] != "a b c" {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestExpandPromptOperator(t *testing.T) {
	d, _ := newDriver(map[string]string{"PS1": `\u@host`})
	d.Prompt = fakePrompt{}
	got, err := d.Expand(context.Background(), "${PS1@P}", DefaultCommandWordFlags())
	if err != nil || got.Strings()[0] != "me@host" {
		t.Fatalf("got %v, %v", got, err)
	}
}

type fakePrompt struct{}

func (fakePrompt) EvaluatePrompt(raw string) (string, error) {
	return "me@host", nil
}

func TestExpandReadLineSpecialParameter(t *testing.T) {
	d, _ := newDriver(nil)
	d.FS = &fakeFS{lines: []string{"typed input"}}
	got, err := d.Expand(context.Background(), "$<", DefaultCommandWordFlags())
	if err != nil || got.Strings()[0] != "typed" {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestExpandBracedReadLineSpecialParameter(t *testing.T) {
	d, _ := newDriver(nil)
	d.FS = &fakeFS{lines: []string{"whole line here"}}
	got, err := d.Expand(context.Background(), `"${<}"`, DefaultCommandWordFlags())
	if err != nil || len(got) != 1 || got.Strings()[0] != "whole line here" {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestExpandArithFallsBackToCommandSubstOnSyntaxError(t *testing.T) {
	d, _ := newDriver(nil)
	d.Arith = arithSyntaxErrStub{}
	d.Exec = fakeExec{out: "4\n"}
	got, err := d.Expand(context.Background(), "$((echo 4))", DefaultCommandWordFlags())
	if err != nil || got.Strings()[0] != "4" {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestExpandArithSemanticErrorDoesNotFallBack(t *testing.T) {
	d, _ := newDriver(nil)
	d.Arith = arithSemanticErrStub{}
	_, err := d.Expand(context.Background(), "$((1/0))", DefaultCommandWordFlags())
	if err == nil {
		t.Fatalf("expected error")
	}
}

type arithSyntaxErrStub struct{}

func (arithSyntaxErrStub) Eval(ctx context.Context, expr string, lookup func(string) (string, bool), cmdSubst func(string) (string, error)) (int64, error) {
	return 0, &arith.SyntaxError{}
}

type arithSemanticErrStub struct{}

func (arithSemanticErrStub) Eval(ctx context.Context, expr string, lookup func(string) (string, bool), cmdSubst func(string) (string, error)) (int64, error) {
	return 0, errors.New("arith: division by zero")
}
