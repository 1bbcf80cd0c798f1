package expand

import "context"

// VariableStore is the shell's shared symbol-table stack, consumed by the
// expansion core per spec.md §6. It is never owned by the core; subshells
// receive a copy-on-write snapshot delivered across the fork boundary by the
// Executor, not by this interface.
type VariableStore interface {
	Get(name string) (value string, set bool)
	Set(name, value string, exported bool) error
	Unset(name string) error
	IsReadonly(name string) bool
	EachNameWithPrefix(prefix string, visit func(name string))

	GetPositional(index int) (string, bool)
	CountPositional() int

	// LastArgument returns $_, the last argument of the previous simple
	// command (SPEC_FULL.md §4 supplement).
	LastArgument() string
	// LastBackgroundPID returns $!, a passthrough per original_source.
	LastBackgroundPID() string
}

// CaptureResult is the outcome of running a command and capturing its
// standard output, per spec.md §6's Executor contract.
type CaptureResult struct {
	Output     []byte
	ExitStatus int
}

// Executor is the opaque command-substitution executor the core calls into;
// it owns forking, the subshell environment, and trap-reset policy
// described in spec.md §4.4. The core never forks processes itself.
type Executor interface {
	RunCapturing(ctx context.Context, commandText string) (CaptureResult, error)
}

// OptionSet answers the boolean option queries spec.md §6 requires.
type OptionSet interface {
	NoUnset() bool
	NoGlob() bool
	NullGlob() bool
	FailGlob() bool
	NoCaseMatch() bool
	ExtGlob() bool
	DotGlob() bool
	GlobAsciiRanges() bool
	GlobStar() bool
	Brace() bool
	ErrExit() bool
	InheritErrExit() bool
	FuncTrace() bool
	ErrTrace() bool
	Interactive() bool
}

// Filesystem is the directory-listing, path-metadata, and home-directory
// lookup collaborator from spec.md §6. ReadLine backs the `$<` special
// parameter (SPEC_FULL.md §4 supplement) so the core has no direct TTY
// dependency (spec.md §9, "implicit dependency on terminal state").
type Filesystem interface {
	HomeDir(user string) (dir string, ok bool)
	ReadFile(path string) ([]byte, error)
	Glob(pattern string) ([]string, error)
	ReadLine() (line string, ok bool)
}

// PromptEvaluator backs ${P@P}, the only consumer of prompt-string
// expansion per spec.md §6.
type PromptEvaluator interface {
	EvaluatePrompt(raw string) (string, error)
}

// ArithmeticEvaluator is the collaborator spec.md §2 leaves unspecified
// ("not specified here... calls back into the Driver for variable lookup").
// internal/arith provides a concrete implementation; lookup and cmdSubst
// are supplied by the Driver so nested `$(( $(cmd) ))` and variable reads
// go through the same VariableStore/Executor as the rest of the word.
type ArithmeticEvaluator interface {
	Eval(ctx context.Context, expr string, lookup func(name string) (string, bool), cmdSubst func(text string) (string, error)) (int64, error)
}
