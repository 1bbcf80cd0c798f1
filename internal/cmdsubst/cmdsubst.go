// Package cmdsubst implements command substitution, spec.md §4.4: running a
// command and capturing its standard output as the expansion result, for
// both $(...) and the legacy `...` forms, plus the $(<file) shortcut
// (RunFromFile) SPEC_FULL.md §4 supplements from original_source. There is
// no ${ } or $(N<#) shortcut.
//
// Retry wiring is grounded on internal/registry/async_resolver.go's use of
// github.com/cenkalti/backoff/v5: that file retries a flaky network
// resolver with backoff.Retry plus backoff.Permanent to mark
// non-retryable errors. Command substitution adapts the same shape for a
// different transient failure: spec.md §4.4 classifies failure to even
// start the subshell (as opposed to a nonzero exit status, which is not an
// error) as ErrSubstitutionFailed, and such startup failures are retried
// with backoff, a bounded number of times, when the Executor reports them
// as transient (e.g. a resource shortage forking the subshell).
package cmdsubst

import (
	"bytes"
	"context"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v5"
)

// Executor is the subset of expand.Executor cmdsubst needs, declared
// locally to avoid an import cycle with internal/expand.
type Executor interface {
	RunCapturing(ctx context.Context, commandText string) (CaptureResult, error)
}

// CaptureResult mirrors expand.CaptureResult.
type CaptureResult struct {
	Output     []byte
	ExitStatus int
}

// TransientError is returned by an Executor to indicate the failure was in
// starting the subshell itself (fork/exec resource pressure) rather than
// the command's own exit status, making it worth a bounded retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Reader is the Filesystem-backed file-opener $(<file) needs; declared
// locally for the same reason as Executor above.
type Reader func(path string) ([]byte, error)

// Options controls substitution behavior.
type Options struct {
	MaxRetries int           // default 3 when zero
	RetryDelay time.Duration // base backoff delay; default 10ms when zero
}

// Run executes commandText via exec, capturing and trimming its output per
// spec.md §4.4: one or more trailing newlines are always stripped,
// regardless of IFS or quoting context.
func Run(ctx context.Context, exec Executor, commandText string, opts Options) (string, error) {
	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	delay := opts.RetryDelay
	if delay == 0 {
		delay = 10 * time.Millisecond
	}

	result, err := backoff.Retry(ctx, func() (CaptureResult, error) {
		res, err := exec.RunCapturing(ctx, commandText)
		if err == nil {
			return res, nil
		}
		var transient *TransientError
		if ok := asTransient(err, &transient); !ok {
			return CaptureResult{}, backoff.Permanent(err)
		}
		return CaptureResult{}, err
	}, backoff.WithMaxTries(uint(maxRetries)), backoff.WithBackOff(backoff.NewConstantBackOff(delay)))
	if err != nil {
		return "", fmt.Errorf("cmdsubst: %w", err)
	}
	return TrimTrailingNewlines(result.Output), nil
}

func asTransient(err error, target **TransientError) bool {
	for err != nil {
		if t, ok := err.(*TransientError); ok {
			*target = t
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// TrimTrailingNewlines strips a trailing run of \r and \n from output, per
// spec.md §4.4 invariant #7.
func TrimTrailingNewlines(output []byte) string {
	out := output
	for len(out) > 0 && (out[len(out)-1] == '\n' || out[len(out)-1] == '\r') {
		out = out[:len(out)-1]
	}
	return string(out)
}

// RunFromFile implements the $(<file) shortcut: read the file directly with
// no subshell, trimming trailing newlines identically to Run, per
// SPEC_FULL.md §4's "$(<file) trims identically to $(cat file)" decision.
func RunFromFile(read Reader, path string) (string, error) {
	data, err := read(path)
	if err != nil {
		return "", fmt.Errorf("cmdsubst: %w", err)
	}
	return TrimTrailingNewlines(data), nil
}

// HasTrailingCR reports whether b ends in \r\n, used by callers that need
// to warn about CRLF line endings inside command-substitution output
// before TrimTrailingNewlines silently removes it (spec.md §9 notes this as
// a frequent Windows-authored-script surprise).
func HasTrailingCR(b []byte) bool {
	return bytes.HasSuffix(b, []byte("\r\n"))
}
