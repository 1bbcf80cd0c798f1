// Package runtime provides concrete, process-backed implementations of the
// expand package's collaborator interfaces (VariableStore, Executor,
// Filesystem), for use by cmd/loshell. The expansion core in internal/expand
// never imports this package directly (spec.md §6's collaborator-interface
// boundary keeps process/job/IO concerns out of the core); only the CLI
// wires the two together.
package runtime

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/loshellproject/loshell/internal/cmdsubst"
	"github.com/loshellproject/loshell/internal/expand"
)

// Store is an in-memory VariableStore seeded from the process environment,
// the shape internal/config.Load's env-provider layering mirrors for shell
// options: the process environment is just another configuration layer.
type Store struct {
	mu         sync.RWMutex
	vars       map[string]string
	readonly   map[string]bool
	positional []string
	lastArg    string
	lastBgPID  string
}

// NewStore builds a Store seeded from os.Environ().
func NewStore(args []string) *Store {
	s := &Store{
		vars:       map[string]string{},
		readonly:   map[string]bool{},
		positional: append([]string(nil), args...),
	}
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			s.vars[kv[:i]] = kv[i+1:]
		}
	}
	return s
}

func (s *Store) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	return v, ok
}

func (s *Store) Set(name, value string, exported bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readonly[name] {
		return &expand.ExpansionError{Kind: expand.ErrAssignForbidden, Token: name}
	}
	s.vars[name] = value
	if exported {
		_ = os.Setenv(name, value)
	}
	return nil
}

func (s *Store) Unset(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readonly[name] {
		return &expand.ExpansionError{Kind: expand.ErrAssignForbidden, Token: name}
	}
	delete(s.vars, name)
	return nil
}

func (s *Store) IsReadonly(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readonly[name]
}

func (s *Store) MarkReadonly(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readonly[name] = true
}

func (s *Store) EachNameWithPrefix(prefix string, visit func(string)) {
	s.mu.RLock()
	names := make([]string, 0, len(s.vars))
	for k := range s.vars {
		if strings.HasPrefix(k, prefix) {
			names = append(names, k)
		}
	}
	s.mu.RUnlock()
	sort.Strings(names)
	for _, n := range names {
		visit(n)
	}
}

func (s *Store) GetPositional(index int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 1 || index > len(s.positional) {
		return "", false
	}
	return s.positional[index-1], true
}

func (s *Store) CountPositional() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.positional)
}

func (s *Store) LastArgument() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastArg
}

func (s *Store) SetLastArgument(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastArg = v
}

func (s *Store) LastBackgroundPID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastBgPID
}

func (s *Store) SetLastBackgroundPID(pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastBgPID = strconv.Itoa(pid)
}

// SubshellExecutor runs command substitutions by spawning the host $SHELL
// (falling back to /bin/sh), mirroring how a real interactive shell forks a
// subshell for $(...) rather than reimplementing job control itself.
type SubshellExecutor struct {
	Shell string // defaults to $SHELL, then /bin/sh
}

func (e *SubshellExecutor) shellPath() string {
	if e.Shell != "" {
		return e.Shell
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

func (e *SubshellExecutor) RunCapturing(ctx context.Context, commandText string) (expand.CaptureResult, error) {
	cmd := exec.CommandContext(ctx, e.shellPath(), "-c", commandText)
	out, err := cmd.Output()
	status := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		status = exitErr.ExitCode()
		err = nil
	} else if err != nil {
		return expand.CaptureResult{}, &cmdsubst.TransientError{Err: err}
	}
	return expand.CaptureResult{Output: out, ExitStatus: status}, err
}

// Filesystem implements expand.Filesystem against the real OS filesystem.
type Filesystem struct{}

func (Filesystem) HomeDir(userName string) (string, bool) {
	if userName == "" {
		if home, err := os.UserHomeDir(); err == nil {
			return home, true
		}
		return "", false
	}
	u, err := user.Lookup(userName)
	if err != nil {
		return "", false
	}
	return u.HomeDir, true
}

func (Filesystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (Filesystem) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

// stdinLines is shared across every Filesystem value (they're all
// zero-sized) so repeated $< reads advance through the same stdin stream
// rather than each re-wrapping os.Stdin from byte zero.
var stdinLines = bufio.NewScanner(os.Stdin)

func (Filesystem) ReadLine() (string, bool) {
	if !stdinLines.Scan() {
		return "", false
	}
	return stdinLines.Text(), true
}
