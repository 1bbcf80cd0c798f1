package param

import (
	"context"
	"testing"
)

type fakeStore struct {
	vars       map[string]string
	readonly   map[string]bool
	positional []string
}

func (s *fakeStore) Get(name string) (string, bool) {
	v, ok := s.vars[name]
	return v, ok
}
func (s *fakeStore) Set(name, value string, exported bool) error {
	if s.vars == nil {
		s.vars = map[string]string{}
	}
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
func (s *fakeStore) CountPositional() int { return len(s.positional) }

func identityExpand(ctx context.Context, raw string) (string, error) {
	return raw, nil
}

func newExpander(store *fakeStore) *Expander {
	return &Expander{Store: store, ExpandRaw: identityExpand}
}

func TestPlainLookup(t *testing.T) {
	store := &fakeStore{vars: map[string]string{"FOO": "bar"}}
	e := newExpander(store)
	r, err := e.Expand(context.Background(), "FOO")
	if err != nil || r.Value != "bar" || !r.IsSet {
		t.Fatalf("got %+v, %v", r, err)
	}
}

func TestLength(t *testing.T) {
	store := &fakeStore{vars: map[string]string{"FOO": "hello"}}
	e := newExpander(store)
	r, err := e.Expand(context.Background(), "#FOO")
	if err != nil || r.Value != "5" {
		t.Fatalf("got %+v, %v", r, err)
	}
}

func TestDefaultValue(t *testing.T) {
	store := &fakeStore{}
	e := newExpander(store)
	r, err := e.Expand(context.Background(), "FOO:-fallback")
	if err != nil || r.Value != "fallback" {
		t.Fatalf("got %+v, %v", r, err)
	}
	if _, set := store.Get("FOO"); set {
		t.Errorf(":- must not assign")
	}
}

func TestAssignDefault(t *testing.T) {
	store := &fakeStore{}
	e := newExpander(store)
	r, err := e.Expand(context.Background(), "FOO:=fallback")
	if err != nil || r.Value != "fallback" {
		t.Fatalf("got %+v, %v", r, err)
	}
	if v, _ := store.Get("FOO"); v != "fallback" {
		t.Errorf(":= must assign, got %q", v)
	}
}

func TestErrorIfUnset(t *testing.T) {
	store := &fakeStore{}
	e := newExpander(store)
	_, err := e.Expand(context.Background(), "FOO:?custom message")
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestAlternateValue(t *testing.T) {
	store := &fakeStore{vars: map[string]string{"FOO": "x"}}
	e := newExpander(store)
	r, err := e.Expand(context.Background(), "FOO:+alt")
	if err != nil || r.Value != "alt" {
		t.Fatalf("got %+v, %v", r, err)
	}
}

func TestTrimPrefixSuffix(t *testing.T) {
	store := &fakeStore{vars: map[string]string{"FOO": "hello.tar.gz"}}
	e := newExpander(store)
	r, _ := e.Expand(context.Background(), "FOO%.gz")
	if r.Value != "hello.tar" {
		t.Errorf("%%pattern got %q, want hello.tar", r.Value)
	}
	r, _ = e.Expand(context.Background(), "FOO%%.*")
	if r.Value != "hello" {
		t.Errorf("%%%%pattern got %q, want hello", r.Value)
	}
	r, _ = e.Expand(context.Background(), "FOO#*.")
	if r.Value != "tar.gz" {
		t.Errorf("#pattern got %q, want tar.gz", r.Value)
	}
}

func TestSubstitute(t *testing.T) {
	store := &fakeStore{vars: map[string]string{"FOO": "aXbXc"}}
	e := newExpander(store)
	r, err := e.Expand(context.Background(), "FOO/X/-")
	if err != nil || r.Value != "a-bXc" {
		t.Errorf("got %q, %v, want a-bXc", r.Value, err)
	}
	r, err = e.Expand(context.Background(), "FOO//X/-")
	if err != nil || r.Value != "a-b-c" {
		t.Errorf("got %q, %v, want a-b-c", r.Value, err)
	}
}

func TestSubstring(t *testing.T) {
	store := &fakeStore{vars: map[string]string{"FOO": "abcdef"}}
	e := newExpander(store)
	r, err := e.Expand(context.Background(), "FOO:1:3")
	if err != nil || r.Value != "bcd" {
		t.Errorf("got %q, %v, want bcd", r.Value, err)
	}
}

func TestCaseConvert(t *testing.T) {
	store := &fakeStore{vars: map[string]string{"FOO": "hello"}}
	e := newExpander(store)
	r, _ := e.Expand(context.Background(), "FOO^")
	if r.Value != "Hello" {
		t.Errorf("got %q, want Hello", r.Value)
	}
	r, _ = e.Expand(context.Background(), "FOO^^")
	if r.Value != "HELLO" {
		t.Errorf("got %q, want HELLO", r.Value)
	}
}

func TestIndirect(t *testing.T) {
	store := &fakeStore{vars: map[string]string{"FOO": "BAR", "BAR": "baz"}}
	e := newExpander(store)
	r, err := e.Expand(context.Background(), "!FOO")
	if err != nil || r.Value != "baz" {
		t.Errorf("got %+v, %v", r, err)
	}
}

func TestPrefixNames(t *testing.T) {
	store := &fakeStore{vars: map[string]string{"FOO_A": "1", "FOO_B": "2", "BAR": "3"}}
	e := newExpander(store)
	r, err := e.Expand(context.Background(), "!FOO_*")
	if err != nil || len(r.Values) != 2 {
		t.Errorf("got %+v, %v", r, err)
	}
}

func TestPositionalAndLength(t *testing.T) {
	store := &fakeStore{positional: []string{"one", "two"}}
	e := newExpander(store)
	r, err := e.Expand(context.Background(), "1")
	if err != nil || r.Value != "one" {
		t.Errorf("got %+v, %v", r, err)
	}
	r, err = e.Expand(context.Background(), "#")
	if err != nil || r.Value != "2" {
		t.Errorf("got %+v, %v", r, err)
	}
}

func TestNoUnsetError(t *testing.T) {
	store := &fakeStore{}
	e := newExpander(store)
	e.NoUnset = true
	_, err := e.Expand(context.Background(), "MISSING")
	if err == nil {
		t.Errorf("expected unbound variable error")
	}
}
