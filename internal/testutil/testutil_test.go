package testutil

import (
	"errors"
	"testing"
)

func TestAssertFieldsMatch(t *testing.T) {
	AssertFields(t, []string{"a", "b"}, []string{"a", "b"})
}

func TestAssertFieldsLengthMismatch(t *testing.T) {
	fake := &fakeTB{}
	AssertFields(fake, []string{"a"}, []string{"a", "b"})
	if !fake.failed {
		t.Fatal("AssertFields should have reported a failure on length mismatch")
	}
}

func TestAssertFieldsElementMismatch(t *testing.T) {
	fake := &fakeTB{}
	AssertFields(fake, []string{"a", "x"}, []string{"a", "b"})
	if !fake.failed {
		t.Fatal("AssertFields should have reported a failure on element mismatch")
	}
}

func TestAssertNoErrorPasses(t *testing.T) {
	AssertNoError(t, nil)
}

func TestAssertNoErrorFails(t *testing.T) {
	fake := &fakeTB{}
	AssertNoError(fake, errors.New("boom"))
	if !fake.failed {
		t.Fatal("AssertNoError should have reported a failure on non-nil error")
	}
}

func TestAssertErrorFails(t *testing.T) {
	fake := &fakeTB{}
	AssertError(fake, nil)
	if !fake.failed {
		t.Fatal("AssertError should have reported a failure on nil error")
	}
}

// fakeTB is a minimal testing.TB stand-in that records whether a failure
// was reported, so the negative-path assertions above can be checked without
// actually failing the outer test.
type fakeTB struct {
	testing.TB
	failed bool
}

func (f *fakeTB) Helper()                          {}
func (f *fakeTB) Errorf(format string, args ...any) { f.failed = true }
func (f *fakeTB) Error(args ...any)                 { f.failed = true }
