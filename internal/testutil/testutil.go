// Package testutil provides test helpers for the expansion core, adapted
// from tally's internal/testutil table-driven-rule-test shape: the same
// "table of cases, assert on slices of results" pattern, applied to word
// lists instead of lint violations.
package testutil

import (
	"testing"
)

// ExpandTestCase defines a table-driven word-expansion test case.
type ExpandTestCase struct {
	// Name is the test case name.
	Name string

	// Input is the raw shell word text.
	Input string

	// Vars seeds a variable store before expansion.
	Vars map[string]string

	// Want is the expected expanded field list, in order.
	Want []string

	// WantErr, if true, means expansion is expected to return an error.
	WantErr bool
}

// AssertFields fails the test if got doesn't match want element-for-element.
func AssertFields(tb testing.TB, got, want []string) {
	tb.Helper()
	if len(got) != len(want) {
		tb.Errorf("got %d fields %v, want %d fields %v", len(got), got, len(want), want)
		return
	}
	for i := range want {
		if got[i] != want[i] {
			tb.Errorf("field[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// AssertNoError fails the test if err is non-nil, logging it.
func AssertNoError(tb testing.TB, err error) {
	tb.Helper()
	if err != nil {
		tb.Errorf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(tb testing.TB, err error) {
	tb.Helper()
	if err == nil {
		tb.Error("expected an error, got nil")
	}
}
