package testutil

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

// MatchWordListSnapshot snapshots an expanded word list the way the rest of
// the pack's rule tests snapshot rule output, via gkampitakis/go-snaps.
// Run with UPDATE_SNAPS=true to create or refresh snapshots.
func MatchWordListSnapshot(tb testing.TB, words []string) {
	tb.Helper()
	snaps.MatchSnapshot(tb, words)
}
