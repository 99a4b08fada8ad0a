package testutil

import (
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// EqualText fails the test when got differs from want, reporting a
// character-level patch. It compares raw bytes, so tabs, trailing spaces
// and line endings all count.
func EqualText(tb testing.TB, want, got string) bool {
	tb.Helper()

	if want == got {
		return true
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(want, got, true)
	diffs = dmp.DiffCleanupSemanticLossless(diffs)
	patches := dmp.PatchMake(want, diffs)
	tb.Errorf("text mismatch (-want +got):\n%s", dmp.PatchToText(patches))
	return false
}
