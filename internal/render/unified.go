// ABOUTME: Classic unified diff output for scripting and pipes
// ABOUTME: Thin wrapper over go-difflib with the shared context size

package render

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Unified returns a unified diff of original against improved. Identical
// texts give an empty string.
func Unified(original, improved string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(improved),
		FromFile: "original",
		ToFile:   "improved",
		Context:  ContextLines,
	})
}
