package cmd

import (
	"strings"

	"github.com/huangsam/patchrisk/core"
	"github.com/spf13/cobra"
)

// normalizeDiffIDs accepts both "123456" and the "D123456" form.
// Arguments that are not diff IDs, like a page path, pass through.
func normalizeDiffIDs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		a = strings.TrimSpace(a)
		if rest, ok := strings.CutPrefix(a, "D"); ok && rest != "" && strings.Trim(rest, "0123456789") == "" {
			a = rest
		}
		out[i] = a
	}
	return out
}

// methodsCmd runs the method pass for a diff.
var methodsCmd = &cobra.Command{
	Use:   "methods <diff-id>",
	Short: "Place the risky functions of a diff on its changed lines.",
	Long: `Fetch the method-level predictions of a diff and place each risky function
at the first displayed line at or past its start line.

The lines come from either a unified diff (--patch) numbered on the new side,
or a saved review page (--page). Functions that cannot be placed are listed
as unmatched.

Examples:
  # Match against a patch
  patchrisk methods 123456 --patch change.diff

  # Match against a saved review page and export CSV
  patchrisk methods 123456 --page D98765.html --output csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("methods", core.ExecuteMethods),
}
