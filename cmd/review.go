package cmd

import (
	"github.com/huangsam/patchrisk/core"
	"github.com/spf13/cobra"
)

// reviewCmd augments a saved review page.
var reviewCmd = &cobra.Command{
	Use:   "review <page.html>",
	Short: "Write the risk analysis into a saved review page.",
	Long: `Read a saved Phabricator revision page, find its diff and its "Diff Detail"
box, then write both passes into the page:

- The verdict box, with the feature narrative and waterfall chart,
  right after the "Diff Detail" box
- An inline note under the first line of every risky function

The passes run independently. If one fails, it is logged and the other
still writes its part. The page is written to --output-file, or stdout.

Examples:
  # Augment a page in place of a copy
  patchrisk review D98765.html --output-file D98765.risk.html

  # Track every review run in SQLite
  patchrisk review D98765.html --analysis-backend sqlite > out.html`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("review", core.ExecuteReview),
}
