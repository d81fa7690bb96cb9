package cmd

import (
	"github.com/huangsam/patchrisk/core"
	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/spf13/cobra"
)

// runExecutor adapts a core executor to a cobra Run function.
func runExecutor(what string, execute core.ExecutorFunc) func(*cobra.Command, []string) {
	return func(_ *cobra.Command, args []string) {
		if err := execute(rootCtx, cfg, cacheManager, normalizeDiffIDs(args)); err != nil {
			contract.LogFatal("Cannot run "+what, err)
		}
	}
}

// verdictCmd runs the overall pass for one or more diffs.
var verdictCmd = &cobra.Command{
	Use:   "verdict <diff-id>...",
	Short: "Show the risk verdict and the features behind it.",
	Long: `Fetch the classification artifacts of each diff and explain them.

For every diff this prints:
- The verdict, Risky or Not risky, with its confidence
- Up to --max-explained features whose evidence backs the verdict
- The waterfall segment of each explained feature
- A link to the most important features considered by the model

Diffs are fetched concurrently. A diff whose features are not published yet
is still reported with its verdict.

Examples:
  # Explain one diff
  patchrisk verdict 123456

  # Explain several diffs with stricter evidence
  patchrisk verdict 123456 123457 --percentile-threshold 0.7

  # Render the verdict boxes as a standalone HTML page
  patchrisk verdict 123456 --output html --output-file verdict.html`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("verdict", core.ExecuteVerdict),
}
