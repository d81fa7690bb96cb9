package outwriter

import (
	"os"

	"github.com/huangsam/patchrisk/internal/contract"
	"golang.org/x/term"
)

// Fixed column budgets, including borders and padding.
const (
	methodFixedWidth  = 45 // Line + Function + Confidence
	featureFixedWidth = 95 // Rank + Value + Qualifier + Evidence + Direction + Segment
	tableSlackWidth   = 20
	minColumnWidth    = 15
	maxColumnWidth    = 70
)

// terminalWidth returns the width override or the detected terminal width.
func terminalWidth(cfg *contract.Config) int {
	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		// Conservative default for narrow terminals and CI
		return 80
	}
	return detectedWidth
}

// GetMaxTablePathWidth calculates the maximum width for file paths in the methods table
// based on terminal width.
func GetMaxTablePathWidth(cfg *contract.Config) int {
	return clampColumn(terminalWidth(cfg) - methodFixedWidth - tableSlackWidth)
}

// GetMaxFeatureNameWidth calculates the maximum width for feature names in the
// explanation table.
func GetMaxFeatureNameWidth(cfg *contract.Config) int {
	return clampColumn(terminalWidth(cfg) - featureFixedWidth - tableSlackWidth)
}

func clampColumn(available int) int {
	if available < minColumnWidth {
		return minColumnWidth
	}
	if available > maxColumnWidth {
		return maxColumnWidth
	}
	return available
}

// truncateText shortens free text from the right, keeping the start readable.
func truncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}
