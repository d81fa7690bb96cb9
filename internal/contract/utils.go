package contract

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Color variables for console output.
var (
	RiskyColor    = color.New(color.FgRed, color.Bold) // RiskyColor marks a risky verdict or contribution.
	NotRiskyColor = color.New(color.FgBlue)            // NotRiskyColor marks the opposite direction.
	InfoColor     = color.New(color.FgCyan)            // InfoColor is used for links and notes.
)

// GetColorLabel returns a colored label for console output (table).
func GetColorLabel(text string, risky bool) string {
	if risky {
		return RiskyColor.Sprint(text)
	}
	return NotRiskyColor.Sprint(text)
}

// DirectionLabel returns the plain label for the direction of a contribution.
func DirectionLabel(risky bool) string {
	if risky {
		return "increases risk"
	}
	return "decreases risk"
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// LogInfo logs an informational message to stderr.
func LogInfo(msg string) {
	_, _ = fmt.Fprintf(os.Stderr, "Info %s\n", msg)
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 so there is room for the "..." prefix and at least one character.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
