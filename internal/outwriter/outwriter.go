// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteVerdicts prints overall pass reports using the configured output format.
func (ow *OutWriter) WriteVerdicts(reports []schema.VerdictReport, cfg *contract.Config, duration time.Duration) error {
	return PrintVerdictResults(reports, cfg, duration)
}

// WriteMethods prints a method pass report using the configured output format.
func (ow *OutWriter) WriteMethods(report schema.MethodReport, cfg *contract.Config, duration time.Duration) error {
	return PrintMethodResults(report, cfg, duration)
}
