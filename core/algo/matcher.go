package algo

import (
	"fmt"

	"github.com/huangsam/patchrisk/schema"
)

// MatchMethods places each pending method at the first display line of its
// file whose number is at or past the method's start line.
//
// Blocks and lines are visited in display order and lines without a number are
// skipped. At every line the pending list is scanned from the end, so several
// methods can retire at the same line. Matching stops as soon as nothing is
// pending. Annotations that share a line come back in pending-list order, which
// is also the order they read from top to bottom once inserted.
//
// The pending slice is not modified; the records left unmatched are returned.
func MatchMethods(pending []schema.MethodRiskRecord, blocks []schema.FileBlock) ([]schema.MethodAnnotation, []schema.MethodRiskRecord) {
	remaining := make([]schema.MethodRiskRecord, len(pending))
	copy(remaining, pending)

	var annotations []schema.MethodAnnotation

	for bi, block := range blocks {
		if len(remaining) == 0 {
			break
		}
		for _, line := range block.Lines {
			if !line.HasNumber {
				continue
			}

			var atLine []schema.MethodAnnotation
			for i := len(remaining) - 1; i >= 0; i-- {
				m := remaining[i]
				if m.FileName != block.FileName || m.StartLine > line.Number {
					continue
				}
				atLine = append(atLine, annotate(m, bi, line))
				remaining = append(remaining[:i], remaining[i+1:]...)
			}

			// The backward scan found them last-first.
			for i := len(atLine) - 1; i >= 0; i-- {
				annotations = append(annotations, atLine[i])
			}

			if len(remaining) == 0 {
				break
			}
		}
	}

	return annotations, remaining
}

func annotate(m schema.MethodRiskRecord, blockIndex int, line schema.DisplayLine) schema.MethodAnnotation {
	confidence := toPercent(m.Confidence)
	return schema.MethodAnnotation{
		FileName:          m.FileName,
		MethodName:        m.MethodName,
		StartLine:         m.StartLine,
		AnchorLine:        line.Number,
		BlockIndex:        blockIndex,
		LineRef:           line.Ref,
		ConfidencePercent: confidence,
		Text:              AnnotationText(m.MethodName, confidence),
	}
}

// AnnotationText is the inline note for a risky function.
func AnnotationText(methodName string, confidencePercent int) string {
	return fmt.Sprintf("The function '%s' is risky (%d%% confidence).", methodName, confidencePercent)
}
