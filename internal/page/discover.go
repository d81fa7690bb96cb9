// Package page reads review pages and patches and writes the results back into them.
package page

import (
	"regexp"

	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/schema"
)

// DiffDetailText is the heading of the box the verdict is inserted after.
const DiffDetailText = "Diff Detail"

var diffIDPattern = regexp.MustCompile(`Diff (\d+)`)

// DiscoverTarget finds the diff ID and the anchor heading on a page.
// The last heading mentioning a diff number wins, and so does the last
// "Diff Detail" heading.
func DiscoverTarget(doc contract.Document) (schema.Target, error) {
	var (
		target    schema.Target
		hasAnchor bool
	)

	for _, h := range doc.Headings() {
		if h.Text == DiffDetailText {
			target.Anchor = h
			hasAnchor = true
			continue
		}
		if m := diffIDPattern.FindStringSubmatch(h.Text); m != nil {
			target.DiffID = m[1]
		}
	}

	if target.DiffID == "" {
		return schema.Target{}, &contract.PreconditionError{What: contract.MissingDiffID}
	}
	if !hasAnchor {
		return schema.Target{}, &contract.PreconditionError{What: contract.MissingDiffDetailBox}
	}
	return target, nil
}
