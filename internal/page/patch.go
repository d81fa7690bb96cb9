package page

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/schema"
	"github.com/sourcegraph/go-diff/diff"
)

const devNull = "/dev/null"

// PatchDocument exposes a unified diff as file blocks numbered on the new side.
// Removed lines and hunk separators carry no number.
type PatchDocument struct {
	blocks []schema.FileBlock
}

var _ contract.Document = &PatchDocument{} // Compile-time check

// ParsePatch reads a multi-file unified diff.
func ParsePatch(r io.Reader) (*PatchDocument, error) {
	fileDiffs, err := diff.NewMultiFileDiffReader(r).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to parse patch: %w", err)
	}

	doc := &PatchDocument{}
	ref := 0
	for _, fd := range fileDiffs {
		block := schema.FileBlock{FileName: patchFileName(fd)}
		for i, hunk := range fd.Hunks {
			if i > 0 {
				block.Lines = append(block.Lines, schema.DisplayLine{Ref: ref})
				ref++
			}
			next := int(hunk.NewStartLine)
			for _, line := range bytes.Split(bytes.TrimSuffix(hunk.Body, []byte("\n")), []byte("\n")) {
				if len(line) > 0 && line[0] == '\\' {
					continue // "\ No newline at end of file"
				}
				dl := schema.DisplayLine{Ref: ref}
				if len(line) == 0 || line[0] != '-' {
					dl.Number, dl.HasNumber = next, true
					next++
				}
				block.Lines = append(block.Lines, dl)
				ref++
			}
		}
		doc.blocks = append(doc.blocks, block)
	}
	return doc, nil
}

// Headings implements the Document interface. A patch has none.
func (d *PatchDocument) Headings() []schema.Heading {
	return nil
}

// FileBlocks implements the Document interface.
func (d *PatchDocument) FileBlocks() []schema.FileBlock {
	return d.blocks
}

func patchFileName(fd *diff.FileDiff) string {
	name := fd.NewName
	if name == devNull || name == "" {
		name = fd.OrigName
	}
	for _, prefix := range []string{"a/", "b/"} {
		if trimmed, ok := strings.CutPrefix(name, prefix); ok {
			return trimmed
		}
	}
	return name
}
