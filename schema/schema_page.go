package schema

// Heading is a page heading as exposed by a document.
// Ref is an opaque handle the document uses to find the heading again.
type Heading struct {
	Text string
	Ref  int
}

// Target is what a review page is about: the diff and the box to insert after.
type Target struct {
	DiffID string
	Anchor Heading
}

// DisplayLine is one row of a file block. Context separators have no number.
type DisplayLine struct {
	Number    int
	HasNumber bool
	Ref       int
}

// FileBlock is one file's changed lines within a multi-file diff.
type FileBlock struct {
	FileName string
	Lines    []DisplayLine
}

// MethodAnnotation is an inline note placed right after a display line.
type MethodAnnotation struct {
	FileName          string `json:"file_name"`
	MethodName        string `json:"method_name"`
	StartLine         int    `json:"start_line"`
	AnchorLine        int    `json:"anchor_line"`
	BlockIndex        int    `json:"block_index"`
	LineRef           int    `json:"-"`
	ConfidencePercent int    `json:"confidence_percent"`
	Text              string `json:"text"`
}

// VerdictBox is the rendered verdict inserted after the anchor box.
type VerdictBox struct {
	HeadingHTML string
	BodyHTML    string
}
