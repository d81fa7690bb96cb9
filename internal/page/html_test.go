package page

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadRevision(t *testing.T) *HTMLDocument {
	t.Helper()
	f, err := os.Open("testdata/revision.html")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	doc, err := ParseHTML(f)
	require.NoError(t, err)
	return doc
}

func render(t *testing.T, doc contract.MutableDocument) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, doc.Render(&buf))
	return buf.String()
}

func TestHTMLDocumentHeadings(t *testing.T) {
	doc := loadRevision(t)
	assert.Equal(t, []schema.Heading{
		{Text: "Revision Contents", Ref: 0},
		{Text: "Diff Detail", Ref: 1},
		{Text: "Diff 5678", Ref: 2},
	}, doc.Headings())
}

func TestHTMLDocumentFileBlocks(t *testing.T) {
	doc := loadRevision(t)
	blocks := doc.FileBlocks()
	require.Len(t, blocks, 2)

	assert.Equal(t, "a.cpp", blocks[0].FileName)
	var numbers []int
	for _, l := range blocks[0].Lines {
		require.True(t, l.HasNumber)
		numbers = append(numbers, l.Number)
	}
	assert.Equal(t, []int{5, 9, 15, 25}, numbers)

	assert.Equal(t, "b.h", blocks[1].FileName)
	require.Len(t, blocks[1].Lines, 1)
	assert.Equal(t, 4, blocks[1].Lines[0].Ref)
}

func TestHTMLDocumentInsertVerdictBox(t *testing.T) {
	doc := loadRevision(t)
	target, err := DiscoverTarget(doc)
	require.NoError(t, err)

	err = doc.InsertVerdictBox(target.Anchor, schema.VerdictBox{
		HeadingHTML: `Diff Risk Analysis - <span style="color:rgb(255, 13, 87);">Risky</span> with 80% confidence`,
		BodyHTML:    `<div id="riskAnalysisGraph"><svg width="600" height="90"></svg></div><ul style="list-style-type:upper-roman"></ul>`,
	})
	require.NoError(t, err)

	out := render(t, doc)
	reparsed, err := ParseHTML(strings.NewReader(out))
	require.NoError(t, err)

	var texts []string
	for _, h := range reparsed.Headings() {
		texts = append(texts, h.Text)
	}
	assert.Equal(t, []string{
		"Revision Contents",
		"Diff Detail",
		"Diff Risk Analysis - Risky with 80% confidence",
		"Diff 5678",
	}, texts)

	assert.Contains(t, out, `<div id="riskAnalysisGraph">`)
	assert.Equal(t, 1, strings.Count(out, "diff-properties"), "tab content of the clone is replaced")
	assert.Less(t, strings.Index(out, "diff-properties"), strings.Index(out, "riskAnalysisGraph"))
}

func TestHTMLDocumentInsertVerdictBoxMissingAnchor(t *testing.T) {
	doc := loadRevision(t)
	err := doc.InsertVerdictBox(schema.Heading{Ref: 99}, schema.VerdictBox{})
	var pe *contract.PreconditionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, contract.MissingDiffDetailBox, pe.What)

	// "Diff 5678" sits in a box without tab content.
	err = doc.InsertVerdictBox(schema.Heading{Ref: 2}, schema.VerdictBox{})
	assert.Error(t, err)
}

func TestHTMLDocumentInsertAnnotation(t *testing.T) {
	doc := loadRevision(t)
	line := doc.FileBlocks()[0].Lines[2] // new line 15

	for _, text := range []string{
		"The function 'first' is risky (80% confidence).",
		"The function 'second' is risky (65% confidence).",
	} {
		require.NoError(t, doc.InsertAnnotation(schema.MethodAnnotation{LineRef: line.Ref, AnchorLine: line.Number, Text: text}))
	}

	out := render(t, doc)
	first := strings.Index(out, "'first'")
	second := strings.Index(out, "'second'")
	foo := strings.Index(out, "void foo()")
	bar := strings.Index(out, "void bar()")
	require.True(t, first > 0 && second > 0)
	assert.Less(t, foo, first)
	assert.Less(t, first, second)
	assert.Less(t, second, bar)
	assert.Equal(t, 2, strings.Count(out, schema.AnnotationAuthor))
	assert.Contains(t, out, `<tr class="inline" data-sigil="inline-row">`)

	// Annotation rows carry no line number, so re-reading sees the same numbered lines.
	reparsed, err := ParseHTML(strings.NewReader(out))
	require.NoError(t, err)
	var numbered int
	for _, l := range reparsed.FileBlocks()[0].Lines {
		if l.HasNumber {
			numbered++
		}
	}
	assert.Equal(t, 4, numbered)
}

func TestHTMLDocumentInsertAnnotationUnknownLine(t *testing.T) {
	doc := loadRevision(t)
	assert.Error(t, doc.InsertAnnotation(schema.MethodAnnotation{LineRef: 42}))
}

func TestInlineRowHTMLEscapes(t *testing.T) {
	row := InlineRowHTML("The function 'a<b>' is risky (70% confidence).")
	assert.Contains(t, row, "a&lt;b&gt;")
	assert.Contains(t, row, `<div class="inline-head-left">Risk Analysis Bot</div>`)
}

func TestParseLeadingInt(t *testing.T) {
	tests := []struct {
		input string
		value int
		ok    bool
	}{
		{"15", 15, true},
		{" 7", 7, true},
		{"12abc", 12, true},
		{"-3", -3, true},
		{"", 0, false},
		{"abc", 0, false},
		{"+", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, ok := parseLeadingInt(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.value, v)
		})
	}
}
