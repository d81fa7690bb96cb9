package page

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/schema"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Markup hooks of a Phabricator revision page.
const (
	headingClass     = "phui-header-header"
	objectBoxClass   = "phui-object-box"
	changesetSigil   = "differential-changeset"
	fileHeaderClass  = "differential-file-icon-header"
	diffTableClass   = "differential-diff"
	tabGroupSigil    = "phui-tab-group-view"
	lineNumberColumn = 3
	lineNumberAttr   = "data-n"
	inlineRowClass   = "inline"
	inlineRowSigil   = "inline-row"
)

// HTMLDocument is a parsed review page.
type HTMLDocument struct {
	root     *html.Node
	headings []*html.Node // indexed by Heading.Ref
	lines    []*html.Node // line number cells, indexed by DisplayLine.Ref

	headingList []schema.Heading
	blocks      []schema.FileBlock

	lastInserted map[int]*html.Node // line ref -> last annotation row placed after it
}

var _ contract.MutableDocument = &HTMLDocument{} // Compile-time check

// ParseHTML reads a saved review page.
func ParseHTML(r io.Reader) (*HTMLDocument, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	doc := &HTMLDocument{root: root, lastInserted: make(map[int]*html.Node)}
	doc.indexHeadings()
	doc.indexBlocks()
	return doc, nil
}

// Headings implements the Document interface.
func (d *HTMLDocument) Headings() []schema.Heading {
	return d.headingList
}

// FileBlocks implements the Document interface.
func (d *HTMLDocument) FileBlocks() []schema.FileBlock {
	return d.blocks
}

func (d *HTMLDocument) indexHeadings() {
	for n := range d.root.Descendants() {
		if n.Type == html.ElementNode && n.DataAtom == atom.Span && hasClass(n, headingClass) {
			d.headingList = append(d.headingList, schema.Heading{Text: textContent(n), Ref: len(d.headings)})
			d.headings = append(d.headings, n)
		}
	}
}

func (d *HTMLDocument) indexBlocks() {
	for n := range d.root.Descendants() {
		if n.Type != html.ElementNode || n.DataAtom != atom.Div || attr(n, "data-sigil") != changesetSigil {
			continue
		}

		block := schema.FileBlock{}
		if h := findFirst(n, func(c *html.Node) bool {
			return c.DataAtom == atom.H1 && hasClass(c, fileHeaderClass)
		}); h != nil {
			block.FileName = textContent(h)
		}

		for table := range n.Descendants() {
			if table.Type != html.ElementNode || table.DataAtom != atom.Table || !hasClass(table, diffTableClass) {
				continue
			}
			for _, tbody := range elementChildren(table, atom.Tbody) {
				for _, tr := range elementChildren(tbody, atom.Tr) {
					cells := elementChildren(tr, 0)
					if len(cells) < lineNumberColumn || cells[lineNumberColumn-1].DataAtom != atom.Td {
						continue
					}
					td := cells[lineNumberColumn-1]
					line := schema.DisplayLine{Ref: len(d.lines)}
					line.Number, line.HasNumber = parseLeadingInt(attr(td, lineNumberAttr))
					d.lines = append(d.lines, td)
					block.Lines = append(block.Lines, line)
				}
			}
		}
		d.blocks = append(d.blocks, block)
	}
}

// InsertVerdictBox implements the MutableDocument interface. The box holding
// the anchor heading is cloned, its heading and tab content are replaced, and
// the clone is placed right after the original.
func (d *HTMLDocument) InsertVerdictBox(anchor schema.Heading, box schema.VerdictBox) error {
	if anchor.Ref < 0 || anchor.Ref >= len(d.headings) {
		return &contract.PreconditionError{What: contract.MissingDiffDetailBox}
	}
	anchorBox := closestWithClass(d.headings[anchor.Ref], objectBoxClass)
	if anchorBox == nil || anchorBox.Parent == nil {
		return &contract.PreconditionError{What: contract.MissingDiffDetailBox}
	}

	clone := cloneNode(anchorBox)

	title := findFirst(clone, func(n *html.Node) bool {
		return n.DataAtom == atom.Span && hasClass(n, headingClass)
	})
	if title == nil {
		return &contract.PreconditionError{What: contract.MissingDiffDetailBox}
	}
	if err := setInnerHTML(title, box.HeadingHTML); err != nil {
		return err
	}

	content := findFirst(clone, func(n *html.Node) bool {
		return n.DataAtom == atom.Div && attr(n, "data-sigil") == tabGroupSigil
	})
	if content == nil {
		return fmt.Errorf("anchor box has no tab content")
	}
	body, err := parseFragment(box.BodyHTML, content)
	if err != nil {
		return err
	}
	for c := content.FirstChild; c != nil; {
		next := c.NextSibling
		content.RemoveChild(c)
		c = next
	}
	for _, n := range body {
		content.AppendChild(n)
	}

	anchorBox.Parent.InsertBefore(clone, anchorBox.NextSibling)
	return nil
}

// InsertAnnotation implements the MutableDocument interface. Annotations for
// the same line read in the order they were inserted.
func (d *HTMLDocument) InsertAnnotation(a schema.MethodAnnotation) error {
	if a.LineRef < 0 || a.LineRef >= len(d.lines) {
		return fmt.Errorf("unknown line reference %d", a.LineRef)
	}
	tr := d.lines[a.LineRef].Parent
	if tr == nil || tr.Parent == nil {
		return fmt.Errorf("line %d is detached", a.AnchorLine)
	}

	rows, err := parseFragment(InlineRowHTML(a.Text), tr.Parent)
	if err != nil {
		return err
	}
	after := tr
	if last, ok := d.lastInserted[a.LineRef]; ok {
		after = last
	}
	for _, row := range rows {
		tr.Parent.InsertBefore(row, after.NextSibling)
		after = row
	}
	d.lastInserted[a.LineRef] = after
	return nil
}

// Render implements the MutableDocument interface.
func (d *HTMLDocument) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// InlineRowHTML is the table row that carries one inline annotation.
func InlineRowHTML(text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<tr class="%s" data-sigil="%s">`, inlineRowClass, inlineRowSigil)
	b.WriteString(`<td class="n"></td><td class="left"></td><td class="n"></td><td class="copy"></td>`)
	b.WriteString(`<td colspan="2"><div class="differential-inline-comment" data-sigil="differential-inline-comment">`)
	b.WriteString(`<div class="differential-inline-comment-head grouped" data-sigil="differential-inline-header">`)
	fmt.Fprintf(&b, `<div class="inline-head-left">%s</div></div>`, html.EscapeString(schema.AnnotationAuthor))
	b.WriteString(`<div class="differential-inline-comment-content"><div class="phabricator-remarkup">`)
	fmt.Fprintf(&b, `<p>%s</p>`, html.EscapeString(text))
	b.WriteString(`</div></div></div></td></tr>`)
	return b.String()
}

func setInnerHTML(n *html.Node, fragment string) error {
	nodes, err := parseFragment(fragment, n)
	if err != nil {
		return err
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

func parseFragment(fragment string, context *html.Node) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: context.Data, DataAtom: context.DataAtom}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}
	return nodes, nil
}

// closestWithClass returns the nearest ancestor of n carrying class.
func closestWithClass(n *html.Node, class string) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && hasClass(p, class) {
			return p
		}
	}
	return nil
}

func cloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      slices.Clone(n.Attr),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneNode(child))
	}
	return c
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := range n.Descendants() {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
	}
	return nil
}

// elementChildren lists the element children of n, optionally filtered by tag.
func elementChildren(n *html.Node, tag atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (tag == 0 || c.DataAtom == tag) {
			out = append(out, c)
		}
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

func textContent(n *html.Node) string {
	var b strings.Builder
	for c := range n.Descendants() {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

// parseLeadingInt reads the leading integer of s, ignoring what follows it.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r\f")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		if n > (1<<31)/10 {
			return 0, false
		}
		n = n*10 + int(s[digits]-'0')
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
