package outwriter

import (
	"encoding/csv"
	"html/template"
	"io"
	"strconv"

	"github.com/huangsam/patchrisk/core/algo"
	"github.com/huangsam/patchrisk/internal/page"
	"github.com/huangsam/patchrisk/schema"
)

var methodsPageTemplate = template.Must(template.New("methods").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Method-level Risk Analysis</title></head>
<body data-diff-id="{{.DiffID}}">
{{- range .Files}}
<div data-sigil="differential-changeset">
<h1 class="differential-file-icon-header">{{.FileName}}</h1>
<table class="differential-diff"><tbody>
{{- range .Rows}}
<tr><td class="n"></td><td class="left"></td><td class="n" data-n="{{.Line}}">{{.Line}}</td><td class="copy"></td><td colspan="2"></td></tr>
{{.Inline}}
{{- end}}
</tbody></table>
</div>
{{- end}}
</body>
</html>
`))

type methodsPageRow struct {
	Line   int
	Inline template.HTML
}

type methodsPageFile struct {
	FileName string
	Rows     []methodsPageRow
}

type methodsPage struct {
	DiffID string
	Files  []methodsPageFile
}

// jsonMethodResult keeps unmatched methods visible next to the placed ones.
type jsonMethodResult struct {
	DiffID      string                    `json:"diff_id"`
	Annotations []schema.MethodAnnotation `json:"annotations"`
	Unmatched   []schema.MethodRiskRecord `json:"unmatched"`
}

func writeJSONResultsForMethods(w io.Writer, report schema.MethodReport) error {
	output := jsonMethodResult{
		DiffID:      report.DiffID,
		Annotations: report.Annotations,
		Unmatched:   report.Unmatched,
	}
	if output.Annotations == nil {
		output.Annotations = []schema.MethodAnnotation{}
	}
	if output.Unmatched == nil {
		output.Unmatched = []schema.MethodRiskRecord{}
	}
	return writeJSON(w, output)
}

// writeCSVResultsForMethods writes placed annotations first, then unmatched methods
// with an empty anchor line.
func writeCSVResultsForMethods(w io.Writer, report schema.MethodReport) error {
	header := []string{
		"diff_id",
		"file_name",
		"method_name",
		"start_line",
		"anchor_line",
		"confidence",
		"matched",
		"text",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, a := range report.Annotations {
			row := []string{
				report.DiffID,
				a.FileName,
				a.MethodName,
				strconv.Itoa(a.StartLine),
				strconv.Itoa(a.AnchorLine),
				strconv.Itoa(a.ConfidencePercent),
				"true",
				a.Text,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		for _, m := range report.Unmatched {
			pct := algo.ConfidencePercent(m.Confidence)
			row := []string{
				report.DiffID,
				m.FileName,
				m.MethodName,
				strconv.Itoa(m.StartLine),
				"",
				strconv.Itoa(pct),
				"false",
				algo.AnnotationText(m.MethodName, pct),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeHTMLResultsForMethods writes the annotations as inline rows grouped by file.
func writeHTMLResultsForMethods(w io.Writer, report schema.MethodReport) error {
	view := methodsPage{DiffID: report.DiffID}
	fileIndex := map[string]int{}
	for _, a := range report.Annotations {
		i, ok := fileIndex[a.FileName]
		if !ok {
			i = len(view.Files)
			fileIndex[a.FileName] = i
			view.Files = append(view.Files, methodsPageFile{FileName: a.FileName})
		}
		view.Files[i].Rows = append(view.Files[i].Rows, methodsPageRow{
			Line:   a.AnchorLine,
			Inline: template.HTML(page.InlineRowHTML(a.Text)),
		})
	}
	return methodsPageTemplate.Execute(w, view)
}
