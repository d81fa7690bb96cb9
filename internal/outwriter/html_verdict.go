package outwriter

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"

	"github.com/huangsam/patchrisk/core/algo"
	"github.com/huangsam/patchrisk/schema"
)

// Chart geometry that the layout does not carry.
const (
	chartWidth     = 600
	chartBarHeight = 27 // band height after padding
	labelBaseline  = -5
	labelFontSize  = 12
)

const importanceLinkText = "See the most important features considered by the model"

var headingTemplate = template.Must(template.New("heading").Parse(
	`Diff Risk Analysis - <span style="color:{{.Color}};">{{.Label}}</span> with {{.Confidence}}% confidence`))

var verdictBodyTemplate = template.Must(template.New("body").Parse(`<style>{{.Style}}</style>
<div id="riskAnalysisGraph" class="patchrisk-graph">
{{- if .Bars}}
<svg width="{{.Width}}" height="{{.Height}}">
<defs><filter id="glow"><feGaussianBlur stdDeviation="3.5" result="coloredBlur"></feGaussianBlur><feMerge><feMergeNode in="coloredBlur"></feMergeNode><feMergeNode in="SourceGraphic"></feMergeNode></feMerge></filter></defs>
<g transform="translate({{.MarginLeft}},{{.MarginTop}})">
<line x1="0" y1="{{.InnerHeight}}" x2="{{.InnerWidth}}" y2="{{.InnerHeight}}" stroke="currentColor"></line>
{{- with .Increasing}}
<text x="{{.X}}" y="{{.Y}}" text-anchor="end" fill="{{.Color}}" font-size="{{.FontSize}}">{{.Text}}</text>
{{- end}}
{{- with .Decreasing}}
<text x="{{.X}}" y="{{.Y}}" text-anchor="start" fill="{{.Color}}" font-size="{{.FontSize}}">{{.Text}}</text>
{{- end}}
{{- range .Bars}}
<rect id="{{.Key}}_bar" class="bar" x="{{.X}}" y="0" width="{{.Width}}" height="{{.Height}}" fill="{{.Color}}"></rect>
{{- end}}
</g>
</svg>
{{- end}}
</div>
{{- if .FeatureError}}
<p class="patchrisk-error">{{.FeatureError}}</p>
{{- else}}
<div><ul style="list-style-type:upper-roman">
{{- range .Legend}}
<li style="margin-left:28px"><span id="{{.Key}}_text"><b>{{.Name}}</b> is <span style="font-weight:bold;color:{{.Color}}">{{.Qualifier}}</span> ({{.Value}}), as in {{.Percent}}% of patches {{.Population}}.</span>
{{- if .Plot}} <details style="display:inline"><summary style="font-size:x-small">Show feature plot</summary><img id="{{.Key}}_plot" src="{{.Plot}}" style="max-width:95%"></details>{{end}}</li>
{{- end}}
</ul></div>
<br>
{{- if .ImportanceURL}}
<a href="{{.ImportanceURL}}" target="_blank" style="font-size:x-small">{{.ImportanceText}}</a>
{{- end}}
{{- end}}
`))

type headingView struct {
	Color      template.CSS
	Label      string
	Confidence int
}

type legendView struct {
	Key        string
	Name       string
	Qualifier  string
	Color      template.CSS
	Value      string
	Percent    int
	Population string
	Plot       template.URL
}

type barView struct {
	Key    string
	X      string
	Width  string
	Height int
	Color  string
}

type labelView struct {
	Text     string
	X        string
	Y        int
	Color    string
	FontSize int
}

type verdictBodyView struct {
	Style          template.CSS
	Width          int
	Height         int
	InnerWidth     int
	InnerHeight    int
	MarginLeft     int
	MarginTop      int
	Bars           []barView
	Increasing     *labelView
	Decreasing     *labelView
	Legend         []legendView
	ImportanceURL  string
	ImportanceText string
	FeatureError   string
}

// RenderHeadingHTML renders the verdict heading with the label in its palette color.
func RenderHeadingHTML(v schema.Verdict) (string, error) {
	var buf bytes.Buffer
	err := headingTemplate.Execute(&buf, headingView{
		Color:      template.CSS(v.Color),
		Label:      v.Label,
		Confidence: v.ConfidencePercent,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render heading: %w", err)
	}
	return buf.String(), nil
}

// RenderVerdictBox renders the heading and body inserted after the diff detail box.
// A report whose features failed keeps the heading and an empty graph.
func RenderVerdictBox(report schema.VerdictReport) (schema.VerdictBox, error) {
	heading, err := RenderHeadingHTML(report.Verdict)
	if err != nil {
		return schema.VerdictBox{}, err
	}

	view := verdictBodyView{
		Width:          chartWidth,
		Height:         schema.ChartHeight,
		InnerWidth:     chartWidth - schema.ChartMarginLeft - schema.ChartMarginRight,
		InnerHeight:    schema.ChartHeight - schema.ChartMarginTop - schema.ChartMarginBottom,
		MarginLeft:     schema.ChartMarginLeft,
		MarginTop:      schema.ChartMarginTop,
		ImportanceURL:  report.ImportanceURL,
		ImportanceText: importanceLinkText,
		FeatureError:   report.FeatureError,
	}
	if report.FeatureError == "" {
		view.Bars, view.Increasing, view.Decreasing = chartViews(report.Layout, float64(view.InnerWidth))
		view.Legend = legendViews(report.Selection)
		view.Style = hoverStyle(report.Layout)
	}

	var buf bytes.Buffer
	if err := verdictBodyTemplate.Execute(&buf, view); err != nil {
		return schema.VerdictBox{}, fmt.Errorf("failed to render verdict box: %w", err)
	}
	return schema.VerdictBox{HeadingHTML: heading, BodyHTML: buf.String()}, nil
}

func chartViews(layout schema.WaterfallLayout, width float64) ([]barView, *labelView, *labelView) {
	bars := make([]barView, 0, len(layout.Segments))
	for _, s := range layout.Segments {
		bars = append(bars, barView{
			Key:    s.Key(),
			X:      px(layout.Scale(s.Start, width)),
			Width:  px(layout.BarWidth(s, width)),
			Height: chartBarHeight,
			Color:  schema.ColorFor(s.Risky),
		})
	}

	var increasing, decreasing *labelView
	if l := layout.Increasing; l != nil {
		increasing = &labelView{
			Text:     l.Text,
			X:        px(layout.Scale(l.Anchor, width) + schema.IncreasingOffset),
			Y:        labelBaseline,
			Color:    l.Color,
			FontSize: labelFontSize,
		}
	}
	if l := layout.Decreasing; l != nil {
		decreasing = &labelView{
			Text:     l.Text,
			X:        px(layout.Scale(l.Anchor, width) + schema.DecreasingOffset),
			Y:        labelBaseline,
			Color:    l.Color,
			FontSize: labelFontSize,
		}
	}
	return bars, increasing, decreasing
}

func legendViews(sel schema.NarrativeSelection) []legendView {
	legend := make([]legendView, 0, len(sel.Explanations))
	for _, e := range schema.EnrichExplanations(sel.Explanations) {
		legend = append(legend, legendView{
			Key:        e.Key,
			Name:       e.Feature.Name,
			Qualifier:  e.Qualifier,
			Color:      template.CSS(e.Color),
			Value:      algo.FormatValue(e.Value),
			Percent:    e.Percent,
			Population: e.Population,
			Plot:       plotURL(e.Feature.Plot),
		})
	}
	return legend
}

// plotURL wraps a base64 PNG as a data URL. Anything that is not valid base64 is dropped.
func plotURL(plot string) template.URL {
	plot = strings.TrimSpace(plot)
	if plot == "" {
		return ""
	}
	if _, err := base64.StdEncoding.DecodeString(plot); err != nil {
		return ""
	}
	return template.URL("data:image/png;base64," + plot)
}

// hoverStyle links each legend entry to its bar in both directions.
func hoverStyle(layout schema.WaterfallLayout) template.CSS {
	var b strings.Builder
	b.WriteString("#riskAnalysisGraph .bar{transition:filter 200ms}")
	for _, s := range layout.Segments {
		key := s.Key()
		fmt.Fprintf(&b, "\n:has(#%[1]s_text:hover) #%[1]s_bar,:has(#%[1]s_bar:hover) #%[1]s_bar{filter:url(#glow)}", key)
		fmt.Fprintf(&b, "\n:has(#%[1]s_text:hover) #%[1]s_text,:has(#%[1]s_bar:hover) #%[1]s_text{background-color:%[2]s}", key, schema.ColorFor(s.Risky))
	}
	return template.CSS(b.String())
}

// px formats a pixel coordinate with at most two decimals.
func px(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
