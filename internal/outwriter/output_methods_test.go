package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/patchrisk/core/algo"
	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/internal/page"
	"github.com/huangsam/patchrisk/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMethodReport() schema.MethodReport {
	pending := []schema.MethodRiskRecord{
		{FileName: "a.cpp", MethodName: "first", StartLine: 10, Confidence: 0.8, Predicted: true},
		{FileName: "a.cpp", MethodName: "second", StartLine: 12, Confidence: 0.65, Predicted: true},
		{FileName: "b.cpp", MethodName: "third", StartLine: 1, Confidence: 0.7, Predicted: true},
		{FileName: "c.cpp", MethodName: "lost", StartLine: 3, Confidence: 0.555, Predicted: true},
	}
	blocks := []schema.FileBlock{
		{FileName: "a.cpp", Lines: []schema.DisplayLine{
			{Number: 5, HasNumber: true, Ref: 0},
			{Number: 15, HasNumber: true, Ref: 1},
		}},
		{FileName: "b.cpp", Lines: []schema.DisplayLine{
			{Number: 2, HasNumber: true, Ref: 2},
		}},
	}
	annotations, unmatched := algo.MatchMethods(pending, blocks)
	return schema.MethodReport{DiffID: "1234", Annotations: annotations, Unmatched: unmatched}
}

func TestWriteJSONResultsForMethods(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSONResultsForMethods(&buf, sampleMethodReport()))

	var result struct {
		DiffID      string           `json:"diff_id"`
		Annotations []map[string]any `json:"annotations"`
		Unmatched   []map[string]any `json:"unmatched"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "1234", result.DiffID)
	require.Len(t, result.Annotations, 3)
	assert.Equal(t, "first", result.Annotations[0]["method_name"])
	assert.Equal(t, float64(15), result.Annotations[0]["anchor_line"])
	assert.NotContains(t, result.Annotations[0], "LineRef")
	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, "lost", result.Unmatched[0]["method_name"])
}

func TestWriteJSONResultsForMethodsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSONResultsForMethods(&buf, schema.MethodReport{DiffID: "1"}))
	assert.Contains(t, buf.String(), `"annotations": []`)
	assert.Contains(t, buf.String(), `"unmatched": []`)
}

func TestWriteCSVResultsForMethods(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSVResultsForMethods(&buf, sampleMethodReport()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"diff_id", "file_name", "method_name", "start_line", "anchor_line", "confidence", "matched", "text"}, records[0])
	assert.Equal(t, []string{"1234", "a.cpp", "first", "10", "15", "80", "true", "The function 'first' is risky (80% confidence)."}, records[1])
	assert.Equal(t, []string{"1234", "c.cpp", "lost", "3", "", "56", "false", "The function 'lost' is risky (56% confidence)."}, records[4])
}

func TestWriteHTMLResultsForMethods(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeHTMLResultsForMethods(&buf, sampleMethodReport()))
	out := buf.String()

	assert.Equal(t, 3, strings.Count(out, schema.AnnotationAuthor))
	assert.Less(t, strings.Index(out, "'first'"), strings.Index(out, "'second'"))

	doc, err := page.ParseHTML(strings.NewReader(out))
	require.NoError(t, err)
	blocks := doc.FileBlocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, "a.cpp", blocks[0].FileName)
	assert.Equal(t, "b.cpp", blocks[1].FileName)

	var numbered []int
	for _, l := range blocks[0].Lines {
		if l.HasNumber {
			numbered = append(numbered, l.Number)
		}
	}
	assert.Equal(t, []int{15, 15}, numbered)
}

func TestPrintMethodTable(t *testing.T) {
	withoutColor(t)
	cfg := &contract.Config{Width: 120, CacheBackend: schema.NoneBackend}

	var buf bytes.Buffer
	require.NoError(t, printMethodTable(&buf, sampleMethodReport(), cfg, time.Second))
	out := buf.String()

	assert.Contains(t, out, "first")
	assert.Contains(t, out, "80%")
	assert.Contains(t, out, "⚠️  No line found for lost in c.cpp (starts at line 3)")
	assert.Contains(t, out, "Diff 1234: 3 risky methods annotated, 1 unmatched")
	assert.Contains(t, out, "Cache backend: none")
}
