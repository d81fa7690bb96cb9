package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/huangsam/patchrisk/core"
	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/huangsam/patchrisk/internal/page"
	"github.com/huangsam/patchrisk/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

var diffIDPattern = regexp.MustCompile(`^\d+$`)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// verdictResult is what get_risk_verdict returns.
type verdictResult struct {
	DiffID  string         `json:"diff_id"`
	Heading string         `json:"heading"`
	Verdict schema.Verdict `json:"verdict"`
}

// featuresResult is what explain_risk_features returns.
type featuresResult struct {
	DiffID        string                       `json:"diff_id"`
	Heading       string                       `json:"heading"`
	Explanations  []schema.EnrichedExplanation `json:"explanations"`
	Layout        schema.WaterfallLayout       `json:"layout"`
	ImportanceURL string                       `json:"importance_url,omitempty"`
}

// methodsResult is what annotate_risky_methods returns.
type methodsResult struct {
	DiffID      string                    `json:"diff_id"`
	Annotations []schema.MethodAnnotation `json:"annotations"`
	Unmatched   []schema.MethodRiskRecord `json:"unmatched"`
}

func requireDiffID(request mcp.CallToolRequest) (string, error) {
	diffID := strings.TrimPrefix(strings.TrimSpace(request.GetString("diff_id", "")), "D")
	if diffID == "" {
		return "", fmt.Errorf("diff_id is required")
	}
	if !diffIDPattern.MatchString(diffID) {
		return "", fmt.Errorf("invalid diff_id %q: must be numeric", diffID)
	}
	return diffID, nil
}

func textResult(v any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleGetRiskVerdict(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diffID, err := requireDiffID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cfg := h.baseCfg.Clone()
	report, err := core.GetVerdictResults(core.WithSuppressHeader(ctx), cfg, h.mgr, diffID)
	if report.Heading == "" {
		return mcp.NewToolResultError(fmt.Sprintf("verdict failed: %v", err)), nil
	}

	return textResult(verdictResult{
		DiffID:  report.DiffID,
		Heading: report.Heading,
		Verdict: report.Verdict,
	}), nil
}

func (h *toolHandler) handleExplainRiskFeatures(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diffID, err := requireDiffID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cfg := h.baseCfg.Clone()
	if n := request.GetInt("max_explained", 0); n != 0 {
		if n < 0 || n > contract.MaxExplainedLimit {
			return mcp.NewToolResultError(fmt.Sprintf("max_explained must be between 1 and %d", contract.MaxExplainedLimit)), nil
		}
		cfg.Narrative.MaxExplained = n
	}

	report, err := core.GetVerdictResults(core.WithSuppressHeader(ctx), cfg, h.mgr, diffID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("explanation failed: %v", err)), nil
	}

	return textResult(featuresResult{
		DiffID:        report.DiffID,
		Heading:       report.Heading,
		Explanations:  schema.EnrichExplanations(report.Selection.Explanations),
		Layout:        report.Layout,
		ImportanceURL: report.ImportanceURL,
	}), nil
}

func (h *toolHandler) handleAnnotateRiskyMethods(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diffID, err := requireDiffID(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	patch := request.GetString("patch", "")
	if strings.TrimSpace(patch) == "" {
		return mcp.NewToolResultError("patch is required"), nil
	}

	doc, err := page.ParsePatch(strings.NewReader(patch))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid patch: %v", err)), nil
	}

	cfg := h.baseCfg.Clone()
	report, err := core.GetMethodResults(core.WithSuppressHeader(ctx), cfg, h.mgr, diffID, doc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("annotation failed: %v", err)), nil
	}

	result := methodsResult{DiffID: report.DiffID, Annotations: report.Annotations, Unmatched: report.Unmatched}
	if result.Annotations == nil {
		result.Annotations = []schema.MethodAnnotation{}
	}
	if result.Unmatched == nil {
		result.Unmatched = []schema.MethodRiskRecord{}
	}
	return textResult(result), nil
}
