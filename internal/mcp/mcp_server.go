// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/patchrisk/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the PatchRisk MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"PatchRisk Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_risk_verdict ---
	s.AddTool(mcp.NewTool("get_risk_verdict",
		mcp.WithDescription("Get the overall risk verdict for a Phabricator diff from its classification artifacts."),
		mcp.WithString("diff_id", mcp.Description("Numeric ID of the diff (e.g. '123456')."), mcp.Required()),
	), h.handleGetRiskVerdict)

	// --- 2. Tool: explain_risk_features ---
	s.AddTool(mcp.NewTool("explain_risk_features",
		mcp.WithDescription("Explain which features pushed the risk of a diff up or down, with their waterfall segments."),
		mcp.WithString("diff_id", mcp.Description("Numeric ID of the diff."), mcp.Required()),
		mcp.WithNumber("max_explained", mcp.Description("Maximum number of features to explain. Defaults to 5.")),
	), h.handleExplainRiskFeatures)

	// --- 3. Tool: annotate_risky_methods ---
	s.AddTool(mcp.NewTool("annotate_risky_methods",
		mcp.WithDescription("Place the risky functions of a diff on the new-side lines of its unified patch."),
		mcp.WithString("diff_id", mcp.Description("Numeric ID of the diff."), mcp.Required()),
		mcp.WithString("patch", mcp.Description("The unified diff of the change."), mcp.Required()),
	), h.handleAnnotateRiskyMethods)

	return s
}

// StartMCPServer starts the PatchRisk MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
