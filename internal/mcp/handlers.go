package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/salulink/specialist-aid/internal/analysis"
	"github.com/salulink/specialist-aid/internal/matcher"
	"github.com/salulink/specialist-aid/internal/storage"
)

// Handlers implements the MCP tools. Failures are returned as tool-result errors so the
// client sees them as content, not protocol faults.
type Handlers struct {
	engine  *analysis.Engine
	catalog storage.Catalog
	logger  *zap.Logger
}

// AnalyzeClinicalNote handles the analyze_clinical_note tool.
func (h *Handlers) AnalyzeClinicalNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text argument is required and must be a string"), nil
	}
	var opts []analysis.AnalyzeOption
	if request.GetBool("include_context", false) {
		opts = append(opts, analysis.WithContextTerms())
	}
	result, err := h.engine.Analyze(ctx, text, opts...)
	if err != nil {
		return h.engineError("analysis failed", err), nil
	}
	return jsonResult(result)
}

// ListConditions handles the list_conditions tool.
func (h *Handlers) ListConditions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conditions, err := h.engine.Conditions()
	if err != nil {
		return h.engineError("list conditions failed", err), nil
	}
	return jsonResult(map[string]interface{}{
		"conditions": conditions,
		"total":      len(conditions),
	})
}

// SearchConditions handles the search_conditions tool.
func (h *Handlers) SearchConditions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	limit := request.GetInt("limit", analysis.DefaultSearchLimit)
	resp, err := h.engine.SearchConditions(ctx, query, limit, request.GetBool("fuzzy", false))
	if err != nil {
		return h.engineError("condition search failed", err), nil
	}
	return jsonResult(resp)
}

// GetTreatmentBaskets handles the get_treatment_baskets tool.
func (h *Handlers) GetTreatmentBaskets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("icd10_code")
	if err != nil {
		return mcp.NewToolResultError("icd10_code argument is required and must be a string"), nil
	}
	if h.catalog == nil {
		return mcp.NewToolResultError("treatment baskets are not configured"), nil
	}
	baskets, err := h.catalog.GetBaskets(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no treatment baskets for %s", code)), nil
	}
	if err != nil {
		h.logger.Error("treatment basket lookup failed", zap.String("code", code), zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("treatment basket lookup failed: %v", err)), nil
	}
	return jsonResult(baskets)
}

func (h *Handlers) engineError(msg string, err error) *mcp.CallToolResult {
	if errors.Is(err, matcher.ErrNotReady) {
		return mcp.NewToolResultError("service not ready: condition corpus is not loaded")
	}
	h.logger.Error(msg, zap.Error(err))
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", msg, err))
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
