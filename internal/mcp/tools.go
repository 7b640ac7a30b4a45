// Package mcp exposes note analysis and the condition catalogue as Model Context Protocol tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/salulink/specialist-aid/internal/analysis"
	"github.com/salulink/specialist-aid/internal/storage"
)

// ServerName identifies the MCP server to clients.
const ServerName = "Specialist Aid"

// NewServer creates an MCP server with all tools registered.
func NewServer(version string, engine *analysis.Engine, catalog storage.Catalog, logger *zap.Logger) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(ServerName, version)
	RegisterTools(s, engine, catalog, logger)
	return s
}

// RegisterTools registers the analysis and catalogue tools with server. catalog may be nil,
// in which case get_treatment_baskets reports that baskets are unavailable.
func RegisterTools(server *mcpserver.MCPServer, engine *analysis.Engine, catalog storage.Catalog, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handlers{engine: engine, catalog: catalog, logger: logger}

	server.AddTool(mcp.Tool{
		Name:        "analyze_clinical_note",
		Description: "Extract medical terms from a clinical note, match them against the chronic-condition list and return ICD-10 codes with a heuristic confidence (0-100). Not a diagnosis.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Free-text clinical note",
				},
				"include_context": map[string]interface{}{
					"type":        "boolean",
					"description": "Also extract context terms (time course, severity, family history)",
					"default":     false,
				},
			},
			Required: []string{"text"},
		},
	}, h.AnalyzeClinicalNote)

	server.AddTool(mcp.Tool{
		Name:        "list_conditions",
		Description: "List every chronic condition in the loaded corpus with its ICD-10 code and description.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, h.ListConditions)

	server.AddTool(mcp.Tool{
		Name:        "search_conditions",
		Description: "Full-text search of condition names, ICD-10 descriptions and code prefixes.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Condition name, description words or ICD-10 code prefix",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of results (default: 10)",
					"default":     analysis.DefaultSearchLimit,
				},
				"fuzzy": map[string]interface{}{
					"type":        "boolean",
					"description": "Tolerate typos",
					"default":     false,
				},
			},
			Required: []string{"query"},
		},
	}, h.SearchConditions)

	server.AddTool(mcp.Tool{
		Name:        "get_treatment_baskets",
		Description: "Get the diagnostic and ongoing-management treatment baskets covered for an ICD-10 code.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"icd10_code": map[string]interface{}{
					"type":        "string",
					"description": "ICD-10 code, e.g. E11.9",
				},
			},
			Required: []string{"icd10_code"},
		},
	}, h.GetTreatmentBaskets)

	return h
}
