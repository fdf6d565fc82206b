package codemaster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-codemaster-server/internal/search"
)

// SearchArgument defines search parameters.
type SearchArgument struct {
	Query   string `json:"query" jsonschema_description:"Text to look for in names, short names and option columns"`
	Codeset string `json:"codeset,omitempty" jsonschema_description:"Filter by codeset id"`
	Locale  string `json:"locale,omitempty" jsonschema_description:"Filter by locale (e.g., en, ja)"`
}

// SearchHandler handles the code_search MCP tool.
type SearchHandler struct {
	service *Service
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service *Service) *SearchHandler {
	return &SearchHandler{service: service}
}

// Handle executes the search and returns formatted results.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	if res := notReadyResult(h.service); res != nil {
		return res, nil, nil
	}
	if strings.TrimSpace(args.Query) == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}

	result, err := h.service.Search(ctx, search.Query{
		Text:    args.Query,
		Codeset: args.Codeset,
		Locale:  args.Locale,
	})
	if err != nil {
		if errors.Is(err, ErrSearchDisabled) {
			return errorResult("Search is disabled on this server"), nil, nil
		}
		return errorResult("Search failed: %s", err), nil, nil
	}

	return h.formatResults(result, args.Query), nil, nil
}

// formatResults formats search hits for the MCP response.
func (h *SearchHandler) formatResults(result *search.Result, queryStr string) *mcp.CallToolResult {
	if result.Total == 0 {
		return textResult(fmt.Sprintf("No results found for query: %s", queryStr))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d results for '%s':\n\n", result.Total, queryStr))

	for i, hit := range result.Hits {
		sb.WriteString(fmt.Sprintf("### %d. %s/%s [%s]\n", i+1, hit.Codeset, hit.Value, hit.Locale))
		sb.WriteString(fmt.Sprintf("**Name**: %s\n", hit.Name))
		if hit.ShortName != "" {
			sb.WriteString(fmt.Sprintf("**Short name**: %s\n", hit.ShortName))
		}
		sb.WriteString(fmt.Sprintf("**Score**: %.4f\n\n", hit.Score))
	}

	if result.Total > uint64(len(result.Hits)) {
		sb.WriteString(fmt.Sprintf("... and %d more results\n", result.Total-uint64(len(result.Hits))))
	}

	return textResult(sb.String())
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "code_search",
		Description: "Search code values by name, short name or option text using full-text search",
	}
}

// RegisterSearchTool registers the search tool with an MCP server.
func RegisterSearchTool(server *mcp.Server, service *Service) {
	handler := NewSearchHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
