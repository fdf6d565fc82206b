package codemaster

import (
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-codemaster-server/internal/codes"
	"golang.org/x/text/language"
)

// RegisterTools registers every code tool with an MCP server.
func RegisterTools(server *mcp.Server, service *Service) {
	RegisterContainsTool(server, service)
	RegisterNameTool(server, service)
	RegisterValuesTool(server, service)
	RegisterValidateTool(server, service)
	RegisterSearchTool(server, service)
	RegisterStatusTool(server, service)
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
		IsError: true,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// notReadyResult returns an error result while the service has no data yet.
func notReadyResult(service *Service) *mcp.CallToolResult {
	if service.IsReady() {
		return nil
	}
	return errorResult("Code data is not available yet. Please try again later.")
}

// parseLocaleArg turns an optional locale argument into a tag; an empty
// argument becomes language.Und so the resolver default applies.
func parseLocaleArg(s string) (language.Tag, error) {
	if strings.TrimSpace(s) == "" {
		return language.Und, nil
	}
	return codes.ParseLocale(s)
}

// lookupErrorResult describes a lookup failure in terms a client can act on.
func lookupErrorResult(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, codes.ErrUnknownCodeset):
		return errorResult("Unknown codeset: %s", err)
	case errors.Is(err, codes.ErrUnknownPattern):
		return errorResult("Unknown pattern: %s", err)
	case errors.Is(err, codes.ErrUnknownValue):
		return errorResult("Unknown value: %s", err)
	case errors.Is(err, codes.ErrUnknownOptionColumn):
		return errorResult("Unknown option column: %s", err)
	case errors.Is(err, codes.ErrUnknownLocaleData):
		return errorResult("No data for locale: %s", err)
	case errors.Is(err, codes.ErrLoadFailure):
		return errorResult("Failed to load codes: %s", err)
	default:
		return errorResult("Lookup failed: %s", err)
	}
}

// resolverFor returns the registered resolver or an error result.
func resolverFor(service *Service) (*codes.Resolver, *mcp.CallToolResult) {
	if res := notReadyResult(service); res != nil {
		return nil, res
	}
	resolver, err := service.Resolver()
	if err != nil {
		return nil, errorResult("Resolver unavailable: %s", err)
	}
	return resolver, nil
}
