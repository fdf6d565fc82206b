package codemaster

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusArgument is empty; the status tool takes no parameters.
type StatusArgument struct{}

// StatusHandler handles the code_status MCP tool.
type StatusHandler struct {
	service *Service
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(service *Service) *StatusHandler {
	return &StatusHandler{service: service}
}

// Handle reports the state of the code data.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgument) (*mcp.CallToolResult, any, error) {
	st := h.service.Status()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**Ready**: %t\n", st.Ready))
	sb.WriteString(fmt.Sprintf("**Source**: %s (%s)\n", st.Path, st.Source))
	sb.WriteString(fmt.Sprintf("**Mode**: %s\n", st.Mode))
	sb.WriteString(fmt.Sprintf("**Default locale**: %s\n", st.DefaultLocale))
	sb.WriteString(fmt.Sprintf("**Generation**: %s\n", st.Generation))
	if !st.LoadedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("**Loaded at**: %s\n", st.LoadedAt.Format(time.RFC3339)))
	}
	sb.WriteString(fmt.Sprintf("**Codesets loaded**: %d\n", st.Codesets))
	sb.WriteString(fmt.Sprintf("**Codesets known absent**: %d\n", st.AbsentCodesets))
	sb.WriteString(fmt.Sprintf("**Loader calls**: %d\n", st.Loads))
	if st.SearchEnabled {
		sb.WriteString(fmt.Sprintf("**Indexed documents**: %d\n", st.IndexedDocuments))
	} else {
		sb.WriteString("**Search**: disabled\n")
	}
	if st.LastError != "" {
		sb.WriteString(fmt.Sprintf("**Last error**: %s\n", st.LastError))
	}

	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *StatusHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "code_status",
		Description: "Report the loading mode, generation and counts of the code data",
	}
}

// RegisterStatusTool registers the status tool with an MCP server.
func RegisterStatusTool(server *mcp.Server, service *Service) {
	handler := NewStatusHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
