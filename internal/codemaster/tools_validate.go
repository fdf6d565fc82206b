package codemaster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-codemaster-server/internal/codes"
	"github.com/sha1n/mcp-codemaster-server/internal/validation"
	"golang.org/x/text/language"
)

// ValidateArgument defines validation parameters.
type ValidateArgument struct {
	Codeset   string   `json:"codeset" jsonschema_description:"Codeset id the values must belong to"`
	Pattern   string   `json:"pattern,omitempty" jsonschema_description:"Pattern the values must belong to (case-insensitive)"`
	Values    []string `json:"values" jsonschema_description:"Values to validate; empty values always pass"`
	MessageID string   `json:"message_id,omitempty" jsonschema_description:"Message id reported when validation fails"`
	Locale    string   `json:"locale,omitempty" jsonschema_description:"Locale whose ordering is used for the allowed values list"`
}

// ValidateHandler handles the code_validate MCP tool.
type ValidateHandler struct {
	service *Service
}

// NewValidateHandler creates a new validate handler.
func NewValidateHandler(service *Service) *ValidateHandler {
	return &ValidateHandler{service: service}
}

// Handle validates the values against the rule and reports the outcome.
func (h *ValidateHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ValidateArgument) (*mcp.CallToolResult, any, error) {
	if res := notReadyResult(h.service); res != nil {
		return res, nil, nil
	}
	if strings.TrimSpace(args.Codeset) == "" {
		return errorResult("Codeset cannot be empty"), nil, nil
	}
	locale, err := parseLocaleArg(args.Locale)
	if err != nil {
		return errorResult("Invalid locale %q: %s", args.Locale, err), nil, nil
	}
	if locale != language.Und {
		ctx = codes.WithLocale(ctx, locale)
	}

	rule := validation.Rule{
		CodesetID: args.Codeset,
		Pattern:   args.Pattern,
		MessageID: args.MessageID,
	}
	result, err := h.service.Validator().ValidateEach(ctx, rule, args.Values)
	if err != nil {
		if errors.Is(err, validation.ErrNoCodeset) {
			return errorResult("Invalid rule: %s", err), nil, nil
		}
		return lookupErrorResult(err), nil, nil
	}

	if result.Valid {
		return textResult(fmt.Sprintf("All %d values are valid for codeset %s", len(args.Values), args.Codeset)), nil, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Validation failed (%s)\n", result.MessageID))
	sb.WriteString(fmt.Sprintf("**Invalid**: %s\n", strings.Join(result.Invalid, ", ")))
	sb.WriteString(fmt.Sprintf("**Allowed**: %s\n", result.AllowedValues))
	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ValidateHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "code_validate",
		Description: "Validate input values against a codeset (and pattern), listing the allowed values on failure",
	}
}

// RegisterValidateTool registers the validate tool with an MCP server.
func RegisterValidateTool(server *mcp.Server, service *Service) {
	handler := NewValidateHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
