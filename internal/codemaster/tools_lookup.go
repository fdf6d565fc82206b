package codemaster

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ContainsArgument defines membership check parameters.
type ContainsArgument struct {
	Codeset string `json:"codeset" jsonschema_description:"Codeset id (e.g., 0001)"`
	Value   string `json:"value" jsonschema_description:"Code value to check"`
	Pattern string `json:"pattern,omitempty" jsonschema_description:"Restrict the check to a named pattern (case-insensitive)"`
}

// ContainsHandler handles the code_contains MCP tool.
type ContainsHandler struct {
	service *Service
}

// NewContainsHandler creates a new contains handler.
func NewContainsHandler(service *Service) *ContainsHandler {
	return &ContainsHandler{service: service}
}

// Handle reports whether the value belongs to the codeset (or pattern).
func (h *ContainsHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ContainsArgument) (*mcp.CallToolResult, any, error) {
	resolver, res := resolverFor(h.service)
	if res != nil {
		return res, nil, nil
	}
	if strings.TrimSpace(args.Codeset) == "" {
		return errorResult("Codeset cannot be empty"), nil, nil
	}

	var (
		ok  bool
		err error
	)
	if args.Pattern == "" {
		ok, err = resolver.Contains(ctx, args.Codeset, args.Value)
	} else {
		ok, err = resolver.ContainsInPattern(ctx, args.Codeset, args.Pattern, args.Value)
	}
	if err != nil {
		return lookupErrorResult(err), nil, nil
	}

	scope := "codeset " + args.Codeset
	if args.Pattern != "" {
		scope += " pattern " + args.Pattern
	}
	if ok {
		return textResult(fmt.Sprintf("%q is a member of %s", args.Value, scope)), nil, nil
	}
	return textResult(fmt.Sprintf("%q is not a member of %s", args.Value, scope)), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ContainsHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "code_contains",
		Description: "Check whether a value belongs to a codeset, optionally restricted to a pattern",
	}
}

// RegisterContainsTool registers the contains tool with an MCP server.
func RegisterContainsTool(server *mcp.Server, service *Service) {
	handler := NewContainsHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

// NameArgument defines name lookup parameters.
type NameArgument struct {
	Codeset string `json:"codeset" jsonschema_description:"Codeset id (e.g., 0001)"`
	Value   string `json:"value" jsonschema_description:"Code value to resolve"`
	Locale  string `json:"locale,omitempty" jsonschema_description:"Locale (e.g., en, ja); defaults to the server locale"`
	Column  string `json:"column,omitempty" jsonschema_description:"Option column to resolve instead of the name (e.g., OPTION01)"`
}

// NameHandler handles the code_name MCP tool.
type NameHandler struct {
	service *Service
}

// NewNameHandler creates a new name handler.
func NewNameHandler(service *Service) *NameHandler {
	return &NameHandler{service: service}
}

// Handle resolves the name, short name or option column of a value.
func (h *NameHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args NameArgument) (*mcp.CallToolResult, any, error) {
	resolver, res := resolverFor(h.service)
	if res != nil {
		return res, nil, nil
	}
	if strings.TrimSpace(args.Codeset) == "" {
		return errorResult("Codeset cannot be empty"), nil, nil
	}
	if strings.TrimSpace(args.Value) == "" {
		return errorResult("Value cannot be empty"), nil, nil
	}
	locale, err := parseLocaleArg(args.Locale)
	if err != nil {
		return errorResult("Invalid locale %q: %s", args.Locale, err), nil, nil
	}
	locale = resolver.ResolveLocale(ctx, locale)

	cs, err := resolver.CodeSet(ctx, args.Codeset)
	if err != nil {
		return lookupErrorResult(err), nil, nil
	}

	if args.Column != "" {
		option, err := cs.OptionalName(args.Value, args.Column, locale)
		if err != nil {
			return lookupErrorResult(err), nil, nil
		}
		return textResult(fmt.Sprintf("%s/%s [%s] %s: %s", args.Codeset, args.Value, locale, args.Column, option)), nil, nil
	}

	name, err := cs.Name(args.Value, locale)
	if err != nil {
		return lookupErrorResult(err), nil, nil
	}
	shortName, err := cs.ShortName(args.Value, locale)
	if err != nil {
		return lookupErrorResult(err), nil, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s/%s [%s]\n", args.Codeset, args.Value, locale))
	sb.WriteString(fmt.Sprintf("**Name**: %s\n", name))
	sb.WriteString(fmt.Sprintf("**Short name**: %s\n", shortName))
	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *NameHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "code_name",
		Description: "Resolve the localized name, short name or option column of a code value",
	}
}

// RegisterNameTool registers the name tool with an MCP server.
func RegisterNameTool(server *mcp.Server, service *Service) {
	handler := NewNameHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

// ValuesArgument defines value listing parameters.
type ValuesArgument struct {
	Codeset string `json:"codeset" jsonschema_description:"Codeset id (e.g., 0001)"`
	Pattern string `json:"pattern,omitempty" jsonschema_description:"Restrict the list to a named pattern (case-insensitive)"`
	Locale  string `json:"locale,omitempty" jsonschema_description:"Locale whose ordering and names to use; defaults to the server locale"`
}

// ValuesHandler handles the code_values MCP tool.
type ValuesHandler struct {
	service *Service
}

// NewValuesHandler creates a new values handler.
func NewValuesHandler(service *Service) *ValuesHandler {
	return &ValuesHandler{service: service}
}

// Handle lists the values of a codeset in locale order, with their names.
func (h *ValuesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ValuesArgument) (*mcp.CallToolResult, any, error) {
	resolver, res := resolverFor(h.service)
	if res != nil {
		return res, nil, nil
	}
	if strings.TrimSpace(args.Codeset) == "" {
		return errorResult("Codeset cannot be empty"), nil, nil
	}
	locale, err := parseLocaleArg(args.Locale)
	if err != nil {
		return errorResult("Invalid locale %q: %s", args.Locale, err), nil, nil
	}
	locale = resolver.ResolveLocale(ctx, locale)

	// One snapshot serves the whole listing so a reload cannot drop values
	// between the list and the name lookups.
	cs, err := resolver.CodeSet(ctx, args.Codeset)
	if err != nil {
		return lookupErrorResult(err), nil, nil
	}

	var values []string
	if args.Pattern == "" {
		values, err = cs.Values(locale)
	} else {
		values, err = cs.ValuesInPattern(args.Pattern, locale)
	}
	if err != nil {
		return lookupErrorResult(err), nil, nil
	}

	if len(values) == 0 {
		return textResult(fmt.Sprintf("No values in codeset %s for locale %s", args.Codeset, locale)), nil, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Codeset %s [%s]", args.Codeset, locale))
	if args.Pattern != "" {
		sb.WriteString(fmt.Sprintf(" pattern %s", args.Pattern))
	}
	sb.WriteString(fmt.Sprintf(": %d values\n\n", len(values)))
	for i, value := range values {
		name, err := cs.Name(value, locale)
		if err != nil {
			return lookupErrorResult(err), nil, nil
		}
		sb.WriteString(fmt.Sprintf("%d. %s: %s\n", i+1, value, name))
	}
	return textResult(sb.String()), nil, nil
}

// GetToolDefinition returns the MCP tool definition.
func (h *ValuesHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "code_values",
		Description: "List the values of a codeset, optionally restricted to a pattern, in the locale's display order",
	}
}

// RegisterValuesTool registers the values tool with an MCP server.
func RegisterValuesTool(server *mcp.Server, service *Service) {
	handler := NewValuesHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
