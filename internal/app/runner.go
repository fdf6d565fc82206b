package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/mcp-codemaster-server/internal/codemaster"
	"github.com/sha1n/mcp-codemaster-server/internal/config"
	"github.com/sha1n/mcp-codemaster-server/internal/httpapi"
	mcputil "github.com/sha1n/mcp-codemaster-server/internal/mcp"
	"github.com/spf13/pflag"
)

// Servers holds what the transports serve: the MCP server and, for SSE, the
// REST API handler.
type Servers struct {
	MCP *mcp.Server
	API http.Handler
}

// RunParams contains dependencies for the run function
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	StartSSEServer    func(*Servers, *config.Settings) error
	CreateServer      func(context.Context, *config.Settings) (*Servers, func(), error)
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:   config.LoadSettingsWithFlags,
		ValidSettings:  config.ValidateSettings,
		StartSSEServer: StartSSEServer,
		CreateServer:   CreateMCPServer,
	}
}

// RunWithDeps executes the server with the provided dependencies
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	// Load settings
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Validate settings for conflicting configurations
	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Configure logging - always use stderr to avoid buffering issues
	handler := slog.NewTextHandler(os.Stderr, nil)
	slog.SetDefault(slog.New(handler))

	slog.Info("Starting MCP codemaster server", "version", version)
	config.Log(settings)

	servers, cleanup, err := params.CreateServer(ctx, settings)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	// Start server
	if settings.Transport == "stdio" {
		// Use custom transport if provided (for testing), otherwise use stdio
		transport := params.CustomIOTransport
		if transport == nil {
			transport = &mcp.StdioTransport{}
		}
		return servers.MCP.Run(ctx, transport)
	} else {
		slog.Info("Starting SSE server", "host", settings.Host, "port", settings.Port)
		return params.StartSSEServer(servers, settings)
	}
}

// CreateMCPServer loads the code data and creates the MCP server and REST API
// over it. The returned cleanup stops periodic reloads and closes the source.
func CreateMCPServer(ctx context.Context, settings *config.Settings) (*Servers, func(), error) {
	logger := slog.Default()

	svc, err := codemaster.NewService(ctx, &settings.Codes, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create code service: %w", err)
	}

	// Initialize in background context (not tied to request context)
	if err := svc.Initialize(context.Background()); err != nil {
		if closeErr := svc.Close(); closeErr != nil {
			slog.Error("Failed to close code service", "error", closeErr)
		}
		return nil, nil, fmt.Errorf("code service initialization failed: %w", err)
	}

	reloadCtx, stopReload := context.WithCancel(context.Background())
	go svc.Run(reloadCtx)

	cleanup := func() {
		stopReload()
		if err := svc.Close(); err != nil {
			slog.Error("Failed to close code service", "error", err)
		}
	}

	server := mcputil.CreateServer(mcputil.ServerConfig{
		Name:     "codemaster-mcp",
		Version:  "1.0.0",
		CodesSvc: svc,
	})

	return &Servers{
		MCP: server,
		API: httpapi.NewEcho(svc, logger),
	}, cleanup, nil
}
