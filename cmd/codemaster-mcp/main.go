package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sha1n/mcp-codemaster-server/internal/app"
	"github.com/sha1n/mcp-codemaster-server/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "codemaster-mcp"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, Build, ProgramName, args[1:]); err != nil {
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing
func Execute(version, build, programName string, args []string) error {
	rootCmd := &cobra.Command{
		Use:     programName,
		Short:   "Codemaster MCP Server",
		Long:    "Serves localized code master (reference data) lookups over MCP and a REST API",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithFlags(cmd.Flags(), version)
		},
	}

	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	app.RegisterFlags(rootCmd.Flags())
	rootCmd.AddCommand(newListCommand(rootCmd.OutOrStdout()), newImportCommand())
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

func runWithFlags(flags *pflag.FlagSet, version string) error {
	return app.RunWithDeps(context.Background(), app.DefaultRunParams(), flags, version)
}

func newListCommand(out io.Writer) *cobra.Command {
	var locale string
	cmd := &cobra.Command{
		Use:   "list [codeset]",
		Short: "List the codesets, or the values of one codeset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettingsWithFlags(cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}
			if err := config.ValidateSettings(settings); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			var codesetID string
			if len(args) == 1 {
				codesetID = args[0]
			}
			return app.ListCodes(cmd.Context(), &settings.Codes, codesetID, locale, out)
		},
	}
	app.RegisterCodesFlags(cmd.Flags())
	cmd.Flags().StringVar(&locale, "locale", "", "Locale whose ordering and names to list")
	return cmd
}

func newImportCommand() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy code data between a YAML/JSON file and a SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := app.ImportCodes(cmd.Context(), from, to, nil)
			if err != nil {
				return err
			}
			cmd.Printf("Imported %d rows from %s to %s\n", n, from, to)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Source file (.yaml, .yml, .json) or SQLite database")
	cmd.Flags().StringVar(&to, "to", "", "Target file (.yaml, .yml, .json) or SQLite database")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
