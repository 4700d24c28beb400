// standing classifies academic records from the command line.
//
// Usage:
//
//	standing classify [-f records.json]          JSON array in, annotated JSON array out
//	standing import -f results.xlsx -o out.csv   registrar workbook in, csv or xlsx out
//	standing mcp                                 MCP tool server over stdio
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/academic-standing/internal/bootstrap"
	"github.com/kirillkom/academic-standing/internal/config"
	"github.com/kirillkom/academic-standing/internal/observability/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "standing",
		Short:         "Academic standing classification",
		Long:          "Annotates per-semester learning results with an academic standing label.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	root.AddCommand(newClassifyCmd(), newImportCmd(), newMCPCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newApp builds the pipeline from the environment. Logs go to stderr so
// stdout carries only command output.
func newApp(ctx context.Context, service string) (*bootstrap.App, error) {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, service, cfg.LogLevel))
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return app, nil
}
