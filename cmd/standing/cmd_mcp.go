package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	mcpadapter "github.com/kirillkom/academic-standing/internal/adapters/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the classify_learning_results tool over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context(), "standing-mcp")
			if err != nil {
				return err
			}
			defer app.Close()

			slog.Info("mcp_server_starting", "transport", "stdio")
			return mcpadapter.NewServer(app.ProcessUC, version).ServeStdio()
		},
	}
}
