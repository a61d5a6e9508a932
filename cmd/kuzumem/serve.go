package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kuzumem/kuzumem-mcp/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP over stdio",
	Long:  "Serve the MCP tool surface as line-delimited JSON-RPC on stdin/stdout. Logs go to stderr so the wire stays clean.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, cfg, logger, err := buildService()
		if err != nil {
			return err
		}
		defer svc.Shutdown()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := telemetry.Init(ctx, Version); err != nil {
			return err
		}
		defer func() { _ = telemetry.Shutdown(context.Background()) }()

		return newServer(svc, cfg, logger).RunStdio(ctx)
	},
}

var serveHTTPCmd = &cobra.Command{
	Use:   "serve-http",
	Short: "Serve MCP over streamable HTTP",
	Long:  "Serve the MCP tool surface on a single streamable HTTP endpoint with SSE event streams. Bind address comes from HOST and HTTP_STREAM_PORT.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, cfg, logger, err := buildService()
		if err != nil {
			return err
		}
		defer svc.Shutdown()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := telemetry.Init(ctx, Version); err != nil {
			return err
		}
		defer func() { _ = telemetry.Shutdown(context.Background()) }()

		return newServer(svc, cfg, logger).RunHTTP(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(serveHTTPCmd)
}
