package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	smcp "github.com/schoolcms/schoolcms/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes the school's public
content as read-only tools for AI agents. Supports stdio (default) and HTTP transports.

In stdio mode, the MCP server communicates over stdin/stdout using JSON-RPC,
suitable for MCP clients that launch the server as a subprocess.

In HTTP mode, the server listens on the specified port using Streamable HTTP.`,
		Example: `  schoolcms mcp                             # stdio mode
  schoolcms mcp --transport http --port 3001  # HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(transport, port)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")

	return cmd
}

func runMCP(transport string, port int) error {
	if transport != "stdio" && transport != "http" {
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(false)
	// stdio clients usually show stderr to the user; keep it to warnings.
	if transport == "stdio" {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	mcpSrv := smcp.NewMCPServer(st, versionString(), logger)

	if transport == "stdio" {
		return mcpSrv.ServeStdio()
	}
	return mcpSrv.ServeHTTP(fmt.Sprintf(":%d", port))
}
