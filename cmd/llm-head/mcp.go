package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	headmcp "github.com/FergusFettes/llm-head/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server integration",
	}

	cmd.AddCommand(mcpServeCmd())
	return cmd
}

func mcpServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start MCP stdio server for head navigation",
		Long: `Starts an MCP server on stdin/stdout exposing head navigation as
tools (head_show, head_back, head_set, append_response,
show_conversation), so an LLM client can branch its own history.

Configure in Claude Code's .claude/settings.json:
  {
    "mcpServers": {
      "llm-head": {
        "type": "stdio",
        "command": "llm-head",
        "args": ["mcp", "serve"]
      }
    }
  }`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCPServe()
		},
	}
}

func runMCPServe() error {
	server, err := headmcp.NewServer(flagDatabase, headmcp.WithVersion(Version))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx)
}
