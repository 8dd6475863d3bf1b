package main

import (
	"github.com/spf13/cobra"

	receptmcp "github.com/hyperengineering/receptradar/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for agent integration",
	Long: `Start a Model Context Protocol (MCP) server over stdio.

This lets an AI assistant manage the pantry, generate recipes and pick
favorites through receptradar tools.

Configuration (claude_desktop_config.json):

  {
    "mcpServers": {
      "receptradar": {
        "command": "receptradar",
        "args": ["mcp"],
        "env": {
          "RECEPTRADAR_DATA_DIR": "/path/to/data",
          "AZURE_OPENAI_ENDPOINT": "https://<resource>.openai.azure.com",
          "AZURE_OPENAI_API_KEY": "...",
          "AZURE_OPENAI_CHAT_DEPLOYMENT": "gpt-4o"
        }
      }
    }
  }

Environment variables:
  RECEPTRADAR_DATA_DIR           Data directory (default: ~/.receptradar)
  RECEPTRADAR_DB_PATH            SQLite database path
  RECEPTRADAR_LOG                JSON log file (stdout is reserved for the protocol)
  AZURE_OPENAI_*                 Recipe generation provider (optional)`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	// The client persists for the server lifetime
	client, cleanup, err := openClient()
	if err != nil {
		return err
	}
	defer cleanup()

	return receptmcp.NewServer(client).Run()
}
