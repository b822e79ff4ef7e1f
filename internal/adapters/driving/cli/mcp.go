package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/handbook/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can search and
edit the handbook.

By default the server speaks JSON-RPC over stdio. Use --http to serve the
streamable HTTP transport instead.

Tools: search, get_document, list_documents, create_document,
update_document, delete_document, index_status.

Examples:
  # Stdio mode (for desktop assistants)
  handbook mcp

  # HTTP mode (for MCP Inspector, remote access)
  handbook mcp --http :8080

Assistant configuration:
  {
    "mcpServers": {
      "handbook": {
        "command": "/path/to/handbook",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().String("http", "", "serve streamable HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("http")
	if err != nil {
		return fmt.Errorf("getting http flag: %w", err)
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Search:   searchService,
		Document: documentService,
		Index:    indexService,
	})
	if err != nil {
		return err
	}

	if addr != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on %s\n", addr)
		err = server.RunHTTP(commandContext(cmd), addr)
	} else {
		err = server.Run(commandContext(cmd))
	}
	if isCanceled(err) {
		return nil
	}
	return err
}
