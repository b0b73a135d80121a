package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/caresync/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can query your
health documents.

The server exposes three tools:
  ask               - answer a question with cited sources
  search            - retrieve the most relevant passages
  process_document  - ingest a local PDF or DOCX file

By default, the server communicates over stdio using JSON-RPC.
Use --port to serve over HTTP instead. If the port is taken the next free
port is used.

Examples:
  # Stdio mode (default, for desktop assistants)
  caresync mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  caresync mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "caresync": {
        "command": "/path/to/caresync",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if port < 0 {
		return errors.New("port must not be negative")
	}

	ports := &mcp.Ports{
		Chat:      chatService,
		Retrieval: retrievalService,
		Document:  documentService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		ln, err := mcp.Listen(port)
		if err != nil {
			return fmt.Errorf("listening: %w", err)
		}
		printStartupWarnings(cmd)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", ln.Addr())
		return server.RunHTTP(cmd.Context(), ln)
	}

	// stdout carries the protocol, so warnings go to stderr only.
	printStartupWarnings(cmd)
	return server.Run(cmd.Context())
}
