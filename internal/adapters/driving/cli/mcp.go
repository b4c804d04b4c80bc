package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/helpdesk/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask the
helpdesk, search the knowledge base and record feedback.

By default the server speaks JSON-RPC over stdio. Use --port to serve the
streamable HTTP transport instead.

Examples:
  helpdesk mcp serve
  helpdesk mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "helpdesk": {
        "command": "/path/to/helpdesk",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Annotations: map[string]string{needs: needsPipeline},
	RunE:        runMCPServe,
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

	ports := &mcp.Ports{
		Answer:        answerService,
		Search:        searchService,
		Feedback:      feedbackService,
		Ingest:        ingestService,
		Conversations: conversationReader,
	}

	server, err := mcp.NewServer(ports, appLogger)
	if err != nil {
		return err
	}

	watchPrompts(cmd.Context())
	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
