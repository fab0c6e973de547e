package cmd

import (
	"fmt"

	"github.com/mfenderov/doculens/internal/mcp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the MCP server for section retrieval.

The server communicates via stdio and provides three tools:
  - search_sections: Search indexed sections by query (needs Elasticsearch)
  - get_section: Get a stored section with its code, videos and problems
  - list_sections: List a language's sections in learning order

Example:
  doculens serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	mcpConfig := mcp.Config{
		Name:    cfg.MCP.Name,
		Version: cfg.MCP.Version,
	}

	var server *mcp.Server
	if cfg.Elasticsearch.Enabled {
		esClient, err := newSearchClient(cfg)
		if err != nil {
			return err
		}
		server = mcp.NewServer(mcpConfig, st, esClient)
	} else {
		// Untyped nil keeps search_sections reporting that search is off.
		server = mcp.NewServer(mcpConfig, st, nil)
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting MCP server...")

	return server.ServeStdio()
}
