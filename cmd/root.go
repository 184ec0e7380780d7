package cmd

import (
	"github.com/ca-srg/bravesearch/internal/mcpserver"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bravesearch",
	Short: "Brave Search web and local search as MCP tools",
	Long: `bravesearch exposes Brave Search web search and local business search
as MCP (Model Context Protocol) tools, with a rate limiter in front of the
provider and an interactive client for trying queries.

Configuration is read from the environment and an optional .env file.
BRAVE_API_KEY is required.`,
	Version:       mcpserver.Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(mcpServerCmd)
	rootCmd.AddCommand(clientCmd)
	rootCmd.AddCommand(queryCmd)
}
