package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ca-srg/bravesearch/internal/searchclient"
)

var (
	clientServerCmd string
	clientEndpoint  string
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Interactive search client for a bravesearch MCP server",
	Long: `
Connect to a bravesearch MCP server and run web searches interactively.
Complex queries (questions, comparisons, more than five words) request 20
results, others 10. Type 'quit' to exit.

By default the client spawns "<this binary> mcp-server" and talks to it over
stdio; the child inherits the environment, including BRAVE_API_KEY.

Examples:
  bravesearch client
  bravesearch client --server-cmd "bravesearch mcp-server --tool-prefix brave_"
  bravesearch client --endpoint http://localhost:8080/mcp
`,
	RunE: runClient,
}

func init() {
	clientCmd.Flags().StringVar(&clientServerCmd, "server-cmd", "", "Command that starts the MCP server over stdio")
	clientCmd.Flags().StringVar(&clientEndpoint, "endpoint", "", "Streamable HTTP endpoint of a running server")
	clientCmd.MarkFlagsMutuallyExclusive("server-cmd", "endpoint")
}

func runClient(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		client *searchclient.Client
		err    error
	)
	if clientEndpoint != "" {
		client, err = searchclient.ConnectEndpoint(ctx, clientEndpoint)
	} else {
		command, commandArgs, resolveErr := serverCommand(clientServerCmd)
		if resolveErr != nil {
			return resolveErr
		}
		client, err = searchclient.ConnectCommand(ctx, command, commandArgs...)
	}
	if err != nil {
		return err
	}
	defer client.Close()

	return client.RunInteractive(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

// serverCommand splits --server-cmd, defaulting to this binary's mcp-server
func serverCommand(raw string) (string, []string, error) {
	if fields := strings.Fields(raw); len(fields) > 0 {
		return fields[0], fields[1:], nil
	}
	self, err := os.Executable()
	if err != nil {
		return "", nil, fmt.Errorf("cannot locate bravesearch binary, pass --server-cmd: %w", err)
	}
	return self, []string{"mcp-server"}, nil
}
