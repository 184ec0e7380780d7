package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ca-srg/bravesearch/internal/search"
)

var (
	queryLocal    bool
	queryCount    int
	queryDetailed bool
)

var queryCmd = &cobra.Command{
	Use:   "query <terms>",
	Short: "Run a single search and print the formatted results",
	Long: `
Run one search in-process, without an MCP server, and print the same text
the tools would return.

Examples:
  bravesearch query golang generics
  bravesearch query --count 15 --detailed "http/3 adoption"
  bravesearch query --local coffee shops in San Francisco
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryLocal, "local", false, "Search local businesses and places")
	queryCmd.Flags().IntVarP(&queryCount, "count", "c", search.DefaultCount, "Desired number of web results (10-20)")
	queryCmd.Flags().BoolVar(&queryDetailed, "detailed", false, "Include source, age and language lines")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	service, client := newSearchService(cfg)
	defer client.Close()

	terms := strings.Join(args, " ")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var result search.Result[string]
	if queryLocal {
		result = service.Local(ctx, terms, queryCount)
	} else {
		result = service.Web(ctx, search.WebRequest{Query: terms, Count: queryCount, Detailed: queryDetailed})
	}

	text, err := result.Unwrap()
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
