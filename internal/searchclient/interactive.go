package searchclient

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// RunInteractive prints the available tools and then answers one query per
// input line until "quit", end of input or ctx cancellation
func (c *Client) RunInteractive(ctx context.Context, in io.Reader, out io.Writer) error {
	tools, err := c.Tools(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Available tools: %s\n", strings.Join(tools, ", "))

	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Fprint(out, "\nSearch query (or 'quit'): ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		switch {
		case strings.EqualFold(query, "quit"):
			return nil
		case query == "":
			continue
		}

		kind := "standard"
		if IsComplex(query) {
			kind = "complex"
		}
		fmt.Fprintf(out, "Searching with %s query...\n", kind)

		result := c.Search(ctx, query)
		fmt.Fprintf(out, "\nResults:\n%s\n", result)
	}

	return scanner.Err()
}
