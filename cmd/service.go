package cmd

import (
	"log"
	"os"

	"github.com/ca-srg/bravesearch/internal/brave"
	appconfig "github.com/ca-srg/bravesearch/internal/config"
	"github.com/ca-srg/bravesearch/internal/mcpserver"
	"github.com/ca-srg/bravesearch/internal/ratelimit"
	"github.com/ca-srg/bravesearch/internal/search"
	"github.com/ca-srg/bravesearch/internal/types"
)

// overridable in tests
var loadAppConfig = appconfig.Load

// newSearchService wires the provider client, the shared limiter and the
// search service for one process
func newSearchService(cfg *types.Config) (*search.Service, *brave.Client) {
	client := brave.NewClient(brave.ClientConfig{
		BaseURL: cfg.BraveAPIBaseURL,
		APIKey:  cfg.BraveAPIKey,
		Timeout: cfg.BraveHTTPTimeout,
		Logger:  log.New(os.Stderr, "[BraveClient] ", log.LstdFlags),
	})

	limiter := ratelimit.New(
		cfg.RateLimitPerSecond,
		cfg.RateLimitPerMonth,
		ratelimit.WithRejectHook(mcpserver.RecordRateLimitRejection),
	)

	service := search.NewService(client, limiter, search.Config{
		SearchLang: cfg.BraveSearchLang,
		Logger:     log.New(os.Stderr, "[Search] ", log.LstdFlags),
	})
	return service, client
}
