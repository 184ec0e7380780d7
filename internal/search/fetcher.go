package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/ca-srg/bravesearch/internal/brave"
	"github.com/ca-srg/bravesearch/internal/ratelimit"
)

const (
	// fallbackCount is the count retried once when the provider rejects the
	// requested one as unprocessable
	fallbackCount = 10

	RateLimitTitle       = "Rate Limit Exceeded"
	rateLimitDescription = "The search rate limit was reached (%v). Wait a moment and try again."
)

// FetchWebResults charges the limiter and returns the raw web results for
// query. A limiter rejection is returned as a single informational record
// rather than an error, so it reaches the caller as tool content.
func (s *Service) FetchWebResults(ctx context.Context, query string, minResults int) ([]brave.WebResult, error) {
	if err := s.limiter.Check(); err != nil {
		if errors.Is(err, ratelimit.ErrRateLimitExceeded) {
			s.logger.Printf("Web search for %q rejected: %v", query, err)
			return []brave.WebResult{rateLimitRecord(err)}, nil
		}
		return nil, err
	}

	return s.fetchWeb(ctx, query, minResults)
}

// fetchWeb performs the request without consulting the limiter. A 422 on
// the requested count is retried exactly once with fallbackCount; every
// other failure is returned as is.
func (s *Service) fetchWeb(ctx context.Context, query string, count int) ([]brave.WebResult, error) {
	resp, err := s.provider.WebSearch(ctx, brave.WebSearchParams{Query: query, Count: count})
	if err == nil {
		return resp.WebResultList(), nil
	}
	if !brave.IsUnprocessable(err) {
		return nil, err
	}

	s.logger.Printf("Provider rejected count=%d, retrying with count=%d", count, fallbackCount)
	resp, err = s.provider.WebSearch(ctx, brave.WebSearchParams{Query: query, Count: fallbackCount})
	if err != nil {
		return nil, fmt.Errorf("web search retry with count=%d: %w", fallbackCount, err)
	}
	return resp.WebResultList(), nil
}

func rateLimitRecord(err error) brave.WebResult {
	return brave.WebResult{
		Title:       RateLimitTitle,
		Description: fmt.Sprintf(rateLimitDescription, err),
	}
}
