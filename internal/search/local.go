package search

import (
	"context"
	"fmt"

	"github.com/ca-srg/bravesearch/internal/brave"
	"github.com/ca-srg/bravesearch/internal/format"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	locationFilter = "locations"

	// minLocationIDs is the number of IDs pagination tries to reach
	minLocationIDs = 10
	// maxLocationOffset bounds pagination to offsets 0, 20 and 40
	maxLocationOffset = 40
)

// SearchLocal resolves query into point-of-interest listings. When the
// provider knows no locations for the query, DefaultCount web results for
// the same query are returned instead. A failed follow-up page ends
// pagination without failing the search.
func (s *Service) SearchLocal(ctx context.Context, query string, desiredCount int) (string, error) {
	ctx, span := searchTracer.Start(ctx, "search.local", trace.WithAttributes(
		attribute.Int("search.requested_count", desiredCount),
	))
	defer span.End()

	if err := s.limiter.Check(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rate_limited")
		return "", err
	}

	first, err := s.provider.WebSearch(ctx, s.locationParams(query, 0))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "location_search_failed")
		return "", fmt.Errorf("location search failed: %w", err)
	}

	ids := first.LocationIDs()
	if len(ids) == 0 {
		// The limiter was already charged for this invocation
		count := DefaultCount
		s.logger.Printf("No locations for %q, falling back to web search", query)
		span.SetAttributes(attribute.Bool("search.web_fallback", true))

		results, err := s.fetchWeb(ctx, query, count)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "web_fallback_failed")
			return "", err
		}
		return renderWeb(results, count, false), nil
	}

	pages := 1
	offset := 0
	for len(ids) < minLocationIDs && offset < maxLocationOffset {
		offset += brave.MaxCount
		page, err := s.provider.WebSearch(ctx, s.locationParams(query, offset))
		if err != nil {
			// the IDs already collected are still worth resolving
			s.logger.Printf("Location page at offset %d failed, continuing with %d IDs: %v", offset, len(ids), err)
			span.RecordError(err, trace.WithAttributes(attribute.Int("search.location_offset", offset)))
			break
		}
		pages++
		ids = append(ids, page.LocationIDs()...)
	}

	span.SetAttributes(
		attribute.Int("search.location_pages", pages),
		attribute.Int("search.location_ids", len(ids)),
	)

	pois, descriptions, err := s.locationDetails(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "location_details_failed")
		return "", err
	}

	return format.LocalResults(pois, descriptions), nil
}

func (s *Service) locationParams(query string, offset int) brave.WebSearchParams {
	return brave.WebSearchParams{
		Query:        query,
		Count:        brave.MaxCount,
		SearchLang:   s.searchLang,
		ResultFilter: locationFilter,
		Offset:       offset,
	}
}

// locationDetails fetches POIs and descriptions concurrently. Both calls
// must succeed; the first failure cancels the other.
func (s *Service) locationDetails(ctx context.Context, ids []string) ([]brave.POI, map[string]string, error) {
	var (
		pois         *brave.POIResponse
		descriptions *brave.DescriptionsResponse
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		resp, err := s.provider.LocalPOIs(gCtx, ids)
		if err != nil {
			return fmt.Errorf("POI lookup failed: %w", err)
		}
		pois = resp
		return nil
	})

	g.Go(func() error {
		resp, err := s.provider.LocalDescriptions(gCtx, ids)
		if err != nil {
			return fmt.Errorf("description lookup failed: %w", err)
		}
		descriptions = resp
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var descMap map[string]string
	if descriptions != nil {
		descMap = descriptions.Descriptions
	}
	var poiList []brave.POI
	if pois != nil {
		poiList = pois.Results
	}
	return poiList, descMap, nil
}
