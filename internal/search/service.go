package search

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/ca-srg/bravesearch/internal/brave"
	"github.com/ca-srg/bravesearch/internal/format"
	"github.com/ca-srg/bravesearch/internal/ratelimit"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	MinWebCount     = 10
	MaxWebCount     = brave.MaxCount
	DefaultCount    = 20
	defaultLanguage = "en"
)

var searchTracer = otel.Tracer("bravesearch/search")

// Provider is the subset of the Brave API the service depends on
type Provider interface {
	WebSearch(ctx context.Context, params brave.WebSearchParams) (*brave.SearchResponse, error)
	LocalPOIs(ctx context.Context, ids []string) (*brave.POIResponse, error)
	LocalDescriptions(ctx context.Context, ids []string) (*brave.DescriptionsResponse, error)
}

// Config holds optional service settings
type Config struct {
	// SearchLang is sent as search_lang on location queries
	SearchLang string
	Logger     *log.Logger
}

// Service implements web search and local search resolution on top of a
// Provider. Every entry point charges the limiter once.
type Service struct {
	provider   Provider
	limiter    *ratelimit.Limiter
	searchLang string
	logger     *log.Logger
}

// NewService creates a search service. A nil limiter gets the default budgets.
func NewService(provider Provider, limiter *ratelimit.Limiter, cfg Config) *Service {
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.DefaultPerSecond, ratelimit.DefaultPerMonth)
	}
	lang := strings.TrimSpace(cfg.SearchLang)
	if lang == "" {
		lang = defaultLanguage
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[Search] ", log.LstdFlags)
	}

	return &Service{
		provider:   provider,
		limiter:    limiter,
		searchLang: lang,
		logger:     logger,
	}
}

// Limiter returns the limiter shared by all entry points
func (s *Service) Limiter() *ratelimit.Limiter {
	return s.limiter
}

// ClampCount normalises a requested web result count into [10, 20]
func ClampCount(count int) int {
	return max(MinWebCount, min(count, MaxWebCount))
}

// WebRequest describes a web_search invocation
type WebRequest struct {
	Query string
	Count int
	// Detailed selects the presentation with Source, Age and Language lines
	Detailed bool
}

// Web runs a web search and renders it as text
func (s *Service) Web(ctx context.Context, req WebRequest) Result[string] {
	ctx, span := searchTracer.Start(ctx, "search.web", trace.WithAttributes(
		attribute.Int("search.requested_count", req.Count),
		attribute.Bool("search.detailed", req.Detailed),
	))
	defer span.End()

	if strings.TrimSpace(req.Query) == "" {
		err := errors.New("query must not be empty")
		span.SetStatus(codes.Error, "invalid_query")
		return Fail[string](err)
	}

	count := ClampCount(req.Count)
	results, err := s.FetchWebResults(ctx, req.Query, count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "web_search_failed")
		return Fail[string](err)
	}

	span.SetAttributes(attribute.Int("search.results", len(results)))
	return Ok(renderWeb(results, count, req.Detailed))
}

// Local runs the local search pipeline
func (s *Service) Local(ctx context.Context, query string, count int) Result[string] {
	if strings.TrimSpace(query) == "" {
		return Fail[string](errors.New("query must not be empty"))
	}

	text, err := s.SearchLocal(ctx, query, count)
	if err != nil {
		return Fail[string](err)
	}
	return Ok(text)
}

func renderWeb(results []brave.WebResult, count int, detailed bool) string {
	if detailed {
		return format.WebResultsDetailed(results, count)
	}
	return format.WebResults(results, count)
}
