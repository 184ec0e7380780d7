package brave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL = "https://api.search.brave.com/res/v1"
	DefaultTimeout = 30 * time.Second

	// MaxCount is the largest count the web search endpoint accepts per call
	MaxCount = 20

	subscriptionTokenHeader = "X-Subscription-Token"
	maxErrorBodyBytes       = 4 << 10
)

var braveTracer = otel.Tracer("bravesearch/brave")

// StatusError is returned for non-2xx provider responses
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("brave %s: HTTP %d %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("brave %s: HTTP %d %s: %s", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// IsUnprocessable reports whether err is a 422 Unprocessable Entity response
func IsUnprocessable(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnprocessableEntity
}

// ClientConfig configures a Client
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Transport overrides http.DefaultTransport when set
	Transport http.RoundTripper
	Logger    *log.Logger
}

// Client talks to the Brave Search REST API. The underlying *http.Client is
// created on first use and again after Close.
type Client struct {
	baseURL   string
	apiKey    string
	timeout   time.Duration
	transport http.RoundTripper
	logger    *log.Logger

	mu         sync.Mutex
	httpClient *http.Client
}

// NewClient creates a provider client
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[BraveClient] ", log.LstdFlags)
	}

	return &Client{
		baseURL:   baseURL,
		apiKey:    cfg.APIKey,
		timeout:   timeout,
		transport: cfg.Transport,
		logger:    logger,
	}
}

// WebSearchParams are the query parameters of GET /web/search
type WebSearchParams struct {
	Query        string
	Count        int
	SearchLang   string
	ResultFilter string
	Offset       int
}

func (p WebSearchParams) values() url.Values {
	v := url.Values{}
	v.Set("q", p.Query)
	v.Set("count", strconv.Itoa(p.Count))
	if p.SearchLang != "" {
		v.Set("search_lang", p.SearchLang)
	}
	if p.ResultFilter != "" {
		v.Set("result_filter", p.ResultFilter)
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	return v
}

// WebSearch calls GET /web/search
func (c *Client) WebSearch(ctx context.Context, params WebSearchParams) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.get(ctx, "/web/search", params.values(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LocalPOIs calls GET /local/pois for the given location IDs
func (c *Client) LocalPOIs(ctx context.Context, ids []string) (*POIResponse, error) {
	var resp POIResponse
	if err := c.get(ctx, "/local/pois", idValues(ids), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LocalDescriptions calls GET /local/descriptions for the given location IDs
func (c *Client) LocalDescriptions(ctx context.Context, ids []string) (*DescriptionsResponse, error) {
	var resp DescriptionsResponse
	if err := c.get(ctx, "/local/descriptions", idValues(ids), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Close releases idle connections. The next request builds a fresh client.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
		c.httpClient = nil
	}
}

func (c *Client) client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout:   c.timeout,
			Transport: c.transport,
		}
	}
	return c.httpClient
}

func idValues(ids []string) url.Values {
	v := url.Values{}
	for _, id := range ids {
		v.Add("ids", id)
	}
	return v
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	ctx, span := braveTracer.Start(ctx, "brave.request", trace.WithAttributes(
		attribute.String("brave.endpoint", endpoint),
	))
	defer span.End()

	fullURL := c.baseURL + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request_build_failed")
		return fmt.Errorf("error creating request: %w", err)
	}

	// net/http negotiates gzip itself as long as Accept-Encoding is left unset
	req.Header.Set("Accept", "application/json")
	req.Header.Set(subscriptionTokenHeader, c.apiKey)

	start := time.Now()
	resp, err := c.client().Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport_error")
		return fmt.Errorf("error making request to %s: %w", endpoint, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Printf("Failed to close response body: %v", cerr)
		}
	}()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		statusErr := &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
		c.logger.Printf("Request %s failed with status %d after %v", endpoint, resp.StatusCode, time.Since(start))
		span.RecordError(statusErr)
		span.SetStatus(codes.Error, "unexpected_status")
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode_failed")
		return fmt.Errorf("error parsing %s response: %w", endpoint, err)
	}

	return nil
}
