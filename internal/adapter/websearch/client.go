// Package websearch implements the search provider against a
// SearxNG-compatible JSON search endpoint.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"recipe-harvester/internal/domain"
)

const (
	maxAttempts  = 3
	retryBackoff = 500 * time.Millisecond
)

type Client struct {
	BaseURL string
	Client  *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		BaseURL: baseURL,
		Client:  httpClient,
		logger:  logger,
	}
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Search queries the upstream service, retrying transport failures
// internally. Exhaustion surfaces as ErrSearchUnavailable; filtering
// by the domain allow-list may return fewer hits than requested and
// no backfill is attempted.
func (c *Client) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchHit, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 || maxResults > domain.MaxSearchResults {
		maxResults = domain.MaxSearchResults
	}

	var (
		resp searchResponse
		err  error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := retryBackoff << (attempt - 2)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", domain.ErrSearchUnavailable, ctx.Err())
			case <-time.After(backoff):
			}
		}

		resp, err = c.doSearch(ctx, query)
		if err == nil {
			break
		}
		c.logger.Warn("search_attempt_failed",
			slog.Int("attempt", attempt),
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchUnavailable, err)
	}

	allowed := make(map[string]bool, len(opts.DomainAllowList))
	for _, d := range opts.DomainAllowList {
		allowed[d] = true
	}

	hits := make([]domain.SearchHit, 0, maxResults)
	for _, r := range resp.Results {
		if len(hits) >= maxResults {
			break
		}
		sourceDomain := domain.DomainOf(r.URL)
		if sourceDomain == "" {
			continue
		}
		if len(allowed) > 0 && !allowed[sourceDomain] {
			continue
		}
		hits = append(hits, domain.SearchHit{
			URL:          r.URL,
			Title:        r.Title,
			Snippet:      r.Content,
			SourceDomain: sourceDomain,
		})
	}

	c.logger.Info("search_completed",
		slog.String("query", query),
		slog.Int("raw_results", len(resp.Results)),
		slog.Int("hits", len(hits)),
	)

	return hits, nil
}

func (c *Client) doSearch(ctx context.Context, query string) (searchResponse, error) {
	var out searchResponse

	u, err := url.Parse(c.BaseURL + "/search")
	if err != nil {
		return out, fmt.Errorf("invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return out, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return out, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("search returned status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("failed to decode search response: %w", err)
	}
	return out, nil
}

var _ domain.SearchProvider = (*Client)(nil)
