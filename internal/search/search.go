// Package search queries the ScraperAPI structured Amazon search endpoint
// and turns its product listings into comparison candidates.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/image-compare/internal/compare"
)

const (
	// DefaultEndpoint is the ScraperAPI structured Amazon search URL.
	DefaultEndpoint = "https://api.scraperapi.com/structured/amazon/search/v1"
	// DefaultTLD selects amazon.com.
	DefaultTLD = "com"
	// MaxPages is the largest number of result pages fetched for one query.
	MaxPages = 20
	// AllPages requests every page up to the configured maximum.
	AllPages = -1

	defaultTimeout = 60 * time.Second
)

var (
	// ErrInvalidPages is returned when the page count is out of range.
	ErrInvalidPages = errors.New("invalid page count")
	// ErrMissingAPIKey is returned when no ScraperAPI key is configured.
	ErrMissingAPIKey = errors.New("SCRAPERAPI_KEY not set")
)

// APIError is a non-2xx response from the search API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ScraperAPI error (status %d): %s", e.Status, e.Body)
}

// Searcher returns the candidates found for a query.
type Searcher interface {
	Search(ctx context.Context, query string, pages int) ([]compare.Candidate, error)
}

// Options configures a Client.
type Options struct {
	APIKey   string
	Endpoint string
	TLD      string
	// MaxPages caps the page count and is what AllPages resolves to.
	MaxPages int
	Timeout  time.Duration
}

// Client is a Searcher backed by ScraperAPI.
type Client struct {
	http *http.Client
	opts Options
	log  logrus.FieldLogger
}

// NewClient creates a search client. Zero option values select the defaults.
func NewClient(opts Options, log logrus.FieldLogger) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.TLD == "" {
		opts.TLD = DefaultTLD
	}
	if opts.MaxPages <= 0 || opts.MaxPages > MaxPages {
		opts.MaxPages = MaxPages
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	return &Client{
		http: &http.Client{Timeout: opts.Timeout},
		opts: opts,
		log:  log,
	}
}

// ResolvePages turns a requested page count into the number of pages to
// fetch. AllPages resolves to maxPages; anything outside [1, maxPages]
// fails with ErrInvalidPages.
func ResolvePages(pages, maxPages int) (int, error) {
	if pages == AllPages {
		return maxPages, nil
	}
	if pages < 1 || pages > maxPages {
		return 0, fmt.Errorf("%w: pages must be between 1 and %d, or -1 for all pages", ErrInvalidPages, maxPages)
	}
	return pages, nil
}

// Search fetches the requested pages concurrently and returns their results
// merged in page order. Any failed page fails the whole search.
func (c *Client) Search(ctx context.Context, query string, pages int) ([]compare.Candidate, error) {
	n, err := ResolvePages(pages, c.opts.MaxPages)
	if err != nil {
		return nil, err
	}
	if c.opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	start := time.Now()
	perPage := make([][]compare.Candidate, n)

	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		g.Go(func() error {
			results, err := c.fetchPage(gctx, query, i+1)
			if err != nil {
				return err
			}
			perPage[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []compare.Candidate
	for _, p := range perPage {
		merged = append(merged, p...)
	}

	c.log.WithFields(logrus.Fields{
		"query":    query,
		"pages":    n,
		"results":  len(merged),
		"duration": time.Since(start),
	}).Info("Search finished")

	return merged, nil
}

func (c *Client) fetchPage(ctx context.Context, query string, page int) ([]compare.Candidate, error) {
	endpoint, err := url.Parse(c.opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}
	params := endpoint.Query()
	params.Set("api_key", c.opts.APIKey)
	params.Set("query", query)
	params.Set("tld", c.opts.TLD)
	params.Set("page", strconv.Itoa(page))
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := c.http.Do(req) //nolint:gosec // endpoint comes from configuration
	if err != nil {
		return nil, fmt.Errorf("could not send search request for page %d: %w", page, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read search response for page %d: %w", page, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("search response for page %d is not valid JSON", page)
	}

	results := parseResults(body)
	c.log.WithFields(logrus.Fields{
		"page":    page,
		"results": len(results),
	}).Debug("Fetched search page")

	return results, nil
}

// parseResults extracts the product listings of one response page.
// A page without a results array yields no candidates.
func parseResults(body []byte) []compare.Candidate {
	items := gjson.GetBytes(body, "results")
	if !items.IsArray() {
		return nil
	}

	var out []compare.Candidate
	for _, item := range items.Array() {
		out = append(out, parseProduct(item))
	}
	return out
}

func parseProduct(item gjson.Result) compare.Candidate {
	price := item.Get("price_string").String()
	if price == "" {
		price = item.Get("price").String()
	}

	return compare.Candidate{
		Name:         item.Get("name").String(),
		URL:          item.Get("url").String(),
		Price:        price,
		Image:        strings.TrimSpace(item.Get("image").String()),
		ASIN:         item.Get("asin").String(),
		Stars:        item.Get("stars").Float(),
		TotalReviews: int(item.Get("total_reviews").Int()),
	}
}
