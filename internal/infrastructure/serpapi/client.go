// Package serpapi implements the web-search link discovery adapter.
package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/eanfill/backend/internal/domain"
)

// maxLinks caps how many organic result URLs a single search yields
const maxLinks = 4

// trustedMarkers are manufacturer and large-marketplace signals. A URL
// containing any of them (case-insensitive) ranks before all others.
var trustedMarkers = []string{
	"fabricante",
	"oficial",
	"amazon.com.br",
	"mercadolivre.com.br",
	"magazineluiza.com.br",
	"rihappy",
	"casasbahia",
	"submarino",
	"extra",
}

// organicResult is one entry of the search API's organic_results list
type organicResult struct {
	Link string `json:"link"`
}

// searchResponse is the wire shape of the search endpoint
type searchResponse struct {
	OrganicResults []organicResult `json:"organic_results"`
}

// Client handles communication with the SerpAPI search endpoint
type Client struct {
	httpClient   *http.Client
	apiKey       string
	baseURL      string
	googleDomain string
	rateLimiter  *rate.Limiter
}

// NewClient creates a new search client. Free-tier SerpAPI quotas are
// tight, so requests go through a limiter of 1/s with a small burst.
// An empty apiKey leaves the adapter disabled.
func NewClient(apiKey, baseURL, googleDomain string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 7 * time.Second
	}
	if googleDomain == "" {
		googleDomain = "google.com.br"
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		apiKey:       apiKey,
		baseURL:      baseURL,
		googleDomain: googleDomain,
		rateLimiter:  rate.NewLimiter(rate.Limit(1), 3),
	}
}

// Search runs a query and returns up to 4 organic result URLs, trusted
// hosts first. Disabled configuration, transport failures and empty result
// sets all surface as errors for the caller to fold into an empty list.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	if c.apiKey == "" {
		return nil, domain.ErrSourceDisabled
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	params := url.Values{}
	params.Add("engine", "google")
	params.Add("google_domain", c.googleDomain)
	params.Add("q", query)
	params.Add("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s/search.json?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[serpapi] request failed: %v", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[serpapi] unexpected status %d for query %q", resp.StatusCode, query)
		return nil, fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	var search searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		log.Printf("[serpapi] decode failed: %v", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	links := make([]string, 0, len(search.OrganicResults))
	for _, r := range search.OrganicResults {
		if r.Link != "" {
			links = append(links, r.Link)
		}
	}

	links = RankByTrust(links)
	if len(links) > maxLinks {
		links = links[:maxLinks]
	}
	return links, nil
}

// RankByTrust stable-sorts URLs so that any link matching a trusted
// manufacturer/marketplace marker comes before the rest. Ties keep their
// original relative order.
func RankByTrust(links []string) []string {
	sort.SliceStable(links, func(i, j int) bool {
		return trustScore(links[i]) < trustScore(links[j])
	})
	return links
}

func trustScore(link string) int {
	lower := strings.ToLower(link)
	for _, marker := range trustedMarkers {
		if strings.Contains(lower, marker) {
			return -1
		}
	}
	return 0
}
