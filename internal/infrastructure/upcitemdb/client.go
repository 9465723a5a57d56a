// Package upcitemdb implements the exact-identifier lookup adapter against
// the UPCItemDB trial API.
package upcitemdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/eanfill/backend/internal/domain"
)

// Item is a single product entry from the lookup API
type Item struct {
	Title  string   `json:"title"`
	Brand  string   `json:"brand"`
	Elid   string   `json:"elid"`
	Images []string `json:"images"`
	Offers []Offer  `json:"offers"`
}

// Offer is a retailer listing attached to an item
type Offer struct {
	Link string `json:"link"`
}

// lookupResponse is the wire shape of the lookup endpoint
type lookupResponse struct {
	Items []Item `json:"items"`
}

// Client handles communication with the UPCItemDB lookup API
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewClient creates a new UPCItemDB client. An empty apiKey leaves the
// adapter disabled; every Lookup then returns ErrSourceDisabled.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		baseURL:    baseURL,
	}
}

// Lookup fetches the product behind an identifier. Transport failures,
// timeouts, bad statuses and empty item lists all come back as errors; the
// caller folds every one of them into "no result".
func (c *Client) Lookup(ctx context.Context, identifier string) (*domain.SourceResult, error) {
	if c.apiKey == "" {
		return nil, domain.ErrSourceDisabled
	}

	reqURL := fmt.Sprintf("%s/prod/trial/lookup?upc=%s", c.baseURL, url.QueryEscape(identifier))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	req.Header.Set("user_key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[upcitemdb] request failed: %v", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[upcitemdb] unexpected status %d for identifier %s", resp.StatusCode, identifier)
		return nil, fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	var lookup lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lookup); err != nil {
		log.Printf("[upcitemdb] decode failed: %v", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	if len(lookup.Items) == 0 {
		return nil, domain.ErrNoResult
	}

	return MapToSourceResult(&lookup.Items[0], reqURL), nil
}
