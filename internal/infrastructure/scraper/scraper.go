// Package scraper implements the generic product-page scrape adapter. It
// fetches an arbitrary URL, pulls title/brand/image out of the markup and
// runs the visible text through the measurement extractor.
package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/eanfill/backend/internal/domain"
	"github.com/eanfill/backend/internal/measure"
)

// knownBrands is the fallback list scanned against page titles when no
// brand meta tag is present. Matches are case-insensitive substrings.
var knownBrands = []string{
	"hasbro", "mattel", "nig", "junges", "toymix", "pais & filhos",
	"ciranda cultural", "grow", "multikids", "hot wheels", "lego", "qman",
}

// Client fetches and parses arbitrary product pages
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a page scraper. The user agent is spoofed because many
// storefronts refuse requests from obvious bots.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0"
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// Scrape fetches a page and extracts whatever product fields it can find.
// Any transport failure, non-2xx status or parse error comes back as an
// error for the pipeline to fold into "no result".
func (c *Client) Scrape(ctx context.Context, pageURL string) (*domain.SourceResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[scrape] fetch failed for %s: %v", pageURL, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[scrape] status %d for %s", resp.StatusCode, pageURL)
		return nil, fmt.Errorf("%w: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		log.Printf("[scrape] parse failed for %s: %v", pageURL, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	page := parsePage(doc)

	title := page.title
	if title == "" {
		title = page.meta["og:title"]
	}

	brand := page.meta["product:brand"]
	if brand == "" {
		brand = page.meta["brand"]
	}
	if brand == "" {
		brand = GuessBrandFromTitle(title)
	}

	return &domain.SourceResult{
		Name:         title,
		Brand:        brand,
		ImageURL:     page.meta["og:image"],
		Source:       pageURL,
		Measurements: measure.Extract(page.bodyText),
	}, nil
}

// GuessBrandFromTitle scans a title for a known brand name and returns it
// title-cased on a hit, or "" when nothing matches.
func GuessBrandFromTitle(title string) string {
	if title == "" {
		return ""
	}
	lower := strings.ToLower(title)
	for _, brand := range knownBrands {
		if strings.Contains(lower, brand) {
			// casers are stateful, build one per call
			return cases.Title(language.BrazilianPortuguese).String(brand)
		}
	}
	return ""
}

// pageData is the subset of a parsed document the adapter cares about
type pageData struct {
	title    string
	meta     map[string]string
	bodyText string
}

// parsePage walks the document once, collecting the first <title>, all meta
// tags keyed by property/name, and the visible body text (script, style and
// noscript subtrees skipped).
func parsePage(doc *html.Node) *pageData {
	page := &pageData{meta: make(map[string]string)}
	var text strings.Builder
	var inBody bool

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if page.title == "" {
					page.title = strings.TrimSpace(nodeText(n))
				}
				return
			case "meta":
				key := attr(n, "property")
				if key == "" {
					key = attr(n, "name")
				}
				if key != "" {
					if _, exists := page.meta[key]; !exists {
						page.meta[key] = attr(n, "content")
					}
				}
			case "body":
				inBody = true
			}
		}
		if n.Type == html.TextNode && inBody {
			text.WriteString(n.Data)
			text.WriteString(" ")
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	page.bodyText = text.String()
	return page
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
		}
	}
	return sb.String()
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
