package usecase

import (
	"context"
	"log"
	"net/url"
	"strings"

	"github.com/eanfill/backend/internal/domain"
)

// Confidence schedule of the pipeline
const (
	seedConfidence       = 0.20 // every valid query starts here
	lookupConfidenceBump = 0.20 // identifier database answered
	scrapeConfidenceBump = 0.35 // applied per corroborating scrape iteration
	scrapeConfidenceCeil = 0.85 // scrape bumps never push past this
	minHardFieldsForBump = 2    // hard fields needed before a scrape bump fires
	maxLinks             = 4    // scrape at most this many discovered links
	minIdentifierLength  = 8
)

// AutofillServiceConfig holds configuration for the autofill pipeline
type AutofillServiceConfig struct {
	// DisableExternal skips every adapter stage; the pipeline then returns
	// the seeded record (confidence 0.20, no provenance). Used for offline
	// and deterministic testing.
	DisableExternal bool
}

// AutofillService resolves missing product attributes for a barcode by
// consulting the adapters in a fixed priority order and merging their
// partial answers into one record.
//
// Merge policy: first-non-empty-wins per field. Once a scalar field is set
// it is never replaced by a later source, with a single exception: the
// refinement step's non-empty brand always overrides. Adapter calls are
// sequential so the merge order, and therefore the output, is
// deterministic for deterministic upstreams.
type AutofillService struct {
	lookup   domain.IdentifierLookup
	searcher domain.LinkSearcher
	scraper  domain.PageScraper
	refiner  domain.Refiner
	config   AutofillServiceConfig
}

// NewAutofillService creates the pipeline with its adapter dependencies
func NewAutofillService(
	lookup domain.IdentifierLookup,
	searcher domain.LinkSearcher,
	scraper domain.PageScraper,
	refiner domain.Refiner,
	config AutofillServiceConfig,
) *AutofillService {
	return &AutofillService{
		lookup:   lookup,
		searcher: searcher,
		scraper:  scraper,
		refiner:  refiner,
		config:   config,
	}
}

// Autofill runs the full resolution pipeline for a query. The only error it
// returns is domain.ErrInvalidIdentifier; every adapter failure degrades to
// "no result" and the pipeline proceeds with whatever it already has.
func (s *AutofillService) Autofill(ctx context.Context, query *domain.ProductQuery) (*domain.ProductRecord, error) {
	if err := ValidateIdentifier(query.Identifier); err != nil {
		return nil, err
	}

	// Stage 1: seed
	record := &domain.WorkingRecord{
		Name:       query.KnownName,
		Confidence: seedConfidence,
	}

	if !s.config.DisableExternal {
		s.runLookup(ctx, query.Identifier, record)
		links := s.discoverLinks(ctx, query.Identifier, record.Name)
		s.scrapeAndMerge(ctx, links, record)
		s.refine(ctx, query.Identifier, record)
	}

	return s.finalize(query.Identifier, record), nil
}

// ValidateIdentifier enforces the barcode shape: digits only, minimum
// length 8.
func ValidateIdentifier(identifier string) error {
	if len(identifier) < minIdentifierLength {
		return domain.ErrInvalidIdentifier
	}
	for _, c := range identifier {
		if c < '0' || c > '9' {
			return domain.ErrInvalidIdentifier
		}
	}
	return nil
}

// runLookup is stage 2: the identifier-keyed database. A hit merges
// name/brand/image and raises confidence by a flat bump, uncapped here.
func (s *AutofillService) runLookup(ctx context.Context, identifier string, record *domain.WorkingRecord) {
	result, err := s.lookup.Lookup(ctx, identifier)
	if err != nil || result == nil {
		return
	}
	record.AppendSource(result.Source)
	mergeScalars(record, result)
	record.Confidence += lookupConfidenceBump
}

// discoverLinks is stage 3: build the search queries from what is known so
// far, run each through the search adapter and keep the first few unique
// links in discovery order.
func (s *AutofillService) discoverLinks(ctx context.Context, identifier, bestName string) []string {
	queries := buildQueries(identifier, bestName)

	var links []string
	seen := make(map[string]bool)
	for _, q := range queries {
		found, err := s.searcher.Search(ctx, q)
		if err != nil {
			continue
		}
		for _, link := range found {
			if link == "" || seen[link] {
				continue
			}
			seen[link] = true
			links = append(links, link)
		}
	}

	if len(links) > maxLinks {
		links = links[:maxLinks]
	}
	return links
}

// buildQueries produces up to three queries: the bare identifier, the
// identifier with the best name, and the best name alone. Empty and
// duplicate query strings are skipped.
func buildQueries(identifier, bestName string) []string {
	candidates := []string{
		identifier,
		strings.TrimSpace(identifier + " " + bestName),
		strings.TrimSpace(bestName),
	}

	var queries []string
	seen := make(map[string]bool)
	for _, q := range candidates {
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
	}
	return queries
}

// scrapeAndMerge is stage 4: each retained link is scraped sequentially and
// merged field by field. After every successful merge the hard-field count
// is re-evaluated; two or more hard fields raise confidence by the scrape
// bump, capped at the scrape ceiling. The bump re-fires on later iterations
// as long as the ceiling allows, rewarding corroborating sources.
func (s *AutofillService) scrapeAndMerge(ctx context.Context, links []string, record *domain.WorkingRecord) {
	for _, link := range links {
		result, err := s.scraper.Scrape(ctx, link)
		if err != nil || result == nil {
			continue
		}

		record.AppendSource(link)
		mergeScalars(record, result)
		mergeMeasurements(&record.Measurements, &result.Measurements)

		if hardFieldCount(record) >= minHardFieldsForBump {
			record.Confidence = min(scrapeConfidenceCeil, record.Confidence+scrapeConfidenceBump)
		}
	}
}

// refine is stage 5: the generative collaborator may override the brand
// (the one exception to first-non-empty-wins) and supply a short
// description. A failed or disabled collaborator is a valid no-op.
func (s *AutofillService) refine(ctx context.Context, identifier string, record *domain.WorkingRecord) {
	result, err := s.refiner.Refine(ctx, domain.RefineInput{
		Name:         record.Name,
		Brand:        record.Brand,
		Identifier:   identifier,
		Measurements: record.Measurements,
	})
	if err != nil || result == nil {
		return
	}
	if result.Brand != "" {
		record.Brand = result.Brand
	}
	record.ShortDescription = result.ShortDescription
}

// finalize consumes the working record into the normalized output shape
func (s *AutofillService) finalize(identifier string, record *domain.WorkingRecord) *domain.ProductRecord {
	sources := record.Sources
	if sources == nil {
		sources = []string{}
	}

	return &domain.ProductRecord{
		Name:             record.Name,
		Identifier:       identifier,
		Brand:            record.Brand,
		WeightKg:         record.Measurements.WeightKg,
		WidthCm:          record.Measurements.WidthCm,
		HeightCm:         record.Measurements.HeightCm,
		LengthCm:         record.Measurements.LengthCm,
		ShortDescription: record.ShortDescription,
		ImageURL:         validImageURL(record.ImageURL),
		Sources:          sources,
		Confidence:       clamp01(record.Confidence),
	}
}

// mergeScalars applies first-non-empty-wins for name, brand and image
func mergeScalars(record *domain.WorkingRecord, result *domain.SourceResult) {
	if record.Name == "" {
		record.Name = result.Name
	}
	if record.Brand == "" {
		record.Brand = result.Brand
	}
	if record.ImageURL == "" {
		record.ImageURL = result.ImageURL
	}
}

// mergeMeasurements applies first-non-empty-wins to each of the four
// measurement fields independently
func mergeMeasurements(dst, src *domain.Measurements) {
	if dst.WeightKg == nil {
		dst.WeightKg = src.WeightKg
	}
	if dst.WidthCm == nil {
		dst.WidthCm = src.WidthCm
	}
	if dst.HeightCm == nil {
		dst.HeightCm = src.HeightCm
	}
	if dst.LengthCm == nil {
		dst.LengthCm = src.LengthCm
	}
}

// hardFieldCount counts the populated fields among brand, image and the
// four measurements. It gates the scrape confidence bump.
func hardFieldCount(record *domain.WorkingRecord) int {
	count := 0
	if record.Brand != "" {
		count++
	}
	if record.ImageURL != "" {
		count++
	}
	m := record.Measurements
	for _, v := range []*float64{m.WidthCm, m.HeightCm, m.LengthCm, m.WeightKg} {
		if v != nil {
			count++
		}
	}
	return count
}

// validImageURL keeps only well-formed absolute URLs, anything else
// becomes the empty default
func validImageURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		log.Printf("[autofill] dropping malformed image url %q", raw)
		return ""
	}
	return raw
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
