package upcitemdb

import "github.com/eanfill/backend/internal/domain"

// MapToSourceResult converts a lookup item to the domain SourceResult.
// Provenance priority: first offer link, then the item's elid, then the
// request URL itself.
func MapToSourceResult(item *Item, requestURL string) *domain.SourceResult {
	result := &domain.SourceResult{
		Name:   item.Title,
		Brand:  item.Brand,
		Source: requestURL,
	}

	if len(item.Images) > 0 {
		result.ImageURL = item.Images[0]
	}

	if len(item.Offers) > 0 && item.Offers[0].Link != "" {
		result.Source = item.Offers[0].Link
	} else if item.Elid != "" {
		result.Source = item.Elid
	}

	return result
}
