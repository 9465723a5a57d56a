// Package measure extracts weight and spatial dimensions from free-form
// product page text. All functions are pure; callers feed raw text and get
// back optional values, never errors.
package measure

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/eanfill/backend/internal/domain"
)

// Package-level compiled regex patterns for performance
var (
	kilogramRegex = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:kg|quilo)`)
	gramRegex     = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:g|grama)`)

	// combined "10 x 20 x 30 cm" style pattern
	combinedDimsRegex = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*[x×]\s*(\d+(?:[.,]\d+)?)\s*[x×]\s*(\d+(?:[.,]\d+)?)\s*(?:cm|cent[ií]metro)`)

	// labeled fallbacks: Portuguese dimension keywords followed by a number
	// within a small window of non-digit characters
	heightRegex = regexp.MustCompile(`altura[^0-9]{0,10}(\d+(?:[.,]\d+)?)`)
	widthRegex  = regexp.MustCompile(`largura[^0-9]{0,10}(\d+(?:[.,]\d+)?)`)
	lengthRegex = regexp.MustCompile(`comprimento[^0-9]{0,10}(\d+(?:[.,]\d+)?)`)
)

// ParseLocaleFloat parses a numeric token written with `.` as a thousands
// separator and `,` as a decimal separator ("1.234,56" -> 1234.56).
// Returns false for anything that does not parse to a finite number.
func ParseLocaleFloat(s string) (float64, bool) {
	norm := strings.ReplaceAll(s, ".", "")
	norm = strings.ReplaceAll(norm, ",", ".")
	n, err := strconv.ParseFloat(norm, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// Extract pulls weight (kg) and the three spatial dimensions (cm) out of a
// text blob. The input is lower-cased and whitespace-normalized internally,
// so callers may pass raw visible page text.
//
// When the combined "A x B x C cm" pattern matches, the three numbers are
// sorted ascending and assigned smallest->height, middle->width,
// largest->length. This is a disambiguation heuristic, not a guarantee the
// page meant those axes.
func Extract(text string) domain.Measurements {
	text = Normalize(text)

	var m domain.Measurements
	m.WeightKg = extractWeight(text)

	if matches := combinedDimsRegex.FindStringSubmatch(text); matches != nil {
		a, okA := ParseLocaleFloat(matches[1])
		b, okB := ParseLocaleFloat(matches[2])
		c, okC := ParseLocaleFloat(matches[3])
		if okA && okB && okC {
			dims := []float64{a, b, c}
			if dims[0] > dims[1] {
				dims[0], dims[1] = dims[1], dims[0]
			}
			if dims[1] > dims[2] {
				dims[1], dims[2] = dims[2], dims[1]
			}
			if dims[0] > dims[1] {
				dims[0], dims[1] = dims[1], dims[0]
			}
			m.HeightCm = &dims[0]
			m.WidthCm = &dims[1]
			m.LengthCm = &dims[2]
			return m
		}
	}

	// Independent labeled searches; each may succeed or fail on its own
	m.HeightCm = extractLabeled(heightRegex, text)
	m.WidthCm = extractLabeled(widthRegex, text)
	m.LengthCm = extractLabeled(lengthRegex, text)
	return m
}

// Normalize lower-cases a blob and collapses all whitespace runs to single
// spaces, the representation every pattern above expects.
func Normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// extractWeight returns the weight in kilograms. A kilogram match takes
// priority over a gram match; grams are converted and rounded to 3 decimals.
func extractWeight(text string) *float64 {
	if matches := kilogramRegex.FindStringSubmatch(text); matches != nil {
		if n, ok := ParseLocaleFloat(matches[1]); ok {
			return &n
		}
	}
	if matches := gramRegex.FindStringSubmatch(text); matches != nil {
		if n, ok := ParseLocaleFloat(matches[1]); ok {
			kg := math.Round(n) / 1000 // grams -> kg, 3 decimal places
			return &kg
		}
	}
	return nil
}

func extractLabeled(re *regexp.Regexp, text string) *float64 {
	matches := re.FindStringSubmatch(text)
	if matches == nil {
		return nil
	}
	n, ok := ParseLocaleFloat(matches[1])
	if !ok {
		return nil
	}
	return &n
}
