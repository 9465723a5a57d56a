package domain

// ProductQuery is the immutable input to the autofill pipeline
type ProductQuery struct {
	Identifier string // EAN-13 style barcode, digits only, min 8 chars
	KnownName  string // optional name already known by the caller
}

// Measurements holds the physical attributes extracted for a product.
// A nil field means "no source had an opinion", never zero.
type Measurements struct {
	WeightKg *float64 `json:"weight_kg"`
	WidthCm  *float64 `json:"width_cm"`
	HeightCm *float64 `json:"height_cm"`
	LengthCm *float64 `json:"length_cm"`
}

// SourceResult is the partial answer of a single adapter invocation.
// Empty strings and nil floats mean the source had nothing for that field.
type SourceResult struct {
	Name         string
	Brand        string
	ImageURL     string
	Source       string // provenance reference: URL or identifier of the source
	Measurements Measurements
}

// WorkingRecord is the accumulator threaded through the pipeline.
// It is pipeline-local, mutated monotonically (fields only move from
// absent to present, confidence only upward) and never shared across
// concurrent requests.
type WorkingRecord struct {
	Name             string
	Brand            string
	ImageURL         string
	Measurements     Measurements
	Sources          []string
	Confidence       float64
	ShortDescription string

	seen map[string]bool // provenance dedupe, insertion order kept in Sources
}

// AppendSource records a provenance reference, keeping first-seen order
// and dropping duplicates and empty strings.
func (r *WorkingRecord) AppendSource(src string) {
	if src == "" {
		return
	}
	if r.seen == nil {
		r.seen = make(map[string]bool)
	}
	if r.seen[src] {
		return
	}
	r.seen[src] = true
	r.Sources = append(r.Sources, src)
}

// ProductRecord is the normalized output of the pipeline.
// Text fields default to "", numeric fields to null, sources to an
// empty list; confidence is clamped to [0,1].
type ProductRecord struct {
	Name             string   `json:"name"`
	Identifier       string   `json:"identifier"`
	Brand            string   `json:"brand"`
	WeightKg         *float64 `json:"weight_kg"`
	WidthCm          *float64 `json:"width_cm"`
	HeightCm         *float64 `json:"height_cm"`
	LengthCm         *float64 `json:"length_cm"`
	ShortDescription string   `json:"short_description"`
	ImageURL         string   `json:"image_url"`
	Sources          []string `json:"sources"`
	Confidence       float64  `json:"confidence"`
}

// RefineInput is what the refinement collaborator receives: the best
// known fields after the merge stages.
type RefineInput struct {
	Name         string
	Brand        string
	Identifier   string
	Measurements Measurements
}

// RefineResult is the collaborator's answer. An empty Brand means "keep
// what you have"; a non-empty Brand overrides the merged brand.
type RefineResult struct {
	Brand            string
	ShortDescription string
}
