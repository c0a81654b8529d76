package model

import "time"

// Source types for brand mentions.
const (
	SourceVideo   = "video"
	SourceComment = "comment"
)

// GenericBrand marks product-category matches that carry no brand name.
const GenericBrand = "Generic"

// BrandMention is one keyword match extracted from a video title/description
// or a comment. Derived rows only: re-classification replaces every mention
// for a source, so the table is never authoritative on its own.
type BrandMention struct {
	SourceType   string    `json:"sourceType"`
	SourceID     string    `json:"sourceId"`
	Brand        string    `json:"brand"`
	Category     string    `json:"category"`
	Keyword      string    `json:"keyword"`
	Confidence   float64   `json:"confidence"`
	Ambiguous    bool      `json:"ambiguous"`
	ClassifiedAt time.Time `json:"classifiedAt"`
}

// BrandStat is the API response row for per-brand aggregates.
type BrandStat struct {
	Brand            string   `json:"brand"`
	Mentions         int      `json:"mentions"`
	Videos           int      `json:"videos"`
	MedianEngagement *float64 `json:"medianEngagement,omitempty"`
}

// CategoryStat is the API response row for per-category coverage.
type CategoryStat struct {
	Category string `json:"category"`
	Mentions int    `json:"mentions"`
	Videos   int    `json:"videos"`
}
