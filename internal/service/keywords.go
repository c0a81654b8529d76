package service

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var defaultKeywords []byte

// KeywordTable is the classification vocabulary: brand groups, generic
// product groups and the word lists used for comment signals. A default
// table ships embedded; deployments point KEYWORDS_PATH at their own.
type KeywordTable struct {
	Version        int            `yaml:"version"`
	Brands         []BrandGroup   `yaml:"brands"`
	Products       []ProductGroup `yaml:"products"`
	Sentiment      SentimentWords `yaml:"sentiment"`
	PurchaseIntent []string       `yaml:"purchase_intent"`
	QuestionWords  []string       `yaml:"question_words"`
}

// BrandGroup maps keywords to one brand within one product category.
// A brand spanning categories appears in several groups.
type BrandGroup struct {
	Brand    string   `yaml:"brand"`
	Category string   `yaml:"category"`
	Priority int      `yaml:"priority"`
	Keywords []string `yaml:"keywords"`
}

// ProductGroup maps keywords to a product category without naming a
// brand. Matches are attributed to the generic brand.
type ProductGroup struct {
	Category string   `yaml:"category"`
	Priority int      `yaml:"priority"`
	Keywords []string `yaml:"keywords"`
}

type SentimentWords struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
}

// LoadKeywordTable reads and validates a keyword table. An empty path
// loads the embedded default.
func LoadKeywordTable(path string) (*KeywordTable, error) {
	raw := defaultKeywords
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("keyword table: %w", err)
		}
		raw = b
	}

	var table KeywordTable
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("keyword table: %w", err)
	}
	if err := table.validate(); err != nil {
		return nil, fmt.Errorf("keyword table: %w", err)
	}
	return &table, nil
}

func (t *KeywordTable) validate() error {
	if len(t.Brands) == 0 && len(t.Products) == 0 {
		return fmt.Errorf("no brand or product groups defined")
	}
	for i, g := range t.Brands {
		if g.Brand == "" {
			return fmt.Errorf("brands[%d]: missing brand name", i)
		}
		if g.Category == "" {
			return fmt.Errorf("brands[%d] (%s): missing category", i, g.Brand)
		}
		if len(g.Keywords) == 0 {
			return fmt.Errorf("brands[%d] (%s): no keywords", i, g.Brand)
		}
		for _, kw := range g.Keywords {
			if kw == "" {
				return fmt.Errorf("brands[%d] (%s): empty keyword", i, g.Brand)
			}
		}
	}
	for i, g := range t.Products {
		if g.Category == "" {
			return fmt.Errorf("products[%d]: missing category", i)
		}
		if len(g.Keywords) == 0 {
			return fmt.Errorf("products[%d] (%s): no keywords", i, g.Category)
		}
		for _, kw := range g.Keywords {
			if kw == "" {
				return fmt.Errorf("products[%d] (%s): empty keyword", i, g.Category)
			}
		}
	}
	return nil
}
