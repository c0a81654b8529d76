package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadKeywordTable_Default(t *testing.T) {
	table, err := LoadKeywordTable("")
	if err != nil {
		t.Fatalf("LoadKeywordTable: %v", err)
	}
	if len(table.Brands) == 0 {
		t.Error("default table has no brand groups")
	}
	if len(table.Products) == 0 {
		t.Error("default table has no product groups")
	}
	if len(table.Sentiment.Positive) == 0 || len(table.Sentiment.Negative) == 0 {
		t.Error("default table missing sentiment words")
	}
	if len(table.PurchaseIntent) == 0 {
		t.Error("default table missing purchase intent words")
	}
}

func TestLoadKeywordTable_CustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	custom := `
version: 1
brands:
  - brand: Acme
    category: pens
    priority: 10
    keywords: [acme, acme mark ii]
products:
  - category: pens
    priority: 1
    keywords: [pen]
`
	if err := os.WriteFile(path, []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadKeywordTable(path)
	if err != nil {
		t.Fatalf("LoadKeywordTable: %v", err)
	}
	if len(table.Brands) != 1 || table.Brands[0].Brand != "Acme" {
		t.Errorf("Brands = %+v, want the Acme group", table.Brands)
	}
}

func TestLoadKeywordTable_Errors(t *testing.T) {
	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "keywords.yaml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	cases := []struct {
		name    string
		content string
		wantSub string
	}{
		{"not yaml", "{{{", "keyword table"},
		{"empty table", "version: 1", "no brand or product groups"},
		{"brand without category", "brands:\n  - brand: Acme\n    keywords: [acme]", "missing category"},
		{"brand without keywords", "brands:\n  - brand: Acme\n    category: pens", "no keywords"},
		{"product without category", "products:\n  - keywords: [pen]", "missing category"},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadKeywordTable(write(t, tt.content))
			if err == nil {
				t.Fatal("LoadKeywordTable succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}

	if _, err := LoadKeywordTable(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadKeywordTable on a missing file succeeded, want error")
	}
}
