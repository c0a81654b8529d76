package service

import (
	"reflect"
	"testing"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
)

func mustClassifier(t *testing.T, table *KeywordTable) *Classifier {
	t.Helper()
	c, err := NewClassifier(table)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	return c
}

func TestClassify_LongestKeywordWins(t *testing.T) {
	c := mustClassifier(t, &KeywordTable{
		Brands: []BrandGroup{
			{Brand: "Pilot", Category: "pens", Priority: 10, Keywords: []string{"pilot g2"}},
		},
		Products: []ProductGroup{
			{Category: "pens", Priority: 1, Keywords: []string{"gel pen"}},
		},
	})

	got := c.Classify("Best Pilot G2 gel pen review")

	want := []model.BrandMention{
		{Brand: "Pilot", Category: "pens", Keyword: "pilot g2", Confidence: 1.0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Classify = %+v, want %+v", got, want)
	}
}

func TestClassify_TokenBoundaries(t *testing.T) {
	c := mustClassifier(t, &KeywordTable{
		Products: []ProductGroup{
			{Category: "pens", Priority: 1, Keywords: []string{"pen"}},
		},
	})

	if got := c.Classify("strange things happen sometimes"); got != nil {
		t.Errorf("Classify(%q) = %+v, want no mentions (substring must not match)", "happen", got)
	}

	got := c.Classify("This pen is great!")
	if len(got) != 1 || got[0].Brand != model.GenericBrand || got[0].Category != "pens" {
		t.Errorf("Classify = %+v, want one generic pens mention", got)
	}
}

func TestClassify_CaseAndPunctuationInsensitive(t *testing.T) {
	c := mustClassifier(t, &KeywordTable{
		Brands: []BrandGroup{
			{Brand: "Noodler's", Category: "refills_and_inks", Priority: 10, Keywords: []string{"noodler's"}},
			{Brand: "LAMY", Category: "pens", Priority: 10, Keywords: []string{"lamy al-star"}},
		},
	})

	// Curly apostrophe from a real YouTube title.
	got := c.Classify("NOODLER’S heart of darkness swatch")
	if len(got) != 1 || got[0].Brand != "Noodler's" {
		t.Errorf("Classify = %+v, want Noodler's mention", got)
	}

	// Hyphenated keyword matches the spaced spelling too.
	got = c.Classify("Lamy AL Star unboxing")
	if len(got) != 1 || got[0].Keyword != "lamy al-star" {
		t.Errorf("Classify = %+v, want lamy al-star mention", got)
	}
}

func TestClassify_PriorityBreaksLengthTies(t *testing.T) {
	c := mustClassifier(t, &KeywordTable{
		Brands: []BrandGroup{
			{Brand: "Sakura", Category: "pens", Priority: 10, Keywords: []string{"sakura"}},
		},
		Products: []ProductGroup{
			{Category: "crafts", Priority: 1, Keywords: []string{"sakura"}},
		},
	})

	got := c.Classify("sakura haul")
	want := []model.BrandMention{
		{Brand: "Sakura", Category: "pens", Keyword: "sakura", Confidence: 1.0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Classify = %+v, want %+v (higher priority wins the tie)", got, want)
	}
}

func TestClassify_FullTieIsAmbiguous(t *testing.T) {
	c := mustClassifier(t, &KeywordTable{
		Brands: []BrandGroup{
			{Brand: "Tombow", Category: "pencils", Priority: 10, Keywords: []string{"mono"}},
			{Brand: "Deleter", Category: "paper", Priority: 10, Keywords: []string{"mono"}},
		},
	})

	got := c.Classify("mono comparison")
	if len(got) != 2 {
		t.Fatalf("Classify = %+v, want both tied mentions kept", got)
	}
	for _, m := range got {
		if !m.Ambiguous {
			t.Errorf("mention %+v not flagged ambiguous", m)
		}
		if m.Confidence != 0.5 {
			t.Errorf("mention %+v confidence = %v, want 0.5", m, m.Confidence)
		}
	}
	if got[0].Brand != "Deleter" || got[1].Brand != "Tombow" {
		t.Errorf("mentions not in deterministic order: %+v", got)
	}
}

func TestClassify_OverlappingTieIsAmbiguous(t *testing.T) {
	c := mustClassifier(t, &KeywordTable{
		Brands: []BrandGroup{
			{Brand: "Uni", Category: "pens", Priority: 10, Keywords: []string{"uni sign"}},
			{Brand: "Pentel", Category: "pens", Priority: 10, Keywords: []string{"sign pen"}},
		},
	})

	// The keywords tie on length and priority and share the middle
	// token; neither may win on start position alone.
	got := c.Classify("uni sign pen review")
	if len(got) != 2 {
		t.Fatalf("Classify = %+v, want both overlapping mentions kept", got)
	}
	for _, m := range got {
		if !m.Ambiguous {
			t.Errorf("mention %+v not flagged ambiguous", m)
		}
		if m.Confidence != 0.5 {
			t.Errorf("mention %+v confidence = %v, want 0.5", m, m.Confidence)
		}
	}
	if got[0].Brand != "Pentel" || got[1].Brand != "Uni" {
		t.Errorf("mentions not in deterministic order: %+v", got)
	}
}

func TestClassify_SeparatedMentionsAllKept(t *testing.T) {
	c := mustClassifier(t, &KeywordTable{
		Brands: []BrandGroup{
			{Brand: "LAMY", Category: "pens", Priority: 10, Keywords: []string{"lamy safari"}},
			{Brand: "Pilot", Category: "pens", Priority: 10, Keywords: []string{"pilot metropolitan"}},
		},
	})

	got := c.Classify("Lamy Safari vs Pilot Metropolitan")
	if len(got) != 2 {
		t.Fatalf("Classify = %+v, want both brands", got)
	}
	if got[0].Brand != "LAMY" || got[1].Brand != "Pilot" {
		t.Errorf("mentions = %+v, want LAMY then Pilot", got)
	}
	for _, m := range got {
		if m.Ambiguous || m.Confidence != 1.0 {
			t.Errorf("mention %+v should be unambiguous with full confidence", m)
		}
	}
}

func TestClassify_AdjacentPhraseResolvesToStrongest(t *testing.T) {
	c := mustClassifier(t, &KeywordTable{
		Brands: []BrandGroup{
			{Brand: "Pilot", Category: "pens", Priority: 10, Keywords: []string{"pilot g2"}},
		},
		Products: []ProductGroup{
			{Category: "pens", Priority: 1, Keywords: []string{"gel pen"}},
			{Category: "crafts", Priority: 1, Keywords: []string{"washi tape"}},
		},
	})

	// "washi tape" is not adjacent to "pilot g2", so both survive even
	// though "gel pen" between them is absorbed.
	got := c.Classify("pilot g2 gel pen and washi tape haul")
	if len(got) != 2 {
		t.Fatalf("Classify = %+v, want pilot g2 and washi tape", got)
	}
	if got[0].Keyword != "washi tape" || got[1].Keyword != "pilot g2" {
		t.Errorf("mentions = %+v, want washi tape (Generic) then pilot g2 (Pilot)", got)
	}
}

func TestClassify_RepeatedKeywordDeduplicated(t *testing.T) {
	c := mustClassifier(t, &KeywordTable{
		Brands: []BrandGroup{
			{Brand: "Rhodia", Category: "paper", Priority: 10, Keywords: []string{"rhodia"}},
		},
	})

	got := c.Classify("rhodia, rhodia and more rhodia")
	if len(got) != 1 {
		t.Errorf("Classify = %+v, want a single mention", got)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	table, err := LoadKeywordTable("")
	if err != nil {
		t.Fatalf("LoadKeywordTable: %v", err)
	}
	c := mustClassifier(t, table)

	text := "Hobonichi Techo setup with a Lamy Safari, washi tape and Tomoe River paper"
	first := c.Classify(text)
	for i := 0; i < 10; i++ {
		if got := c.Classify(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, got, first)
		}
	}
}

func TestClassify_DefaultTable(t *testing.T) {
	table, err := LoadKeywordTable("")
	if err != nil {
		t.Fatalf("LoadKeywordTable: %v", err)
	}
	c := mustClassifier(t, table)

	got := c.Classify("Hobonichi Techo 2025 setup")
	if len(got) != 1 {
		t.Fatalf("Classify = %+v, want one mention", got)
	}
	if got[0].Brand != "Hobonichi" || got[0].Keyword != "hobonichi techo" {
		t.Errorf("mention = %+v, want Hobonichi via its longest keyword", got[0])
	}
}
