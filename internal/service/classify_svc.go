package service

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
)

// normalizeText folds text for matching: Unicode NFKC, lower case, and
// curly apostrophes mapped to ASCII so "Noodler’s" matches "noodler's".
func normalizeText(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		if r == '‘' || r == '’' {
			return '\''
		}
		return r
	}, s)
}

// tokenize splits normalized text into matching tokens. Letters, digits
// and embedded apostrophes stay; everything else separates, so
// hyphenated keywords match both spellings ("al-star" and "al star").
func tokenize(s string) []string {
	fields := strings.FieldsFunc(normalizeText(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	tokens := fields[:0]
	for _, t := range fields {
		t = strings.Trim(t, "'")
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// rule is one compiled keyword. length is the rune count of the
// normalized keyword and carries the "longest match wins" comparisons.
type rule struct {
	keyword  string
	brand    string
	category string
	priority int
	tokens   []string
	length   int
}

// Classifier matches keyword rules against text on token boundaries.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	rules   []rule
	byFirst map[string][]int
}

func NewClassifier(table *KeywordTable) (*Classifier, error) {
	c := &Classifier{byFirst: make(map[string][]int)}

	add := func(keyword, brand, category string, priority int) error {
		tokens := tokenize(keyword)
		if len(tokens) == 0 {
			return fmt.Errorf("keyword %q for %s/%s has no matchable tokens", keyword, brand, category)
		}
		joined := strings.Join(tokens, " ")
		c.rules = append(c.rules, rule{
			keyword:  keyword,
			brand:    brand,
			category: category,
			priority: priority,
			tokens:   tokens,
			length:   len([]rune(joined)),
		})
		c.byFirst[tokens[0]] = append(c.byFirst[tokens[0]], len(c.rules)-1)
		return nil
	}

	for _, g := range table.Brands {
		for _, kw := range g.Keywords {
			if err := add(kw, g.Brand, g.Category, g.Priority); err != nil {
				return nil, err
			}
		}
	}
	for _, g := range table.Products {
		for _, kw := range g.Keywords {
			if err := add(kw, model.GenericBrand, g.Category, g.Priority); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// candidate is one rule matched at a token span, end inclusive.
type candidate struct {
	ruleIdx int
	start   int
	end     int
}

// Classify finds brand and product mentions in text. Resolution is
// deterministic: where matches compete for the same phrase, the longest
// keyword wins, then the highest priority; full ties are all kept and
// flagged ambiguous with the confidence split between them. Source
// fields and the timestamp are the caller's to fill in.
func (c *Classifier) Classify(text string) []model.BrandMention {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	cands := c.scan(tokens)
	if len(cands) == 0 {
		return nil
	}
	return c.resolve(cands)
}

func (c *Classifier) scan(tokens []string) []candidate {
	var cands []candidate
	for i, tok := range tokens {
		for _, ri := range c.byFirst[tok] {
			r := &c.rules[ri]
			if i+len(r.tokens) > len(tokens) {
				continue
			}
			matched := true
			for j, kt := range r.tokens {
				if tokens[i+j] != kt {
					matched = false
					break
				}
			}
			if matched {
				cands = append(cands, candidate{ruleIdx: ri, start: i, end: i + len(r.tokens) - 1})
			}
		}
	}
	return cands
}

// resolve picks winners greedily, strongest first. A candidate loses
// when its span overlaps or sits directly next to an already accepted
// winner: adjacent matches describe the same product phrase, so "pilot
// g2 gel pen" yields only the pilot g2 mention. Candidates tying the
// winner on length and priority with an overlapping span form an
// ambiguity group instead of losing to it: start position never breaks
// a genuine tie.
func (c *Classifier) resolve(cands []candidate) []model.BrandMention {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := c.rules[cands[i].ruleIdx], c.rules[cands[j].ruleIdx]
		if a.length != b.length {
			return a.length > b.length
		}
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		if cands[i].start != cands[j].start {
			return cands[i].start < cands[j].start
		}
		return a.keyword < b.keyword
	})

	type span struct{ start, end int }
	var accepted []span
	used := make([]bool, len(cands))
	var mentions []model.BrandMention

	touches := func(a candidate, s span) bool {
		return a.start <= s.end+1 && s.start <= a.end+1
	}

	for i, cand := range cands {
		if used[i] {
			continue
		}
		lost := false
		for _, s := range accepted {
			if touches(cand, s) {
				lost = true
				break
			}
		}
		if lost {
			continue
		}

		winner := c.rules[cand.ruleIdx]
		group := []rule{winner}
		groupSpan := span{cand.start, cand.end}
		// Ties are sorted by start, so one pass over an expanding union
		// span catches chained overlaps too.
		for j := i + 1; j < len(cands); j++ {
			if used[j] {
				continue
			}
			other := c.rules[cands[j].ruleIdx]
			if other.length != winner.length || other.priority != winner.priority {
				continue
			}
			if cands[j].start > groupSpan.end || cands[j].end < groupSpan.start {
				continue
			}
			group = append(group, other)
			if cands[j].start < groupSpan.start {
				groupSpan.start = cands[j].start
			}
			if cands[j].end > groupSpan.end {
				groupSpan.end = cands[j].end
			}
			used[j] = true
		}
		accepted = append(accepted, groupSpan)
		mentions = append(mentions, mentionsFromGroup(group)...)
	}

	return dedupeMentions(mentions)
}

// mentionsFromGroup turns one accepted span into mentions. Ties that
// agree on brand and category collapse to a single confident mention;
// real disagreements are all kept, flagged, and split the confidence.
func mentionsFromGroup(group []rule) []model.BrandMention {
	type key struct{ brand, category string }
	seen := make(map[key]rule, len(group))
	var order []key
	for _, r := range group {
		k := key{r.brand, r.category}
		if _, ok := seen[k]; !ok {
			seen[k] = r
			order = append(order, k)
		}
	}

	n := len(order)
	conf := 1.0 / float64(n)
	out := make([]model.BrandMention, 0, n)
	for _, k := range order {
		r := seen[k]
		out = append(out, model.BrandMention{
			Brand:      r.brand,
			Category:   r.category,
			Keyword:    r.keyword,
			Confidence: conf,
			Ambiguous:  n > 1,
		})
	}
	return out
}

// dedupeMentions collapses repeats of the same keyword elsewhere in the
// text, keeping the strongest instance, and fixes the output order.
func dedupeMentions(mentions []model.BrandMention) []model.BrandMention {
	type key struct{ brand, category, keyword string }
	best := make(map[key]model.BrandMention, len(mentions))
	for _, m := range mentions {
		k := key{m.Brand, m.Category, m.Keyword}
		cur, ok := best[k]
		if !ok || m.Confidence > cur.Confidence {
			best[k] = m
		}
	}

	out := make([]model.BrandMention, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Brand != out[j].Brand {
			return out[i].Brand < out[j].Brand
		}
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Keyword < out[j].Keyword
	})
	return out
}
