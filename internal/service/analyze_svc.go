package service

import (
	"strings"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
)

// Analyzer derives comment signals from the keyword table's word lists:
// sentiment by counting polarity words, purchase intent and questions by
// presence. Immutable after construction, safe for concurrent use.
type Analyzer struct {
	positive map[string]bool
	negative map[string]bool
	intent   map[string]bool
	question map[string]bool
}

func NewAnalyzer(table *KeywordTable) *Analyzer {
	a := &Analyzer{
		positive: make(map[string]bool, len(table.Sentiment.Positive)),
		negative: make(map[string]bool, len(table.Sentiment.Negative)),
		intent:   make(map[string]bool, len(table.PurchaseIntent)),
		question: make(map[string]bool, len(table.QuestionWords)),
	}
	for _, w := range table.Sentiment.Positive {
		a.positive[normalizeText(w)] = true
	}
	for _, w := range table.Sentiment.Negative {
		a.negative[normalizeText(w)] = true
	}
	for _, w := range table.PurchaseIntent {
		a.intent[normalizeText(w)] = true
	}
	for _, w := range table.QuestionWords {
		a.question[normalizeText(w)] = true
	}
	return a
}

// Analyze computes the signals for one comment text. The comment id and
// timestamp are the caller's to fill in.
func (a *Analyzer) Analyze(text string) model.CommentSignal {
	tokens := tokenize(text)

	pos, neg := 0, 0
	intent := false
	for _, tok := range tokens {
		if a.positive[tok] {
			pos++
		}
		if a.negative[tok] {
			neg++
		}
		if a.intent[tok] {
			intent = true
		}
	}

	sentiment := model.SentimentNeutral
	switch {
	case pos > neg:
		sentiment = model.SentimentPositive
	case neg > pos:
		sentiment = model.SentimentNegative
	}

	isQuestion := strings.Contains(text, "?")
	if !isQuestion && len(tokens) > 0 {
		isQuestion = a.question[tokens[0]]
	}

	return model.CommentSignal{
		Sentiment:      sentiment,
		PurchaseIntent: intent,
		IsQuestion:     isQuestion,
	}
}
