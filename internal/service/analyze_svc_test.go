package service

import (
	"testing"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
)

func testAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	table, err := LoadKeywordTable("")
	if err != nil {
		t.Fatalf("LoadKeywordTable: %v", err)
	}
	return NewAnalyzer(table)
}

func TestAnalyze(t *testing.T) {
	a := testAnalyzer(t)

	cases := []struct {
		name string
		text string
		want model.CommentSignal
	}{
		{
			name: "positive",
			text: "I love this pen, the ink flow is amazing",
			want: model.CommentSignal{Sentiment: model.SentimentPositive},
		},
		{
			name: "negative",
			text: "terrible quality, total waste of money... regret buying",
			want: model.CommentSignal{Sentiment: model.SentimentNegative, PurchaseIntent: true},
		},
		{
			name: "mixed counts resolve by majority",
			text: "love love the color but the nib is bad",
			want: model.CommentSignal{Sentiment: model.SentimentPositive},
		},
		{
			name: "tie is neutral",
			text: "love the look, hate the price",
			want: model.CommentSignal{Sentiment: model.SentimentNeutral, PurchaseIntent: true},
		},
		{
			name: "no signal words",
			text: "I have three of these",
			want: model.CommentSignal{Sentiment: model.SentimentNeutral},
		},
		{
			name: "question mark",
			text: "does this come in blue?",
			want: model.CommentSignal{Sentiment: model.SentimentNeutral, IsQuestion: true},
		},
		{
			name: "leading question word without mark",
			text: "where can I get the refill",
			want: model.CommentSignal{Sentiment: model.SentimentNeutral, PurchaseIntent: true, IsQuestion: true},
		},
		{
			name: "question word mid-sentence is not a question",
			text: "I know where mine is",
			want: model.CommentSignal{Sentiment: model.SentimentNeutral, PurchaseIntent: true},
		},
		{
			name: "purchase intent",
			text: "Need to buy this asap, is it in stock anywhere",
			want: model.CommentSignal{Sentiment: model.SentimentNeutral, PurchaseIntent: true},
		},
		{
			name: "empty",
			text: "",
			want: model.CommentSignal{Sentiment: model.SentimentNeutral},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.text)
			if got.Sentiment != tt.want.Sentiment {
				t.Errorf("Sentiment = %q, want %q", got.Sentiment, tt.want.Sentiment)
			}
			if got.PurchaseIntent != tt.want.PurchaseIntent {
				t.Errorf("PurchaseIntent = %v, want %v", got.PurchaseIntent, tt.want.PurchaseIntent)
			}
			if got.IsQuestion != tt.want.IsQuestion {
				t.Errorf("IsQuestion = %v, want %v", got.IsQuestion, tt.want.IsQuestion)
			}
		})
	}
}
