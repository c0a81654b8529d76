package model

import "time"

// Comment represents an ingested comment. Text is stored as first seen and
// never rewritten; changed like counts land as new snapshots instead.
type Comment struct {
	CommentID       string     `json:"commentId"`
	VideoID         string     `json:"videoId"`
	ParentID        *string    `json:"parentId,omitempty"`
	AuthorName      string     `json:"authorName,omitempty"`
	AuthorChannelID *string    `json:"-"`
	Text            string     `json:"text"`
	PublishedAt     time.Time  `json:"publishedAt"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
	FirstSeenAt     time.Time  `json:"firstSeenAt"`
}

// CommentSnapshot is one append-only stats observation for a comment.
type CommentSnapshot struct {
	CommentID  string    `json:"commentId"`
	FetchedAt  time.Time `json:"fetchedAt"`
	LikeCount  int64     `json:"likeCount"`
	ReplyCount *int64    `json:"replyCount,omitempty"`
}

// CommentSignal holds the derived per-comment signals. Rows are fully
// recomputable from comment text and are replaced on re-analysis.
type CommentSignal struct {
	CommentID      string    `json:"commentId"`
	Sentiment      string    `json:"sentiment"`
	PurchaseIntent bool      `json:"purchaseIntent"`
	IsQuestion     bool      `json:"isQuestion"`
	AnalyzedAt     time.Time `json:"analyzedAt"`
}

// Sentiment values stored in comment_signals.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// QuestionComment is the API response for the recent-questions panel.
type QuestionComment struct {
	CommentID   string    `json:"commentId"`
	VideoID     string    `json:"videoId"`
	VideoTitle  string    `json:"videoTitle"`
	AuthorName  string    `json:"authorName,omitempty"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"publishedAt"`
}
