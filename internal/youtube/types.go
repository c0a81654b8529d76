package youtube

import "time"

// ChannelInfo is the normalized channel record returned by the Data API.
type ChannelInfo struct {
	ID                string
	Title             string
	CustomURL         string
	Country           string
	UploadsPlaylistID string
	PublishedAt       *time.Time
	SubscriberCount   *int64
	ViewCount         *int64
	VideoCount        *int64
}

// PlaylistEntry is one row of an uploads playlist page, in reverse
// chronological order as the API returns them.
type PlaylistEntry struct {
	VideoID     string
	PublishedAt time.Time
}

// VideoInfo is the normalized video record with its statistics at fetch
// time. Like and comment counts are nil when the API hides them.
type VideoInfo struct {
	ID              string
	ChannelID       string
	Title           string
	Description     string
	PublishedAt     time.Time
	DurationSeconds *int
	ViewCount       int64
	LikeCount       *int64
	CommentCount    *int64
}

// CommentInfo is one normalized top-level comment or reply.
type CommentInfo struct {
	ID              string
	VideoID         string
	ParentID        *string
	AuthorName      string
	AuthorChannelID *string
	Text            string
	PublishedAt     time.Time
	UpdatedAt       *time.Time
	LikeCount       int64
	ReplyCount      *int64
}
