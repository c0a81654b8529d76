package model

import "time"

// Video represents an ingested video. Title and description refresh on
// every sighting; moving counts live in snapshots.
type Video struct {
	VideoID         string    `json:"videoId"`
	ChannelID       string    `json:"channelId"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	PublishedAt     time.Time `json:"publishedAt"`
	DurationSeconds *int      `json:"durationSeconds,omitempty"`
	FirstSeenAt     time.Time `json:"firstSeenAt"`
	LastSeenAt      time.Time `json:"lastSeenAt"`
}

// VideoSnapshot is one append-only stats observation for a video. Like and
// comment counts are nullable because the API hides them on some videos.
type VideoSnapshot struct {
	VideoID      string    `json:"videoId"`
	FetchedAt    time.Time `json:"fetchedAt"`
	ViewCount    int64     `json:"viewCount"`
	LikeCount    *int64    `json:"likeCount,omitempty"`
	CommentCount *int64    `json:"commentCount,omitempty"`
}

// VideoSummary is the API response for per-channel video listings.
type VideoSummary struct {
	VideoID         string     `json:"videoId"`
	Title           string     `json:"title"`
	PublishedAt     time.Time  `json:"publishedAt"`
	DurationSeconds *int       `json:"durationSeconds,omitempty"`
	ViewCount       *int64     `json:"viewCount,omitempty"`
	LikeCount       *int64     `json:"likeCount,omitempty"`
	CommentCount    *int64     `json:"commentCount,omitempty"`
	EngagementRate  *float64   `json:"engagementRate,omitempty"`
	LastFetchedAt   *time.Time `json:"lastFetchedAt,omitempty"`
}
