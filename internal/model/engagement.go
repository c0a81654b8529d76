package model

import "time"

// EngagementMetric is the derived per-snapshot engagement row for a video.
// Deltas are nil for the first snapshot in a video's history.
type EngagementMetric struct {
	VideoID        string    `json:"videoId"`
	SnapshotAt     time.Time `json:"snapshotAt"`
	EngagementRate float64   `json:"engagementRate"`
	DeltaViews     *int64    `json:"deltaViews,omitempty"`
	DeltaLikes     *int64    `json:"deltaLikes,omitempty"`
	ComputedAt     time.Time `json:"computedAt"`
}

// EngagementPoint is one day of the aggregated engagement series.
type EngagementPoint struct {
	Date           string  `json:"date"`
	EngagementRate float64 `json:"engagementRate"`
	Videos         int     `json:"videos"`
}

// TopVideo is the API response row for engagement rankings.
type TopVideo struct {
	VideoID        string    `json:"videoId"`
	ChannelID      string    `json:"channelId"`
	Title          string    `json:"title"`
	PublishedAt    time.Time `json:"publishedAt"`
	ViewCount      int64     `json:"viewCount"`
	EngagementRate float64   `json:"engagementRate"`
}
