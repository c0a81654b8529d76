package model

import "time"

// Channel represents a YouTube channel under analysis. Identity is
// immutable; profile fields refresh each time the channel is sighted.
type Channel struct {
	ChannelID         string     `json:"channelId"`
	Title             string     `json:"title"`
	CustomURL         *string    `json:"customUrl,omitempty"`
	Country           *string    `json:"country,omitempty"`
	UploadsPlaylistID *string    `json:"-"`
	PublishedAt       *time.Time `json:"publishedAt,omitempty"`
	FirstSeenAt       time.Time  `json:"firstSeenAt"`
	LastSeenAt        time.Time  `json:"lastSeenAt"`
}

// ChannelSnapshot is one append-only stats observation for a channel.
type ChannelSnapshot struct {
	ChannelID       string    `json:"channelId"`
	FetchedAt       time.Time `json:"fetchedAt"`
	SubscriberCount *int64    `json:"subscriberCount,omitempty"`
	ViewCount       *int64    `json:"viewCount,omitempty"`
	VideoCount      *int64    `json:"videoCount,omitempty"`
}

// TrackedChannel is a row in the collection registry: which channels the
// collector visits and with what policy defaults.
type TrackedChannel struct {
	ChannelID        string    `json:"channelId"`
	Label            string    `json:"label,omitempty"`
	Strategy         string    `json:"strategy"`
	WindowDays       int       `json:"windowDays"`
	RecentN          int       `json:"recentN"`
	MaxVideos        int       `json:"maxVideos"`
	CommentsPerVideo int       `json:"commentsPerVideo"`
	Active           bool      `json:"active"`
	AddedAt          time.Time `json:"addedAt"`
}

// AddChannelRequest is the POST /api/channels body. Zero-valued policy
// fields fall back to the service defaults.
type AddChannelRequest struct {
	Identifier       string `json:"identifier"`
	Label            string `json:"label,omitempty"`
	Strategy         string `json:"strategy,omitempty"`
	WindowDays       int    `json:"windowDays,omitempty"`
	RecentN          int    `json:"recentN,omitempty"`
	MaxVideos        int    `json:"maxVideos,omitempty"`
	CommentsPerVideo int    `json:"commentsPerVideo,omitempty"`
}

// SetActiveRequest is the PATCH /api/channels/:channelId body. Active is
// a pointer so an absent field can be told apart from false.
type SetActiveRequest struct {
	Active *bool `json:"active"`
}

// ChannelSummary is the API response for the tracked channel listing.
type ChannelSummary struct {
	ChannelID       string     `json:"channelId"`
	Title           string     `json:"title"`
	Label           string     `json:"label,omitempty"`
	Strategy        string     `json:"strategy"`
	Active          bool       `json:"active"`
	SubscriberCount *int64     `json:"subscriberCount,omitempty"`
	ViewCount       *int64     `json:"viewCount,omitempty"`
	VideoCount      *int64     `json:"videoCount,omitempty"`
	LastFetchedAt   *time.Time `json:"lastFetchedAt,omitempty"`
}
