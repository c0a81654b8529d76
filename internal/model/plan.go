package model

import "time"

// Collection strategies. The set is closed: anything else is a
// configuration error.
const (
	StrategyTimeWindow  = "time_window"
	StrategyRecentCount = "recent_count"
	StrategyHybrid      = "hybrid"
)

// Policy selects what a collection run fetches for one channel.
// WindowStart/WindowEnd bound time_window and hybrid; RecentN bounds
// recent_count and hybrid.
type Policy struct {
	Kind        string
	WindowStart time.Time
	WindowEnd   time.Time
	RecentN     int
}

// FetchPlan is the resolved, absolute instruction set for fetching one
// channel. It is a pure function of (channel, policy, now): no field
// depends on store state, so planning is deterministic and testable.
type FetchPlan struct {
	ChannelID        string     `json:"channelId"`
	PublishedAfter   *time.Time `json:"publishedAfter,omitempty"`
	PublishedBefore  *time.Time `json:"publishedBefore,omitempty"`
	RecentN          int        `json:"recentN,omitempty"`
	MaxVideos        int        `json:"maxVideos"`
	CommentsPerVideo int        `json:"commentsPerVideo"`
}

// Empty reports whether the plan selects nothing, e.g. an inverted or
// zero-length window with no recent-count component.
func (p FetchPlan) Empty() bool {
	if p.RecentN > 0 {
		return false
	}
	if p.PublishedAfter == nil || p.PublishedBefore == nil {
		return false
	}
	return !p.PublishedAfter.Before(*p.PublishedBefore)
}

// Wants reports whether a video published at t falls inside the plan's
// window component. Videos kept by the recent-count component are decided
// positionally during listing, not here. A plan without a window
// component wants nothing by time.
func (p FetchPlan) Wants(t time.Time) bool {
	if p.PublishedAfter == nil && p.PublishedBefore == nil {
		return false
	}
	if p.PublishedAfter != nil && t.Before(*p.PublishedAfter) {
		return false
	}
	if p.PublishedBefore != nil && !t.Before(*p.PublishedBefore) {
		return false
	}
	return true
}

// FetchBatch is everything collected for one channel in one run. The
// writer persists a batch atomically; all snapshots share FetchedAt.
type FetchBatch struct {
	FetchedAt        time.Time
	Channel          Channel
	ChannelSnapshot  ChannelSnapshot
	Videos           []Video
	VideoSnapshots   []VideoSnapshot
	Comments         []Comment
	CommentSnapshots []CommentSnapshot
}

// SkippedItem records one planned item a run did not fetch and why.
type SkippedItem struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Skip reasons reported on partial runs.
const (
	SkipQuota     = "quota"
	SkipDeadline  = "deadline"
	SkipTransient = "transient_exhausted"
)
