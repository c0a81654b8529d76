package service

import (
	"sort"
	"time"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
)

// ComputeEngagement derives engagement metrics from one video's snapshot
// history. For each snapshot:
//
//	rate        = (likes + comments) / max(views, 1)
//	delta_views = views - previous views    (nil for the first snapshot)
//	delta_likes = likes - previous likes    (nil when either side is hidden)
//
// Hidden like and comment counts contribute zero to the rate but make
// the like delta unknowable. The function is pure and total: identical
// histories always produce identical metrics, so reruns replace rows
// instead of drifting.
func ComputeEngagement(videoID string, snapshots []model.VideoSnapshot, computedAt time.Time) []model.EngagementMetric {
	if len(snapshots) == 0 {
		return nil
	}

	ordered := make([]model.VideoSnapshot, len(snapshots))
	copy(ordered, snapshots)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].FetchedAt.Before(ordered[j].FetchedAt)
	})

	out := make([]model.EngagementMetric, 0, len(ordered))
	for i, s := range ordered {
		var likes, comments int64
		if s.LikeCount != nil {
			likes = *s.LikeCount
		}
		if s.CommentCount != nil {
			comments = *s.CommentCount
		}
		denom := s.ViewCount
		if denom < 1 {
			denom = 1
		}

		m := model.EngagementMetric{
			VideoID:        videoID,
			SnapshotAt:     s.FetchedAt,
			EngagementRate: float64(likes+comments) / float64(denom),
			ComputedAt:     computedAt,
		}
		if i > 0 {
			prev := ordered[i-1]
			dv := s.ViewCount - prev.ViewCount
			m.DeltaViews = &dv
			if s.LikeCount != nil && prev.LikeCount != nil {
				dl := *s.LikeCount - *prev.LikeCount
				m.DeltaLikes = &dl
			}
		}
		out = append(out, m)
	}
	return out
}
