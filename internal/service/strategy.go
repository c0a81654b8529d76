package service

import (
	"time"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
)

// PolicyFor derives the effective collection policy for one tracked
// channel. The channel row carries its own strategy and bounds; explicit
// window overrides (from configuration) replace the rolling window-days
// default when present.
func PolicyFor(tc model.TrackedChannel, windowStart, windowEnd *time.Time, now time.Time) model.Policy {
	policy := model.Policy{
		Kind:    tc.Strategy,
		RecentN: tc.RecentN,
	}

	switch {
	case windowStart != nil && windowEnd != nil:
		policy.WindowStart = *windowStart
		policy.WindowEnd = *windowEnd
	case windowStart != nil:
		policy.WindowStart = *windowStart
		policy.WindowEnd = now
	default:
		policy.WindowStart = now.AddDate(0, 0, -tc.WindowDays)
		policy.WindowEnd = now
	}
	return policy
}

// Plan resolves a policy into the absolute fetch instructions for one
// channel. It is pure: identical inputs always produce identical plans,
// and nothing here reads the store or the clock.
func Plan(tc model.TrackedChannel, policy model.Policy) model.FetchPlan {
	plan := model.FetchPlan{
		ChannelID:        tc.ChannelID,
		MaxVideos:        tc.MaxVideos,
		CommentsPerVideo: tc.CommentsPerVideo,
	}

	switch policy.Kind {
	case model.StrategyTimeWindow:
		planWindow(&plan, policy)
	case model.StrategyRecentCount:
		planRecent(&plan, policy)
	case model.StrategyHybrid:
		// Union of both selectors: a video is kept when either wants it.
		planWindow(&plan, policy)
		planRecent(&plan, policy)
	}
	return plan
}

func planWindow(plan *model.FetchPlan, policy model.Policy) {
	if policy.WindowStart.IsZero() && policy.WindowEnd.IsZero() {
		return
	}
	start := policy.WindowStart
	end := policy.WindowEnd
	plan.PublishedAfter = &start
	plan.PublishedBefore = &end
}

func planRecent(plan *model.FetchPlan, policy model.Policy) {
	if policy.RecentN <= 0 {
		return
	}
	n := policy.RecentN
	if plan.MaxVideos > 0 && n > plan.MaxVideos {
		n = plan.MaxVideos
	}
	plan.RecentN = n
}
