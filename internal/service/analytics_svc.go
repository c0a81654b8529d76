package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/repository"
)

// ErrChannelUnknown is returned for per-channel queries against a
// channel the store has never seen.
var ErrChannelUnknown = errors.New("analytics: unknown channel")

// AnalyticsService fronts the aggregate queries with cache-aside reads.
// Responses only change when a collection run lands, and the run
// invalidates the analytics prefix, so hits are safe to serve for the
// full TTL.
type AnalyticsService struct {
	repo     *repository.AnalyticsRepo
	channels *repository.ChannelRepo
	cache    *CacheService
}

func NewAnalyticsService(repo *repository.AnalyticsRepo, channels *repository.ChannelRepo, cache *CacheService) *AnalyticsService {
	return &AnalyticsService{repo: repo, channels: channels, cache: cache}
}

// cacheAside serves key from the cache when possible, otherwise loads,
// stores and returns. Cache failures are logged and degrade to a load.
func cacheAside[T any](ctx context.Context, c *CacheService, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if c != nil {
		if raw, err := c.Get(ctx, key); err != nil {
			log.Printf("cache: get %s error: %v", key, err)
		} else if raw != nil {
			var v T
			if err := json.Unmarshal(raw, &v); err == nil {
				return v, nil
			}
		}
	}

	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}

	if c != nil {
		if err := c.Set(ctx, key, v, ttl); err != nil {
			log.Printf("cache: set %s error: %v", key, err)
		}
	}
	return v, nil
}

// filterKeyParts flattens a filter into cache key segments.
func filterKeyParts(f repository.AnalyticsFilter) []string {
	from, to := "", ""
	if f.From != nil {
		from = f.From.UTC().Format(time.RFC3339)
	}
	if f.To != nil {
		to = f.To.UTC().Format(time.RFC3339)
	}
	return []string{f.ChannelID, from, to, f.Brand, f.Category}
}

func (s *AnalyticsService) EngagementSeries(ctx context.Context, f repository.AnalyticsFilter) ([]model.EngagementPoint, error) {
	key := AnalyticsKey("engagement", filterKeyParts(f)...)
	return cacheAside(ctx, s.cache, key, AnalyticsCacheTTL, func() ([]model.EngagementPoint, error) {
		series, err := s.repo.EngagementSeries(ctx, f)
		if series == nil {
			series = []model.EngagementPoint{}
		}
		return series, err
	})
}

func (s *AnalyticsService) TopVideos(ctx context.Context, f repository.AnalyticsFilter, limit int) ([]model.TopVideo, error) {
	key := AnalyticsKey("top-videos", append(filterKeyParts(f), strconv.Itoa(limit))...)
	return cacheAside(ctx, s.cache, key, AnalyticsCacheTTL, func() ([]model.TopVideo, error) {
		top, err := s.repo.TopVideos(ctx, f, limit)
		if top == nil {
			top = []model.TopVideo{}
		}
		return top, err
	})
}

func (s *AnalyticsService) BrandStats(ctx context.Context, f repository.AnalyticsFilter, limit int) ([]model.BrandStat, error) {
	key := AnalyticsKey("brands", append(filterKeyParts(f), strconv.Itoa(limit))...)
	return cacheAside(ctx, s.cache, key, AnalyticsCacheTTL, func() ([]model.BrandStat, error) {
		stats, err := s.repo.BrandStats(ctx, f, limit)
		if stats == nil {
			stats = []model.BrandStat{}
		}
		return stats, err
	})
}

func (s *AnalyticsService) CategoryStats(ctx context.Context, f repository.AnalyticsFilter) ([]model.CategoryStat, error) {
	key := AnalyticsKey("categories", filterKeyParts(f)...)
	return cacheAside(ctx, s.cache, key, AnalyticsCacheTTL, func() ([]model.CategoryStat, error) {
		stats, err := s.repo.CategoryStats(ctx, f)
		if stats == nil {
			stats = []model.CategoryStat{}
		}
		return stats, err
	})
}

func (s *AnalyticsService) RecentQuestions(ctx context.Context, channelID string, limit int) ([]model.QuestionComment, error) {
	key := AnalyticsKey("questions", channelID, strconv.Itoa(limit))
	return cacheAside(ctx, s.cache, key, AnalyticsCacheTTL, func() ([]model.QuestionComment, error) {
		questions, err := s.repo.RecentQuestions(ctx, channelID, limit)
		if questions == nil {
			questions = []model.QuestionComment{}
		}
		return questions, err
	})
}

func (s *AnalyticsService) ChannelVideos(ctx context.Context, channelID string, limit int) ([]model.VideoSummary, error) {
	ch, err := s.channels.GetChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrChannelUnknown
	}

	key := AnalyticsKey("channel-videos", channelID, strconv.Itoa(limit))
	return cacheAside(ctx, s.cache, key, AnalyticsCacheTTL, func() ([]model.VideoSummary, error) {
		videos, err := s.repo.ChannelVideos(ctx, channelID, limit)
		if videos == nil {
			videos = []model.VideoSummary{}
		}
		return videos, err
	})
}
