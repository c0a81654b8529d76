package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/repository"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/youtube"
)

// ErrYouTubeDisabled is returned when enrollment is attempted without a
// configured Data API key.
var ErrYouTubeDisabled = errors.New("channels: YouTube API is not configured")

// Tracking defaults for fields the caller leaves zero.
const (
	defaultWindowDays       = 30
	defaultRecentN          = 25
	defaultMaxVideos        = 200
	defaultCommentsPerVideo = 100
)

// ChannelService manages channel enrollment and the tracked channel
// listing for the read API.
type ChannelService struct {
	repo  *repository.ChannelRepo
	yt    youtube.Client
	cache *CacheService
}

func NewChannelService(repo *repository.ChannelRepo, yt youtube.Client, cache *CacheService) *ChannelService {
	return &ChannelService{repo: repo, yt: yt, cache: cache}
}

// AddChannel enrolls a channel for collection. The identifier may be a
// UC… id, an @handle, a channel URL or a bare name; it is resolved
// through the API so the store only ever holds canonical ids.
func (s *ChannelService) AddChannel(ctx context.Context, identifier string, opts model.TrackedChannel) (*model.Channel, error) {
	if s.yt == nil {
		return nil, ErrYouTubeDisabled
	}
	switch opts.Strategy {
	case "", model.StrategyTimeWindow, model.StrategyRecentCount, model.StrategyHybrid:
	default:
		return nil, fmt.Errorf("channels: unknown strategy %q", opts.Strategy)
	}

	channelID, err := s.yt.ResolveChannelID(ctx, identifier)
	if err != nil {
		return nil, err
	}
	info, err := s.yt.GetChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}

	ch := model.Channel{
		ChannelID:         info.ID,
		Title:             info.Title,
		CustomURL:         strPtr(info.CustomURL),
		Country:           strPtr(info.Country),
		UploadsPlaylistID: strPtr(info.UploadsPlaylistID),
		PublishedAt:       info.PublishedAt,
	}
	opts.ChannelID = info.ID
	applyTrackingDefaults(&opts)

	if err := s.repo.AddTracked(ctx, ch, opts); err != nil {
		return nil, err
	}
	s.invalidateChannels(ctx)

	log.Printf("channels: tracking %s (%s) strategy=%s", info.ID, info.Title, opts.Strategy)
	return &ch, nil
}

func applyTrackingDefaults(tc *model.TrackedChannel) {
	if tc.Strategy == "" {
		tc.Strategy = model.StrategyHybrid
	}
	if tc.WindowDays <= 0 {
		tc.WindowDays = defaultWindowDays
	}
	if tc.RecentN <= 0 {
		tc.RecentN = defaultRecentN
	}
	if tc.MaxVideos <= 0 {
		tc.MaxVideos = defaultMaxVideos
	}
	if tc.CommentsPerVideo <= 0 {
		tc.CommentsPerVideo = defaultCommentsPerVideo
	}
	tc.Active = true
}

// ListChannels returns tracked channel summaries.
// Uses cache-aside: check Redis first, fall back to DB, then populate cache.
func (s *ChannelService) ListChannels(ctx context.Context) ([]model.ChannelSummary, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, ChannelsKey())
		if err != nil {
			log.Printf("cache: channels get error: %v", err)
		} else if cached != nil {
			var summaries []model.ChannelSummary
			if err := json.Unmarshal(cached, &summaries); err == nil {
				return summaries, nil
			}
		}
	}

	summaries, err := s.repo.ListSummaries(ctx)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []model.ChannelSummary{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, ChannelsKey(), summaries, ChannelsCacheTTL); err != nil {
			log.Printf("cache: channels set error: %v", err)
		}
	}
	return summaries, nil
}

// SetActive pauses or resumes collection for a channel. Unknown channels
// surface as pgx.ErrNoRows from the repository.
func (s *ChannelService) SetActive(ctx context.Context, channelID string, active bool) error {
	if err := s.repo.SetActive(ctx, channelID, active); err != nil {
		return err
	}
	s.invalidateChannels(ctx)
	return nil
}

func (s *ChannelService) invalidateChannels(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, "channels:"); err != nil {
		log.Printf("cache: channels invalidate error: %v", err)
	}
}
