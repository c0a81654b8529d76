package youtube

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/nicolegu/YouTube-Channel-Analysis/pkg/duration"
)

// Quota unit costs per Data API v3 endpoint. Search is two orders of
// magnitude more expensive than the list endpoints, which is why channel
// resolution only falls back to it as a last resort.
const (
	CostChannelsList       = 1
	CostPlaylistItemsList  = 1
	CostVideosList         = 1
	CostCommentThreadsList = 1
	CostSearchList         = 100
)

// MaxIDsPerCall is the Data API limit on id-batched list calls.
const MaxIDsPerCall = 50

// ErrChannelNotFound is returned when an identifier resolves to nothing.
var ErrChannelNotFound = errors.New("youtube: channel not found")

// Client is the narrow surface the pipeline needs from the Data API.
// Retry and quota policy belong to the caller; implementations perform
// exactly one API call per method invocation.
type Client interface {
	// ResolveChannelID turns a channel URL, @handle, legacy username, or
	// bare name into a canonical UC… channel id.
	ResolveChannelID(ctx context.Context, identifier string) (string, error)
	// GetChannel fetches profile plus statistics for one channel id.
	GetChannel(ctx context.Context, channelID string) (*ChannelInfo, error)
	// ListUploads returns one page of the channel's uploads playlist.
	ListUploads(ctx context.Context, playlistID, pageToken string) ([]PlaylistEntry, string, error)
	// GetVideos fetches details plus statistics for up to MaxIDsPerCall ids.
	GetVideos(ctx context.Context, ids []string) ([]VideoInfo, error)
	// ListCommentThreads returns one page of top-level comments for a video.
	ListCommentThreads(ctx context.Context, videoID, pageToken string, pageSize int64) ([]CommentInfo, string, error)
}

// DataAPIClient implements Client against the real Data API v3.
type DataAPIClient struct {
	svc *yt.Service

	// identifier → channel id; resolution can cost a 100-unit search, so
	// results are memoized across runs of the in-process worker.
	resolved *gocache.Cache
}

func NewDataAPIClient(ctx context.Context, apiKey string) (*DataAPIClient, error) {
	if apiKey == "" {
		return nil, errors.New("youtube: api key is required")
	}
	svc, err := yt.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube: create service: %w", err)
	}
	return &DataAPIClient{
		svc:      svc,
		resolved: gocache.New(24*time.Hour, time.Hour),
	}, nil
}

func (c *DataAPIClient) ResolveChannelID(ctx context.Context, identifier string) (string, error) {
	ident := normalizeIdentifier(identifier)
	if ident == "" {
		return "", ErrChannelNotFound
	}
	if id, ok := c.resolved.Get(ident); ok {
		return id.(string), nil
	}

	id, err := c.resolve(ctx, ident)
	if err != nil {
		return "", err
	}
	c.resolved.SetDefault(ident, id)
	return id, nil
}

func (c *DataAPIClient) resolve(ctx context.Context, ident string) (string, error) {
	// Canonical ids pass through untouched.
	if strings.HasPrefix(ident, "UC") && len(ident) == 24 {
		return ident, nil
	}

	if strings.HasPrefix(ident, "@") {
		return c.lookupChannelID(ctx, func(call *yt.ChannelsListCall) *yt.ChannelsListCall {
			return call.ForHandle(ident)
		})
	}

	// Legacy usernames first; they are cheap. Bare names fall through to
	// search, which costs CostSearchList.
	id, err := c.lookupChannelID(ctx, func(call *yt.ChannelsListCall) *yt.ChannelsListCall {
		return call.ForUsername(ident)
	})
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrChannelNotFound) {
		return "", err
	}
	return c.searchChannelID(ctx, ident)
}

func (c *DataAPIClient) lookupChannelID(ctx context.Context, by func(*yt.ChannelsListCall) *yt.ChannelsListCall) (string, error) {
	call := by(c.svc.Channels.List([]string{"id"})).MaxResults(1)
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("youtube: channels.list: %w", err)
	}
	if len(resp.Items) == 0 {
		return "", ErrChannelNotFound
	}
	return resp.Items[0].Id, nil
}

func (c *DataAPIClient) searchChannelID(ctx context.Context, name string) (string, error) {
	resp, err := c.svc.Search.List([]string{"snippet"}).
		Q(name).
		Type("channel").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("youtube: search.list: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Id == nil || resp.Items[0].Id.ChannelId == "" {
		return "", ErrChannelNotFound
	}
	return resp.Items[0].Id.ChannelId, nil
}

func (c *DataAPIClient) GetChannel(ctx context.Context, channelID string) (*ChannelInfo, error) {
	resp, err := c.svc.Channels.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube: channels.list: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, ErrChannelNotFound
	}

	ch := resp.Items[0]
	info := &ChannelInfo{ID: ch.Id}
	if ch.Snippet != nil {
		info.Title = ch.Snippet.Title
		info.CustomURL = ch.Snippet.CustomUrl
		info.Country = ch.Snippet.Country
		info.PublishedAt = parseTimePtr(ch.Snippet.PublishedAt)
	}
	if ch.Statistics != nil {
		if !ch.Statistics.HiddenSubscriberCount {
			info.SubscriberCount = int64Ptr(int64(ch.Statistics.SubscriberCount))
		}
		info.ViewCount = int64Ptr(int64(ch.Statistics.ViewCount))
		info.VideoCount = int64Ptr(int64(ch.Statistics.VideoCount))
	}
	if ch.ContentDetails != nil && ch.ContentDetails.RelatedPlaylists != nil {
		info.UploadsPlaylistID = ch.ContentDetails.RelatedPlaylists.Uploads
	}
	return info, nil
}

func (c *DataAPIClient) ListUploads(ctx context.Context, playlistID, pageToken string) ([]PlaylistEntry, string, error) {
	call := c.svc.PlaylistItems.List([]string{"contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(MaxIDsPerCall)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, "", fmt.Errorf("youtube: playlistItems.list: %w", err)
	}

	entries := make([]PlaylistEntry, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
			continue
		}
		published := parseTimePtr(item.ContentDetails.VideoPublishedAt)
		if published == nil {
			// Private and removed videos carry no publish time.
			continue
		}
		entries = append(entries, PlaylistEntry{
			VideoID:     item.ContentDetails.VideoId,
			PublishedAt: *published,
		})
	}
	return entries, resp.NextPageToken, nil
}

func (c *DataAPIClient) GetVideos(ctx context.Context, ids []string) ([]VideoInfo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxIDsPerCall {
		return nil, fmt.Errorf("youtube: videos.list accepts at most %d ids, got %d", MaxIDsPerCall, len(ids))
	}

	resp, err := c.svc.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube: videos.list: %w", err)
	}

	videos := make([]VideoInfo, 0, len(resp.Items))
	for _, v := range resp.Items {
		info := VideoInfo{ID: v.Id}
		if v.Snippet != nil {
			info.ChannelID = v.Snippet.ChannelId
			info.Title = v.Snippet.Title
			info.Description = v.Snippet.Description
			if t := parseTimePtr(v.Snippet.PublishedAt); t != nil {
				info.PublishedAt = *t
			}
		}
		if v.ContentDetails != nil && v.ContentDetails.Duration != "" {
			if secs, err := duration.ParseISO8601(v.ContentDetails.Duration); err == nil {
				info.DurationSeconds = &secs
			}
		}
		if v.Statistics != nil {
			info.ViewCount = int64(v.Statistics.ViewCount)
			info.LikeCount = int64Ptr(int64(v.Statistics.LikeCount))
			info.CommentCount = int64Ptr(int64(v.Statistics.CommentCount))
		}
		videos = append(videos, info)
	}
	return videos, nil
}

func (c *DataAPIClient) ListCommentThreads(ctx context.Context, videoID, pageToken string, pageSize int64) ([]CommentInfo, string, error) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}
	call := c.svc.CommentThreads.List([]string{"snippet"}).
		VideoId(videoID).
		Order("time").
		TextFormat("plainText").
		MaxResults(pageSize)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, "", fmt.Errorf("youtube: commentThreads.list: %w", err)
	}

	comments := make([]CommentInfo, 0, len(resp.Items))
	for _, th := range resp.Items {
		if th.Snippet == nil || th.Snippet.TopLevelComment == nil {
			continue
		}
		top := th.Snippet.TopLevelComment
		info := commentFromAPI(top, videoID)
		if info == nil {
			continue
		}
		replies := th.Snippet.TotalReplyCount
		info.ReplyCount = &replies
		comments = append(comments, *info)
	}
	return comments, resp.NextPageToken, nil
}

func commentFromAPI(c *yt.Comment, videoID string) *CommentInfo {
	if c.Snippet == nil {
		return nil
	}
	s := c.Snippet

	published := parseTimePtr(s.PublishedAt)
	if published == nil {
		return nil
	}

	info := &CommentInfo{
		ID:          c.Id,
		VideoID:     videoID,
		AuthorName:  s.AuthorDisplayName,
		Text:        s.TextDisplay,
		PublishedAt: *published,
		UpdatedAt:   parseTimePtr(s.UpdatedAt),
		LikeCount:   s.LikeCount,
	}
	if s.ParentId != "" {
		parent := s.ParentId
		info.ParentID = &parent
	}
	if s.AuthorChannelId != nil && s.AuthorChannelId.Value != "" {
		author := s.AuthorChannelId.Value
		info.AuthorChannelID = &author
	}
	return info
}

// normalizeIdentifier strips URL decoration so cache keys and lookups see
// one canonical spelling per channel. Case is preserved: channel ids are
// case-sensitive.
func normalizeIdentifier(identifier string) string {
	ident := strings.TrimSpace(identifier)
	ident = strings.TrimPrefix(ident, "https://")
	ident = strings.TrimPrefix(ident, "http://")
	ident = strings.TrimPrefix(ident, "www.")
	ident = strings.TrimPrefix(ident, "youtube.com/")
	for _, prefix := range []string{"channel/", "c/", "user/"} {
		ident = strings.TrimPrefix(ident, prefix)
	}
	return strings.TrimSuffix(ident, "/")
}

func parseTimePtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func int64Ptr(v int64) *int64 { return &v }
