package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/youtube"
)

var fetchNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

// fakeClient satisfies youtube.Client with canned data. Individual
// methods are overridable per test; call counts are always recorded.
type fakeClient struct {
	getChannel   func(id string) (*youtube.ChannelInfo, error)
	listUploads  func(playlistID, pageToken string) ([]youtube.PlaylistEntry, string, error)
	getVideos    func(ids []string) ([]youtube.VideoInfo, error)
	listComments func(videoID, pageToken string, pageSize int64) ([]youtube.CommentInfo, string, error)

	calls map[string]int
}

func (f *fakeClient) count(op string) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[op]++
}

func (f *fakeClient) ResolveChannelID(ctx context.Context, identifier string) (string, error) {
	f.count("resolve")
	return identifier, nil
}

func (f *fakeClient) GetChannel(ctx context.Context, channelID string) (*youtube.ChannelInfo, error) {
	f.count("channels.list")
	if f.getChannel != nil {
		return f.getChannel(channelID)
	}
	subs, views, n := int64(1000), int64(50000), int64(2)
	return &youtube.ChannelInfo{
		ID:                channelID,
		Title:             "Fake Channel",
		UploadsPlaylistID: "UUfake",
		SubscriberCount:   &subs,
		ViewCount:         &views,
		VideoCount:        &n,
	}, nil
}

func (f *fakeClient) ListUploads(ctx context.Context, playlistID, pageToken string) ([]youtube.PlaylistEntry, string, error) {
	f.count("playlistItems.list")
	if f.listUploads != nil {
		return f.listUploads(playlistID, pageToken)
	}
	return []youtube.PlaylistEntry{
		{VideoID: "vid1", PublishedAt: fetchNow.AddDate(0, 0, -1)},
		{VideoID: "vid2", PublishedAt: fetchNow.AddDate(0, 0, -2)},
	}, "", nil
}

func (f *fakeClient) GetVideos(ctx context.Context, ids []string) ([]youtube.VideoInfo, error) {
	f.count("videos.list")
	if f.getVideos != nil {
		return f.getVideos(ids)
	}
	out := make([]youtube.VideoInfo, 0, len(ids))
	for i, id := range ids {
		likes := int64(10 * (i + 1))
		comments := int64(i + 1)
		out = append(out, youtube.VideoInfo{
			ID:           id,
			ChannelID:    "UCfake",
			Title:        "Video " + id,
			PublishedAt:  fetchNow.AddDate(0, 0, -(i + 1)),
			ViewCount:    int64(100 * (i + 1)),
			LikeCount:    &likes,
			CommentCount: &comments,
		})
	}
	return out, nil
}

func (f *fakeClient) ListCommentThreads(ctx context.Context, videoID, pageToken string, pageSize int64) ([]youtube.CommentInfo, string, error) {
	f.count("commentThreads.list")
	if f.listComments != nil {
		return f.listComments(videoID, pageToken, pageSize)
	}
	return []youtube.CommentInfo{
		{ID: videoID + "-c1", VideoID: videoID, AuthorName: "alice", Text: "nice pens", PublishedAt: fetchNow, LikeCount: 3},
	}, "", nil
}

func newTestFetch(client youtube.Client, attempts int) (*FetchService, *[]time.Duration) {
	svc := NewFetchService(client, attempts, 2*time.Second)
	slept := &[]time.Duration{}
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return svc, slept
}

func windowPlan() model.FetchPlan {
	after := fetchNow.AddDate(0, 0, -30)
	before := fetchNow
	return model.FetchPlan{
		ChannelID:        "UCfake",
		PublishedAfter:   &after,
		PublishedBefore:  &before,
		MaxVideos:        200,
		CommentsPerVideo: 5,
	}
}

// statsPlan selects nothing beyond the channel row itself.
func statsPlan() model.FetchPlan {
	start := fetchNow
	end := fetchNow.AddDate(0, 0, -10)
	return model.FetchPlan{ChannelID: "UCfake", PublishedAfter: &start, PublishedBefore: &end}
}

func TestBackoffDelay(t *testing.T) {
	base := 2 * time.Second
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
	}
	for _, tt := range cases {
		if got := backoffDelay(base, tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(%v, %d) = %v, want %v", base, tt.attempt, got, tt.want)
		}
	}
}

func TestClassifyFetchError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want FetchErrorKind
	}{
		{"500", &googleapi.Error{Code: 500}, FetchTransient},
		{"503", &googleapi.Error{Code: 503}, FetchTransient},
		{"429", &googleapi.Error{Code: 429}, FetchTransient},
		{"rate limit 403", &googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "rateLimitExceeded"}}}, FetchTransient},
		{"quota 403", &googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "quotaExceeded"}}}, FetchFatal},
		{"plain 403", &googleapi.Error{Code: 403}, FetchFatal},
		{"401", &googleapi.Error{Code: 401}, FetchFatal},
		{"400", &googleapi.Error{Code: 400}, FetchFatal},
		{"404", &googleapi.Error{Code: 404}, FetchFatal},
		{"call timeout", context.DeadlineExceeded, FetchTransient},
		{"unknown", errors.New("weird"), FetchFatal},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyFetchError(tt.err); got != tt.want {
				t.Errorf("classifyFetchError(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestFetchChannel_HappyPath(t *testing.T) {
	client := &fakeClient{}
	svc, _ := newTestFetch(client, 3)
	budget := NewQuotaBudget(100)

	batch, skipped, err := svc.FetchChannel(context.Background(), budget, windowPlan(), fetchNow)
	if err != nil {
		t.Fatalf("FetchChannel: %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %v, want none", skipped)
	}
	if batch.Channel.ChannelID != "UCfake" {
		t.Errorf("Channel.ChannelID = %q, want %q", batch.Channel.ChannelID, "UCfake")
	}
	if batch.ChannelSnapshot.SubscriberCount == nil || *batch.ChannelSnapshot.SubscriberCount != 1000 {
		t.Errorf("SubscriberCount = %v, want 1000", batch.ChannelSnapshot.SubscriberCount)
	}
	if got := len(batch.Videos); got != 2 {
		t.Fatalf("len(Videos) = %d, want 2", got)
	}
	if got := len(batch.VideoSnapshots); got != 2 {
		t.Errorf("len(VideoSnapshots) = %d, want 2", got)
	}
	if got := len(batch.Comments); got != 2 {
		t.Errorf("len(Comments) = %d, want 2 (one per video)", got)
	}
	for _, vs := range batch.VideoSnapshots {
		if !vs.FetchedAt.Equal(fetchNow) {
			t.Errorf("snapshot FetchedAt = %v, want %v (all snapshots share the run timestamp)", vs.FetchedAt, fetchNow)
		}
	}
	// channels 1 + playlist 1 + videos 1 + comments 2
	if got := budget.Used(); got != 5 {
		t.Errorf("quota used = %d, want 5", got)
	}
}

func TestFetchChannel_RetriesTransientThenSucceeds(t *testing.T) {
	attempts := 0
	client := &fakeClient{
		getChannel: func(id string) (*youtube.ChannelInfo, error) {
			attempts++
			if attempts < 3 {
				return nil, &googleapi.Error{Code: 503, Message: "backend error"}
			}
			return &youtube.ChannelInfo{ID: id, Title: "Recovered"}, nil
		},
	}
	svc, slept := newTestFetch(client, 4)
	budget := NewQuotaBudget(100)

	batch, skipped, err := svc.FetchChannel(context.Background(), budget, statsPlan(), fetchNow)
	if err != nil {
		t.Fatalf("FetchChannel: %v", err)
	}
	if batch == nil || batch.Channel.Title != "Recovered" {
		t.Fatalf("batch = %+v, want recovered channel", batch)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %v, want none", skipped)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("slept %v, want %v", *slept, want)
	}
	for i := range want {
		if (*slept)[i] != want[i] {
			t.Errorf("backoff %d = %v, want %v", i, (*slept)[i], want[i])
		}
	}
	// Every attempt is charged.
	if got := budget.Used(); got != 3 {
		t.Errorf("quota used = %d, want 3", got)
	}
}

func TestFetchChannel_RetryAfterHintWins(t *testing.T) {
	attempts := 0
	client := &fakeClient{
		getChannel: func(id string) (*youtube.ChannelInfo, error) {
			attempts++
			if attempts == 1 {
				return nil, &googleapi.Error{
					Code:   403,
					Errors: []googleapi.ErrorItem{{Reason: "rateLimitExceeded"}},
					Header: http.Header{"Retry-After": []string{"7"}},
				}
			}
			return &youtube.ChannelInfo{ID: id}, nil
		},
	}
	svc, slept := newTestFetch(client, 3)

	_, _, err := svc.FetchChannel(context.Background(), NewQuotaBudget(100), statsPlan(), fetchNow)
	if err != nil {
		t.Fatalf("FetchChannel: %v", err)
	}
	if len(*slept) != 1 || (*slept)[0] != 7*time.Second {
		t.Errorf("slept = %v, want [7s] (server hint beats backoff)", *slept)
	}
}

func TestFetchChannel_FatalAbortsImmediately(t *testing.T) {
	client := &fakeClient{
		getChannel: func(id string) (*youtube.ChannelInfo, error) {
			return nil, &googleapi.Error{Code: 401, Message: "invalid key"}
		},
	}
	svc, slept := newTestFetch(client, 4)

	batch, _, err := svc.FetchChannel(context.Background(), NewQuotaBudget(100), windowPlan(), fetchNow)
	if batch != nil {
		t.Errorf("batch = %+v, want nil", batch)
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Kind != FetchFatal {
		t.Fatalf("err = %v, want fatal FetchError", err)
	}
	if client.calls["channels.list"] != 1 {
		t.Errorf("channels.list calls = %d, want 1 (fatal errors are not retried)", client.calls["channels.list"])
	}
	if len(*slept) != 0 {
		t.Errorf("slept = %v, want none", *slept)
	}
}

func TestFetchChannel_TransientExhaustedBecomesSkip(t *testing.T) {
	client := &fakeClient{
		getChannel: func(id string) (*youtube.ChannelInfo, error) {
			return nil, &googleapi.Error{Code: 503}
		},
	}
	svc, _ := newTestFetch(client, 3)

	batch, skipped, err := svc.FetchChannel(context.Background(), NewQuotaBudget(100), windowPlan(), fetchNow)
	if err != nil {
		t.Fatalf("err = %v, want nil (exhausted retries are a skip, not an abort)", err)
	}
	if batch != nil {
		t.Errorf("batch = %+v, want nil", batch)
	}
	if len(skipped) != 1 || skipped[0].Kind != "channel" || skipped[0].Reason != model.SkipTransient {
		t.Fatalf("skipped = %v, want one channel/transient_exhausted entry", skipped)
	}
	if client.calls["channels.list"] != 3 {
		t.Errorf("channels.list calls = %d, want 3", client.calls["channels.list"])
	}
}

func TestFetchChannel_QuotaExhaustionIsPartial(t *testing.T) {
	client := &fakeClient{}
	svc, _ := newTestFetch(client, 3)
	// Covers channel, playlist page and video details but no comments.
	budget := NewQuotaBudget(3)

	batch, skipped, err := svc.FetchChannel(context.Background(), budget, windowPlan(), fetchNow)
	if err != nil {
		t.Fatalf("err = %v, want nil (quota exhaustion is a partial result)", err)
	}
	if got := len(batch.Videos); got != 2 {
		t.Fatalf("len(Videos) = %d, want 2", got)
	}
	if len(skipped) != 2 {
		t.Fatalf("skipped = %v, want 2 comment skips", skipped)
	}
	for _, item := range skipped {
		if item.Kind != "comments" || item.Reason != model.SkipQuota {
			t.Errorf("skipped item = %+v, want comments/quota", item)
		}
	}
	if budget.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", budget.Remaining())
	}
}

func TestFetchChannel_EmptyPlanFetchesStatsOnly(t *testing.T) {
	client := &fakeClient{}
	svc, _ := newTestFetch(client, 3)

	start := fetchNow
	end := fetchNow.AddDate(0, 0, -10) // inverted
	plan := model.FetchPlan{ChannelID: "UCfake", PublishedAfter: &start, PublishedBefore: &end, MaxVideos: 200}

	batch, skipped, err := svc.FetchChannel(context.Background(), NewQuotaBudget(100), plan, fetchNow)
	if err != nil {
		t.Fatalf("FetchChannel: %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %v, want none", skipped)
	}
	if len(batch.Videos) != 0 {
		t.Errorf("len(Videos) = %d, want 0", len(batch.Videos))
	}
	if client.calls["playlistItems.list"] != 0 {
		t.Errorf("playlistItems.list calls = %d, want 0 for an empty plan", client.calls["playlistItems.list"])
	}
	if batch.Channel.ChannelID != "UCfake" {
		t.Errorf("channel stats missing from empty-plan batch: %+v", batch.Channel)
	}
}

func TestFetchChannel_WindowStopsPaging(t *testing.T) {
	client := &fakeClient{
		listUploads: func(playlistID, pageToken string) ([]youtube.PlaylistEntry, string, error) {
			switch pageToken {
			case "":
				return []youtube.PlaylistEntry{
					{VideoID: "new1", PublishedAt: fetchNow.AddDate(0, 0, -1)},
					{VideoID: "old1", PublishedAt: fetchNow.AddDate(0, 0, -45)},
				}, "page2", nil
			default:
				return []youtube.PlaylistEntry{
					{VideoID: "old2", PublishedAt: fetchNow.AddDate(0, 0, -60)},
				}, "", nil
			}
		},
	}
	svc, _ := newTestFetch(client, 3)
	plan := windowPlan()
	plan.CommentsPerVideo = 0

	batch, _, err := svc.FetchChannel(context.Background(), NewQuotaBudget(100), plan, fetchNow)
	if err != nil {
		t.Fatalf("FetchChannel: %v", err)
	}
	if len(batch.Videos) != 1 || batch.Videos[0].VideoID != "new1" {
		t.Fatalf("Videos = %+v, want only new1", batch.Videos)
	}
	if client.calls["playlistItems.list"] != 1 {
		t.Errorf("playlistItems.list calls = %d, want 1 (paging stops at the window edge)", client.calls["playlistItems.list"])
	}
}

func TestFetchChannel_RecentCountStopsPaging(t *testing.T) {
	client := &fakeClient{
		listUploads: func(playlistID, pageToken string) ([]youtube.PlaylistEntry, string, error) {
			return []youtube.PlaylistEntry{
				{VideoID: "a", PublishedAt: fetchNow.AddDate(0, 0, -1)},
				{VideoID: "b", PublishedAt: fetchNow.AddDate(0, 0, -2)},
				{VideoID: "c", PublishedAt: fetchNow.AddDate(0, 0, -3)},
			}, "more", nil
		},
	}
	svc, _ := newTestFetch(client, 3)
	plan := model.FetchPlan{ChannelID: "UCfake", RecentN: 2, MaxVideos: 200, CommentsPerVideo: 0}

	batch, _, err := svc.FetchChannel(context.Background(), NewQuotaBudget(100), plan, fetchNow)
	if err != nil {
		t.Fatalf("FetchChannel: %v", err)
	}
	if len(batch.Videos) != 2 {
		t.Fatalf("len(Videos) = %d, want 2", len(batch.Videos))
	}
	if client.calls["playlistItems.list"] != 1 {
		t.Errorf("playlistItems.list calls = %d, want 1 (recent quota satisfied on first page)", client.calls["playlistItems.list"])
	}
}

func TestFetchChannel_CommentsDisabledIsNotAFailure(t *testing.T) {
	client := &fakeClient{
		listComments: func(videoID, pageToken string, pageSize int64) ([]youtube.CommentInfo, string, error) {
			return nil, "", &googleapi.Error{
				Code:   403,
				Errors: []googleapi.ErrorItem{{Reason: "commentsDisabled"}},
			}
		},
	}
	svc, _ := newTestFetch(client, 3)

	batch, skipped, err := svc.FetchChannel(context.Background(), NewQuotaBudget(100), windowPlan(), fetchNow)
	if err != nil {
		t.Fatalf("FetchChannel: %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %v, want none (disabled comments are not a skip)", skipped)
	}
	if len(batch.Comments) != 0 {
		t.Errorf("len(Comments) = %d, want 0", len(batch.Comments))
	}
}

func TestFetchChannel_DeadlineAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &fakeClient{
		listUploads: func(playlistID, pageToken string) ([]youtube.PlaylistEntry, string, error) {
			cancel()
			return nil, "", context.Canceled
		},
	}
	svc, _ := newTestFetch(client, 3)

	batch, _, err := svc.FetchChannel(ctx, NewQuotaBudget(100), windowPlan(), fetchNow)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if batch == nil || batch.Channel.ChannelID != "UCfake" {
		t.Errorf("batch = %+v, want channel stats preserved for the partial write", batch)
	}
}
