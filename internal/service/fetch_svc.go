package service

import (
	"context"
	"errors"
	"time"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/youtube"
)

// FetchService executes fetch plans against the YouTube Data API. All
// retry and quota policy lives here: the client underneath performs
// exactly one API call per method, and nothing above this layer retries.
type FetchService struct {
	client      youtube.Client
	maxAttempts int
	backoffBase time.Duration

	// sleep is swapped out in tests so backoff does not slow them down.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewFetchService(client youtube.Client, maxAttempts int, backoffBase time.Duration) *FetchService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &FetchService{
		client:      client,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		sleep:       sleepCtx,
	}
}

// call runs one API operation under the quota budget, retrying transient
// failures with exponential backoff. Every attempt is charged: the API
// bills failed requests the same as successful ones.
func (s *FetchService) call(ctx context.Context, budget *QuotaBudget, op string, cost int, fn func() error) error {
	for attempt := 1; ; attempt++ {
		if !budget.Reserve(cost) {
			observeAPICall(op, "quota")
			return ErrQuotaExhausted
		}
		observeQuota(cost)

		err := fn()
		if err == nil {
			observeAPICall(op, "ok")
			return nil
		}
		if ctx.Err() != nil {
			observeAPICall(op, "canceled")
			return ctx.Err()
		}
		if classifyFetchError(err) == FetchFatal {
			observeAPICall(op, "fatal")
			return &FetchError{Kind: FetchFatal, Op: op, Err: err}
		}
		if attempt >= s.maxAttempts {
			observeAPICall(op, "transient_exhausted")
			return &FetchError{Kind: FetchTransient, Op: op, Err: err}
		}

		delay := backoffDelay(s.backoffBase, attempt)
		if hint := retryAfterHint(err); hint > delay {
			delay = hint
		}
		observeAPIRetry(op)
		if sleepErr := s.sleep(ctx, delay); sleepErr != nil {
			observeAPICall(op, "canceled")
			return sleepErr
		}
	}
}

// backoffDelay returns base doubled per completed attempt: base after the
// first failure, 2*base after the second, and so on.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt > 16 {
		attempt = 16
	}
	return base << (attempt - 1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// abortErr returns the error when it must end the whole channel fetch:
// fatal API failures and expired contexts. Transient exhaustion and
// quota are handled in place as skips.
func abortErr(err error) error {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Kind == FetchFatal {
		return fe
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// skipReason maps a non-fatal call error to the reason recorded on the
// items the plan wanted but could not get.
func skipReason(err error) string {
	switch {
	case errors.Is(err, ErrQuotaExhausted):
		return model.SkipQuota
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return model.SkipDeadline
	default:
		return model.SkipTransient
	}
}

// FetchChannel executes one channel's plan. The returned batch holds
// everything fetched before any stop condition hit, and skipped lists
// what the plan wanted but could not get. The error is non-nil only for
// fatal API failures and context expiration; quota running out and
// retries running dry are part of the normal partial result.
func (s *FetchService) FetchChannel(ctx context.Context, budget *QuotaBudget, plan model.FetchPlan, fetchedAt time.Time) (*model.FetchBatch, []model.SkippedItem, error) {
	var skipped []model.SkippedItem

	var info *youtube.ChannelInfo
	err := s.call(ctx, budget, "channels.list", youtube.CostChannelsList, func() error {
		var callErr error
		info, callErr = s.client.GetChannel(ctx, plan.ChannelID)
		return callErr
	})
	if err != nil {
		if stop := abortErr(err); stop != nil {
			return nil, skipped, stop
		}
		reason := skipReason(err)
		skipped = append(skipped, model.SkippedItem{Kind: "channel", ID: plan.ChannelID, Reason: reason})
		observeSkip(reason)
		return nil, skipped, nil
	}

	batch := &model.FetchBatch{
		FetchedAt: fetchedAt,
		Channel: model.Channel{
			ChannelID:         info.ID,
			Title:             info.Title,
			CustomURL:         strPtr(info.CustomURL),
			Country:           strPtr(info.Country),
			UploadsPlaylistID: strPtr(info.UploadsPlaylistID),
			PublishedAt:       info.PublishedAt,
		},
		ChannelSnapshot: model.ChannelSnapshot{
			ChannelID:       info.ID,
			FetchedAt:       fetchedAt,
			SubscriberCount: info.SubscriberCount,
			ViewCount:       info.ViewCount,
			VideoCount:      info.VideoCount,
		},
	}

	if plan.Empty() || info.UploadsPlaylistID == "" {
		return batch, skipped, nil
	}

	videoIDs, err := s.listPlannedUploads(ctx, budget, plan, info.UploadsPlaylistID)
	if err != nil {
		if stop := abortErr(err); stop != nil {
			return batch, skipped, stop
		}
		reason := skipReason(err)
		skipped = append(skipped, model.SkippedItem{Kind: "videos", ID: plan.ChannelID, Reason: reason})
		observeSkip(reason)
	}

	for start := 0; start < len(videoIDs); start += youtube.MaxIDsPerCall {
		end := start + youtube.MaxIDsPerCall
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		chunk := videoIDs[start:end]

		var infos []youtube.VideoInfo
		err := s.call(ctx, budget, "videos.list", youtube.CostVideosList, func() error {
			var callErr error
			infos, callErr = s.client.GetVideos(ctx, chunk)
			return callErr
		})
		if err != nil {
			if stop := abortErr(err); stop != nil {
				return batch, skipped, stop
			}
			reason := skipReason(err)
			for _, id := range videoIDs[start:] {
				skipped = append(skipped, model.SkippedItem{Kind: "video", ID: id, Reason: reason})
				observeSkip(reason)
			}
			return batch, skipped, nil
		}

		for _, vi := range infos {
			batch.Videos = append(batch.Videos, model.Video{
				VideoID:         vi.ID,
				ChannelID:       vi.ChannelID,
				Title:           vi.Title,
				Description:     vi.Description,
				PublishedAt:     vi.PublishedAt,
				DurationSeconds: vi.DurationSeconds,
			})
			batch.VideoSnapshots = append(batch.VideoSnapshots, model.VideoSnapshot{
				VideoID:      vi.ID,
				FetchedAt:    fetchedAt,
				ViewCount:    vi.ViewCount,
				LikeCount:    vi.LikeCount,
				CommentCount: vi.CommentCount,
			})
		}
	}

	if plan.CommentsPerVideo <= 0 {
		return batch, skipped, nil
	}

	for i, v := range batch.Videos {
		stop, err := s.fetchComments(ctx, budget, batch, plan, v.VideoID, fetchedAt, &skipped)
		if err != nil {
			return batch, skipped, err
		}
		if stop {
			for _, rest := range batch.Videos[i+1:] {
				skipped = append(skipped, model.SkippedItem{Kind: "comments", ID: rest.VideoID, Reason: model.SkipQuota})
				observeSkip(model.SkipQuota)
			}
			break
		}
	}
	return batch, skipped, nil
}

// listPlannedUploads pages the uploads playlist and returns the video ids
// the plan selects. Uploads come back newest first, so paging stops as
// soon as an entry is both past the recent quota and older than the
// window start.
func (s *FetchService) listPlannedUploads(ctx context.Context, budget *QuotaBudget, plan model.FetchPlan, playlistID string) ([]string, error) {
	var ids []string
	seen := 0
	pageToken := ""

	for {
		var entries []youtube.PlaylistEntry
		var next string
		err := s.call(ctx, budget, "playlistItems.list", youtube.CostPlaylistItemsList, func() error {
			var callErr error
			entries, next, callErr = s.client.ListUploads(ctx, playlistID, pageToken)
			return callErr
		})
		if err != nil {
			return ids, err
		}

		for _, e := range entries {
			if plan.MaxVideos > 0 && len(ids) >= plan.MaxVideos {
				return ids, nil
			}
			inRecent := plan.RecentN > 0 && seen < plan.RecentN
			inWindow := plan.Wants(e.PublishedAt)
			seen++

			if inRecent || inWindow {
				ids = append(ids, e.VideoID)
				continue
			}
			// Not kept. If there is no window, or this entry already fell
			// behind the window start, every later entry is older still.
			if plan.PublishedAfter == nil || e.PublishedAt.Before(*plan.PublishedAfter) {
				return ids, nil
			}
		}

		if next == "" {
			return ids, nil
		}
		pageToken = next
	}
}

// fetchComments pages top-level comment threads for one video into the
// batch, up to the plan's per-video limit. The bool result asks the
// caller to stop fetching comments for the remaining videos too, which
// happens once quota is gone.
func (s *FetchService) fetchComments(ctx context.Context, budget *QuotaBudget, batch *model.FetchBatch, plan model.FetchPlan, videoID string, fetchedAt time.Time, skipped *[]model.SkippedItem) (bool, error) {
	got := 0
	pageToken := ""

	for got < plan.CommentsPerVideo {
		pageSize := int64(plan.CommentsPerVideo - got)
		if pageSize > 100 {
			pageSize = 100
		}

		var comments []youtube.CommentInfo
		var next string
		err := s.call(ctx, budget, "commentThreads.list", youtube.CostCommentThreadsList, func() error {
			var callErr error
			comments, next, callErr = s.client.ListCommentThreads(ctx, videoID, pageToken, pageSize)
			if commentsDisabled(callErr) {
				// Comments turned off is a property of the video, not a
				// failure of the fetch.
				comments, next, callErr = nil, "", nil
			}
			return callErr
		})
		if err != nil {
			if stop := abortErr(err); stop != nil {
				return false, stop
			}
			reason := skipReason(err)
			*skipped = append(*skipped, model.SkippedItem{Kind: "comments", ID: videoID, Reason: reason})
			observeSkip(reason)
			return reason == model.SkipQuota, nil
		}

		for _, ci := range comments {
			batch.Comments = append(batch.Comments, model.Comment{
				CommentID:       ci.ID,
				VideoID:         ci.VideoID,
				ParentID:        ci.ParentID,
				AuthorName:      ci.AuthorName,
				AuthorChannelID: ci.AuthorChannelID,
				Text:            ci.Text,
				PublishedAt:     ci.PublishedAt,
				UpdatedAt:       ci.UpdatedAt,
			})
			batch.CommentSnapshots = append(batch.CommentSnapshots, model.CommentSnapshot{
				CommentID:  ci.ID,
				FetchedAt:  fetchedAt,
				LikeCount:  ci.LikeCount,
				ReplyCount: ci.ReplyCount,
			})
		}
		got += len(comments)

		if next == "" || len(comments) == 0 {
			break
		}
		pageToken = next
	}
	return false, nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
