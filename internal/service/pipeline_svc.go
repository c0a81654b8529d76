package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/repository"
)

// persistGrace bounds the final writes of a run after its own context
// has expired, so everything fetched before the deadline still lands.
const persistGrace = 30 * time.Second

// Store dependencies of the pipeline, satisfied by the repository types.
// Declared here so runs can be exercised against fakes.
type ChannelSource interface {
	ListTracked(ctx context.Context, activeOnly bool) ([]model.TrackedChannel, error)
}

type SnapshotStore interface {
	SaveBatch(ctx context.Context, batch *model.FetchBatch) (repository.BatchCounts, error)
	ListVideoSnapshots(ctx context.Context, videoID string) ([]model.VideoSnapshot, error)
	ListVideos(ctx context.Context) ([]model.Video, error)
	ListComments(ctx context.Context) ([]model.Comment, error)
}

type DerivedStore interface {
	ReplaceMentions(ctx context.Context, sourceType, sourceID string, mentions []model.BrandMention) (int, error)
	ReplaceEngagement(ctx context.Context, videoID string, metrics []model.EngagementMetric) (int, error)
	UpsertSignals(ctx context.Context, signals []model.CommentSignal) (int, error)
}

type RunStore interface {
	StartRun(ctx context.Context, run *model.Run) error
	FinishRun(ctx context.Context, run *model.Run) error
}

type Fetcher interface {
	FetchChannel(ctx context.Context, budget *QuotaBudget, plan model.FetchPlan, fetchedAt time.Time) (*model.FetchBatch, []model.SkippedItem, error)
}

// PipelineOptions carries the run-level knobs. WindowStart and WindowEnd
// override every channel's rolling window when set.
type PipelineOptions struct {
	MaxQuota    int
	RunTimeout  time.Duration
	WindowStart *time.Time
	WindowEnd   *time.Time
}

// Pipeline drives one collection run end to end: plan per channel, fetch,
// persist raw batches, derive mentions, signals and engagement, and record
// the run report. Raw data is authoritative; every derived row it writes
// can be rebuilt from raw snapshots with Recompute.
type Pipeline struct {
	channels   ChannelSource
	snapshots  SnapshotStore
	derived    DerivedStore
	runs       RunStore
	fetcher    Fetcher
	classifier *Classifier
	analyzer   *Analyzer
	cache      *CacheService
	opts       PipelineOptions
}

func NewPipeline(channels ChannelSource, snapshots SnapshotStore, derived DerivedStore,
	runs RunStore, fetcher Fetcher, classifier *Classifier, analyzer *Analyzer,
	cache *CacheService, opts PipelineOptions) *Pipeline {
	return &Pipeline{
		channels:   channels,
		snapshots:  snapshots,
		derived:    derived,
		runs:       runs,
		fetcher:    fetcher,
		classifier: classifier,
		analyzer:   analyzer,
		cache:      cache,
		opts:       opts,
	}
}

// Run executes one collection run and returns its report. The returned
// error is non-nil only when the run failed; partial runs report their
// skips in the run record and return nil.
func (p *Pipeline) Run(ctx context.Context) (*model.Run, error) {
	started := time.Now().UTC()
	if p.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.RunTimeout)
		defer cancel()
	}

	run := &model.Run{
		RunID:     uuid.New(),
		StartedAt: started,
		Status:    model.RunRunning,
	}
	if err := p.runs.StartRun(ctx, run); err != nil {
		return nil, err
	}

	tracked, err := p.channels.ListTracked(ctx, true)
	if err != nil {
		return p.failRun(run, nil, started, err)
	}
	run.ChannelsPlanned = len(tracked)

	budget := NewQuotaBudget(p.opts.MaxQuota)
	log.Printf("pipeline: run %s started: %d channels planned, quota budget %d",
		run.RunID, len(tracked), p.opts.MaxQuota)

	// Every snapshot in the run shares one fetch timestamp, so re-running
	// against unchanged upstream data cannot mint new snapshot rows.
	fetchedAt := started

	for i, tc := range tracked {
		if ctx.Err() != nil {
			p.markRemaining(run, tracked[i:], model.SkipDeadline)
			break
		}
		if budget.Remaining() <= 0 {
			p.markRemaining(run, tracked[i:], model.SkipQuota)
			break
		}

		policy := PolicyFor(tc, p.opts.WindowStart, p.opts.WindowEnd, started)
		plan := Plan(tc, policy)
		if plan.Empty() {
			log.Printf("pipeline: channel %s: empty plan, nothing to fetch", tc.ChannelID)
			continue
		}

		batch, skipped, fetchErr := p.fetcher.FetchChannel(ctx, budget, plan, fetchedAt)
		run.Skipped = append(run.Skipped, skipped...)

		if batch != nil {
			wctx := ctx
			if ctx.Err() != nil {
				// The deadline hit mid-fetch. Land what we have.
				var cancel context.CancelFunc
				wctx, cancel = context.WithTimeout(context.Background(), persistGrace)
				defer cancel()
			}
			if err := p.processBatch(wctx, batch, fetchedAt, run); err != nil {
				return p.failRun(run, budget, started, err)
			}
		}

		if fetchErr != nil {
			if errors.Is(fetchErr, context.DeadlineExceeded) || errors.Is(fetchErr, context.Canceled) {
				p.markRemaining(run, tracked[i:], model.SkipDeadline)
				break
			}
			return p.failRun(run, budget, started, fetchErr)
		}
	}

	now := time.Now().UTC()
	run.FinishedAt = &now
	run.QuotaUsed = budget.Used()
	run.ItemsSkipped = len(run.Skipped)
	if len(run.Skipped) > 0 {
		run.Status = model.RunPartial
	} else {
		run.Status = model.RunCompleted
	}
	observeRun(run.Status, now.Sub(started))

	finishCtx, cancel := context.WithTimeout(context.Background(), persistGrace)
	defer cancel()
	if err := p.runs.FinishRun(finishCtx, run); err != nil {
		return run, err
	}
	p.invalidateCaches(finishCtx)

	log.Printf("pipeline: run %s %s: %d videos, %d comments, %d snapshots, %d mentions, %d metrics, quota %d/%d, %d skipped",
		run.RunID, run.Status, run.VideosFetched, run.CommentsFetched, run.SnapshotsWritten,
		run.MentionsWritten, run.MetricsWritten, run.QuotaUsed, p.opts.MaxQuota, run.ItemsSkipped)
	return run, nil
}

// processBatch persists one channel's raw batch and derives mentions,
// comment signals and engagement from it.
func (p *Pipeline) processBatch(ctx context.Context, batch *model.FetchBatch, now time.Time, run *model.Run) error {
	counts, err := p.snapshots.SaveBatch(ctx, batch)
	if err != nil {
		return err
	}
	run.VideosFetched += len(batch.Videos)
	run.CommentsFetched += len(batch.Comments)
	run.SnapshotsWritten += counts.Snapshots
	observeRows("videos", counts.Videos)
	observeRows("comments", counts.Comments)
	observeRows("snapshots", counts.Snapshots)

	mentionsWritten := 0
	for _, v := range batch.Videos {
		mentions := p.stampMentions(p.classifier.Classify(v.Title+"\n"+v.Description),
			model.SourceVideo, v.VideoID, now)
		n, err := p.derived.ReplaceMentions(ctx, model.SourceVideo, v.VideoID, mentions)
		if err != nil {
			return err
		}
		mentionsWritten += n
	}

	var signals []model.CommentSignal
	for _, c := range batch.Comments {
		mentions := p.stampMentions(p.classifier.Classify(c.Text),
			model.SourceComment, c.CommentID, now)
		n, err := p.derived.ReplaceMentions(ctx, model.SourceComment, c.CommentID, mentions)
		if err != nil {
			return err
		}
		mentionsWritten += n

		sig := p.analyzer.Analyze(c.Text)
		sig.CommentID = c.CommentID
		sig.AnalyzedAt = now
		signals = append(signals, sig)
	}
	run.MentionsWritten += mentionsWritten
	observeRows("brand_mentions", mentionsWritten)

	if len(signals) > 0 {
		n, err := p.derived.UpsertSignals(ctx, signals)
		if err != nil {
			return err
		}
		observeRows("comment_signals", n)
	}

	metricsWritten := 0
	for _, vs := range batch.VideoSnapshots {
		history, err := p.snapshots.ListVideoSnapshots(ctx, vs.VideoID)
		if err != nil {
			return err
		}
		metrics := ComputeEngagement(vs.VideoID, history, now)
		n, err := p.derived.ReplaceEngagement(ctx, vs.VideoID, metrics)
		if err != nil {
			return err
		}
		metricsWritten += n
	}
	run.MetricsWritten += metricsWritten
	observeRows("engagement_metrics", metricsWritten)
	return nil
}

// stampMentions fills the source fields classification leaves open.
func (p *Pipeline) stampMentions(mentions []model.BrandMention, sourceType, sourceID string, now time.Time) []model.BrandMention {
	ambiguous := 0
	for i := range mentions {
		mentions[i].SourceType = sourceType
		mentions[i].SourceID = sourceID
		mentions[i].ClassifiedAt = now
		if mentions[i].Ambiguous {
			ambiguous++
		}
	}
	observeAmbiguous(ambiguous)
	return mentions
}

func (p *Pipeline) markRemaining(run *model.Run, tracked []model.TrackedChannel, reason string) {
	for _, tc := range tracked {
		run.Skipped = append(run.Skipped, model.SkippedItem{Kind: "channel", ID: tc.ChannelID, Reason: reason})
		observeSkip(reason)
	}
	log.Printf("pipeline: run stopping early (%s), %d channels not fetched", reason, len(tracked))
}

func (p *Pipeline) failRun(run *model.Run, budget *QuotaBudget, started time.Time, cause error) (*model.Run, error) {
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Status = model.RunFailed
	msg := cause.Error()
	run.Error = &msg
	run.ItemsSkipped = len(run.Skipped)
	if budget != nil {
		run.QuotaUsed = budget.Used()
	}
	observeRun(model.RunFailed, now.Sub(started))

	ctx, cancel := context.WithTimeout(context.Background(), persistGrace)
	defer cancel()
	if err := p.runs.FinishRun(ctx, run); err != nil {
		log.Printf("pipeline: could not record failed run %s: %v", run.RunID, err)
	}
	log.Printf("pipeline: run %s failed: %v", run.RunID, cause)
	return run, cause
}

func (p *Pipeline) invalidateCaches(ctx context.Context) {
	if p.cache == nil {
		return
	}
	for _, prefix := range []string{"analytics:", "channels:"} {
		if err := p.cache.InvalidatePrefix(ctx, prefix); err != nil {
			log.Printf("pipeline: cache invalidate %s failed: %v", prefix, err)
		}
	}
}

// RecomputeStats reports what a full derived rebuild rewrote.
type RecomputeStats struct {
	Videos   int
	Comments int
	Mentions int
	Signals  int
	Metrics  int
}

// Recompute rebuilds every derived row from stored raw data using the
// current keyword table. Raw rows are never modified, so this is safe to
// run at any time, including while nothing is being collected.
func (p *Pipeline) Recompute(ctx context.Context) (RecomputeStats, error) {
	var stats RecomputeStats
	now := time.Now().UTC()

	videos, err := p.snapshots.ListVideos(ctx)
	if err != nil {
		return stats, err
	}
	for _, v := range videos {
		mentions := p.stampMentions(p.classifier.Classify(v.Title+"\n"+v.Description),
			model.SourceVideo, v.VideoID, now)
		n, err := p.derived.ReplaceMentions(ctx, model.SourceVideo, v.VideoID, mentions)
		if err != nil {
			return stats, err
		}
		stats.Mentions += n
	}
	stats.Videos = len(videos)

	comments, err := p.snapshots.ListComments(ctx)
	if err != nil {
		return stats, err
	}
	var signals []model.CommentSignal
	for _, c := range comments {
		mentions := p.stampMentions(p.classifier.Classify(c.Text),
			model.SourceComment, c.CommentID, now)
		n, err := p.derived.ReplaceMentions(ctx, model.SourceComment, c.CommentID, mentions)
		if err != nil {
			return stats, err
		}
		stats.Mentions += n

		sig := p.analyzer.Analyze(c.Text)
		sig.CommentID = c.CommentID
		sig.AnalyzedAt = now
		signals = append(signals, sig)
	}
	stats.Comments = len(comments)

	if len(signals) > 0 {
		n, err := p.derived.UpsertSignals(ctx, signals)
		if err != nil {
			return stats, err
		}
		stats.Signals = n
	}

	for _, v := range videos {
		history, err := p.snapshots.ListVideoSnapshots(ctx, v.VideoID)
		if err != nil {
			return stats, err
		}
		metrics := ComputeEngagement(v.VideoID, history, now)
		n, err := p.derived.ReplaceEngagement(ctx, v.VideoID, metrics)
		if err != nil {
			return stats, err
		}
		stats.Metrics += n
	}

	p.invalidateCaches(ctx)
	log.Printf("pipeline: recompute done: %d videos, %d comments, %d mentions, %d signals, %d metrics",
		stats.Videos, stats.Comments, stats.Mentions, stats.Signals, stats.Metrics)
	return stats, nil
}
