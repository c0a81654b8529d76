package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
)

// ProcessedStore persists derived data: brand mentions, engagement
// metrics and comment signals. Every write replaces the previous
// derivation for the same source, so recomputing never drifts or
// accumulates stale rows.
type ProcessedStore struct {
	pool *pgxpool.Pool
}

func NewProcessedStore(pool *pgxpool.Pool) *ProcessedStore {
	return &ProcessedStore{pool: pool}
}

// ReplaceMentions swaps the stored mentions for one source (a video or a
// comment) with the given set, atomically.
func (s *ProcessedStore) ReplaceMentions(ctx context.Context, sourceType, sourceID string, mentions []model.BrandMention) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, &StoreWriteError{Table: "brand_mentions", Err: err}
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		DELETE FROM brand_mentions
		WHERE source_type = $1 AND source_id = $2`,
		sourceType, sourceID)
	if err != nil {
		return 0, &StoreWriteError{Table: "brand_mentions", Err: err}
	}

	for _, m := range mentions {
		_, err = tx.Exec(ctx, `
			INSERT INTO brand_mentions (source_type, source_id, brand, category, keyword, confidence, ambiguous, classified_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			sourceType, sourceID, m.Brand, m.Category, m.Keyword, m.Confidence, m.Ambiguous, m.ClassifiedAt)
		if err != nil {
			return 0, &StoreWriteError{Table: "brand_mentions", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &StoreWriteError{Table: "brand_mentions", Err: err}
	}
	return len(mentions), nil
}

// ReplaceEngagement swaps the stored metrics for one video with a fresh
// computation over its full snapshot history.
func (s *ProcessedStore) ReplaceEngagement(ctx context.Context, videoID string, metrics []model.EngagementMetric) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, &StoreWriteError{Table: "engagement_metrics", Err: err}
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM engagement_metrics WHERE video_id = $1`, videoID)
	if err != nil {
		return 0, &StoreWriteError{Table: "engagement_metrics", Err: err}
	}

	for _, m := range metrics {
		_, err = tx.Exec(ctx, `
			INSERT INTO engagement_metrics (video_id, snapshot_at, engagement_rate, delta_views, delta_likes, computed_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			m.VideoID, m.SnapshotAt, m.EngagementRate, m.DeltaViews, m.DeltaLikes, m.ComputedAt)
		if err != nil {
			return 0, &StoreWriteError{Table: "engagement_metrics", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &StoreWriteError{Table: "engagement_metrics", Err: err}
	}
	return len(metrics), nil
}

// UpsertSignals writes comment signals, one row per comment, replacing
// any previous analysis.
func (s *ProcessedStore) UpsertSignals(ctx context.Context, signals []model.CommentSignal) (int, error) {
	if len(signals) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, &StoreWriteError{Table: "comment_signals", Err: err}
	}
	defer tx.Rollback(ctx)

	for _, sig := range signals {
		_, err = tx.Exec(ctx, `
			INSERT INTO comment_signals (comment_id, sentiment, purchase_intent, is_question, analyzed_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (comment_id) DO UPDATE SET
				sentiment = EXCLUDED.sentiment,
				purchase_intent = EXCLUDED.purchase_intent,
				is_question = EXCLUDED.is_question,
				analyzed_at = EXCLUDED.analyzed_at`,
			sig.CommentID, sig.Sentiment, sig.PurchaseIntent, sig.IsQuestion, sig.AnalyzedAt)
		if err != nil {
			return 0, &StoreWriteError{Table: "comment_signals", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &StoreWriteError{Table: "comment_signals", Err: err}
	}
	return len(signals), nil
}
