package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
)

// AnalyticsRepo runs the read-side aggregate queries over raw snapshots
// and derived rows. Everything here is read-only.
type AnalyticsRepo struct {
	pool *pgxpool.Pool
}

func NewAnalyticsRepo(pool *pgxpool.Pool) *AnalyticsRepo {
	return &AnalyticsRepo{pool: pool}
}

// AnalyticsFilter narrows aggregate queries. Zero-valued fields are ignored.
// Brand and category match mentions extracted from the video itself, not
// from its comments.
type AnalyticsFilter struct {
	ChannelID string
	From      *time.Time
	To        *time.Time
	Brand     string
	Category  string
}

// EngagementSeries returns the daily average engagement rate. From and To
// bound the snapshot time, so the series reflects when stats were observed,
// not when videos were published.
func (r *AnalyticsRepo) EngagementSeries(ctx context.Context, f AnalyticsFilter) ([]model.EngagementPoint, error) {
	args := []any{}
	sb := strings.Builder{}
	sb.WriteString(`
		SELECT to_char(date_trunc('day', em.snapshot_at), 'YYYY-MM-DD') AS day,
		       AVG(em.engagement_rate) AS engagement_rate,
		       COUNT(DISTINCT em.video_id) AS videos
		FROM engagement_metrics em
		JOIN videos v ON v.id = em.video_id
		WHERE TRUE`)
	if f.ChannelID != "" {
		args = append(args, f.ChannelID)
		fmt.Fprintf(&sb, " AND v.channel_id = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		fmt.Fprintf(&sb, " AND em.snapshot_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		fmt.Fprintf(&sb, " AND em.snapshot_at < $%d", len(args))
	}
	if f.Brand != "" {
		args = append(args, f.Brand)
		fmt.Fprintf(&sb, ` AND EXISTS (
			SELECT 1 FROM brand_mentions bm
			WHERE bm.source_type = 'video' AND bm.source_id = em.video_id AND bm.brand = $%d)`, len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		fmt.Fprintf(&sb, ` AND EXISTS (
			SELECT 1 FROM brand_mentions bm
			WHERE bm.source_type = 'video' AND bm.source_id = em.video_id AND bm.category = $%d)`, len(args))
	}
	sb.WriteString(`
		GROUP BY 1
		ORDER BY 1`)

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []model.EngagementPoint
	for rows.Next() {
		var p model.EngagementPoint
		if err := rows.Scan(&p.Date, &p.EngagementRate, &p.Videos); err != nil {
			return nil, err
		}
		series = append(series, p)
	}
	return series, rows.Err()
}

// TopVideos ranks videos by their most recent engagement rate within the
// snapshot range. The view count shown is the latest one on record.
func (r *AnalyticsRepo) TopVideos(ctx context.Context, f AnalyticsFilter, limit int) ([]model.TopVideo, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	args := []any{}
	inner := strings.Builder{}
	if f.From != nil {
		args = append(args, *f.From)
		fmt.Fprintf(&inner, " AND snapshot_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		fmt.Fprintf(&inner, " AND snapshot_at < $%d", len(args))
	}

	outer := strings.Builder{}
	if f.ChannelID != "" {
		args = append(args, f.ChannelID)
		fmt.Fprintf(&outer, " AND v.channel_id = $%d", len(args))
	}
	if f.Brand != "" {
		args = append(args, f.Brand)
		fmt.Fprintf(&outer, ` AND EXISTS (
			SELECT 1 FROM brand_mentions bm
			WHERE bm.source_type = 'video' AND bm.source_id = v.id AND bm.brand = $%d)`, len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		fmt.Fprintf(&outer, ` AND EXISTS (
			SELECT 1 FROM brand_mentions bm
			WHERE bm.source_type = 'video' AND bm.source_id = v.id AND bm.category = $%d)`, len(args))
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT v.id, v.channel_id, v.title, v.published_at,
		       COALESCE(vs.view_count, 0) AS view_count,
		       em.engagement_rate
		FROM (
			SELECT DISTINCT ON (video_id) video_id, engagement_rate
			FROM engagement_metrics
			WHERE TRUE%s
			ORDER BY video_id, snapshot_at DESC
		) em
		JOIN videos v ON v.id = em.video_id
		LEFT JOIN LATERAL (
			SELECT view_count
			FROM video_snapshots
			WHERE video_id = v.id
			ORDER BY fetched_at DESC
			LIMIT 1
		) vs ON TRUE
		WHERE TRUE%s
		ORDER BY em.engagement_rate DESC, v.id
		LIMIT $%d`, inner.String(), outer.String(), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var top []model.TopVideo
	for rows.Next() {
		var tv model.TopVideo
		if err := rows.Scan(&tv.VideoID, &tv.ChannelID, &tv.Title, &tv.PublishedAt,
			&tv.ViewCount, &tv.EngagementRate); err != nil {
			return nil, err
		}
		top = append(top, tv)
	}
	return top, rows.Err()
}

// mentionSourceJoin resolves every mention to the video it hangs off:
// video mentions directly, comment mentions through their parent comment.
const mentionSourceJoin = `
		FROM brand_mentions bm
		LEFT JOIN comments cm ON bm.source_type = 'comment' AND cm.id = bm.source_id
		JOIN videos v ON v.id = COALESCE(cm.video_id, bm.source_id)`

// mentionFilterSQL builds the shared WHERE clause for mention aggregates.
// From and To bound the publish time of the video a mention hangs off.
func mentionFilterSQL(f AnalyticsFilter) (string, []any) {
	args := []any{}
	sb := strings.Builder{}
	sb.WriteString(" WHERE TRUE")
	if f.ChannelID != "" {
		args = append(args, f.ChannelID)
		fmt.Fprintf(&sb, " AND v.channel_id = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		fmt.Fprintf(&sb, " AND v.published_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		fmt.Fprintf(&sb, " AND v.published_at < $%d", len(args))
	}
	return sb.String(), args
}

// BrandStats returns mention counts per brand plus the median of the latest
// engagement rate across the distinct videos that carry the brand.
func (r *AnalyticsRepo) BrandStats(ctx context.Context, f AnalyticsFilter, limit int) ([]model.BrandStat, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	where, args := mentionFilterSQL(f)
	args = append(args, limit)

	query := fmt.Sprintf(`
		WITH brand_sources AS (
			SELECT bm.brand, v.id AS video_id%s%s
		),
		counts AS (
			SELECT brand, COUNT(*) AS mentions, COUNT(DISTINCT video_id) AS videos
			FROM brand_sources
			GROUP BY brand
		),
		rates AS (
			SELECT bs.brand,
			       percentile_cont(0.5) WITHIN GROUP (ORDER BY er.engagement_rate) AS median_engagement
			FROM (SELECT DISTINCT brand, video_id FROM brand_sources) bs
			LEFT JOIN LATERAL (
				SELECT engagement_rate
				FROM engagement_metrics
				WHERE video_id = bs.video_id
				ORDER BY snapshot_at DESC
				LIMIT 1
			) er ON TRUE
			GROUP BY bs.brand
		)
		SELECT c.brand, c.mentions, c.videos, r.median_engagement
		FROM counts c
		JOIN rates r ON r.brand = c.brand
		ORDER BY c.mentions DESC, c.brand
		LIMIT $%d`, mentionSourceJoin, where, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.BrandStat
	for rows.Next() {
		var s model.BrandStat
		if err := rows.Scan(&s.Brand, &s.Mentions, &s.Videos, &s.MedianEngagement); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// CategoryStats returns mention counts per product category.
func (r *AnalyticsRepo) CategoryStats(ctx context.Context, f AnalyticsFilter) ([]model.CategoryStat, error) {
	where, args := mentionFilterSQL(f)

	query := fmt.Sprintf(`
		SELECT bm.category, COUNT(*) AS mentions, COUNT(DISTINCT v.id) AS videos%s%s
		GROUP BY bm.category
		ORDER BY mentions DESC, bm.category`, mentionSourceJoin, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.CategoryStat
	for rows.Next() {
		var s model.CategoryStat
		if err := rows.Scan(&s.Category, &s.Mentions, &s.Videos); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// RecentQuestions lists the newest comments flagged as questions.
func (r *AnalyticsRepo) RecentQuestions(ctx context.Context, channelID string, limit int) ([]model.QuestionComment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	args := []any{}
	sb := strings.Builder{}
	sb.WriteString(`
		SELECT c.id, c.video_id, v.title, c.author_name, c.text, c.published_at
		FROM comment_signals cs
		JOIN comments c ON c.id = cs.comment_id
		JOIN videos v ON v.id = c.video_id
		WHERE cs.is_question`)
	if channelID != "" {
		args = append(args, channelID)
		fmt.Fprintf(&sb, " AND v.channel_id = $%d", len(args))
	}
	args = append(args, limit)
	fmt.Fprintf(&sb, `
		ORDER BY c.published_at DESC
		LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.QuestionComment
	for rows.Next() {
		var q model.QuestionComment
		if err := rows.Scan(&q.CommentID, &q.VideoID, &q.VideoTitle, &q.AuthorName,
			&q.Text, &q.PublishedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ChannelVideos lists a channel's videos newest first, each with its latest
// snapshot stats and latest engagement rate when those exist.
func (r *AnalyticsRepo) ChannelVideos(ctx context.Context, channelID string, limit int) ([]model.VideoSummary, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT v.id, v.title, v.published_at, v.duration_seconds,
		       vs.view_count, vs.like_count, vs.comment_count, vs.fetched_at,
		       em.engagement_rate
		FROM videos v
		LEFT JOIN LATERAL (
			SELECT view_count, like_count, comment_count, fetched_at
			FROM video_snapshots
			WHERE video_id = v.id
			ORDER BY fetched_at DESC
			LIMIT 1
		) vs ON TRUE
		LEFT JOIN LATERAL (
			SELECT engagement_rate
			FROM engagement_metrics
			WHERE video_id = v.id
			ORDER BY snapshot_at DESC
			LIMIT 1
		) em ON TRUE
		WHERE v.channel_id = $1
		ORDER BY v.published_at DESC
		LIMIT $2`, channelID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []model.VideoSummary
	for rows.Next() {
		var vs model.VideoSummary
		if err := rows.Scan(&vs.VideoID, &vs.Title, &vs.PublishedAt, &vs.DurationSeconds,
			&vs.ViewCount, &vs.LikeCount, &vs.CommentCount, &vs.LastFetchedAt,
			&vs.EngagementRate); err != nil {
			return nil, err
		}
		videos = append(videos, vs)
	}
	return videos, rows.Err()
}
