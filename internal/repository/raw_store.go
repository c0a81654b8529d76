package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
)

// StoreWriteError wraps a failed store write with the statement group it
// came from so the run report can say what was lost.
type StoreWriteError struct {
	Table string
	Err   error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write %s: %v", e.Table, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// RawStore persists fetched data exactly as observed. Channels and videos
// are upserted on their natural ids; comments keep the text first seen, and
// snapshots are insert-only facts keyed by (entity id, fetched_at). Neither
// is ever updated in place.
type RawStore struct {
	pool *pgxpool.Pool
}

func NewRawStore(pool *pgxpool.Pool) *RawStore {
	return &RawStore{pool: pool}
}

// BatchCounts reports what one SaveBatch call touched. Snapshots counts
// only rows actually inserted; re-running a batch yields zero.
type BatchCounts struct {
	Videos    int
	Comments  int
	Snapshots int
}

// SaveBatch writes one channel's fetch batch in a single transaction:
// either the whole batch lands or none of it does. Re-running a batch is
// harmless because channel and video upserts converge while comment and
// snapshot inserts hit their keys and do nothing.
func (s *RawStore) SaveBatch(ctx context.Context, batch *model.FetchBatch) (BatchCounts, error) {
	var counts BatchCounts
	if batch == nil || batch.Channel.ChannelID == "" {
		return counts, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return counts, &StoreWriteError{Table: "batch", Err: err}
	}
	defer tx.Rollback(ctx)

	b := &pgx.Batch{}
	var tables []string
	queue := func(table, sql string, args ...any) {
		b.Queue(sql, args...)
		tables = append(tables, table)
	}

	queue("channels", `
		INSERT INTO channels (id, title, custom_url, country, uploads_playlist_id, published_at, first_seen_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			custom_url = EXCLUDED.custom_url,
			country = EXCLUDED.country,
			uploads_playlist_id = EXCLUDED.uploads_playlist_id,
			published_at = EXCLUDED.published_at,
			last_seen_at = EXCLUDED.last_seen_at`,
		batch.Channel.ChannelID, batch.Channel.Title, batch.Channel.CustomURL,
		batch.Channel.Country, batch.Channel.UploadsPlaylistID, batch.Channel.PublishedAt,
		batch.FetchedAt)

	queue("channel_snapshots", `
		INSERT INTO channel_snapshots (channel_id, fetched_at, subscriber_count, view_count, video_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (channel_id, fetched_at) DO NOTHING`,
		batch.ChannelSnapshot.ChannelID, batch.ChannelSnapshot.FetchedAt,
		batch.ChannelSnapshot.SubscriberCount, batch.ChannelSnapshot.ViewCount,
		batch.ChannelSnapshot.VideoCount)

	for _, v := range batch.Videos {
		queue("videos", `
			INSERT INTO videos (id, channel_id, title, description, published_at, duration_seconds, first_seen_at, last_seen_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				published_at = EXCLUDED.published_at,
				duration_seconds = EXCLUDED.duration_seconds,
				last_seen_at = EXCLUDED.last_seen_at`,
			v.VideoID, v.ChannelID, v.Title, v.Description, v.PublishedAt,
			v.DurationSeconds, batch.FetchedAt)
	}
	for _, vs := range batch.VideoSnapshots {
		queue("video_snapshots", `
			INSERT INTO video_snapshots (video_id, fetched_at, view_count, like_count, comment_count)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (video_id, fetched_at) DO NOTHING`,
			vs.VideoID, vs.FetchedAt, vs.ViewCount, vs.LikeCount, vs.CommentCount)
	}
	for _, cm := range batch.Comments {
		queue("comments", `
			INSERT INTO comments (id, video_id, parent_id, author_name, author_channel_id, text, published_at, updated_at, first_seen_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO NOTHING`,
			cm.CommentID, cm.VideoID, cm.ParentID, cm.AuthorName, cm.AuthorChannelID,
			cm.Text, cm.PublishedAt, cm.UpdatedAt, batch.FetchedAt)
	}
	for _, cs := range batch.CommentSnapshots {
		queue("comment_snapshots", `
			INSERT INTO comment_snapshots (comment_id, fetched_at, like_count, reply_count)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (comment_id, fetched_at) DO NOTHING`,
			cs.CommentID, cs.FetchedAt, cs.LikeCount, cs.ReplyCount)
	}

	br := tx.SendBatch(ctx, b)
	for _, table := range tables {
		tag, execErr := br.Exec()
		if execErr != nil {
			br.Close()
			return BatchCounts{}, &StoreWriteError{Table: table, Err: execErr}
		}
		switch table {
		case "channel_snapshots", "video_snapshots", "comment_snapshots":
			counts.Snapshots += int(tag.RowsAffected())
		case "videos":
			counts.Videos++
		case "comments":
			counts.Comments++
		}
	}
	if err := br.Close(); err != nil {
		return BatchCounts{}, &StoreWriteError{Table: "batch", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return BatchCounts{}, &StoreWriteError{Table: "batch", Err: err}
	}
	return counts, nil
}

// ListVideoSnapshots returns one video's snapshot history, oldest first,
// the order the engagement calculator expects.
func (s *RawStore) ListVideoSnapshots(ctx context.Context, videoID string) ([]model.VideoSnapshot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT video_id, fetched_at, view_count, like_count, comment_count
		FROM video_snapshots
		WHERE video_id = $1
		ORDER BY fetched_at`, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []model.VideoSnapshot
	for rows.Next() {
		var vs model.VideoSnapshot
		if err := rows.Scan(&vs.VideoID, &vs.FetchedAt, &vs.ViewCount, &vs.LikeCount, &vs.CommentCount); err != nil {
			return nil, err
		}
		snaps = append(snaps, vs)
	}
	return snaps, rows.Err()
}

// ListVideos returns every stored video with the text fields the
// classifier reads. Used by full reclassification.
func (s *RawStore) ListVideos(ctx context.Context) ([]model.Video, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, channel_id, title, description, published_at
		FROM videos
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []model.Video
	for rows.Next() {
		var v model.Video
		if err := rows.Scan(&v.VideoID, &v.ChannelID, &v.Title, &v.Description, &v.PublishedAt); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// ListComments returns every stored comment with the text fields the
// classifier and analyzer read. Used by full reclassification.
func (s *RawStore) ListComments(ctx context.Context) ([]model.Comment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, video_id, text, published_at
		FROM comments
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var cm model.Comment
		if err := rows.Scan(&cm.CommentID, &cm.VideoID, &cm.Text, &cm.PublishedAt); err != nil {
			return nil, err
		}
		comments = append(comments, cm)
	}
	return comments, rows.Err()
}
