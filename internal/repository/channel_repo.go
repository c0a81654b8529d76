package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
)

// ChannelRepo manages the collection registry and channel summaries.
type ChannelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepo(pool *pgxpool.Pool) *ChannelRepo {
	return &ChannelRepo{pool: pool}
}

// ListTracked returns registry rows for the collector, ordered stably so
// runs visit channels in the same order every time. With activeOnly set,
// paused channels are excluded.
func (r *ChannelRepo) ListTracked(ctx context.Context, activeOnly bool) ([]model.TrackedChannel, error) {
	query := `
		SELECT channel_id, label, strategy, window_days, recent_n, max_videos, comments_per_video, active, added_at
		FROM tracked_channels`
	if activeOnly {
		query += `
		WHERE active`
	}
	query += `
		ORDER BY added_at, channel_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracked []model.TrackedChannel
	for rows.Next() {
		var tc model.TrackedChannel
		err := rows.Scan(&tc.ChannelID, &tc.Label, &tc.Strategy, &tc.WindowDays,
			&tc.RecentN, &tc.MaxVideos, &tc.CommentsPerVideo, &tc.Active, &tc.AddedAt)
		if err != nil {
			return nil, err
		}
		tracked = append(tracked, tc)
	}
	return tracked, rows.Err()
}

// AddTracked enrolls a channel: the channel row is created if this is its
// first sighting, and the registry row is inserted or updated with the
// given policy. Re-adding a paused channel reactivates it.
func (r *ChannelRepo) AddTracked(ctx context.Context, ch model.Channel, tc model.TrackedChannel) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO channels (id, title, custom_url, country, uploads_playlist_id, published_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			custom_url = EXCLUDED.custom_url,
			country = EXCLUDED.country,
			uploads_playlist_id = EXCLUDED.uploads_playlist_id,
			published_at = EXCLUDED.published_at,
			last_seen_at = now()`,
		ch.ChannelID, ch.Title, ch.CustomURL, ch.Country, ch.UploadsPlaylistID, ch.PublishedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO tracked_channels (channel_id, label, strategy, window_days, recent_n, max_videos, comments_per_video, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		ON CONFLICT (channel_id) DO UPDATE SET
			label = EXCLUDED.label,
			strategy = EXCLUDED.strategy,
			window_days = EXCLUDED.window_days,
			recent_n = EXCLUDED.recent_n,
			max_videos = EXCLUDED.max_videos,
			comments_per_video = EXCLUDED.comments_per_video,
			active = TRUE`,
		tc.ChannelID, tc.Label, tc.Strategy, tc.WindowDays, tc.RecentN, tc.MaxVideos, tc.CommentsPerVideo)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// SetActive pauses or resumes collection for a channel.
func (r *ChannelRepo) SetActive(ctx context.Context, channelID string, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tracked_channels SET active = $2 WHERE channel_id = $1`,
		channelID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// GetChannel returns one channel profile, nil when unknown.
func (r *ChannelRepo) GetChannel(ctx context.Context, channelID string) (*model.Channel, error) {
	var ch model.Channel
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, custom_url, country, uploads_playlist_id, published_at, first_seen_at, last_seen_at
		FROM channels
		WHERE id = $1`, channelID).Scan(
		&ch.ChannelID, &ch.Title, &ch.CustomURL, &ch.Country, &ch.UploadsPlaylistID,
		&ch.PublishedAt, &ch.FirstSeenAt, &ch.LastSeenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// ListSummaries joins every tracked channel with its most recent stats
// snapshot for the channel listing endpoint.
func (r *ChannelRepo) ListSummaries(ctx context.Context) ([]model.ChannelSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.title, tc.label, tc.strategy, tc.active,
		       cs.subscriber_count, cs.view_count, cs.video_count, cs.fetched_at
		FROM tracked_channels tc
		JOIN channels c ON c.id = tc.channel_id
		LEFT JOIN LATERAL (
			SELECT subscriber_count, view_count, video_count, fetched_at
			FROM channel_snapshots
			WHERE channel_id = c.id
			ORDER BY fetched_at DESC
			LIMIT 1
		) cs ON TRUE
		ORDER BY c.title, c.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []model.ChannelSummary
	for rows.Next() {
		var s model.ChannelSummary
		err := rows.Scan(&s.ChannelID, &s.Title, &s.Label, &s.Strategy, &s.Active,
			&s.SubscriberCount, &s.ViewCount, &s.VideoCount, &s.LastFetchedAt)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
