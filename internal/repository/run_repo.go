package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
)

// RunRepo persists collection run reports.
type RunRepo struct {
	pool *pgxpool.Pool
}

func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// StartRun inserts the run row as soon as the run starts so an operator
// can see it in flight. Counters land later via FinishRun.
func (r *RunRepo) StartRun(ctx context.Context, run *model.Run) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO collection_runs (id, started_at, status)
		VALUES ($1, $2, $3)`,
		run.RunID, run.StartedAt, run.Status)
	return err
}

// FinishRun writes the final report for a run.
func (r *RunRepo) FinishRun(ctx context.Context, run *model.Run) error {
	var skipped []byte
	if len(run.Skipped) > 0 {
		b, err := json.Marshal(run.Skipped)
		if err != nil {
			return err
		}
		skipped = b
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE collection_runs SET
			finished_at = $2,
			status = $3,
			channels_planned = $4,
			videos_fetched = $5,
			comments_fetched = $6,
			snapshots_written = $7,
			mentions_written = $8,
			metrics_written = $9,
			items_skipped = $10,
			quota_used = $11,
			error = $12,
			skipped = $13
		WHERE id = $1`,
		run.RunID, run.FinishedAt, run.Status, run.ChannelsPlanned, run.VideosFetched,
		run.CommentsFetched, run.SnapshotsWritten, run.MentionsWritten, run.MetricsWritten,
		run.ItemsSkipped, run.QuotaUsed, run.Error, skipped)
	return err
}

const runColumns = `
	id, started_at, finished_at, status, channels_planned, videos_fetched,
	comments_fetched, snapshots_written, mentions_written, metrics_written,
	items_skipped, quota_used, error, skipped`

func scanRun(row pgx.Row) (*model.Run, error) {
	var run model.Run
	var skipped []byte
	err := row.Scan(&run.RunID, &run.StartedAt, &run.FinishedAt, &run.Status,
		&run.ChannelsPlanned, &run.VideosFetched, &run.CommentsFetched,
		&run.SnapshotsWritten, &run.MentionsWritten, &run.MetricsWritten,
		&run.ItemsSkipped, &run.QuotaUsed, &run.Error, &skipped)
	if err != nil {
		return nil, err
	}
	if len(skipped) > 0 {
		if err := json.Unmarshal(skipped, &run.Skipped); err != nil {
			return nil, err
		}
	}
	return &run, nil
}

// GetRun returns one run report, nil when unknown.
func (r *RunRepo) GetRun(ctx context.Context, id uuid.UUID) (*model.Run, error) {
	run, err := scanRun(r.pool.QueryRow(ctx, `
		SELECT`+runColumns+`
		FROM collection_runs
		WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// ListRuns returns recent run reports, newest first.
func (r *RunRepo) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT`+runColumns+`
		FROM collection_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}
