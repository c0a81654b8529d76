package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/db"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/migrate"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
)

// newTestPool connects to the database named by DATABASE_URL and brings
// the schema up to date. Tests using it are skipped when the variable is
// unset so the suite still runs without a database.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	pool, err := db.NewPool(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	sqlDB := db.OpenStd(pool)
	defer sqlDB.Close()
	if _, err := migrate.Run(sqlDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

// testBatch builds a minimal one-channel fetch batch with fresh ids so
// runs against a shared database never collide.
func testBatch(fetchedAt time.Time) *model.FetchBatch {
	channelID := "UC" + uuid.NewString()
	videoID := "vid-" + uuid.NewString()
	commentID := "cm-" + uuid.NewString()
	published := fetchedAt.Add(-24 * time.Hour)
	subs := int64(1200)
	views := int64(90000)
	vids := int64(34)
	likes := int64(48)

	return &model.FetchBatch{
		FetchedAt: fetchedAt,
		Channel: model.Channel{
			ChannelID: channelID,
			Title:     "Test Stationery",
		},
		ChannelSnapshot: model.ChannelSnapshot{
			ChannelID:       channelID,
			FetchedAt:       fetchedAt,
			SubscriberCount: &subs,
			ViewCount:       &views,
			VideoCount:      &vids,
		},
		Videos: []model.Video{{
			VideoID:     videoID,
			ChannelID:   channelID,
			Title:       "Pen haul",
			PublishedAt: published,
		}},
		VideoSnapshots: []model.VideoSnapshot{{
			VideoID:   videoID,
			FetchedAt: fetchedAt,
			ViewCount: 500,
			LikeCount: &likes,
		}},
		Comments: []model.Comment{{
			CommentID:   commentID,
			VideoID:     videoID,
			AuthorName:  "viewer",
			Text:        "love the pilot g2",
			PublishedAt: published,
		}},
		CommentSnapshots: []model.CommentSnapshot{{
			CommentID: commentID,
			FetchedAt: fetchedAt,
			LikeCount: 3,
		}},
	}
}

func TestSaveBatch_RerunIsIdempotent(t *testing.T) {
	pool := newTestPool(t)
	store := NewRawStore(pool)
	ctx := context.Background()

	batch := testBatch(time.Now().UTC().Truncate(time.Microsecond))

	first, err := store.SaveBatch(ctx, batch)
	if err != nil {
		t.Fatalf("first SaveBatch: %v", err)
	}
	if first.Snapshots != 3 {
		t.Fatalf("first Snapshots = %d, want 3", first.Snapshots)
	}

	second, err := store.SaveBatch(ctx, batch)
	if err != nil {
		t.Fatalf("second SaveBatch: %v", err)
	}
	if second.Snapshots != 0 {
		t.Errorf("second Snapshots = %d, want 0 on rerun", second.Snapshots)
	}
}

func TestSaveBatch_KeepsFirstCommentText(t *testing.T) {
	pool := newTestPool(t)
	store := NewRawStore(pool)
	ctx := context.Background()

	batch := testBatch(time.Now().UTC().Truncate(time.Microsecond))
	if _, err := store.SaveBatch(ctx, batch); err != nil {
		t.Fatalf("first SaveBatch: %v", err)
	}
	commentID := batch.Comments[0].CommentID
	original := batch.Comments[0].Text

	// A later run sees the comment edited and collects new snapshots.
	later := batch.FetchedAt.Add(time.Hour)
	updated := later.Add(-time.Minute)
	batch.FetchedAt = later
	batch.ChannelSnapshot.FetchedAt = later
	batch.VideoSnapshots[0].FetchedAt = later
	batch.CommentSnapshots[0].FetchedAt = later
	batch.CommentSnapshots[0].LikeCount = 9
	batch.Comments[0].Text = "love the pilot g2 (edited)"
	batch.Comments[0].UpdatedAt = &updated

	counts, err := store.SaveBatch(ctx, batch)
	if err != nil {
		t.Fatalf("second SaveBatch: %v", err)
	}
	if counts.Snapshots != 3 {
		t.Errorf("second Snapshots = %d, want 3 for the new fetched_at", counts.Snapshots)
	}

	var stored string
	if err := pool.QueryRow(ctx, `SELECT text FROM comments WHERE id = $1`, commentID).Scan(&stored); err != nil {
		t.Fatalf("read back comment: %v", err)
	}
	if stored != original {
		t.Errorf("comment text = %q, want first-seen %q", stored, original)
	}
}
