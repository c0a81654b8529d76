package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/config"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/db"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/migrate"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/repository"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/service"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/youtube"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	addIdentifier := flag.String("add", "", "enroll a channel (id, @handle or custom name) instead of collecting")
	addLabel := flag.String("label", "", "label for the enrolled channel")
	addStrategy := flag.String("strategy", cfg.Strategy, "strategy for the enrolled channel (time_window, recent_count, hybrid)")
	recompute := flag.Bool("recompute", false, "re-derive mentions, signals and metrics from stored raw data")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := runMigrations(pool); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	table, err := service.LoadKeywordTable(cfg.KeywordsPath)
	if err != nil {
		log.Fatalf("failed to load keyword table: %v", err)
	}
	classifier, err := service.NewClassifier(table)
	if err != nil {
		log.Fatalf("failed to build classifier: %v", err)
	}
	analyzer := service.NewAnalyzer(table)

	channelRepo := repository.NewChannelRepo(pool)
	rawStore := repository.NewRawStore(pool)
	processedStore := repository.NewProcessedStore(pool)
	runRepo := repository.NewRunRepo(pool)

	// Recompute needs no API access; everything comes from the store.
	if *recompute {
		pipeline := service.NewPipeline(channelRepo, rawStore, processedStore, runRepo,
			nil, classifier, analyzer, cache, service.PipelineOptions{})
		stats, err := pipeline.Recompute(ctx)
		if err != nil {
			log.Fatalf("recompute failed: %v", err)
		}
		fmt.Printf("recomputed %d videos, %d comments: %d mentions, %d signals, %d metrics\n",
			stats.Videos, stats.Comments, stats.Mentions, stats.Signals, stats.Metrics)
		return
	}

	if cfg.YouTubeAPIKey == "" {
		log.Fatal("YOUTUBE_API_KEY is required")
	}
	yt, err := youtube.NewDataAPIClient(ctx, cfg.YouTubeAPIKey)
	if err != nil {
		log.Fatalf("failed to create YouTube client: %v", err)
	}

	if *addIdentifier != "" {
		channelSvc := service.NewChannelService(channelRepo, yt, cache)
		ch, err := channelSvc.AddChannel(ctx, *addIdentifier, model.TrackedChannel{
			Label:            *addLabel,
			Strategy:         *addStrategy,
			WindowDays:       cfg.WindowDays,
			RecentN:          cfg.RecentN,
			MaxVideos:        cfg.MaxVideos,
			CommentsPerVideo: cfg.CommentsPerVideo,
		})
		if err != nil {
			log.Fatalf("failed to enroll channel: %v", err)
		}
		fmt.Printf("tracking %s (%s)\n", ch.ChannelID, ch.Title)
		return
	}

	fetcher := service.NewFetchService(yt, cfg.MaxRetries, cfg.BackoffBase)
	pipeline := service.NewPipeline(channelRepo, rawStore, processedStore, runRepo,
		fetcher, classifier, analyzer, cache, service.PipelineOptions{
			MaxQuota:    cfg.MaxQuota,
			RunTimeout:  cfg.RunTimeout,
			WindowStart: cfg.WindowStart,
			WindowEnd:   cfg.WindowEnd,
		})

	run, err := pipeline.Run(ctx)
	if err != nil {
		log.Fatalf("collection run failed: %v", err)
	}

	fmt.Printf("run %s %s: %d channels, %d videos, %d comments, %d snapshots, %d mentions, %d metrics, %d skipped, quota %d\n",
		run.RunID, run.Status, run.ChannelsPlanned, run.VideosFetched, run.CommentsFetched,
		run.SnapshotsWritten, run.MentionsWritten, run.MetricsWritten, run.ItemsSkipped, run.QuotaUsed)
}

// runMigrations applies schema migrations over a database/sql view of the
// shared pool before the run touches the store.
func runMigrations(pool *pgxpool.Pool) error {
	sqlDB := db.OpenStd(pool)
	defer sqlDB.Close()

	version, err := migrate.Run(sqlDB)
	if err != nil {
		return err
	}
	log.Printf("database schema at version %d", version)
	return nil
}
