package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/config"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/db"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/handler"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/middleware"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/migrate"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/repository"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/router"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/service"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/youtube"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	middleware.InitLogger(cfg.LogLevel, "ytca-api")

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

	var yt youtube.Client
	if cfg.YouTubeAPIKey != "" {
		client, err := youtube.NewDataAPIClient(ctx, cfg.YouTubeAPIKey)
		if err != nil {
			log.Fatalf("failed to create YouTube client: %v", err)
		}
		yt = client
	} else {
		log.Println("YOUTUBE_API_KEY not set: enrollment and collection disabled")
	}

	handler.InitMetrics(pool)
	service.InitMetrics()

	channelRepo := repository.NewChannelRepo(pool)
	rawStore := repository.NewRawStore(pool)
	processedStore := repository.NewProcessedStore(pool)
	runRepo := repository.NewRunRepo(pool)
	analyticsRepo := repository.NewAnalyticsRepo(pool)

	channelSvc := service.NewChannelService(channelRepo, yt, cache)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, channelRepo, cache)

	// Background collection runs only with a Data API key and an interval.
	var worker *service.CollectWorker
	if yt != nil && cfg.CollectInterval > 0 {
		fetcher := service.NewFetchService(yt, cfg.MaxRetries, cfg.BackoffBase)
		pipeline := service.NewPipeline(channelRepo, rawStore, processedStore, runRepo,
			fetcher, classifier, analyzer, cache, service.PipelineOptions{
				MaxQuota:    cfg.MaxQuota,
				RunTimeout:  cfg.RunTimeout,
				WindowStart: cfg.WindowStart,
				WindowEnd:   cfg.WindowEnd,
			})
		worker = service.NewCollectWorker(pipeline, cfg.CollectInterval)
		go worker.Start(ctx)
	}

	app := fiber.New(fiber.Config{
		AppName:      "YouTube Channel Analysis API",
		ServerHeader: "ytca",
	})

	router.Setup(app, &router.Handlers{
		Channel:   handler.NewChannelHandler(channelSvc),
		Analytics: handler.NewAnalyticsHandler(analyticsSvc),
		Runs:      handler.NewRunsHandler(runRepo),
		Export:    handler.NewExportHandler(analyticsSvc),
		Health:    handler.NewHealthHandler(pool, cache.Client()),
	}, cfg.CORSOrigins)

	go func() {
		log.Printf("API starting on :%s (env=%s)", cfg.Port, cfg.Environment)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	if worker != nil {
		worker.Stop()
	}
	if err := app.Shutdown(); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

// runMigrations applies schema migrations over a database/sql view of the
// shared pool. Closing the view returns its connections; the pool lives on.
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
