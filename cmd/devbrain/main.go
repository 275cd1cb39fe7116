package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/devbrain-io/devbrain/internal/ai"
	"github.com/devbrain-io/devbrain/internal/chunker"
	"github.com/devbrain-io/devbrain/internal/config"
	"github.com/devbrain-io/devbrain/internal/db"
	"github.com/devbrain-io/devbrain/internal/embedcache"
	"github.com/devbrain-io/devbrain/internal/fetcher"
	"github.com/devbrain-io/devbrain/internal/filestore"
	"github.com/devbrain-io/devbrain/internal/handler"
	"github.com/devbrain-io/devbrain/internal/job"
	"github.com/devbrain-io/devbrain/internal/middleware"
	"github.com/devbrain-io/devbrain/internal/repo"
	"github.com/devbrain-io/devbrain/internal/schedule"
	"github.com/devbrain-io/devbrain/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "devbrain",
		Short: "devbrain retrieval server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run devbrain server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.Int("sources", len(cfg.Sources)),
	)

	docRepo := repo.NewDocumentRepo(database)
	chunkRepo := repo.NewChunkRepo(database)
	cacheRepo := repo.NewEmbeddingCacheRepo(database)

	providerArgs := cfg.AI.Data
	if providerArgs == nil {
		providerArgs = cfg.AI
	}
	provider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	generator := ai.NewGenerator(provider, cfg.AI.Model)

	embedder := ai.NewEmbedder(provider, cfg.AI.EmbedModel)
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder,
		cfg.EmbedCache.LRUSize,
		time.Duration(cfg.EmbedCache.LRUTTLMinutes)*time.Minute)
	embedder = ai.WrapRetryToEmbedder(embedder, ai.DefaultRetryPolicy())
	batchEmbedder := ai.NewBatchEmbedder(embedder, ai.BatchOptions{
		BatchSize:   cfg.Sync.EmbedBatchSize,
		Concurrency: cfg.Sync.EmbedConcurrency,
		BatchDelay:  time.Duration(cfg.Sync.BatchDelayMS) * time.Millisecond,
	})

	fetchers := make([]fetcher.Fetcher, 0, len(cfg.Sources))
	for _, sourceCfg := range cfg.Sources {
		f, err := fetcher.New(sourceCfg)
		if err != nil {
			return fmt.Errorf("init source %s: %w", sourceCfg.Name, err)
		}
		fetchers = append(fetchers, f)
	}

	splitter := chunker.New(cfg.Sync.ChunkSize, cfg.Sync.Overlap)
	syncOpts := []service.SyncOption{service.WithFetchers(fetchers)}
	if cfg.Archive.Enabled {
		store, err := filestore.New(cfg.Archive.Store)
		if err != nil {
			return fmt.Errorf("init archive store: %w", err)
		}
		syncOpts = append(syncOpts, service.WithArchive(store))
	}
	syncService := service.NewSyncService(docRepo, chunkRepo, batchEmbedder, splitter, syncOpts...)

	searchService := service.NewSearchService(chunkRepo, batchEmbedder,
		service.WithWeights(cfg.Search.VectorWeight, cfg.Search.KeywordWeight),
		service.WithTopK(cfg.Search.TopK),
		service.WithRRFK(cfg.Search.RRFK),
		service.WithLegTimeout(time.Duration(cfg.Search.TimeoutSeconds)*time.Second),
	)
	chatService := service.NewChatService(searchService, generator, cfg.AI.MaxInputChars, cfg.AI.Timeout)

	deps := handler.RouterDeps{
		Search:    handler.NewSearchHandler(searchService),
		Chat:      handler.NewChatHandler(chatService),
		Sync:      handler.NewSyncHandler(syncService),
		Documents: handler.NewDocumentHandler(docRepo),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowOrigins),
			gzip.Gzip(gzip.DefaultCompression),
			middleware.RateLimit(time.Duration(cfg.RateLimitWindowMS)*time.Millisecond),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if len(fetchers) > 0 && cfg.Sync.Cron != "" {
		if err := scheduler.AddJob(job.NewSyncJob(syncService), cfg.Sync.Cron); err != nil {
			return fmt.Errorf("schedule sync job: %w", err)
		}
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.EmbedCache.DBTTLDays), "30 3 * * *"); err != nil {
		return fmt.Errorf("schedule cache cleanup job: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening",
		zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
