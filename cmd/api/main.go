package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/pharmanews/internal/api"
	"github.com/timmy/pharmanews/internal/config"
	"github.com/timmy/pharmanews/internal/crawler"
	"github.com/timmy/pharmanews/internal/crawler/pharnexcloud"
	"github.com/timmy/pharmanews/internal/crawler/wechat"
	"github.com/timmy/pharmanews/internal/logger"
	"github.com/timmy/pharmanews/internal/repository"
	"github.com/timmy/pharmanews/internal/service"
	"github.com/timmy/pharmanews/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	log := logger.NewFromEnv(nil)
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}

	store, err := storage.NewS3Storage(&storage.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Region:    cfg.Storage.Region,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to initialize object storage")
	}
	ensureCtx, cancelEnsure := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.EnsureBuckets(ensureCtx, cfg.Storage.BucketRaw, cfg.Storage.BucketClean, cfg.Storage.BucketAttachments); err != nil {
		log.WithError(err).Warn("failed to ensure storage buckets")
	}
	cancelEnsure()

	articleRepo := repository.NewArticleRepository(db)
	sourceRepo := repository.NewSourceRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	chatRepo := repository.NewChatRepository(db)

	fetcher := crawler.NewHTTPFetcher(cfg.Crawler.FetchTimeout)
	crawler.Register(pharnexcloud.New(fetcher))

	var cache *wechat.Cache
	if cfg.Crawler.CacheDir != "" {
		cache, err = wechat.NewCache(cfg.Crawler.CacheDir)
		if err != nil {
			log.WithError(err).Warn("failed to initialize wechat cache, continuing without")
		}
	}
	resolver := wechat.NewResolver(fetcher, cache)
	resolver.Retries = cfg.Crawler.SecondaryRetries
	resolver.RetryDelay = cfg.Crawler.SecondaryDelay

	aiSvc := service.NewAIService(&cfg.AI)
	ingestSvc := service.NewIngestService(articleRepo, sourceRepo, store, resolver, &cfg.Storage, &cfg.Crawler)
	taskSvc := service.NewCrawlTaskService(taskRepo, ingestSvc, &cfg.Crawler)
	articleSvc := service.NewArticleService(articleRepo, aiSvc)
	chatSvc := service.NewChatService(chatRepo, articleRepo, aiSvc)
	cleanupSvc := service.NewCleanupService(articleRepo, store, &cfg.Storage, &cfg.Cleanup)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cleanupSvc.StartScheduler(rootCtx)

	router := api.NewRouter(&cfg.Server, articleSvc, taskSvc, chatSvc)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("api server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
		os.Exit(1)
	}
	log.Info("server stopped")
}
