// Command crawl runs one crawl-and-ingest pass from the command line, without
// the API server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

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
	var (
		configPath  = flag.String("config", "", "path to config file")
		source      = flag.String("source", "", "source key (defaults to configured default)")
		pages       = flag.Int("pages", 1, "number of list pages to crawl")
		maxArticles = flag.Int("max-articles", 0, "cap on collected articles, 0 for no cap")
		daysBack    = flag.Int("days-back", 0, "crawl the last N days (overrides from/to dates)")
		fromDate    = flag.String("from-date", "", "window start, YYYY-MM-DD")
		toDate      = flag.String("to-date", "", "window end, YYYY-MM-DD")
	)
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

	fetcher := crawler.NewHTTPFetcher(cfg.Crawler.FetchTimeout)
	crawler.Register(pharnexcloud.New(fetcher))

	key := *source
	if key == "" {
		key = cfg.Crawler.DefaultSource
	}
	c, err := crawler.Get(key)
	if err != nil {
		log.WithError(err).Fatal("unknown source")
	}

	window, err := crawler.BuildWindow(*daysBack, *fromDate, *toDate)
	if err != nil {
		log.WithError(err).Fatal("invalid date window")
	}

	var cache *wechat.Cache
	if cfg.Crawler.CacheDir != "" {
		if cache, err = wechat.NewCache(cfg.Crawler.CacheDir); err != nil {
			log.WithError(err).Warn("failed to initialize wechat cache, continuing without")
		}
	}
	resolver := wechat.NewResolver(fetcher, cache)
	resolver.Retries = cfg.Crawler.SecondaryRetries
	resolver.RetryDelay = cfg.Crawler.SecondaryDelay

	articleRepo := repository.NewArticleRepository(db)
	sourceRepo := repository.NewSourceRepository(db)
	ingestSvc := service.NewIngestService(articleRepo, sourceRepo, store, resolver, &cfg.Storage, &cfg.Crawler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.SetSource(ctx, c.Name())

	stubs, crawlStats, err := crawler.CrawlPages(ctx, c, crawler.Options{
		Pages:       *pages,
		MaxArticles: *maxArticles,
		Window:      window,
	})
	if err != nil {
		log.WithError(err).Fatal("crawl failed")
	}
	log.WithFields(logger.Fields{
		"pages_fetched": crawlStats.PagesFetched,
		"discovered":    crawlStats.Discovered,
		"matched":       len(stubs),
	}).Info("crawl finished")

	stats, err := ingestSvc.Run(ctx, c, stubs)
	if err != nil {
		log.WithError(err).Error("ingest aborted")
		os.Exit(1)
	}
	log.WithFields(logger.Fields{
		"inserted":   stats.Inserted,
		"revived":    stats.Revived,
		"duplicates": stats.Duplicates,
		"skipped":    stats.Skipped,
		"failed":     stats.Failed,
	}).Info("ingest finished")
}
