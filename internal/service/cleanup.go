package service

import (
	"context"
	"time"

	"github.com/timmy/pharmanews/internal/config"
	"github.com/timmy/pharmanews/internal/logger"
	"github.com/timmy/pharmanews/internal/repository"
	"github.com/timmy/pharmanews/internal/storage"
	"github.com/timmy/pharmanews/internal/timeutil"
)

// cleanupBatchSize bounds how many rows one sweep pass purges.
const cleanupBatchSize = 200

// CleanupService permanently removes articles that stayed soft-deleted past
// the retention window, together with their archived blobs.
type CleanupService struct {
	articles *repository.ArticleRepository
	store    storage.ObjectStorage

	bucketRaw     string
	bucketClean   string
	bucketAttach  string
	retentionDays int
}

// NewCleanupService creates the retention sweeper.
func NewCleanupService(articles *repository.ArticleRepository, store storage.ObjectStorage, storageCfg *config.StorageConfig, cfg *config.CleanupConfig) *CleanupService {
	return &CleanupService{
		articles:      articles,
		store:         store,
		bucketRaw:     storageCfg.BucketRaw,
		bucketClean:   storageCfg.BucketClean,
		bucketAttach:  storageCfg.BucketAttachments,
		retentionDays: cfg.RetentionDays,
	}
}

// Run performs one sweep and returns the number of purged articles.
func (s *CleanupService) Run(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)
	cutoff := timeutil.Now().AddDate(0, 0, -s.retentionDays)

	expired, err := s.articles.ListDeletedBefore(ctx, cutoff, cleanupBatchSize)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, article := range expired {
		if err := ctx.Err(); err != nil {
			return purged, err
		}

		if article.StoragePrefix != "" {
			s.deleteBlobs(ctx, article.StoragePrefix)
		}

		if err := s.articles.HardDelete(ctx, article.ID); err != nil {
			log.WithError(err).WithField(logger.FieldArticleID, article.ID).
				Warn("failed to purge expired article")
			continue
		}
		purged++
	}

	if purged > 0 {
		log.WithField(logger.FieldCount, purged).Info("purged expired articles")
	}
	return purged, nil
}

// deleteBlobs removes an article's archived objects. Deletes are idempotent,
// so blobs that were never written are harmless.
func (s *CleanupService) deleteBlobs(ctx context.Context, prefix string) {
	log := logger.FromContext(ctx)
	targets := []struct{ bucket, key string }{
		{s.bucketRaw, prefix + "/original.html"},
		{s.bucketClean, prefix + "/cleaned.txt"},
		{s.bucketAttach, prefix + "/secondary.html"},
	}
	for _, t := range targets {
		if err := s.store.Delete(ctx, t.bucket, t.key); err != nil {
			log.WithError(err).WithField("key", t.key).Warn("failed to delete blob")
		}
	}
}

// StartScheduler runs the sweep once a day until ctx is cancelled.
func (s *CleanupService) StartScheduler(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.Run(ctx); err != nil {
					logger.FromContext(ctx).WithError(err).Error("retention sweep failed")
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
