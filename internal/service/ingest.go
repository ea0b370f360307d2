package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/pharmanews/internal/config"
	"github.com/timmy/pharmanews/internal/crawler"
	"github.com/timmy/pharmanews/internal/crawler/wechat"
	"github.com/timmy/pharmanews/internal/domain"
	"github.com/timmy/pharmanews/internal/logger"
	"github.com/timmy/pharmanews/internal/repository"
	"github.com/timmy/pharmanews/internal/storage"
	"github.com/timmy/pharmanews/internal/textutil"
	"github.com/timmy/pharmanews/internal/timeutil"
)

// IngestStats summarizes one ingest run over a batch of stubs.
type IngestStats struct {
	Processed  int `json:"processed"`
	Inserted   int `json:"inserted"`
	Revived    int `json:"revived"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// IngestService turns crawled stubs into persisted articles: detail
// resolution, content cleanup, secondary-platform upgrade, dedup by canonical
// hash, and blob archival.
type IngestService struct {
	articles *repository.ArticleRepository
	sources  *repository.SourceRepository
	store    storage.ObjectStorage
	resolver *wechat.Resolver

	bucketRaw    string
	bucketClean  string
	bucketAttach string

	delay            time.Duration
	secondaryEnabled bool
}

// NewIngestService wires the ingest pipeline. resolver may be nil to disable
// secondary resolution entirely.
func NewIngestService(
	articles *repository.ArticleRepository,
	sources *repository.SourceRepository,
	store storage.ObjectStorage,
	resolver *wechat.Resolver,
	storageCfg *config.StorageConfig,
	crawlerCfg *config.CrawlerConfig,
) *IngestService {
	return &IngestService{
		articles:         articles,
		sources:          sources,
		store:            store,
		resolver:         resolver,
		bucketRaw:        storageCfg.BucketRaw,
		bucketClean:      storageCfg.BucketClean,
		bucketAttach:     storageCfg.BucketAttachments,
		delay:            crawlerCfg.IngestDelay,
		secondaryEnabled: crawlerCfg.SecondaryEnabled,
	}
}

// Run ingests stubs sequentially. One stub's failure never aborts the batch;
// it is counted and the run moves on. Items are spaced by the configured delay
// to stay polite to the upstream site.
func (s *IngestService) Run(ctx context.Context, c crawler.Crawler, stubs []crawler.ArticleStub) (*IngestStats, error) {
	log := logger.FromContext(ctx)
	stats := &IngestStats{}

	source, err := s.sources.GetOrCreate(ctx, c.Name(), c.DisplayName(), c.BaseURL())
	if err != nil {
		return stats, fmt.Errorf("failed to resolve source row: %w", err)
	}

	for i, stub := range stubs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if i > 0 && s.delay > 0 {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return stats, ctx.Err()
			}
		}

		stats.Processed++
		if err := s.ingestOne(ctx, c, source.ID, stub, stats); err != nil {
			stats.Failed++
			log.WithError(err).WithField("title", stub.Title).Warn("article ingest failed")
		}
	}

	log.WithFields(logger.Fields{
		logger.FieldSource: c.Name(),
		"processed":        stats.Processed,
		"inserted":         stats.Inserted,
		"revived":          stats.Revived,
		"duplicates":       stats.Duplicates,
		"skipped":          stats.Skipped,
		"failed":           stats.Failed,
	}).Info("ingest run finished")
	return stats, nil
}

func (s *IngestService) ingestOne(ctx context.Context, c crawler.Crawler, sourceID uint, stub crawler.ArticleStub, stats *IngestStats) error {
	log := logger.FromContext(ctx)

	detail, err := c.FetchDetail(ctx, stub)
	if err != nil {
		return fmt.Errorf("detail fetch: %w", err)
	}

	contentText := detail.ContentText
	if contentText == "" {
		contentText = textutil.CleanHTML(detail.RawHTML)
	}
	if contentText == "" {
		stats.Skipped++
		log.WithField("title", stub.Title).Info("skipping article with empty content")
		return nil
	}

	contentSource := domain.ContentSourcePrimary
	var post *wechat.Post
	if s.secondaryEnabled && s.resolver != nil && c.SupportsSecondary() && detail.SecondaryURL != "" {
		post, err = s.resolver.ResolveWithRetry(ctx, detail.SecondaryURL)
		if err != nil {
			// The portal copy still gets persisted.
			log.WithError(err).WithField("url", detail.SecondaryURL).
				Warn("secondary resolution failed, keeping portal content")
			post = nil
		}
	}
	if post != nil && len(post.ContentText) > len(contentText) {
		contentText = post.ContentText
		contentSource = domain.ContentSourceSecondary
	}

	hash := textutil.CanonicalHash(contentText)

	// Active duplicate: nothing to do.
	if _, err := s.articles.FindActiveByHash(ctx, hash); err == nil {
		stats.Duplicates++
		log.WithField("title", stub.Title).Debug("skipping duplicate article")
		return nil
	} else if !errors.Is(err, repository.ErrArticleNotFound) {
		return fmt.Errorf("hash lookup: %w", err)
	}

	now := timeutil.Now()
	publishedAt := now
	if stub.PublishedAt != nil {
		publishedAt = *stub.PublishedAt
	}
	if post != nil && post.PublishedAt != nil {
		publishedAt = *post.PublishedAt
	}

	article := &domain.Article{
		Title:         stub.Title,
		Summary:       stub.Summary,
		Author:        stub.Author,
		SourceID:      sourceID,
		Category:      stub.Category,
		Tags:          stub.Tags,
		PublishedAt:   publishedAt,
		CrawledAt:     now,
		ContentURL:    stub.DetailURL,
		ContentText:   contentText,
		ContentSource: contentSource,
		StoragePrefix: fmt.Sprintf("article_%d", now.UnixMilli()),
		CanonicalHash: hash,
	}
	if post != nil {
		if stub.Summary == "" && post.Summary != "" {
			article.Summary = post.Summary
		}
		if len(stub.Tags) == 0 {
			article.Tags = post.Tags
		}
		article.SecondarySourceURL = &detail.SecondaryURL
		if post.ContentHTML != "" {
			html := post.ContentHTML
			article.SecondaryContentHTML = &html
		}
		if post.ContentText != "" {
			text := post.ContentText
			article.SecondaryContentText = &text
		}
	}

	// Soft-deleted twin: revive the existing row instead of inserting a new
	// one. Its id, version, and storage prefix survive, but everything the
	// fresh crawl resolved overwrites the stale data.
	if deleted, err := s.articles.FindDeletedByHash(ctx, hash); err == nil {
		reviveInto(deleted, article)
		if err := s.articles.Update(ctx, deleted); err != nil {
			return fmt.Errorf("revive article: %w", err)
		}
		stats.Revived++
		log.WithField(logger.FieldArticleID, deleted.ID).Info("revived soft-deleted article")
		return nil
	} else if !errors.Is(err, repository.ErrArticleNotFound) {
		return fmt.Errorf("deleted hash lookup: %w", err)
	}

	if err := s.articles.Create(ctx, article); err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	stats.Inserted++

	s.archiveBlobs(ctx, article, detail, post)

	log.WithFields(logger.Fields{
		logger.FieldArticleID: article.ID,
		"content_source":      article.ContentSource,
	}).Info("ingested article")
	return nil
}

// reviveInto copies the fresh crawl's mutable fields onto a soft-deleted row
// and clears the deletion flag. The row keeps its id, canonical hash, version,
// creation time, and storage prefix (the archived blobs hold the same content).
func reviveInto(dst, fresh *domain.Article) {
	dst.Title = fresh.Title
	dst.Summary = fresh.Summary
	dst.Author = fresh.Author
	dst.SourceID = fresh.SourceID
	dst.Category = fresh.Category
	dst.Tags = fresh.Tags
	dst.PublishedAt = fresh.PublishedAt
	dst.CrawledAt = fresh.CrawledAt
	dst.ContentURL = fresh.ContentURL
	dst.ContentText = fresh.ContentText
	dst.ContentSource = fresh.ContentSource
	dst.SecondarySourceURL = fresh.SecondarySourceURL
	dst.SecondaryContentHTML = fresh.SecondaryContentHTML
	dst.SecondaryContentText = fresh.SecondaryContentText
	dst.IsDeleted = false
}

// archiveBlobs writes the article's raw and cleaned blobs. Storage failures
// are logged but never fail the ingest; the row is already the source of truth.
func (s *IngestService) archiveBlobs(ctx context.Context, article *domain.Article, detail *crawler.Detail, post *wechat.Post) {
	log := logger.FromContext(ctx).WithField(logger.FieldArticleID, article.ID)
	prefix := article.StoragePrefix

	if detail.RawHTML != "" {
		key := prefix + "/original.html"
		if err := s.store.UploadText(ctx, s.bucketRaw, key, detail.RawHTML); err != nil {
			log.WithError(err).Warn("failed to archive original html")
		}
	}
	if article.ContentText != "" {
		key := prefix + "/cleaned.txt"
		if err := s.store.UploadText(ctx, s.bucketClean, key, article.ContentText); err != nil {
			log.WithError(err).Warn("failed to archive cleaned text")
		}
	}
	if post != nil && post.ContentHTML != "" {
		key := prefix + "/secondary.html"
		if err := s.store.UploadText(ctx, s.bucketAttach, key, textutil.SanitizeHTML(post.ContentHTML)); err != nil {
			log.WithError(err).Warn("failed to archive secondary html")
		}
	}
}
