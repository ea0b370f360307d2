package service

import (
	"context"
	"errors"
	"testing"

	"github.com/timmy/pharmanews/internal/config"
	"github.com/timmy/pharmanews/internal/domain"
	"github.com/timmy/pharmanews/internal/repository"
	"github.com/timmy/pharmanews/internal/textutil"
	"github.com/timmy/pharmanews/internal/timeutil"
)

func TestCleanupPurgesExpiredArticles(t *testing.T) {
	db := newTestDB(t)
	store := newMemStore()
	articles := repository.NewArticleRepository(db)
	ctx := context.Background()

	expired := &domain.Article{
		Title:         "过期文章",
		PublishedAt:   timeutil.TodayStart(),
		ContentText:   "body",
		CanonicalHash: textutil.CanonicalHash("expired body"),
		StoragePrefix: "article_1",
		IsDeleted:     true,
	}
	if err := articles.Create(ctx, expired); err != nil {
		t.Fatal(err)
	}
	aged := timeutil.Now().AddDate(0, 0, -60)
	if err := db.Model(&domain.Article{}).Where("id = ?", expired.ID).
		UpdateColumn("updated_at", aged).Error; err != nil {
		t.Fatal(err)
	}

	fresh := &domain.Article{
		Title:         "新近删除",
		PublishedAt:   timeutil.TodayStart(),
		ContentText:   "body",
		CanonicalHash: textutil.CanonicalHash("fresh body"),
		StoragePrefix: "article_2",
		IsDeleted:     true,
	}
	if err := articles.Create(ctx, fresh); err != nil {
		t.Fatal(err)
	}

	for _, prefix := range []string{"article_1", "article_2"} {
		store.UploadText(ctx, testBucketRaw, prefix+"/original.html", "<html/>")
		store.UploadText(ctx, testBucketClean, prefix+"/cleaned.txt", "text")
		store.UploadText(ctx, testBucketAttach, prefix+"/secondary.html", "<div/>")
	}

	svc := NewCleanupService(articles, store,
		&config.StorageConfig{BucketRaw: testBucketRaw, BucketClean: testBucketClean, BucketAttachments: testBucketAttach},
		&config.CleanupConfig{RetentionDays: 30})

	purged, err := svc.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if purged != 1 {
		t.Fatalf("purged = %d, want 1", purged)
	}

	if _, err := articles.GetByID(ctx, expired.ID); !errors.Is(err, repository.ErrArticleNotFound) {
		t.Error("expired row survived the sweep")
	}
	if _, err := articles.GetByID(ctx, fresh.ID); err != nil {
		t.Error("fresh soft-deleted row must survive the sweep")
	}

	if store.has(testBucketRaw, "article_1/original.html") || store.has(testBucketClean, "article_1/cleaned.txt") ||
		store.has(testBucketAttach, "article_1/secondary.html") {
		t.Error("expired blobs not removed")
	}
	if !store.has(testBucketRaw, "article_2/original.html") || !store.has(testBucketAttach, "article_2/secondary.html") {
		t.Error("fresh blobs must remain")
	}
}
