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

func TestArticleUpdateBumpsVersion(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewArticleRepository(db)
	svc := NewArticleService(repo, NewAIService(&config.AIConfig{}))
	ctx := context.Background()

	article := &domain.Article{
		Title:         "原标题",
		Category:      "政策",
		PublishedAt:   timeutil.TodayStart(),
		ContentText:   "body",
		CanonicalHash: textutil.CanonicalHash("update test body"),
	}
	if err := repo.Create(ctx, article); err != nil {
		t.Fatal(err)
	}

	newTitle := "改过的标题"
	updated, err := svc.Update(ctx, article.ID, ArticleUpdate{
		Title: &newTitle,
		Tags:  []string{"政策", "集采"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != newTitle {
		t.Errorf("title = %q", updated.Title)
	}
	if updated.Category != "政策" {
		t.Errorf("untouched field changed: %q", updated.Category)
	}
	if len(updated.Tags) != 2 {
		t.Errorf("tags = %v", updated.Tags)
	}
	if updated.VersionNo != 2 {
		t.Errorf("version = %d, want 2", updated.VersionNo)
	}

	if _, err := svc.Update(ctx, 9999, ArticleUpdate{Title: &newTitle}); !errors.Is(err, repository.ErrArticleNotFound) {
		t.Errorf("got %v, want ErrArticleNotFound", err)
	}
}

func TestSummarizeWithoutAIKey(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewArticleRepository(db)
	svc := NewArticleService(repo, NewAIService(&config.AIConfig{}))
	ctx := context.Background()

	article := &domain.Article{
		Title:         "文章",
		PublishedAt:   timeutil.TodayStart(),
		ContentText:   "body",
		CanonicalHash: textutil.CanonicalHash("summarize test body"),
	}
	if err := repo.Create(ctx, article); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Summarize(ctx, article.ID); !errors.Is(err, ErrAINotConfigured) {
		t.Errorf("got %v, want ErrAINotConfigured", err)
	}
}
