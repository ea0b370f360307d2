package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/timmy/pharmanews/internal/domain"
	"github.com/timmy/pharmanews/internal/timeutil"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	// The in-memory database lives per connection.
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		t.Fatal(err)
	}
	return db
}

func seedArticle(t *testing.T, repo *ArticleRepository, title, category, body string, published time.Time) *domain.Article {
	t.Helper()
	article := &domain.Article{
		Title:         title,
		Category:      category,
		ContentText:   body,
		PublishedAt:   published,
		CanonicalHash: fmt.Sprintf("%064s", title),
	}
	if err := repo.Create(context.Background(), article); err != nil {
		t.Fatal(err)
	}
	return article
}

func TestFindByHashSplitsActiveAndDeleted(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	active := seedArticle(t, repo, "active", "news", "a", timeutil.TodayStart())
	deleted := seedArticle(t, repo, "deleted", "news", "b", timeutil.TodayStart())
	if err := repo.SoftDelete(ctx, deleted.ID); err != nil {
		t.Fatal(err)
	}

	got, err := repo.FindActiveByHash(ctx, active.CanonicalHash)
	if err != nil || got.ID != active.ID {
		t.Fatalf("FindActiveByHash: %v, %v", got, err)
	}
	if _, err := repo.FindActiveByHash(ctx, deleted.CanonicalHash); !errors.Is(err, ErrArticleNotFound) {
		t.Errorf("deleted row should be invisible to FindActiveByHash, got %v", err)
	}

	got, err = repo.FindDeletedByHash(ctx, deleted.CanonicalHash)
	if err != nil || got.ID != deleted.ID {
		t.Fatalf("FindDeletedByHash: %v, %v", got, err)
	}
	if _, err := repo.FindDeletedByHash(ctx, active.CanonicalHash); !errors.Is(err, ErrArticleNotFound) {
		t.Errorf("active row should be invisible to FindDeletedByHash, got %v", err)
	}
}

func TestUniqueHashConstraint(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	seedArticle(t, repo, "first", "news", "a", timeutil.TodayStart())
	dup := &domain.Article{
		Title:         "second",
		PublishedAt:   timeutil.TodayStart(),
		CanonicalHash: fmt.Sprintf("%064s", "first"),
	}
	if err := repo.Create(context.Background(), dup); err == nil {
		t.Error("expected unique constraint violation for duplicate hash")
	}
}

func TestListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	today := timeutil.TodayStart()
	seedArticle(t, repo, "阿尔茨海默新药进展", "前沿研究", "body1", today)
	seedArticle(t, repo, "集采政策解读", "政策", "body2", today.AddDate(0, 0, -3))
	old := seedArticle(t, repo, "旧闻", "政策", "body3", today.AddDate(0, 0, -40))
	if err := repo.SoftDelete(ctx, old.ID); err != nil {
		t.Fatal(err)
	}

	items, total, err := repo.List(ctx, ArticleFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("default list: total=%d len=%d, want 2/2", total, len(items))
	}
	if items[0].Title != "阿尔茨海默新药进展" {
		t.Errorf("expected newest first, got %q", items[0].Title)
	}

	_, total, err = repo.List(ctx, ArticleFilter{Keyword: "集采"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("keyword filter: total=%d, want 1", total)
	}

	_, total, err = repo.List(ctx, ArticleFilter{Category: "政策"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("category filter excludes deleted: total=%d, want 1", total)
	}

	_, total, err = repo.List(ctx, ArticleFilter{IncludeDeleted: true})
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Errorf("include_deleted: total=%d, want 3", total)
	}

	from := today.AddDate(0, 0, -1)
	_, total, err = repo.List(ctx, ArticleFilter{DateFrom: &from})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("date filter: total=%d, want 1", total)
	}
}

func TestListPagination(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	base := timeutil.TodayStart()
	for i := 0; i < 5; i++ {
		seedArticle(t, repo, fmt.Sprintf("article-%d", i), "news", "b", base.AddDate(0, 0, -i))
	}

	items, total, err := repo.List(ctx, ArticleFilter{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(items) != 2 || items[0].Title != "article-2" {
		t.Errorf("page 2 = %v", items)
	}
}

func TestSoftDeleteBatch(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	a := seedArticle(t, repo, "a", "news", "b", timeutil.TodayStart())
	b := seedArticle(t, repo, "b", "news", "b", timeutil.TodayStart())

	changed, err := repo.SoftDeleteBatch(ctx, []uint{a.ID, b.ID, 9999})
	if err != nil {
		t.Fatal(err)
	}
	if changed != 2 {
		t.Errorf("changed = %d, want 2", changed)
	}

	// Repeating is a no-op.
	changed, err = repo.SoftDeleteBatch(ctx, []uint{a.ID})
	if err != nil {
		t.Fatal(err)
	}
	if changed != 0 {
		t.Errorf("second delete changed %d rows, want 0", changed)
	}

	if err := repo.SoftDelete(ctx, 12345); !errors.Is(err, ErrArticleNotFound) {
		t.Errorf("deleting a missing row: got %v, want ErrArticleNotFound", err)
	}
}

func TestListDeletedBeforeAndHardDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	expired := seedArticle(t, repo, "expired", "news", "b", timeutil.TodayStart())
	if err := repo.SoftDelete(ctx, expired.ID); err != nil {
		t.Fatal(err)
	}
	// Age the row past the cutoff.
	aged := timeutil.Now().AddDate(0, 0, -45)
	if err := db.Model(&domain.Article{}).Where("id = ?", expired.ID).
		UpdateColumn("updated_at", aged).Error; err != nil {
		t.Fatal(err)
	}

	fresh := seedArticle(t, repo, "fresh", "news", "b", timeutil.TodayStart())
	if err := repo.SoftDelete(ctx, fresh.ID); err != nil {
		t.Fatal(err)
	}

	cutoff := timeutil.Now().AddDate(0, 0, -30)
	rows, err := repo.ListDeletedBefore(ctx, cutoff, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID != expired.ID {
		t.Fatalf("expected only the aged row, got %v", rows)
	}

	if err := repo.HardDelete(ctx, expired.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetByID(ctx, expired.ID); !errors.Is(err, ErrArticleNotFound) {
		t.Errorf("hard-deleted row still readable: %v", err)
	}
}

func TestCategories(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	seedArticle(t, repo, "a", "前沿研究", "b", timeutil.TodayStart())
	seedArticle(t, repo, "b", "前沿研究", "b", timeutil.TodayStart())
	seedArticle(t, repo, "c", "政策", "b", timeutil.TodayStart())
	d := seedArticle(t, repo, "d", "已删分类", "b", timeutil.TodayStart())
	if err := repo.SoftDelete(ctx, d.ID); err != nil {
		t.Fatal(err)
	}

	categories, err := repo.Categories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(categories) != 2 {
		t.Errorf("categories = %v, want 2 distinct active categories", categories)
	}
}
