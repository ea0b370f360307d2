package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/timmy/pharmanews/internal/domain"
)

// ErrArticleNotFound is returned when an article lookup matches no row.
var ErrArticleNotFound = errors.New("article not found")

// ArticleFilter narrows article listings. Zero values mean "no filter".
type ArticleFilter struct {
	Keyword        string
	Category       string
	ContentSource  string
	SourceID       uint
	DateFrom       *time.Time
	DateTo         *time.Time
	IncludeDeleted bool

	Page     int
	PageSize int
}

// ArticleRepository handles persistence of articles and their AI outputs.
type ArticleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(db *gorm.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// Create inserts a new article row.
func (r *ArticleRepository) Create(ctx context.Context, article *domain.Article) error {
	return r.db.WithContext(ctx).Create(article).Error
}

// Update persists all fields of an existing article.
func (r *ArticleRepository) Update(ctx context.Context, article *domain.Article) error {
	return r.db.WithContext(ctx).Save(article).Error
}

// GetByID fetches one article by primary key.
func (r *ArticleRepository) GetByID(ctx context.Context, id uint) (*domain.Article, error) {
	var article domain.Article
	err := r.db.WithContext(ctx).First(&article, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// FindActiveByHash returns the non-deleted article with the given canonical
// hash, or ErrArticleNotFound.
func (r *ArticleRepository) FindActiveByHash(ctx context.Context, hash string) (*domain.Article, error) {
	var article domain.Article
	err := r.db.WithContext(ctx).
		Where("canonical_hash = ? AND is_deleted = ?", hash, false).
		First(&article).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// FindDeletedByHash returns the soft-deleted article with the given canonical
// hash, or ErrArticleNotFound.
func (r *ArticleRepository) FindDeletedByHash(ctx context.Context, hash string) (*domain.Article, error) {
	var article domain.Article
	err := r.db.WithContext(ctx).
		Where("canonical_hash = ? AND is_deleted = ?", hash, true).
		First(&article).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// List returns a page of articles matching the filter, newest published first,
// together with the total matching count.
func (r *ArticleRepository) List(ctx context.Context, filter ArticleFilter) ([]domain.Article, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Article{})

	if !filter.IncludeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where("title LIKE ? OR summary LIKE ?", like, like)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.ContentSource != "" {
		query = query.Where("content_source = ?", filter.ContentSource)
	}
	if filter.SourceID != 0 {
		query = query.Where("source_id = ?", filter.SourceID)
	}
	if filter.DateFrom != nil {
		query = query.Where("published_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("published_at <= ?", *filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	var articles []domain.Article
	err := query.
		Order("published_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&articles).Error
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// SoftDelete marks one article deleted. Returns ErrArticleNotFound when the
// row does not exist or is already deleted.
func (r *ArticleRepository) SoftDelete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Article{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrArticleNotFound
	}
	return nil
}

// SoftDeleteBatch marks the given articles deleted and returns how many rows
// actually changed.
func (r *ArticleRepository) SoftDeleteBatch(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&domain.Article{}).
		Where("id IN ? AND is_deleted = ?", ids, false).
		Update("is_deleted", true)
	return res.RowsAffected, res.Error
}

// ListDeletedBefore returns soft-deleted articles whose last update is older
// than the cutoff. Used by the retention sweep.
func (r *ArticleRepository) ListDeletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Article, error) {
	var articles []domain.Article
	query := r.db.WithContext(ctx).
		Where("is_deleted = ? AND updated_at < ?", true, cutoff).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

// HardDelete removes an article row permanently.
func (r *ArticleRepository) HardDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Article{}, id).Error
}

// Categories returns the distinct categories of active articles.
func (r *ArticleRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&domain.Article{}).
		Where("is_deleted = ? AND category <> ''", false).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// SearchByKeywords returns active articles whose title or content matches any
// of the keywords, newest first. Used by chat retrieval.
func (r *ArticleRepository) SearchByKeywords(ctx context.Context, keywords []string, limit int) ([]domain.Article, error) {
	if limit <= 0 {
		limit = 5
	}
	query := r.db.WithContext(ctx).
		Model(&domain.Article{}).
		Where("is_deleted = ?", false)

	if len(keywords) > 0 {
		sub := r.db.Session(&gorm.Session{NewDB: true})
		cond := sub.Where("1 = 0")
		for _, kw := range keywords {
			like := "%" + kw + "%"
			cond = cond.Or(sub.Where("title LIKE ? OR summary LIKE ? OR content_text LIKE ?", like, like, like))
		}
		query = query.Where(cond)
	}

	var articles []domain.Article
	err := query.
		Order("published_at DESC").
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, err
	}
	return articles, nil
}

// SaveAIOutput stores one AI analysis row for an article.
func (r *ArticleRepository) SaveAIOutput(ctx context.Context, output *domain.ArticleAIOutput) error {
	return r.db.WithContext(ctx).Create(output).Error
}

// LatestAIOutput returns the most recent AI output for an article, or
// ErrArticleNotFound when none exists.
func (r *ArticleRepository) LatestAIOutput(ctx context.Context, articleID uint) (*domain.ArticleAIOutput, error) {
	var output domain.ArticleAIOutput
	err := r.db.WithContext(ctx).
		Where("article_id = ?", articleID).
		Order("created_at DESC").
		First(&output).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &output, nil
}
