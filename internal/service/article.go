package service

import (
	"context"

	"github.com/timmy/pharmanews/internal/domain"
	"github.com/timmy/pharmanews/internal/logger"
	"github.com/timmy/pharmanews/internal/repository"
)

// ArticleService exposes article reads and admin mutations on top of the
// repository, plus on-demand AI analysis.
type ArticleService struct {
	articles *repository.ArticleRepository
	ai       *AIService
}

// NewArticleService creates the article service.
func NewArticleService(articles *repository.ArticleRepository, ai *AIService) *ArticleService {
	return &ArticleService{articles: articles, ai: ai}
}

// List returns a filtered page of articles with the total count.
func (s *ArticleService) List(ctx context.Context, filter repository.ArticleFilter) ([]domain.Article, int64, error) {
	return s.articles.List(ctx, filter)
}

// Get fetches one article by id.
func (s *ArticleService) Get(ctx context.Context, id uint) (*domain.Article, error) {
	return s.articles.GetByID(ctx, id)
}

// Categories lists the distinct categories of active articles.
func (s *ArticleService) Categories(ctx context.Context) ([]string, error) {
	return s.articles.Categories(ctx)
}

// Delete soft-deletes one article.
func (s *ArticleService) Delete(ctx context.Context, id uint) error {
	return s.articles.SoftDelete(ctx, id)
}

// DeleteBatch soft-deletes several articles, returning how many changed.
func (s *ArticleService) DeleteBatch(ctx context.Context, ids []uint) (int64, error) {
	return s.articles.SoftDeleteBatch(ctx, ids)
}

// ArticleUpdate carries the editable metadata fields; nil means unchanged.
type ArticleUpdate struct {
	Title    *string
	Summary  *string
	Category *string
	Tags     []string
	Lang     *string
}

// Update edits an article's metadata and bumps its version so stored AI
// outputs for the old version read as stale.
func (s *ArticleService) Update(ctx context.Context, id uint, upd ArticleUpdate) (*domain.Article, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		article.Title = *upd.Title
	}
	if upd.Summary != nil {
		article.Summary = *upd.Summary
	}
	if upd.Category != nil {
		article.Category = *upd.Category
	}
	if upd.Tags != nil {
		article.Tags = upd.Tags
	}
	if upd.Lang != nil {
		article.Lang = *upd.Lang
	}
	article.VersionNo++

	if err := s.articles.Update(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// Summarize returns an AI summary for the article, generating and storing a
// new one when none exists for the article's current version.
func (s *ArticleService) Summarize(ctx context.Context, id uint) (*domain.ArticleAIOutput, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing, err := s.articles.LatestAIOutput(ctx, id); err == nil && existing.VersionNo == article.VersionNo {
		return existing, nil
	}

	summary, err := s.ai.Summarize(ctx, article.Title, article.Author, article.ContentText)
	if err != nil {
		return nil, err
	}

	output := &domain.ArticleAIOutput{
		ArticleID: article.ID,
		VersionNo: article.VersionNo,
		Summary:   summary,
		ModelName: s.ai.model,
	}
	if err := s.articles.SaveAIOutput(ctx, output); err != nil {
		logger.FromContext(ctx).WithError(err).
			WithField(logger.FieldArticleID, id).Warn("failed to store ai output")
	}
	return output, nil
}

// Translate renders the article body in the target language. When the
// original HTML body is stored the tag structure is preserved and only text
// nodes are translated; otherwise the plain text is translated. The returned
// format is "html" or "text" accordingly.
func (s *ArticleService) Translate(ctx context.Context, id uint, targetLang string) (content, format string, err error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}

	if article.SecondaryContentHTML != nil && *article.SecondaryContentHTML != "" {
		content, err = s.ai.TranslateHTML(ctx, *article.SecondaryContentHTML, targetLang)
		return content, "html", err
	}
	content, err = s.ai.Translate(ctx, article.ContentText, targetLang)
	return content, "text", err
}
