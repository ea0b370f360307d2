package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/timmy/pharmanews/internal/repository"
	"github.com/timmy/pharmanews/internal/service"
	"github.com/timmy/pharmanews/internal/timeutil"
)

// ArticleHandler serves the public article read endpoints.
type ArticleHandler struct {
	articles *service.ArticleService
}

// NewArticleHandler creates the public article handler.
func NewArticleHandler(articles *service.ArticleService) *ArticleHandler {
	return &ArticleHandler{articles: articles}
}

// List handles GET /api/v1/articles.
func (h *ArticleHandler) List(c *gin.Context) {
	filter, err := parseArticleFilter(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.articles.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list articles")
		return
	}
	ok(c, PageData{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize})
}

// Get handles GET /api/v1/articles/:id.
func (h *ArticleHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid article id")
		return
	}

	article, err := h.articles.Get(c.Request.Context(), id)
	if errors.Is(err, repository.ErrArticleNotFound) {
		fail(c, http.StatusNotFound, "article not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to load article")
		return
	}
	ok(c, article)
}

// Categories handles GET /api/v1/articles/categories.
func (h *ArticleHandler) Categories(c *gin.Context) {
	categories, err := h.articles.Categories(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list categories")
		return
	}
	ok(c, categories)
}

// Summarize handles POST /api/v1/articles/:id/summarize.
func (h *ArticleHandler) Summarize(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid article id")
		return
	}

	output, err := h.articles.Summarize(c.Request.Context(), id)
	switch {
	case errors.Is(err, repository.ErrArticleNotFound):
		fail(c, http.StatusNotFound, "article not found")
	case errors.Is(err, service.ErrAINotConfigured):
		fail(c, http.StatusServiceUnavailable, "ai service is not configured")
	case err != nil:
		fail(c, http.StatusInternalServerError, "failed to summarize article")
	default:
		ok(c, output)
	}
}

// Translate handles POST /api/v1/articles/:id/translate.
func (h *ArticleHandler) Translate(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid article id")
		return
	}

	var req struct {
		TargetLang string `json:"target_lang"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || (req.TargetLang != "en" && req.TargetLang != "zh") {
		fail(c, http.StatusBadRequest, "target_lang must be en or zh")
		return
	}

	content, format, err := h.articles.Translate(c.Request.Context(), id, req.TargetLang)
	switch {
	case errors.Is(err, repository.ErrArticleNotFound):
		fail(c, http.StatusNotFound, "article not found")
	case errors.Is(err, service.ErrAINotConfigured):
		fail(c, http.StatusServiceUnavailable, "ai service is not configured")
	case err != nil:
		fail(c, http.StatusInternalServerError, "failed to translate article")
	default:
		ok(c, gin.H{"target_lang": req.TargetLang, "format": format, "content": content})
	}
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func parseArticleFilter(c *gin.Context) (repository.ArticleFilter, error) {
	filter := repository.ArticleFilter{
		Keyword:       c.Query("keyword"),
		Category:      c.Query("category"),
		ContentSource: c.Query("content_source"),
		Page:          intQuery(c, "page", 1),
		PageSize:      intQuery(c, "page_size", 20),
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}

	if from := c.Query("from_date"); from != "" {
		t, err := timeutil.ParseDate(from)
		if err != nil {
			return filter, errors.New("invalid from_date, want YYYY-MM-DD")
		}
		filter.DateFrom = &t
	}
	if to := c.Query("to_date"); to != "" {
		t, err := timeutil.ParseDate(to)
		if err != nil {
			return filter, errors.New("invalid to_date, want YYYY-MM-DD")
		}
		end := timeutil.EndOfDay(t)
		filter.DateTo = &end
	}
	return filter, nil
}

func intQuery(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(fallback)))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
