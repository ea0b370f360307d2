package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/pharmanews/internal/repository"
	"github.com/timmy/pharmanews/internal/service"
)

// AdminArticleHandler serves the admin article management endpoints.
type AdminArticleHandler struct {
	articles *service.ArticleService
}

// NewAdminArticleHandler creates the admin article handler.
func NewAdminArticleHandler(articles *service.ArticleService) *AdminArticleHandler {
	return &AdminArticleHandler{articles: articles}
}

// List handles GET /api/v1/admin/articles. Unlike the public listing it can
// include soft-deleted rows.
func (h *AdminArticleHandler) List(c *gin.Context) {
	filter, err := parseArticleFilter(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	filter.IncludeDeleted = c.Query("include_deleted") == "true"

	items, total, err := h.articles.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list articles")
		return
	}
	ok(c, PageData{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize})
}

// Delete handles DELETE /api/v1/admin/articles/:id (soft delete).
func (h *AdminArticleHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid article id")
		return
	}

	err = h.articles.Delete(c.Request.Context(), id)
	if errors.Is(err, repository.ErrArticleNotFound) {
		fail(c, http.StatusNotFound, "article not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to delete article")
		return
	}
	ok(c, nil)
}

// Update handles PUT /api/v1/admin/articles/:id (metadata edit).
func (h *AdminArticleHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid article id")
		return
	}

	var req struct {
		Title    *string  `json:"title"`
		Summary  *string  `json:"summary"`
		Category *string  `json:"category"`
		Tags     []string `json:"tags"`
		Lang     *string  `json:"lang"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	article, err := h.articles.Update(c.Request.Context(), id, service.ArticleUpdate{
		Title:    req.Title,
		Summary:  req.Summary,
		Category: req.Category,
		Tags:     req.Tags,
		Lang:     req.Lang,
	})
	if errors.Is(err, repository.ErrArticleNotFound) {
		fail(c, http.StatusNotFound, "article not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to update article")
		return
	}
	ok(c, article)
}

// DeleteBatch handles POST /api/v1/admin/articles/batch-delete.
func (h *AdminArticleHandler) DeleteBatch(c *gin.Context) {
	var req struct {
		IDs []uint `json:"ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "ids is required")
		return
	}

	deleted, err := h.articles.DeleteBatch(c.Request.Context(), req.IDs)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to delete articles")
		return
	}
	ok(c, gin.H{"deleted": deleted})
}
