package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/pharmanews/internal/crawler"
	"github.com/timmy/pharmanews/internal/domain"
	"github.com/timmy/pharmanews/internal/repository"
	"github.com/timmy/pharmanews/internal/service"
)

// AdminCrawlerHandler serves the crawler control endpoints.
type AdminCrawlerHandler struct {
	tasks *service.CrawlTaskService
}

// NewAdminCrawlerHandler creates the crawler admin handler.
func NewAdminCrawlerHandler(tasks *service.CrawlTaskService) *AdminCrawlerHandler {
	return &AdminCrawlerHandler{tasks: tasks}
}

// Sources handles GET /api/v1/admin/crawler/sources.
func (h *AdminCrawlerHandler) Sources(c *gin.Context) {
	type sourceInfo struct {
		Key               string `json:"key"`
		Name              string `json:"name"`
		BaseURL           string `json:"base_url"`
		SupportsSecondary bool   `json:"supports_secondary"`
	}

	adapters := crawler.List()
	sources := make([]sourceInfo, 0, len(adapters))
	for _, a := range adapters {
		sources = append(sources, sourceInfo{
			Key:               a.Name(),
			Name:              a.DisplayName(),
			BaseURL:           a.BaseURL(),
			SupportsSecondary: a.SupportsSecondary(),
		})
	}
	ok(c, sources)
}

// CreateTask handles POST /api/v1/admin/crawler/tasks.
func (h *AdminCrawlerHandler) CreateTask(c *gin.Context) {
	var params service.TaskParams
	if err := c.ShouldBindJSON(&params); err != nil {
		fail(c, http.StatusBadRequest, "invalid task parameters")
		return
	}

	task, err := h.tasks.Submit(c.Request.Context(), params)
	if errors.Is(err, service.ErrTaskAlreadyRunning) {
		fail(c, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ok(c, task)
}

// ListTasks handles GET /api/v1/admin/crawler/tasks.
func (h *AdminCrawlerHandler) ListTasks(c *gin.Context) {
	status := domain.TaskStatus(c.Query("status"))
	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "page_size", 20)

	tasks, total, err := h.tasks.ListTasks(c.Request.Context(), status, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	ok(c, PageData{Items: tasks, Total: total, Page: page, PageSize: pageSize})
}

// GetTask handles GET /api/v1/admin/crawler/tasks/:id.
func (h *AdminCrawlerHandler) GetTask(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid task id")
		return
	}

	task, err := h.tasks.GetTask(c.Request.Context(), id)
	if errors.Is(err, repository.ErrTaskNotFound) {
		fail(c, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to load task")
		return
	}
	ok(c, task)
}

// Status handles GET /api/v1/admin/crawler/status.
func (h *AdminCrawlerHandler) Status(c *gin.Context) {
	snapshot, err := h.tasks.Status(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "failed to read crawler status")
		return
	}
	ok(c, snapshot)
}

// Logs handles GET /api/v1/admin/crawler/logs.
func (h *AdminCrawlerHandler) Logs(c *gin.Context) {
	ok(c, h.tasks.Logs())
}

// CancelTask handles POST /api/v1/admin/crawler/tasks/:id/cancel. Running tasks
// cannot be interrupted, so this reports 501 for them.
func (h *AdminCrawlerHandler) CancelTask(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid task id")
		return
	}

	err = h.tasks.Cancel(c.Request.Context(), id)
	switch {
	case errors.Is(err, service.ErrCancelUnsupported):
		fail(c, http.StatusNotImplemented, err.Error())
	case errors.Is(err, service.ErrTaskNotRunning):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrTaskNotFound):
		fail(c, http.StatusNotFound, "task not found")
	case err != nil:
		fail(c, http.StatusInternalServerError, "failed to cancel task")
	default:
		ok(c, nil)
	}
}
