package api

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/pharmanews/internal/api/middleware"
	"github.com/timmy/pharmanews/internal/config"
	"github.com/timmy/pharmanews/internal/service"
)

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(
	cfg *config.ServerConfig,
	articles *service.ArticleService,
	tasks *service.CrawlTaskService,
	chat *service.ChatService,
) *gin.Engine {
	gin.SetMode(cfg.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(&cfg.CORS))

	r.GET("/health", Health)

	articleHandler := NewArticleHandler(articles)
	adminArticleHandler := NewAdminArticleHandler(articles)
	crawlerHandler := NewAdminCrawlerHandler(tasks)
	chatHandler := NewChatHandler(chat)

	apiGroup := r.Group("/api/v1")
	{
		apiGroup.GET("/articles", articleHandler.List)
		apiGroup.GET("/articles/categories", articleHandler.Categories)
		apiGroup.GET("/articles/:id", articleHandler.Get)
		apiGroup.POST("/articles/:id/summarize", articleHandler.Summarize)
		apiGroup.POST("/articles/:id/translate", articleHandler.Translate)

		apiGroup.POST("/chat/sessions", chatHandler.CreateSession)
		apiGroup.GET("/chat/sessions/:id/messages", chatHandler.History)
		apiGroup.POST("/chat/sessions/:id/messages", chatHandler.Ask)
	}

	admin := apiGroup.Group("/admin")
	{
		admin.GET("/articles", adminArticleHandler.List)
		admin.PUT("/articles/:id", adminArticleHandler.Update)
		admin.DELETE("/articles/:id", adminArticleHandler.Delete)
		admin.POST("/articles/batch-delete", adminArticleHandler.DeleteBatch)

		admin.GET("/crawler/sources", crawlerHandler.Sources)
		admin.GET("/crawler/status", crawlerHandler.Status)
		admin.GET("/crawler/logs", crawlerHandler.Logs)
		admin.POST("/crawler/tasks", crawlerHandler.CreateTask)
		admin.GET("/crawler/tasks", crawlerHandler.ListTasks)
		admin.GET("/crawler/tasks/:id", crawlerHandler.GetTask)
		admin.POST("/crawler/tasks/:id/cancel", crawlerHandler.CancelTask)
	}

	return r
}
