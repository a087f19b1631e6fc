package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/topiclens/topiclens-backend/internal/handlers"
)

type RouterConfig struct {
	CollectionHandler *handlers.CollectionHandler
	DocumentHandler   *handlers.DocumentHandler
	TopicHandler      *handlers.TopicHandler
	JobsHandler       *handlers.JobsHandler
	SSEHandler        *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/health", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Collections
		api.POST("/collections", cfg.CollectionHandler.Create)
		api.GET("/collections", cfg.CollectionHandler.List)
		api.GET("/collections/:id", cfg.CollectionHandler.Get)
		api.DELETE("/collections/:id", cfg.CollectionHandler.Delete)
		api.POST("/collections/:id/discover", cfg.CollectionHandler.Discover)
		// Documents
		api.POST("/collections/:id/documents", cfg.DocumentHandler.Add)
		api.GET("/collections/:id/documents", cfg.DocumentHandler.ListByCollection)
		api.GET("/documents/:id", cfg.DocumentHandler.Get)
		// Topics
		api.GET("/collections/:id/topics", cfg.TopicHandler.ListByCollection)
		api.GET("/collections/:id/topics/graph", cfg.TopicHandler.Graph)
		api.GET("/topics/:id", cfg.TopicHandler.Get)
		api.POST("/topics/:id/qa", cfg.TopicHandler.Answer)
		// Jobs
		api.GET("/jobs/:id", cfg.JobsHandler.GetJobByID)
		api.GET("/collections/:id/jobs/latest", cfg.JobsHandler.GetLatestForCollection)
		// SSE
		api.GET("/events", cfg.SSEHandler.Stream)
	}

	return router
}
