package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/topiclens/topiclens-backend/internal/data/repos"
	"github.com/topiclens/topiclens-backend/internal/db"
	"github.com/topiclens/topiclens-backend/internal/handlers"
	"github.com/topiclens/topiclens-backend/internal/jobs/discovery"
	"github.com/topiclens/topiclens-backend/internal/jobs/runtime"
	"github.com/topiclens/topiclens-backend/internal/jobs/worker"
	"github.com/topiclens/topiclens-backend/internal/platform/envutil"
	"github.com/topiclens/topiclens-backend/internal/platform/logger"
	"github.com/topiclens/topiclens-backend/internal/platform/openai"
	"github.com/topiclens/topiclens-backend/internal/server"
	"github.com/topiclens/topiclens-backend/internal/services"
	"github.com/topiclens/topiclens-backend/internal/sse"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	pg := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	collectionRepo := repos.NewCollectionRepo(pg, log)
	documentRepo := repos.NewDocumentRepo(pg, log)
	embeddingRepo := repos.NewDocumentEmbeddingRepo(pg, log)
	topicRepo := repos.NewTopicRepo(pg, log)
	assignmentRepo := repos.NewDocumentTopicRepo(pg, log)
	relationshipRepo := repos.NewTopicRelationshipRepo(pg, log)
	insightRepo := repos.NewTopicInsightRepo(pg, log)
	jobRunRepo := repos.NewJobRunRepo(pg, log)

	// AI client
	aiClient, err := openai.NewClient(log)
	if err != nil {
		log.Fatal("Could not init OpenAI client", "error", err)
	}

	// SSE
	sseHub := sse.NewSSEHub(log)
	notifier := services.NewJobNotifier(sseHub)

	// Services
	log.Info("Setting up services...")
	collectionService := services.NewCollectionService(log, collectionRepo, documentRepo)
	documentService := services.NewDocumentService(log, collectionRepo, documentRepo, embeddingRepo, aiClient)
	discoveryService := services.NewDiscoveryService(log, collectionRepo, jobRunRepo, notifier)
	topicService := services.NewTopicService(log, collectionRepo, topicRepo, assignmentRepo, documentRepo, relationshipRepo, insightRepo, aiClient)

	// Job worker
	registry := runtime.NewRegistry()
	if err := registry.Register(discovery.New(
		pg, log,
		collectionRepo, documentRepo, embeddingRepo,
		topicRepo, assignmentRepo, relationshipRepo, insightRepo,
		aiClient,
	)); err != nil {
		log.Fatal("Could not register discovery pipeline", "error", err)
	}
	jobWorker := worker.NewWorker(pg, log, jobRunRepo, registry, notifier)
	jobWorker.Start(context.Background())

	// Handlers
	log.Info("Setting up handlers...")
	collectionHandler := handlers.NewCollectionHandler(collectionService, discoveryService)
	documentHandler := handlers.NewDocumentHandler(documentService, discoveryService)
	topicHandler := handlers.NewTopicHandler(topicService)
	jobsHandler := handlers.NewJobsHandler(discoveryService)
	sseHandler := handlers.NewSSEHandler(sseHub)

	router := server.NewRouter(server.RouterConfig{
		CollectionHandler: collectionHandler,
		DocumentHandler:   documentHandler,
		TopicHandler:      topicHandler,
		JobsHandler:       jobsHandler,
		SSEHandler:        sseHandler,
	})

	port := envutil.String("PORT", "8080")
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server failed", "error", err)
	}
}
