package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/repolens/reviewserver/internal/config"
	"github.com/repolens/reviewserver/internal/database"
	"github.com/repolens/reviewserver/internal/handlers"
	"github.com/repolens/reviewserver/internal/logger"
	"github.com/repolens/reviewserver/internal/queue"
	"github.com/repolens/reviewserver/internal/repository"
	"github.com/repolens/reviewserver/internal/router"
	"github.com/repolens/reviewserver/internal/services"
)

func main() {

	ctx := context.Background()

	// Load application configuration
	cfg := config.New()
	log.Println("Configuration loaded successfully")

	// Initialize structured logging
	logger.Init(cfg.LogLevel)

	// Initialize database configuration
	dbConfig := database.NewConfig(cfg)

	log.Printf("Initializing DynamoDB client for table: %s in region: %s", dbConfig.TableName, dbConfig.Region)

	// Create DynamoDB client
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to initialize DynamoDB client: %v", err)
	}

	log.Println("DynamoDB client initialized successfully")

	// Initialize database operations
	reviewDB := database.NewReviewOperations(dbClient, cfg.ReviewsTableName)

	// Initialize repositories
	reviewRepo := repository.NewReviewRepository(reviewDB)
	log.Println("Repositories initialized with DynamoDB backend")

	// Initialize LLM service
	llmService := services.NewLLMService(cfg)
	log.Println("LLM service initialized")

	// Initialize pipeline service
	pipelineService := services.NewPipelineService(reviewRepo, llmService)
	log.Println("Pipeline service initialized")

	// Initialize job queue
	jobQueue := queue.NewJobQueue(cfg.QueueSize)
	log.Println("Job queue initialized")

	// Initialize worker pool
	workerPool := queue.NewWorkerPool(jobQueue, cfg.Workers)
	log.Printf("Worker pool created with %d concurrent workers", cfg.Workers)

	// Start workers
	workerPool.Start(func(job *queue.ReviewJob) error {
		return pipelineService.ExecuteReview(ctx, job)
	})
	log.Println("Review workers started")

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	reviewHandler := handlers.NewReviewHandler(reviewRepo, jobQueue)
	log.Println("Handlers initialized")

	// Setup router
	r := router.Setup(healthHandler, reviewHandler, cfg.AuthDisabled)

	// Setup graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down server gracefully...")

		// Close job queue to stop accepting new jobs
		jobQueue.Close()
		log.Println("Job queue closed, waiting for workers to finish...")

		// Wait for workers to finish processing current jobs
		workerPool.Wait()
		log.Println("All workers stopped")

		os.Exit(0)
	}()

	// Start server
	log.Printf("Starting server on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
