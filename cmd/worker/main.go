package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"arqv-backend/cmd"
	backendconfig "arqv-backend/internal/config"
	"arqv-backend/internal/core"
	"arqv-backend/internal/database"
	"arqv-backend/internal/messaging"
	"arqv-backend/internal/progress"
	"arqv-backend/internal/search"
)

func main() {
	log.Println("Starting Worker Process...")

	cfg, err := backendconfig.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	rdb, err := cmd.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	ctx := context.Background()

	aiManager := cmd.CreateAiManager(ctx, cfg)
	searchManager := cmd.CreateSearchManager(rdb, cfg)

	pipeline := core.NewPipeline(db, aiManager, searchManager, search.NewExtractor())
	progressStore := progress.NewStore(rdb, 0)

	concurrency := cfg.WorkerConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var wg sync.WaitGroup
	processors := make([]*core.TaskProcessor, 0, concurrency)

	for i := 0; i < concurrency; i++ {
		reciever, err := messaging.NewRedisReceiver(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to create task receiver: %v", err)
		}

		processor := core.NewTaskProcessor(pipeline, progressStore, reciever)
		processors = append(processors, processor)

		wg.Add(1)
		go func() {
			defer wg.Done()
			processor.Start()
		}()
	}

	log.Printf("Worker started with %d consumers. Waiting for tasks. Press Ctrl+C to exit.", concurrency)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutdown signal received, stopping consumers...")

	for _, processor := range processors {
		processor.Stop()
	}
	wg.Wait()

	log.Println("Worker process stopped.")
}
