package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"arqv-backend/cmd"
	"arqv-backend/internal/api"
	"arqv-backend/internal/attachments"
	backendconfig "arqv-backend/internal/config"
	"arqv-backend/internal/core"
	"arqv-backend/internal/database"
	"arqv-backend/internal/messaging"
	"arqv-backend/internal/progress"
	"arqv-backend/internal/reports"
	"arqv-backend/internal/search"
	"arqv-backend/internal/storage"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Local mode runs the API and the analysis worker in one process, backed by
// a sqlite file and an in-memory task queue. Only Redis (for task status and
// the search cache) is still external.
type Config struct {
	Root     string `env:"ROOT" envDefault:"./arqv-data"`
	Port     int    `env:"PORT" envDefault:"3001"`
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL"`
	GroqAPIKey   string `env:"GROQ_API_KEY"`
	GroqModel    string `env:"GROQ_MODEL"`

	GoogleSearchKey string `env:"GOOGLE_SEARCH_KEY"`
	GoogleSearchCx  string `env:"GOOGLE_CSE_ID"`
	SerperAPIKey    string `env:"SERPER_API_KEY"`

	PdfServiceURL string `env:"PDF_SERVICE_URL"`
}

func createDatabase(root string) *gorm.DB {
	path := filepath.Join(root, "db", "arqv.db")
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.GetMigrator(db).Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func createServer(service *api.BackendService, port int) *http.Server {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	service.AddRoutes(r)

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
}

func main() {
	cmd.LoadEnvFile()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db := createDatabase(cfg.Root)

	rdb, err := cmd.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	store, err := storage.NewLocalObjectStore(filepath.Join(cfg.Root, "uploads"))
	if err != nil {
		log.Fatalf("Failed to create object store: %v", err)
	}

	shared := &backendconfig.Config{
		GeminiAPIKey:    cfg.GeminiAPIKey,
		GeminiModel:     cfg.GeminiModel,
		GroqAPIKey:      cfg.GroqAPIKey,
		GroqModel:       cfg.GroqModel,
		GoogleSearchKey: cfg.GoogleSearchKey,
		GoogleSearchCx:  cfg.GoogleSearchCx,
		SerperAPIKey:    cfg.SerperAPIKey,
	}

	ctx := context.Background()

	aiManager := cmd.CreateAiManager(ctx, shared)
	searchManager := cmd.CreateSearchManager(rdb, shared)

	pipeline := core.NewPipeline(db, aiManager, searchManager, search.NewExtractor())
	progressStore := progress.NewStore(rdb, 0)
	queue := messaging.NewInMemoryQueue()

	var pdf *reports.PdfRenderer
	if cfg.PdfServiceURL != "" {
		pdf = reports.NewPdfRenderer(cfg.PdfServiceURL)
	}

	service := api.NewBackendService(
		db,
		queue,
		progressStore,
		pipeline,
		attachments.NewService(db, store),
		pdf,
		aiManager,
		searchManager,
	)

	processor := core.NewTaskProcessor(pipeline, progressStore, queue)
	go processor.Start()

	server := createServer(service, cfg.Port)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		processor.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("Local server listening on port %d", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.Port, err)
	}

	log.Println("Server stopped.")
}
