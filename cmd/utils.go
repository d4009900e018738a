package cmd

import (
	"context"
	"flag"
	"log"
	"log/slog"

	"arqv-backend/internal/ai"
	"arqv-backend/internal/config"
	"arqv-backend/internal/reports"
	"arqv-backend/internal/search"
	"arqv-backend/internal/storage"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

// CreateAiManager wires up every AI provider that has an API key configured.
// A manager with zero providers is still valid; the pipeline falls back to
// the static analysis document.
func CreateAiManager(ctx context.Context, cfg *config.Config) *ai.Manager {
	var providers []ai.Provider

	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("Failed to create Gemini provider: %v", err)
		}
		providers = append(providers, gemini)
	}

	if cfg.GroqAPIKey != "" {
		providers = append(providers, ai.NewGroqProvider(cfg.GroqAPIKey, cfg.GroqModel))
	}

	if len(providers) == 0 {
		slog.Warn("no AI providers configured, analyses will use the fallback document")
	}

	return ai.NewManager(providers...)
}

// CreateSearchManager wires the configured search providers, keyed ones
// first. DuckDuckGo needs no key and is always the last resort.
func CreateSearchManager(rdb *redis.Client, cfg *config.Config) *search.Manager {
	var providers []search.Provider

	if cfg.GoogleSearchKey != "" && cfg.GoogleSearchCx != "" {
		providers = append(providers, search.NewGoogleProvider(cfg.GoogleSearchKey, cfg.GoogleSearchCx))
	}
	if cfg.SerperAPIKey != "" {
		providers = append(providers, search.NewSerperProvider(cfg.SerperAPIKey))
	}
	providers = append(providers, search.NewDuckDuckGoProvider())

	return search.NewManager(search.NewQueryCache(rdb, 0), providers...)
}

// CreateObjectStore returns the S3 backed store when a bucket is configured,
// otherwise a local directory store.
func CreateObjectStore(cfg *config.Config) (storage.ObjectStore, error) {
	if cfg.UploadBucketName != "" {
		return storage.NewS3ObjectStore(storage.S3ClientConfig{
			Endpoint:        cfg.S3EndpointURL,
			Region:          cfg.S3Region,
			Bucket:          cfg.UploadBucketName,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	}

	return storage.NewLocalObjectStore(cfg.UploadDir)
}

// CreatePdfRenderer returns nil when no render service is configured; the
// API disables pdf downloads in that case.
func CreatePdfRenderer(cfg *config.Config) *reports.PdfRenderer {
	if cfg.PdfServiceURL == "" {
		return nil
	}
	return reports.NewPdfRenderer(cfg.PdfServiceURL)
}
