package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/sevketugurel/infinitum-agent-sub001/config"
	httpDelivery "github.com/sevketugurel/infinitum-agent-sub001/internal/delivery/http"
	"github.com/sevketugurel/infinitum-agent-sub001/internal/domain"
	"github.com/sevketugurel/infinitum-agent-sub001/internal/infrastructure/cache"
	"github.com/sevketugurel/infinitum-agent-sub001/internal/infrastructure/crawler"
	"github.com/sevketugurel/infinitum-agent-sub001/internal/infrastructure/gemini"
	"github.com/sevketugurel/infinitum-agent-sub001/internal/infrastructure/postgres"
	"github.com/sevketugurel/infinitum-agent-sub001/internal/infrastructure/serpapi"
	"github.com/sevketugurel/infinitum-agent-sub001/internal/usecase"
)

func main() {
	// .env is optional; real deployments use environment variables
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Infinitum Agent v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	ctx := context.Background()

	// Infrastructure dependencies
	crawlerClient := crawler.NewClient(cfg.Crawler.RenderURL)
	searchClient := serpapi.NewClient(cfg.SerpAPI.APIKey, cfg.SerpAPI.BaseURL)

	if cfg.Server.Environment == "development" {
		crawlerClient.SetDebug(true)
		searchClient.SetDebug(true)
	}

	geminiClient, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}
	defer geminiClient.Close()
	log.Printf("Gemini model: %s", cfg.Gemini.Model)

	if cfg.SerpAPI.APIKey != "" {
		log.Printf("SerpAPI configured: %s", cfg.SerpAPI.BaseURL)
	} else {
		log.Printf("WARNING: SerpAPI key not configured - search calls will fail!")
	}

	searchCache := cache.NewSearchCache(cfg.Cache.TTL)
	log.Printf("Search cache TTL: %s", cfg.Cache.TTL)

	// Snapshot persistence is optional
	var store domain.SnapshotRepository
	if cfg.Database.URL != "" {
		snapshotStore, err := postgres.NewSnapshotStore(ctx, cfg.Database.URL)
		if err != nil {
			log.Printf("WARNING: snapshot store disabled: %v", err)
		} else {
			defer snapshotStore.Close()
			store = snapshotStore
			log.Printf("Snapshot store connected")
		}
	} else {
		log.Printf("Snapshot store disabled (no database URL)")
	}

	// Usecase layer
	extractor := usecase.NewExtractionService(crawlerClient, geminiClient, usecase.ExtractionConfig{
		PrimaryTimeout:   cfg.Crawler.PrimaryTimeout,
		SecondaryTimeout: cfg.Crawler.SecondaryTimeout,
		SyncBudget:       cfg.Crawler.SyncBudget,
	})

	searchService := usecase.NewSearchService(searchClient, extractor, searchCache, store, usecase.SearchServiceConfig{})

	// HTTP delivery
	handler := httpDelivery.NewHandler(searchService, extractor, store)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
