package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/eanfill/backend/config"
	httpDelivery "github.com/eanfill/backend/internal/delivery/http"
	"github.com/eanfill/backend/internal/infrastructure/openai"
	"github.com/eanfill/backend/internal/infrastructure/scraper"
	"github.com/eanfill/backend/internal/infrastructure/serpapi"
	"github.com/eanfill/backend/internal/infrastructure/upcitemdb"
	"github.com/eanfill/backend/internal/usecase"
)

func main() {
	// .env is optional; real deployments set environment variables directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting EANFill Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	if cfg.Pipeline.DisableExternal {
		log.Printf("WARNING: external calls disabled - every answer is the seeded record")
	}
	logAdapterState("upcitemdb", cfg.UPCItemDB.APIKey)
	logAdapterState("serpapi", cfg.Search.APIKey)
	logAdapterState("openai", cfg.OpenAI.APIKey)

	// Initialize source adapters
	lookupClient := upcitemdb.NewClient(cfg.UPCItemDB.APIKey, cfg.UPCItemDB.BaseURL, cfg.UPCItemDB.Timeout)
	searchClient := serpapi.NewClient(cfg.Search.APIKey, cfg.Search.BaseURL, cfg.Search.GoogleDomain, cfg.Search.Timeout)
	scrapeClient := scraper.NewClient(cfg.Scrape.Timeout, cfg.Scrape.UserAgent)
	refiner := openai.NewRefiner(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.Timeout)

	// Initialize usecase layer
	autofillService := usecase.NewAutofillService(
		lookupClient,
		searchClient,
		scrapeClient,
		refiner,
		usecase.AutofillServiceConfig{
			DisableExternal: cfg.Pipeline.DisableExternal,
		},
	)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(autofillService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func logAdapterState(name, apiKey string) {
	if apiKey == "" {
		log.Printf("[%s] no API key configured - adapter disabled", name)
		return
	}
	log.Printf("[%s] configured", name)
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
