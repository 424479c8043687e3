package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiaot623/algostream/internal/adapter/explainer"
	"github.com/xiaot623/algostream/internal/adapter/tracegen"
	"github.com/xiaot623/algostream/internal/config"
	"github.com/xiaot623/algostream/internal/hub"
	internalhttp "github.com/xiaot623/algostream/internal/http"
	"github.com/xiaot623/algostream/internal/policy"
	"github.com/xiaot623/algostream/internal/repository"
	"github.com/xiaot623/algostream/internal/service"
	"github.com/xiaot623/algostream/internal/telemetry"
	"github.com/xiaot623/algostream/internal/ws"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if cfg.LogLevel == "debug" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	log.Printf("Starting algostream relay...")
	log.Printf("HTTP Port: %d", cfg.Port)
	log.Printf("Trace generator URL: %s", cfg.TraceGeneratorURL)
	log.Printf("Explainer provider: %s", cfg.ExplainerProvider)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize journal
	journal, err := repository.NewSQLiteJournal(cfg.JournalDSN)
	if err != nil {
		log.Fatalf("Failed to open journal: %v", err)
	}
	defer journal.Close()

	// Initialize collaborators
	var gen tracegen.Generator
	if cfg.Mode == explainer.ModeMock {
		log.Println("INFO: using mock trace generator")
		gen = tracegen.NewMockClient()
	} else {
		gen = tracegen.NewClient(cfg.TraceGeneratorURL, cfg.TraceTimeout)
	}

	expl, err := explainer.New(explainer.Options{
		Mode:       cfg.Mode,
		Provider:   cfg.ExplainerProvider,
		BaseURL:    cfg.ExplainerURL,
		Timeout:    cfg.ExplainTimeout,
		APIKey:     cfg.AnthropicAPIKey,
		Model:      cfg.AnthropicModel,
		RatePerSec: cfg.ExplainRatePerSec,
		Burst:      cfg.ExplainBurst,
	})
	if err != nil {
		log.Fatalf("Failed to create explainer: %v", err)
	}

	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to create policy engine: %v", err)
	}

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	svc := service.New(repository.NewMemoryStore(), journal, gen, expl, policyEngine, metrics, cfg)

	// Initialize hub
	connectionHub := hub.NewHub()
	go connectionHub.Run(ctx)

	wsServer := ws.NewServer(cfg, connectionHub, svc)
	httpServer := internalhttp.NewServer(svc, connectionHub, wsServer)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	log.Printf("HTTP server started on port %d", cfg.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down algostream...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown HTTP server gracefully: %v", err)
	}
	stop()

	log.Println("algostream stopped")
}
