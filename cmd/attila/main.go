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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/asedra/attila/internal/api"
	"github.com/asedra/attila/internal/atlassian"
	"github.com/asedra/attila/internal/chat"
	"github.com/asedra/attila/internal/config"
	"github.com/asedra/attila/internal/functions"
	"github.com/asedra/attila/internal/hub"
	"github.com/asedra/attila/internal/openai"
	"github.com/asedra/attila/internal/policy"
	"github.com/asedra/attila/internal/registry"
	"github.com/asedra/attila/internal/store"
	"github.com/asedra/attila/internal/ws"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting attila backend...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseDSN)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize OpenAI client
	provider := openai.NewClient(cfg.SettingsPath, cfg.OpenAIAPIKey, cfg.LLMTimeout)

	// Initialize Atlassian clients
	jira := atlassian.NewJiraClient(cfg.JiraInstanceURL, cfg.JiraUserEmail, cfg.JiraAPIKey)
	confluence := atlassian.NewConfluenceClient(cfg.ConfluenceURL, cfg.ConfluenceUsername, cfg.ConfluenceAPIKey)

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize services
	fns := functions.NewService(db, jira, confluence, policyEngine)
	connections := hub.New()
	orchestrator := chat.NewOrchestrator(registry.New(), provider)

	// Initialize handlers
	h := api.NewHandler(db, provider, provider, fns, connections, jira, confluence)
	wsServer := ws.NewServer(cfg, connections, orchestrator)

	// Create Echo server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Register routes
	h.RegisterRoutes(e)
	wsServer.RegisterRoutes(e)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down attila backend...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Backend stopped")
}
