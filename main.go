package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"document-classify-service/config"
	"document-classify-service/gemini"
	"document-classify-service/handlers"
	"document-classify-service/llm"
	"document-classify-service/metrics"
	"document-classify-service/middleware"
	"document-classify-service/session"
	"document-classify-service/stubllm"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	// Validate required configuration before any call is made
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Select the model provider
	var client llm.Client
	switch cfg.LLMProvider {
	case "stub":
		client = stubllm.NewClient()
	default:
		client = gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	log.WithFields(log.Fields{
		"provider": client.SourceName(),
		"model":    cfg.GeminiModel,
	}).Info("classifier provider selected")

	// Register metrics
	metrics.Register()

	// Initialize session manager
	sessions := session.NewManager(client, cfg.SessionTTL)
	sessions.StartJanitor()

	// Initialize handlers
	h := handlers.NewHandlers(sessions)

	// Setup HTTP server
	router := gin.Default()
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestLogger())

	router.GET("/", h.ServeIndex)
	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/document", h.UploadDocument)
		api.POST("/classify", h.Classify)
		api.GET("/state", h.GetState)
		api.GET("/preview", h.GetPreview)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.WithField("port", cfg.Port).Info("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	// Stop the session janitor
	sessions.Stop()

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("server exited")
}
