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

	"meal-analyze-service/analyzer"
	"meal-analyze-service/config"
	"meal-analyze-service/database"
	"meal-analyze-service/handlers"
	"meal-analyze-service/llm"
	"meal-analyze-service/metrics"
	"meal-analyze-service/middleware"
	"meal-analyze-service/openai"
	"meal-analyze-service/stubllm"
)

func main() {
	cfg := config.Load()

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	if cfg.OpenAIAPIKey == "" && cfg.LLMProvider != "stub" {
		log.Warn("OPENAI_API_KEY is not set; requests must carry the X-OpenAI-Key header")
	}

	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	var client llm.Client
	if cfg.LLMProvider == "stub" {
		client = stubllm.NewClient()
	} else {
		client = openai.NewClient()
	}
	log.Infof("Analyzer LLM provider=%s text=%s vision=%v", client.SourceName(), cfg.TextModel, cfg.VisionModels)

	analysisService := analyzer.NewService(cfg, client)
	h := handlers.NewHandlers(cfg, db, analysisService)

	metrics.Register()

	router := gin.Default()

	// CORS for the mobile/web capture clients
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+handlers.CredentialHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		analyze := api.Group("/analyze")
		analyze.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute, time.Minute))
		{
			analyze.POST("/text", h.AnalyzeText)
			analyze.POST("/photo", h.AnalyzePhoto)
			analyze.POST("/voice", h.AnalyzeVoice)
		}

		api.POST("/meals", h.CreateMeals)
		api.GET("/meals", h.ListMeals)
		api.DELETE("/meals/:id", h.DeleteMeal)

		api.GET("/summary/daily", h.DailySummary)
		api.GET("/summary/weekly", h.WeeklySummary)

		api.GET("/settings", h.GetSettings)
		api.PUT("/settings", h.UpdateSettings)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
