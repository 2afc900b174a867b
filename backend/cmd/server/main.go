package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"mindmesh/backend/internal/adapter"
	"mindmesh/backend/internal/graph"
	"mindmesh/backend/internal/httpapi"
	"mindmesh/backend/internal/insights"
	"mindmesh/backend/internal/pipeline"
	"mindmesh/backend/internal/project"
	"mindmesh/backend/internal/store"
	"mindmesh/backend/pkg/config"
	"mindmesh/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting mindmesh API server...")

	ctx := context.Background()

	// Select the document store: Redis when configured and reachable,
	// otherwise the process-local in-memory fallback
	var documentStore store.Store
	if cfg.RedisConfigured() {
		redisStore, err := store.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-memory store", zap.Error(err))
			documentStore = store.NewMemoryStore()
		} else {
			defer redisStore.Close()
			documentStore = redisStore
			log.Info("Using Redis document store", zap.String("addr", cfg.RedisAddr))
		}
	} else {
		documentStore = store.NewMemoryStore()
		log.Info("Redis not configured, using in-memory store (cleared on restart)")
	}

	// Optional Neo4j graph mirror
	var mirror project.GraphMirror
	if cfg.Neo4jConfigured() {
		driver, err := neo4j.NewDriverWithContext(
			cfg.Neo4jURI,
			neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
		)
		if err != nil {
			log.Warn("Failed to create Neo4j driver, graph mirror disabled", zap.Error(err))
		} else if err := driver.VerifyConnectivity(ctx); err != nil {
			log.Warn("Neo4j unreachable, graph mirror disabled", zap.Error(err))
			_ = driver.Close(ctx)
		} else {
			m := graph.NewMirror(driver)
			defer m.Close()
			mirror = m
			log.Info("Neo4j graph mirror enabled", zap.String("uri", cfg.Neo4jURI))
		}
	}

	// Initialize dependencies
	llm := adapter.NewLLMAdapter(cfg.LiteLLMURL, cfg.OpenAIAPIKey, cfg.ModelID)
	tts := adapter.NewTTSAdapter(cfg.LiteLLMURL, cfg.OpenAIAPIKey, cfg.TTSModelID, cfg.TTSVoice)
	projects := project.NewService(documentStore, mirror)
	handlers := httpapi.New(pipeline.New(llm), insights.NewService(llm), tts, projects)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())
	router.Use(generationTimeout(cfg.GenerationTimeout))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	handlers.Register(router)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// generationTimeout bounds every request by the configured generation
// timeout; the pipeline stages observe the deadline through the request
// context.
func generationTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
