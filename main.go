package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lmk-backend/config"
	"lmk-backend/database"
	"lmk-backend/email"
	"lmk-backend/handlers"
	"lmk-backend/metrics"
	"lmk-backend/middleware"
	"lmk-backend/openai"
	"lmk-backend/osm"
	"lmk-backend/service"
	"lmk-backend/websocket"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	cfg := config.Load()
	log.SetLevelFromString(cfg.LogLevel)

	if cfg.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	metrics.Register()

	// Live updates for the map view
	hub := websocket.NewHub()
	go hub.Run()

	// Report emails are optional
	var mailer *email.Sender
	if cfg.SendGridAPIKey != "" {
		mailer = email.NewSender(cfg)
	}

	llmClient := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.OpenAIVisionModel)
	log.Infof("Completion provider=%s model=%s vision=%s", llmClient.SourceName(), cfg.OpenAIModel, cfg.OpenAIVisionModel)

	svc := service.New(cfg, db, llmClient, hub, mailer)
	h := handlers.NewHandlers(db, svc, osm.NewClient())
	wsHandler := handlers.NewWebSocketHandler(hub)

	// Setup HTTP server
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/posts", h.GetPosts)
		api.GET("/posts/:id/image", h.GetPostImage)
		api.GET("/geocode", h.Geocode)
		api.POST("/posts", middleware.AuthMiddleware([]byte(cfg.JWTSecret)), h.CreatePost)
		api.POST("/hazard-report", h.GenerateHazardReport)
	}
	router.GET("/ws/posts", wsHandler.ListenPosts)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
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
