// @title           GenMedia Backend API
// @version         1.0.0
// @description     Webhook ingestion for AI media generations: verifies provider deliveries, stores outputs permanently and dispatches video post-processing.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the service role JWT.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"genmedia-backend/docs"
	"genmedia-backend/internal/config"
	"genmedia-backend/internal/database"
	"genmedia-backend/internal/dedup"
	"genmedia-backend/internal/events"
	"genmedia-backend/internal/fal"
	"genmedia-backend/internal/ffmpeg"
	"genmedia-backend/internal/handlers"
	"genmedia-backend/internal/logger"
	"genmedia-backend/internal/middleware"
	"genmedia-backend/internal/services"
	"genmedia-backend/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if baseURL, err := url.Parse(cfg.BaseURL); err == nil && baseURL.Host != "" {
		docs.SwaggerInfo.Host = baseURL.Host
		if baseURL.Scheme == "https" {
			docs.SwaggerInfo.Schemes = []string{"https", "http"}
		} else {
			docs.SwaggerInfo.Schemes = []string{"http", "https"}
		}
	}

	// --- Storage layers ---
	store, err := supabase.NewGenerationStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer store.Close()

	if cfg.RunMigrations {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := database.NewMigrator(store.DB(), log).Run(ctx)
		cancel()
		if err != nil {
			log.Fatal("Migrations failed", zap.Error(err))
		}
	}

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatal("Failed to initialize Supabase client", zap.Error(err))
	}
	profiles := supabase.NewProfileStore(supabaseClient)
	storage := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, cfg.SupabaseStorageBucket)

	deduplicator, closeDedup := setupDedup(cfg, log)
	defer closeDedup()

	publisher, closeBroker := setupPublisher(cfg, log)
	defer closeBroker()

	// --- Pipeline ---
	keys := fal.NewCachedKeySource(fal.NewJWKSClient(cfg.FalJWKSURL), cfg.FalJWKSCacheTTL)
	verifier := fal.NewVerifier(keys, cfg.WebhookTimestampTolerance)

	materializer := services.NewMaterializer(
		fal.NewDownloader(cfg.DownloadTimeout),
		storage,
		cfg.MaterializeConcurrency,
		log,
	)

	var processingClient services.ProcessingClient
	if cfg.FFmpegServiceURL != "" {
		processingClient = ffmpeg.NewClient(cfg.FFmpegServiceURL, cfg.SupabaseServiceRoleKey, cfg.UseEdgeFunctionEndpoints)
	}
	dispatcher := services.NewDispatcher(processingClient, profiles, store, services.DispatcherConfig{
		Enabled:    cfg.PostProcessingEnabled(),
		WebhookURL: cfg.ProcessingWebhookURL,
		Timeout:    cfg.DispatchTimeout,
	}, log)

	webhookService := services.NewWebhookService(verifier, deduplicator, store, materializer, dispatcher, publisher, log)
	processingService := services.NewProcessingService(store, publisher, log)

	webhookHandler := handlers.NewWebhookHandler(webhookService, log)
	processingHandler := handlers.NewProcessingWebhookHandler(processingService, log)

	// --- HTTP ---
	router := gin.New()
	router.Use(middleware.RequestLogger(log))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	router.GET("/health", handlers.HealthHandler)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api/v1")
	{
		webhooks := api.Group("/webhooks")
		webhooks.POST("/fal", webhookHandler.HandleFalWebhook)
		webhooks.OPTIONS("/fal", handlers.Preflight)

		webhooks.GET("/processing", processingHandler.Info)
		webhooks.OPTIONS("/processing", handlers.Preflight)
		webhooks.POST("/processing", middleware.ServiceRoleAuth(cfg), processingHandler.HandleCallback)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
			zap.Bool("post_processing", cfg.PostProcessingEnabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server listen error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// In-flight webhooks finish their dispatch before the process exits
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.DispatchTimeout+10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exiting")
}

// setupDedup picks the Redis deduplicator when REDIS_URL is set so that
// replicas share one window.
func setupDedup(cfg *config.Config, log *zap.Logger) (dedup.Deduplicator, func()) {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, deduplicating in process memory")
		return dedup.NewMemoryDeduplicator(cfg.WebhookDedupWindow), func() {}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal("Invalid REDIS_URL", zap.Error(err))
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis ping failed, dedup will fail open until it recovers", zap.Error(err))
	} else {
		log.Info("Connected to Redis")
	}

	return dedup.NewRedisDeduplicator(client, "", cfg.WebhookDedupWindow), func() { _ = client.Close() }
}

func setupPublisher(cfg *config.Config, log *zap.Logger) (events.Publisher, func()) {
	if cfg.RabbitMQURL == "" {
		return events.NopPublisher{}, func() {}
	}

	conn, err := connectRabbitMQ(cfg.RabbitMQURL, log)
	if err != nil {
		log.Error("RabbitMQ unavailable, lifecycle events disabled", zap.Error(err))
		return events.NopPublisher{}, func() {}
	}

	publisher, err := events.NewRabbitMQPublisher(conn, cfg.RabbitMQExchange, log)
	if err != nil {
		_ = conn.Close()
		log.Error("Failed to create event publisher", zap.Error(err))
		return events.NopPublisher{}, func() {}
	}
	return publisher, func() {
		_ = publisher.Close()
		_ = conn.Close()
	}
}

func connectRabbitMQ(uri string, log *zap.Logger) (*amqp091.Connection, error) {
	const maxRetries = 5
	const retryDelay = 2 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		conn, err := amqp091.Dial(uri)
		if err == nil {
			log.Info("Connected to RabbitMQ")
			return conn, nil
		}
		lastErr = err
		log.Warn("RabbitMQ connection failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, lastErr)
}
