package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "github.com/lib/pq"

	"github.com/reuniteapp/lostfound/internal/config"
	"github.com/reuniteapp/lostfound/internal/events"
	"github.com/reuniteapp/lostfound/internal/handlers"
	"github.com/reuniteapp/lostfound/internal/identity"
	"github.com/reuniteapp/lostfound/internal/middleware"
	"github.com/reuniteapp/lostfound/internal/posts"
	"github.com/reuniteapp/lostfound/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	if cfg.S3Bucket == "" {
		logger.Error("S3_BUCKET is required")
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if err := posts.EnsureSchema(ctx, db); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = &cfg.S3Endpoint
			o.UsePathStyle = true
		}
	})
	store := storage.NewS3Storage(s3Client, cfg.S3Bucket)

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		rmq, err := events.NewRabbitMQPublisher(cfg.RabbitMQURL)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer rmq.Close()
		publisher = rmq
	}

	repo := posts.NewPostgresRepository(db)
	svc := posts.NewService(repo, store, publisher, logger, cfg.S3Bucket, cfg.AWSRegion, cfg.PublicBaseURL)
	postsHandler := handlers.NewPostsHandler(svc, logger)
	resolver := identity.NewPostgresResolver(db)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handlers.Health(&handlers.HealthDeps{
		DB:          db,
		Storage:     store,
		RabbitMQURL: cfg.RabbitMQURL,
	}))
	mux.HandleFunc("POST /api/posts", postsHandler.Create())
	mux.HandleFunc("GET /api/posts", postsHandler.List())
	mux.HandleFunc("PUT /api/posts/{id}", postsHandler.Update())
	mux.HandleFunc("DELETE /api/posts/{id}", postsHandler.Delete())

	handler := middleware.RequestID(
		middleware.Logging(logger)(
			middleware.Auth(resolver, logger)(mux),
		),
	)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
