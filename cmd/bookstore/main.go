package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_bookstore/internal/auth"
	"github.com/fjod/go_bookstore/internal/cache"
	"github.com/fjod/go_bookstore/internal/config"
	"github.com/fjod/go_bookstore/internal/events"
	h "github.com/fjod/go_bookstore/internal/http"
	"github.com/fjod/go_bookstore/internal/logger"
	"github.com/fjod/go_bookstore/internal/repository"
	"github.com/fjod/go_bookstore/internal/service"
	"github.com/fjod/go_bookstore/internal/storage"
	"github.com/fjod/go_bookstore/internal/tracing"
	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional config file, environment values take precedence")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.Env, os.Stdout)
	zlog.Logger = log

	var traceOut io.Writer
	if cfg.TraceStdout {
		traceOut = os.Stdout
	}
	shutdownTracing, err := tracing.Init("bookstore", cfg.Env, traceOut)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init tracing")
	}

	// Root context for background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up MongoDB connection
	mongoDB, err := repository.ConnectMongoDB(ctx, repository.MongoOptions{
		URI:                    cfg.MongoURI,
		Database:               cfg.MongoDBName,
		AppName:                "bookstore",
		MaxPoolSize:            cfg.MongoMaxPoolSize,
		MinPoolSize:            cfg.MongoMinPoolSize,
		ConnectTimeout:         cfg.MongoConnectTimeout,
		ServerSelectionTimeout: cfg.MongoServerSelectionTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	log.Info().Str("database", cfg.MongoDBName).Msg("connected to MongoDB")

	if err := repository.RunMigrations(mongoDB); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// cart reads fall back to MongoDB on cache errors
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed, continuing without a warm cache")
	} else {
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis ping succeeded")
	}

	users := repository.NewMongoUserRepository(mongoDB)
	books := repository.NewMongoBookRepository(mongoDB)
	collections := repository.NewMongoCollectionRepository(mongoDB)

	var store storage.Store = storage.Disabled{}
	if cfg.GCSBucket != "" {
		gcs, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSEmulatorHost)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create storage client")
		}
		defer gcs.Close()
		store = storage.NewBreakerStore(gcs, cfg.StorageFailLimit, 30*time.Second, log)
	} else {
		log.Warn().Msg("GCS_BUCKET not set, uploads and signed reads are disabled")
	}

	publisher := events.NewKafkaPublisher(cfg.PurchaseTopic, cfg.Brokers()...)
	tokens := auth.NewTokenMaker(cfg.JWTSecret, cfg.TokenTTL)

	cartService := service.NewCartService(users, cache.NewRedisCache(redisClient, cfg.CartCacheTTL), books, log)
	authService := service.NewAuthService(users, tokens, log)
	catalogService := service.NewCatalogService(books, collections, log)
	adminService := service.NewAdminService(users, books, collections, log)
	purchaseService := service.NewPurchaseService(users, books, publisher, cartService, store, cfg.SignedURLTTL, log)
	uploadService := service.NewUploadService(store, log)

	if err := authService.BootstrapAdmin(ctx, cfg.BootstrapAdmin); err != nil {
		log.Error().Err(err).Msg("failed to bootstrap admin")
	}

	consumer := events.NewConsumer(
		events.NewKafkaReader(cfg.PurchaseTopic, cfg.ConsumerGroup, cfg.Brokers()...),
		cartService,
		log,
	)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		consumer.Run(ctx)
	}()

	router := h.NewRouter(h.RouterConfig{
		Verifier:           tokens,
		Logger:             log,
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}, h.Handlers{
		Cart:      h.NewCartHandler(cartService, cfg.RequestTimeout, log),
		Auth:      h.NewAuthHandler(authService, tokens.TTL(), cfg.SecureCookies, log),
		Books:     h.NewBookHandler(catalogService, log),
		Admin:     h.NewAdminHandler(adminService, uploadService, cfg.MaxUploadSize, log),
		Purchases: h.NewPurchaseHandler(purchaseService, log),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("bookstore starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	cancel()
	<-consumerDone
	consumer.Close()
	if err := publisher.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close publisher")
	}
	if err := redisClient.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close redis")
	}
	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to disconnect MongoDB")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to flush traces")
	}

	log.Info().Msg("server exited")
}
