package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecoboleta/backend/config"
	httpDelivery "github.com/ecoboleta/backend/internal/delivery/http"
	"github.com/ecoboleta/backend/internal/domain"
	"github.com/ecoboleta/backend/internal/infrastructure/cache"
	"github.com/ecoboleta/backend/internal/infrastructure/embedding"
	"github.com/ecoboleta/backend/internal/infrastructure/llm"
	"github.com/ecoboleta/backend/internal/infrastructure/logging"
	"github.com/ecoboleta/backend/internal/infrastructure/postgres"
	"github.com/ecoboleta/backend/internal/infrastructure/qdrant"
	"github.com/ecoboleta/backend/internal/infrastructure/taxonomy"
	"github.com/ecoboleta/backend/internal/usecase"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "ecoboleta-backend",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Type).
		Msg("starting EcoBoleta backend v1.0.0")

	doc, err := taxonomy.Load(cfg.Taxonomy.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Taxonomy.Path).Msg("failed to load master taxonomy")
	}
	logger.Info().
		Str("version", doc.Version).
		Int("subcategories", doc.Taxonomy.Len()).
		Msg("master taxonomy loaded")

	// Initialize infrastructure dependencies
	embeddingCache, closeCache := newCache(ctx, cfg.Cache, logger)
	defer closeCache()

	embeddingClient, err := embedding.NewClient(embedding.Config{
		APIKey:            cfg.Embedding.APIKey,
		BaseURL:           cfg.Embedding.BaseURL,
		Model:             cfg.Embedding.Model,
		Dimension:         cfg.Embedding.Dimension,
		Timeout:           cfg.Embedding.Timeout,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		MaxAttempts:       cfg.Embedding.MaxAttempts,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create embedding client")
	}

	vectorStore := qdrant.NewClient(qdrant.Config{
		BaseURL: cfg.Vector.BaseURL,
		APIKey:  cfg.Vector.APIKey,
		Timeout: cfg.Vector.Timeout,
	}, logger)

	chat := llm.NewClient(llm.Config{
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
	}, logger)

	// Initialize usecase layer
	gateway := usecase.NewEmbeddingGateway(embeddingClient, embeddingCache, cfg.Cache.TTL, logger)
	normalizer := usecase.NewCategoryNormalizer(doc.Taxonomy, usecase.DefaultSynonymTables())
	validator := usecase.NewCO2Validator(chat, cfg.LLM.Temperature, logger)

	matcher := usecase.NewProductMatcher(gateway, vectorStore, normalizer, validator, usecase.ProductMatcherConfig{
		SimilarityThreshold: cfg.Matching.SimilarityThreshold,
	}, logger)
	inferrer := usecase.NewCategoryInferenceService(chat, normalizer, cfg.LLM.Temperature, logger)
	recommender := usecase.NewRecommendationEngine(gateway, vectorStore, usecase.RecommendationConfig{
		SameRetailerThreshold:  cfg.Matching.RecommendationThreshold,
		CrossRetailerThreshold: cfg.Matching.CrossRetailerThreshold,
	}, logger)

	detector := usecase.NewSupermarketDetector(cfg.Matching.DefaultCollection)
	classifier := usecase.NewImpactClassifier(doc.Taxonomy, doc.Overrides)

	pipeline := usecase.NewBoletaPipeline(
		detector,
		matcher,
		inferrer,
		recommender,
		usecase.NewUnitNormalizer(usecase.DefaultUnitWeightTable()),
		classifier,
		doc.Taxonomy,
		usecase.PipelineConfig{
			MaxWorkers:           cfg.Matching.MaxWorkers,
			ValidateCO2:          cfg.Matching.ValidateCO2,
			SearchOtherRetailers: cfg.Matching.SearchOtherRetailers,
		},
		logger,
	)
	ingestor := usecase.NewCatalogIngestor(gateway, vectorStore, normalizer, embeddingClient.Dimension(), logger)

	logger.Info().
		Float64("similarity_threshold", matcher.Threshold()).
		Bool("validate_co2", cfg.Matching.ValidateCO2).
		Bool("search_other_retailers", cfg.Matching.SearchOtherRetailers).
		Int("max_workers", cfg.Matching.MaxWorkers).
		Msg("matching configured")

	services := httpDelivery.Services{
		Pipeline:    pipeline,
		Matcher:     matcher,
		Recommender: recommender,
		Normalizer:  normalizer,
		Inferrer:    inferrer,
		Classifier:  classifier,
		Detector:    detector,
		Ingestor:    ingestor,
	}

	if cfg.Database.URL != "" {
		pool, err := postgres.Connect(ctx, postgres.Config{
			URL:      cfg.Database.URL,
			MaxConns: cfg.Database.MaxConns,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		services.Receipts = postgres.NewReceiptRepository(pool)
	} else {
		logger.Warn().Msg("database url not set, receipts will not be stored")
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(services, logger)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newCache builds the embedding cache selected by configuration
func newCache(ctx context.Context, cfg config.CacheConfig, logger zerolog.Logger) (domain.CacheRepository, func()) {
	if cfg.Type == "redis" {
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: cfg.RedisURL, Prefix: "ecoboleta:"})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		return redisCache, func() { redisCache.Close() }
	}

	memoryCache := cache.NewMemoryCache(time.Minute)
	return memoryCache, func() { memoryCache.Close() }
}
